package nextbus

import "encoding/xml"

type Body struct {
	XMLName xml.Name `xml:"body"`

	Error *FeedError `xml:"Error"`

	Vehicles    []Vehicle     `xml:"vehicle"`
	LastTime    *LastTime     `xml:"lastTime"`
	Routes      []Route       `xml:"route"`
	Predictions []Predictions `xml:"predictions"`
}

type FeedError struct {
	ShouldRetry bool   `xml:"shouldRetry,attr"`
	Message     string `xml:",chardata"`
}

type LastTime struct {
	Time int64 `xml:"time,attr"`
}

// Vehicle attributes are kept as strings so a single bad record can be
// skipped without failing the whole document.
type Vehicle struct {
	ID              string `xml:"id,attr"`
	RouteTag        string `xml:"routeTag,attr"`
	DirTag          string `xml:"dirTag,attr"`
	Lat             string `xml:"lat,attr"`
	Lon             string `xml:"lon,attr"`
	SecsSinceReport string `xml:"secsSinceReport,attr"`
	Predictable     string `xml:"predictable,attr"`
	Heading         string `xml:"heading,attr"`
}

type Route struct {
	Tag   string `xml:"tag,attr"`
	Title string `xml:"title,attr"`

	Stops      []RouteStop      `xml:"stop"`
	Directions []RouteDirection `xml:"direction"`
	Paths      []RoutePath      `xml:"path"`
}

type RouteStop struct {
	Tag    string `xml:"tag,attr"`
	Title  string `xml:"title,attr"`
	Lat    string `xml:"lat,attr"`
	Lon    string `xml:"lon,attr"`
	StopID string `xml:"stopId,attr"`
}

type RouteDirection struct {
	Tag      string      `xml:"tag,attr"`
	Title    string      `xml:"title,attr"`
	Name     string      `xml:"name,attr"`
	UseForUI string      `xml:"useForUI,attr"`
	Stops    []RouteStop `xml:"stop"`
}

type RoutePath struct {
	Tags []struct {
		ID string `xml:"id,attr"`
	} `xml:"tag"`
	Points []struct {
		Lat string `xml:"lat,attr"`
		Lon string `xml:"lon,attr"`
	} `xml:"point"`
}

type Predictions struct {
	RouteTag   string `xml:"routeTag,attr"`
	RouteTitle string `xml:"routeTitle,attr"`
	StopTag    string `xml:"stopTag,attr"`
	StopTitle  string `xml:"stopTitle,attr"`

	Directions []struct {
		Title       string       `xml:"title,attr"`
		Predictions []Prediction `xml:"prediction"`
	} `xml:"direction"`
}

type Prediction struct {
	Seconds     string `xml:"seconds,attr"`
	Minutes     string `xml:"minutes,attr"`
	EpochTime   string `xml:"epochTime,attr"`
	IsDeparture string `xml:"isDeparture,attr"`
	DirTag      string `xml:"dirTag,attr"`
	Vehicle     string `xml:"vehicle,attr"`
	TripTag     string `xml:"tripTag,attr"`
}

// RouteSummary is one entry of the routeList command.
type RouteSummary struct {
	Tag   string `json:"tag"`
	Title string `json:"title"`
}
