package ctdf

type Arrival struct {
	Minutes    int    `json:"minutes"`
	RouteLabel string `json:"route"`
	Headsign   string `json:"headsign"`

	TransportType TransportType `json:"type"`
}
