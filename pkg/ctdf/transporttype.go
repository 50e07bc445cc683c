package ctdf

type TransportType string

const (
	TransportTypeBus    TransportType = "Bus"
	TransportTypeSubway TransportType = "Subway"
)
