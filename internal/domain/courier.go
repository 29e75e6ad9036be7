package domain

// CourierStatus represents the current status of a courier.
type CourierStatus string

const (
	CourierStatusAvailable CourierStatus = "AVAILABLE"
	CourierStatusBusy      CourierStatus = "BUSY"
	CourierStatusOffline   CourierStatus = "OFFLINE"
)

// Courier represents a delivery courier in the system.
type Courier struct {
	ID              string
	Name            string
	Phone           string
	Status          CourierStatus
	Rating          float64
	TotalDeliveries int
}
