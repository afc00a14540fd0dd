package models

// Station is a charging station shown to the driver.
type Station struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Location    string   `json:"location"`
	DistanceKm  float64  `json:"distance"`
	PowerKw     float64  `json:"power"`
	PowerLabel  string   `json:"powerLabel"`
	Connectors  []string `json:"connectors"`
	Slots       int      `json:"slots"`
	PricePerKwh float64  `json:"price"`
	Address     string   `json:"address"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
}
