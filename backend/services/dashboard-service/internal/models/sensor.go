package models

import "errors"

// ErrEmptyResult marks a valid response that carries no sample yet.
var ErrEmptyResult = errors.New("no data yet")

// SensorSample is the latest reading reported by the vehicle.
type SensorSample struct {
	Voltage     float64  `json:"voltage"`
	Current     float64  `json:"current"`
	Temperature float64  `json:"temperature"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	SOH         *float64 `json:"soh,omitempty"`
}

// HistoricalSample is a stored reading. Coordinates are optional in history payloads.
type HistoricalSample struct {
	Timestamp   string   `json:"timestamp"`
	Voltage     float64  `json:"voltage"`
	Current     float64  `json:"current"`
	Temperature float64  `json:"temperature"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}
