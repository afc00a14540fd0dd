package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidSample is wrapped by every validation failure.
var ErrInvalidSample = errors.New("invalid sample")

// Sample is one reading reported by the vehicle sensor board.
type Sample struct {
	Voltage     float64  `json:"voltage"`
	Current     float64  `json:"current"`
	Temperature float64  `json:"temperature"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	SOH         *float64 `json:"soh,omitempty"`
}

// HistoryEntry is a stored sample with its receive time.
type HistoryEntry struct {
	ID        int64     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
	Sample
}

// SampleInput is the wire shape of POST /data; pointers detect absent fields.
type SampleInput struct {
	Voltage     *float64 `json:"voltage"`
	Current     *float64 `json:"current"`
	Temperature *float64 `json:"temperature"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	SOH         *float64 `json:"soh,omitempty"`
}

// Validate checks that every required field is present and finite.
func (in SampleInput) Validate() error {
	fields := []struct {
		name  string
		value *float64
	}{
		{"voltage", in.Voltage},
		{"current", in.Current},
		{"temperature", in.Temperature},
		{"latitude", in.Latitude},
		{"longitude", in.Longitude},
	}
	for _, f := range fields {
		if f.value == nil {
			return fmt.Errorf("%w: %s is required", ErrInvalidSample, f.name)
		}
		if math.IsNaN(*f.value) || math.IsInf(*f.value, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidSample, f.name)
		}
	}
	if *in.Latitude < -90 || *in.Latitude > 90 {
		return fmt.Errorf("%w: latitude out of range [-90, 90]", ErrInvalidSample)
	}
	if *in.Longitude < -180 || *in.Longitude > 180 {
		return fmt.Errorf("%w: longitude out of range [-180, 180]", ErrInvalidSample)
	}
	if in.SOH != nil && (*in.SOH < 0 || *in.SOH > 100) {
		return fmt.Errorf("%w: soh out of range [0, 100]", ErrInvalidSample)
	}
	return nil
}

// Sample converts a validated input. Call Validate first.
func (in SampleInput) Sample() Sample {
	return Sample{
		Voltage:     *in.Voltage,
		Current:     *in.Current,
		Temperature: *in.Temperature,
		Latitude:    *in.Latitude,
		Longitude:   *in.Longitude,
		SOH:         in.SOH,
	}
}
