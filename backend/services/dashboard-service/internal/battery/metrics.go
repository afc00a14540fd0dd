// Package battery derives the battery status shown to the driver from the latest
// sensor sample and the simulated battery state.
package battery

import (
	"errors"
	"fmt"
	"math"

	"evsense/backend/services/dashboard-service/internal/models"
)

const (
	// CapacityKwh is the assumed usable pack capacity.
	CapacityKwh = 60.0
	// KmPerPercent converts state of charge to range.
	KmPerPercent = 3.2
	// ChargingCurrentThreshold is the current above which the pack counts as charging.
	ChargingCurrentThreshold = 0.5
	// LowBatterySOC and MediumBatterySOC bound the status bands.
	LowBatterySOC    = 20
	MediumBatterySOC = 60
	// OverheatCelsius is the temperature above which a healthy pack is flagged.
	OverheatCelsius = 45.0

	// dashboardPowerScale turns measured charging speed into the power used for time-to-target estimates.
	dashboardPowerScale = 10
)

// ErrNoChargingPower is returned when a charge time is requested for a non-positive power.
var ErrNoChargingPower = errors.New("battery: charging power must be positive")

// Status is the headline battery condition.
type Status string

const (
	StatusNormal        Status = "Normal"
	StatusMediumBattery Status = "MediumBattery"
	StatusLowBattery    Status = "LowBattery"
	StatusOverheating   Status = "Overheating"
)

// SimState is the simulated part of the battery model.
type SimState struct {
	SOC       int     `json:"soc"`
	SOH       float64 `json:"soh"`
	DTEJitter float64 `json:"dteJitter"`
}

// Ranges estimates distance to empty per driving mode, in km.
type Ranges struct {
	Eco    int `json:"eco"`
	Normal int `json:"normal"`
	Sport  int `json:"sport"`
}

// BatteryStatus is the derived view published after every state change.
type BatteryStatus struct {
	SOC             int     `json:"soc"`
	SOH             float64 `json:"soh"`
	Temperature     float64 `json:"temperature"`
	Voltage         float64 `json:"voltage"`
	Current         float64 `json:"current"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	HasSample       bool    `json:"hasSample"`
	DistanceToEmpty int     `json:"distanceToEmpty"`
	Status          Status  `json:"status"`
	ChargingSpeedKw float64 `json:"chargingSpeedKw"`
	ChargeTo80      string  `json:"chargeTo80,omitempty"`
	ChargeTo100     string  `json:"chargeTo100,omitempty"`
	Ranges          Ranges  `json:"ranges"`
}

// ComputeStatus combines the latest sample, if any, with the simulated state.
func ComputeStatus(sample *models.SensorSample, sim SimState) BatteryStatus {
	st := BatteryStatus{
		SOC: sim.SOC,
		SOH: sim.SOH,
	}
	if sample != nil {
		st.HasSample = true
		st.Temperature = sample.Temperature
		st.Voltage = sample.Voltage
		st.Current = sample.Current
		st.Latitude = sample.Latitude
		st.Longitude = sample.Longitude
	}

	st.DistanceToEmpty = DistanceToEmpty(sim.SOC, sim.DTEJitter)
	st.Status = Classify(sim.SOC, st.Temperature)
	st.ChargingSpeedKw = ChargingSpeedKw(st.Current, st.Voltage)
	st.Ranges = RangeByMode(st.DistanceToEmpty)

	if st.ChargingSpeedKw > 0 {
		power := st.ChargingSpeedKw * dashboardPowerScale
		st.ChargeTo80, _ = ChargeTime(float64(sim.SOC), 80, power)
		st.ChargeTo100, _ = ChargeTime(float64(sim.SOC), 100, power)
	}
	return st
}

// DistanceToEmpty rounds the base range before applying jitter and never goes below zero.
func DistanceToEmpty(soc int, jitter float64) int {
	base := roundHalfUp(float64(soc) * KmPerPercent)
	dte := int(roundHalfUp(base + jitter))
	if dte < 0 {
		return 0
	}
	return dte
}

// Classify applies the status precedence: low, medium, then temperature.
func Classify(soc int, temperature float64) Status {
	switch {
	case soc < LowBatterySOC:
		return StatusLowBattery
	case soc < MediumBatterySOC:
		return StatusMediumBattery
	case temperature > OverheatCelsius:
		return StatusOverheating
	default:
		return StatusNormal
	}
}

// ChargingSpeedKw is |current|*voltage/1000 while charging, else 0.
func ChargingSpeedKw(current, voltage float64) float64 {
	if current <= ChargingCurrentThreshold {
		return 0
	}
	return math.Abs(current) * voltage / 1000
}

// RangeByMode scales distance to empty per driving mode.
func RangeByMode(dte int) Ranges {
	return Ranges{
		Eco:    int(roundHalfUp(float64(dte) * 1.2)),
		Normal: dte,
		Sport:  int(roundHalfUp(float64(dte) * 0.75)),
	}
}

// ChargeTimeMinutes estimates minutes to reach target percent at powerKw.
// A target below the current charge yields a negative value.
func ChargeTimeMinutes(soc, target, powerKw float64) (int, error) {
	if powerKw <= 0 || math.IsNaN(powerKw) {
		return 0, ErrNoChargingPower
	}
	energy := CapacityKwh * (target - soc) / 100
	return int(roundHalfUp(energy / powerKw * 60)), nil
}

// FormatMinutes renders "X min" below an hour and "Xh Ym" from an hour up.
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// ChargeTime is ChargeTimeMinutes rendered with FormatMinutes.
func ChargeTime(soc, target, powerKw float64) (string, error) {
	minutes, err := ChargeTimeMinutes(soc, target, powerKw)
	if err != nil {
		return "", err
	}
	return FormatMinutes(minutes), nil
}

// VoltageSOC estimates state of charge from pack voltage on an 11-14 V scale.
func VoltageSOC(voltage float64) float64 {
	if voltage <= 0 {
		return 0
	}
	return clamp((voltage-11)/3*100, 0, 100)
}

// Round rounds to the given number of decimals, halves up.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return roundHalfUp(v*p) / p
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
