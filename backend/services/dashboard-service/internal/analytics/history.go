// Package analytics turns stored sensor history into chart points and summary statistics.
package analytics

import (
	"math"
	"strconv"
	"time"

	"evsense/backend/services/dashboard-service/internal/battery"
	"evsense/backend/services/dashboard-service/internal/models"
)

const (
	highTempCelsius   = 45.0
	lowVoltage        = 11.5
	greatScore        = 80
	referenceTemp     = 30.0
	tempPenalty       = 2.0
	voltageSpreadCost = 10.0
)

// Point is one chart sample.
type Point struct {
	Time        string  `json:"time"`
	Voltage     float64 `json:"voltage"`
	Current     float64 `json:"current"`
	Temperature float64 `json:"temperature"`
	SOC         float64 `json:"soc"`
	Power       float64 `json:"power"`
}

// Stats summarises a history window.
type Stats struct {
	AvgVoltage      float64 `json:"avgVoltage"`
	AvgCurrent      float64 `json:"avgCurrent"`
	AvgTemperature  float64 `json:"avgTemperature"`
	AvgSOC          float64 `json:"avgSOC"`
	MaxTemperature  float64 `json:"maxTemperature"`
	MinVoltage      float64 `json:"minVoltage"`
	TotalReadings   int     `json:"totalReadings"`
	EfficiencyScore int     `json:"efficiencyScore"`
	AvgDailyRangeKm int     `json:"avgDailyRange"`
}

// Insight is a highlighted finding about the window.
type Insight struct {
	Kind    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Report is the full history view.
type Report struct {
	Points   []Point   `json:"points"`
	Stats    Stats     `json:"stats"`
	Insights []Insight `json:"insights"`
}

// Build derives points in the order received, then stats and insights. Times render in loc.
func Build(samples []models.HistoricalSample, loc *time.Location) Report {
	if loc == nil {
		loc = time.Local
	}
	points := make([]Point, 0, len(samples))
	for _, s := range samples {
		points = append(points, pointFor(s, loc))
	}
	stats := Summarize(points)
	return Report{Points: points, Stats: stats, Insights: insightsFor(stats)}
}

func pointFor(s models.HistoricalSample, loc *time.Location) Point {
	return Point{
		Time:        clockLabel(s.Timestamp, loc),
		Voltage:     battery.Round(s.Voltage, 2),
		Current:     battery.Round(s.Current, 2),
		Temperature: battery.Round(s.Temperature, 1),
		SOC:         battery.Round(battery.VoltageSOC(s.Voltage), 1),
		Power:       battery.Round(s.Voltage*math.Abs(s.Current), 2),
	}
}

// clockLabel renders HH:MM, or "" when the timestamp cannot be parsed.
func clockLabel(ts string, loc *time.Location) string {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.In(loc).Format("15:04")
		}
	}
	return ""
}

// Summarize aggregates points. An empty window yields zero stats.
func Summarize(points []Point) Stats {
	if len(points) == 0 {
		return Stats{}
	}
	var sumV, sumI, sumT, sumSOC float64
	maxT, minV, maxV := math.Inf(-1), math.Inf(1), math.Inf(-1)
	for _, p := range points {
		sumV += p.Voltage
		sumI += math.Abs(p.Current)
		sumT += p.Temperature
		sumSOC += p.SOC
		maxT = math.Max(maxT, p.Temperature)
		minV = math.Min(minV, p.Voltage)
		maxV = math.Max(maxV, p.Voltage)
	}
	n := float64(len(points))
	avgSOC := battery.Round(sumSOC/n, 1)
	return Stats{
		AvgVoltage:      battery.Round(sumV/n, 2),
		AvgCurrent:      battery.Round(sumI/n, 2),
		AvgTemperature:  battery.Round(sumT/n, 1),
		AvgSOC:          avgSOC,
		MaxTemperature:  battery.Round(maxT, 1),
		MinVoltage:      battery.Round(minV, 2),
		TotalReadings:   len(points),
		EfficiencyScore: EfficiencyScore(maxT, minV, maxV),
		AvgDailyRangeKm: int(battery.Round(avgSOC*battery.KmPerPercent, 0)),
	}
}

// EfficiencyScore averages a temperature score and a voltage stability score.
func EfficiencyScore(maxTemp, minVoltage, maxVoltage float64) int {
	tempScore := math.Max(0, 100-(maxTemp-referenceTemp)*tempPenalty)
	stability := 100 - (maxVoltage-minVoltage)*voltageSpreadCost
	return int(battery.Round((tempScore+stability)/2, 0))
}

func insightsFor(s Stats) []Insight {
	out := []Insight{}
	if s.TotalReadings == 0 {
		return out
	}
	if s.MaxTemperature > highTempCelsius {
		out = append(out, Insight{
			Kind:    models.NotificationDestructive,
			Title:   "High Temperature",
			Message: "Peak: " + formatFloat(s.MaxTemperature) + "°C",
		})
	}
	if s.MinVoltage < lowVoltage {
		out = append(out, Insight{
			Kind:    models.NotificationWarning,
			Title:   "Low Voltage",
			Message: "Min: " + formatFloat(s.MinVoltage) + "V",
		})
	}
	if s.EfficiencyScore >= greatScore {
		out = append(out, Insight{
			Kind:    models.NotificationSuccess,
			Title:   "Great Performance!",
			Message: "Score: " + formatFloat(float64(s.EfficiencyScore)) + "/100",
		})
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
