// Package stations serves the charging station directory and its per-station actions.
package stations

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"evsense/backend/services/dashboard-service/internal/battery"
	"evsense/backend/services/dashboard-service/internal/models"
)

// ErrStationNotFound is returned for unknown station ids.
var ErrStationNotFound = errors.New("station not found")

const (
	fastChargeTarget = 80
	fullChargeTarget = 100
	dcSuffix         = "DC"
)

// Fixtures returns the built-in station list.
func Fixtures() []models.Station {
	return []models.Station{
		{
			ID: "1", Name: "Tata Power EZ Charge", Location: "Anna Nagar", DistanceKm: 1.4,
			PowerKw: 30, PowerLabel: "30 kW DC", Connectors: []string{"CCS2"}, Slots: 2, PricePerKwh: 18,
			Address: "123 Anna Nagar Main Rd", Latitude: 13.0869, Longitude: 80.2093,
		},
		{
			ID: "2", Name: "Zeon Charging Station", Location: "Tambaram", DistanceKm: 2.1,
			PowerKw: 50, PowerLabel: "50 kW DC", Connectors: []string{"CCS2", "Type-2"}, Slots: 1, PricePerKwh: 22,
			Address: "456 GST Rd, Tambaram", Latitude: 12.9229, Longitude: 80.1275,
		},
		{
			ID: "3", Name: "Ather Grid", Location: "T Nagar", DistanceKm: 0.8,
			PowerKw: 7.4, PowerLabel: "7.4 kW AC", Connectors: []string{"Type-2"}, Slots: 3, PricePerKwh: 12,
			Address: "Pondy Bazaar, T Nagar", Latitude: 13.0418, Longitude: 80.2341,
		},
		{
			ID: "4", Name: "Exicom Charging Hub", Location: "Velachery", DistanceKm: 3.5,
			PowerKw: 60, PowerLabel: "60 kW DC", Connectors: []string{"CCS2", "CHAdeMO"}, Slots: 4, PricePerKwh: 25,
			Address: "Velachery Main Rd", Latitude: 12.9750, Longitude: 80.2207,
		},
		{
			ID: "5", Name: "ChargeZone Station", Location: "OMR", DistanceKm: 5.2,
			PowerKw: 120, PowerLabel: "120 kW DC", Connectors: []string{"CCS2"}, Slots: 2, PricePerKwh: 30,
			Address: "Old Mahabalipuram Rd", Latitude: 12.9142, Longitude: 80.2273,
		},
	}
}

// Estimate is a station annotated with charge estimates for the current charge.
type Estimate struct {
	models.Station
	SOC         int    `json:"soc"`
	ChargeTo80  string `json:"chargeTo80,omitempty"`
	ChargeTo100 string `json:"chargeTo100"`
	CostTo80    int    `json:"costTo80"`
}

// Speaker speaks action confirmations.
type Speaker interface {
	Speak(text string)
}

// Notifier shows a toast.
type Notifier interface {
	Notify(kind, title, message string) models.Notification
}

// Directory is the read-only station list plus navigation and SMS actions.
type Directory struct {
	stations []models.Station
	speaker  Speaker
	notifier Notifier
	logger   *zap.Logger
}

// NewDirectory wraps a station list.
func NewDirectory(list []models.Station, speaker Speaker, notifier Notifier, logger *zap.Logger) *Directory {
	return &Directory{
		stations: append([]models.Station(nil), list...),
		speaker:  speaker,
		notifier: notifier,
		logger:   logger,
	}
}

// List returns stations within radiusKm. A non-positive radius returns all of them.
func (d *Directory) List(radiusKm float64) []models.Station {
	out := make([]models.Station, 0, len(d.stations))
	for _, st := range d.stations {
		if radiusKm > 0 && st.DistanceKm > radiusKm {
			continue
		}
		out = append(out, st)
	}
	return out
}

// All returns every station.
func (d *Directory) All() []models.Station {
	return d.List(0)
}

// Get looks a station up by id.
func (d *Directory) Get(id string) (models.Station, error) {
	for _, st := range d.stations {
		if st.ID == id {
			return st, nil
		}
	}
	return models.Station{}, ErrStationNotFound
}

// Estimates annotates stations for a pack at the given voltage.
func (d *Directory) Estimates(stations []models.Station, voltage float64) []Estimate {
	soc := battery.VoltageSOC(voltage)
	out := make([]Estimate, 0, len(stations))
	for _, st := range stations {
		out = append(out, EstimateFor(st, soc))
	}
	return out
}

// EstimateFor computes charge times and cost to 80% for soc percent.
// DC stations get an 80% estimate as well as a full one. Targets already reached read "0 min".
func EstimateFor(st models.Station, soc float64) Estimate {
	e := Estimate{
		Station:     st,
		SOC:         int(math.Floor(soc + 0.5)),
		ChargeTo100: chargeTime(soc, fullChargeTarget, st.PowerKw),
		CostTo80:    CostTo80(soc, st.PricePerKwh),
	}
	if IsDC(st) {
		e.ChargeTo80 = chargeTime(soc, fastChargeTarget, st.PowerKw)
	}
	return e
}

// IsDC reports whether the station is a DC fast charger.
func IsDC(st models.Station) bool {
	return strings.HasSuffix(st.PowerLabel, dcSuffix)
}

// CostTo80 is the rupee cost of charging from soc to 80% of the pack.
func CostTo80(soc, price float64) int {
	cost := math.Floor((fastChargeTarget-soc)*battery.CapacityKwh/100*price + 0.5)
	if cost < 0 {
		return 0
	}
	return int(cost)
}

func chargeTime(soc, target, power float64) string {
	minutes, err := battery.ChargeTimeMinutes(soc, target, power)
	if err != nil {
		return ""
	}
	if minutes < 0 {
		minutes = 0
	}
	return battery.FormatMinutes(minutes)
}

// Navigate announces turn-by-turn guidance to the station.
func (d *Directory) Navigate(id string) (models.Station, error) {
	st, err := d.Get(id)
	if err != nil {
		return st, err
	}
	d.logger.Info("navigation started", zap.String("station_id", st.ID))
	d.speaker.Speak(fmt.Sprintf("Starting navigation to %s. Distance: %s kilometers. Turn right in 500 meters.",
		st.Name, formatNumber(st.DistanceKm)))
	d.notifier.Notify(models.NotificationInfo, "Navigation Started", "Guiding you to "+st.Name)
	return st, nil
}

// SendSMS shares the station details and returns the message text.
func (d *Directory) SendSMS(id string) (string, error) {
	st, err := d.Get(id)
	if err != nil {
		return "", err
	}
	msg := SMSText(st)
	d.logger.Info("station sms sent", zap.String("station_id", st.ID))
	d.notifier.Notify(models.NotificationInfo, "SMS Sent", msg)
	d.speaker.Speak("SMS notification sent with station details.")
	return msg, nil
}

// SMSText formats the station summary sent by SMS.
func SMSText(st models.Station) string {
	return fmt.Sprintf("Nearest EV station is %s (%s km). Power: %s, Price: ₹%s/kWh",
		st.Name, formatNumber(st.DistanceKm), st.PowerLabel, formatNumber(st.PricePerKwh))
}

func formatNumber(v float64) string {
	return fmt.Sprint(v)
}
