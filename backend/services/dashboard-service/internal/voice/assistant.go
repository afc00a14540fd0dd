package voice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"evsense/backend/services/dashboard-service/internal/battery"
	"evsense/backend/services/dashboard-service/internal/models"
)

const (
	serviceReply   = "Your next service is due in 15 days. Battery health check is recommended in 1 month."
	fallbackReply  = "I can help you find charging stations, check battery status, navigate, or check service schedules. What would you like to know?"
	noStationReply = "I could not find any charging stations nearby."

	minutesPerKm = 3
)

// Assistant answers spoken driver questions.
type Assistant struct {
	stations []models.Station
	status   func() battery.BatteryStatus
	output   Output
	logger   *zap.Logger
}

// NewAssistant builds an assistant over the station list and a status source.
func NewAssistant(stations []models.Station, status func() battery.BatteryStatus, output Output, logger *zap.Logger) *Assistant {
	return &Assistant{
		stations: stations,
		status:   status,
		output:   output,
		logger:   logger,
	}
}

// Respond maps a transcript to a reply. Intents are matched in order, so
// "charge level" is answered as a station query.
func (a *Assistant) Respond(command string) string {
	cmd := strings.ToLower(command)
	switch {
	case containsAny(cmd, "nearest", "station", "charge"):
		st, ok := a.nearest()
		if !ok {
			return noStationReply
		}
		return fmt.Sprintf("The nearest charging station is %s in %s, %s kilometers away. It has %d available slots and charges rupees %s per kilowatt hour.",
			st.Name, st.Location, formatNumber(st.DistanceKm), st.Slots, formatNumber(st.PricePerKwh))
	case containsAny(cmd, "battery", "charge level"):
		s := a.status()
		return fmt.Sprintf("Your battery is at %d percent. Distance to empty is %d kilometers. Battery health is %s percent.",
			s.SOC, s.DistanceToEmpty, formatNumber(s.SOH))
	case containsAny(cmd, "navigate", "direction"):
		st, ok := a.nearest()
		if !ok {
			return noStationReply
		}
		return fmt.Sprintf("Navigating to %s. The distance is %s kilometers. You will arrive in approximately %d minutes.",
			st.Name, formatNumber(st.DistanceKm), int(math.Floor(st.DistanceKm*minutesPerKm+0.5)))
	case containsAny(cmd, "service", "maintenance"):
		return serviceReply
	default:
		return fallbackReply
	}
}

// Handle answers and speaks the reply.
func (a *Assistant) Handle(command string) string {
	reply := a.Respond(command)
	a.output.Speak(reply)
	return reply
}

// Run answers commands from in until ctx ends.
func (a *Assistant) Run(ctx context.Context, in Input) error {
	for {
		text, err := in.Recognize(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		a.logger.Debug("voice command", zap.String("transcript", text))
		a.Handle(text)
	}
}

// nearest is the first station in the list, which is ordered as configured.
func (a *Assistant) nearest() (models.Station, bool) {
	if len(a.stations) == 0 {
		return models.Station{}, false
	}
	return a.stations[0], true
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
