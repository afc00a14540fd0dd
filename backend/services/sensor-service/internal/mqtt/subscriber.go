package mqttsub

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"evsense/backend/services/sensor-service/internal/metrics"
	"evsense/backend/services/sensor-service/internal/models"
)

const (
	// DefaultTopic carries JSON samples published by the vehicle sensor board.
	DefaultTopic = "evsense/telemetry"

	connectTimeout = 10 * time.Second
	handleTimeout  = 5 * time.Second
	disconnectMS   = 250
)

// Ingestor consumes raw sample payloads.
type Ingestor interface {
	IngestPayload(ctx context.Context, source string, payload []byte) (models.Sample, error)
}

// Subscriber feeds MQTT telemetry into the ingest path.
type Subscriber struct {
	broker   string
	topic    string
	clientID string
	ingestor Ingestor
	logger   *zap.Logger
}

// NewSubscriber returns a subscriber; call Run to connect.
func NewSubscriber(broker, topic, clientID string, ingestor Ingestor, logger *zap.Logger) *Subscriber {
	if topic == "" {
		topic = DefaultTopic
	}
	if clientID == "" {
		clientID = "evsense-sensor-service"
	}
	return &Subscriber{
		broker:   broker,
		topic:    topic,
		clientID: clientID,
		ingestor: ingestor,
		logger:   logger,
	}
}

// Run connects, subscribes and blocks until ctx is done.
// Subscriptions are restored in the connect handler so they survive reconnects.
func (s *Subscriber) Run(ctx context.Context) error {
	handler := s.messageHandler()
	opts := mqtt.NewClientOptions().
		AddBroker(s.broker).
		SetClientID(s.clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			s.logger.Info("connected to mqtt broker", zap.String("broker", s.broker))
			tok := c.Subscribe(s.topic, 1, handler)
			if ok := tok.WaitTimeout(connectTimeout); !ok {
				s.logger.Warn("mqtt subscribe timed out", zap.String("topic", s.topic))
				return
			}
			if err := tok.Error(); err != nil {
				s.logger.Error("mqtt subscribe failed", zap.String("topic", s.topic), zap.Error(err))
				return
			}
			s.logger.Info("subscribed to mqtt topic", zap.String("topic", s.topic))
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.logger.Warn("mqtt connection lost, will reconnect", zap.Error(err))
		})

	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if ok := tok.WaitTimeout(connectTimeout); !ok {
		return fmt.Errorf("mqtt connect to %s timed out", s.broker)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	<-ctx.Done()
	client.Disconnect(disconnectMS)
	return nil
}

func (s *Subscriber) messageHandler() mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		payload := msg.Payload()
		data := make([]byte, len(payload))
		copy(data, payload)

		ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
		defer cancel()
		if _, err := s.ingestor.IngestPayload(ctx, metrics.SourceMQTT, data); err != nil {
			s.logger.Warn("mqtt sample dropped", zap.String("topic", msg.Topic()), zap.Error(err))
		}
	}
}
