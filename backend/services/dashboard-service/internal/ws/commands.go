package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrUnknownCommand is returned for unsupported command types.
var ErrUnknownCommand = errors.New("ws: unknown command")

// Submitter accepts recognized voice commands.
type Submitter interface {
	Submit(text string) error
}

// Actions are the twin operations a browser may trigger.
type Actions struct {
	Voice   Submitter
	SOS     func()
	Refresh func() bool
}

// Commands turns browser commands into twin actions and answers with an ack or error envelope.
type Commands struct {
	actions Actions
	logger  *zap.Logger
}

// NewCommands builds the command processor.
func NewCommands(actions Actions, logger *zap.Logger) *Commands {
	return &Commands{actions: actions, logger: logger}
}

// Process implements MessageProcessor.
func (c *Commands) Process(_ context.Context, clientID string, raw []byte) ([]byte, error) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return c.reject(fmt.Errorf("decode command: %w", err))
	}
	c.logger.Debug("client command", zap.String("client_id", clientID), zap.String("type", cmd.Type))

	switch cmd.Type {
	case CommandVoice:
		text := strings.TrimSpace(cmd.Text)
		if text == "" {
			return c.reject(errors.New("voice command text is required"))
		}
		if err := c.actions.Voice.Submit(text); err != nil {
			return c.reject(err)
		}
	case CommandSOS:
		c.actions.SOS()
	case CommandRefresh:
		c.actions.Refresh()
	default:
		return c.reject(fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type))
	}
	return Encode(TypeAck, cmd.Type)
}

func (c *Commands) reject(err error) ([]byte, error) {
	msg, encErr := Encode(TypeError, err.Error())
	if encErr != nil {
		return nil, encErr
	}
	return msg, err
}
