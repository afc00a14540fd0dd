package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades HTTP connections to websockets for the live dashboard.
type Server struct {
	hub          *Hub
	processor    MessageProcessor
	greeting     func() ([]byte, error)
	logger       *zap.Logger
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
	baseCtx      context.Context
}

// NewServer builds ws server. greeting, if set, produces the first message every client receives.
func NewServer(ctx context.Context, hub *Hub, processor MessageProcessor, greeting func() ([]byte, error), writeTimeout time.Duration, logger *zap.Logger) *Server {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Server{
		hub:          hub,
		processor:    processor,
		greeting:     greeting,
		logger:       logger,
		writeTimeout: writeTimeout,
		baseCtx:      ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP handles the /ws endpoint.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	clientID := uuid.NewString()
	ctx, cancel := context.WithCancel(s.baseCtx)
	connection := NewConnection(clientID, conn, s.processor, s.writeTimeout, s.logger, func(id string) {
		s.hub.Remove(id)
		cancel()
	})
	if s.greeting != nil {
		if msg, err := s.greeting(); err == nil {
			connection.Send(msg)
		}
	}
	s.hub.Add(connection)

	go connection.Start(ctx)
	s.logger.Info("dashboard client connected", zap.String("client_id", clientID))
}
