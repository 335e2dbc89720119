// Package feed provides a websocket frame source for the stratum tooling: it
// accepts binary frames from a capture collaborator and hands each frame's
// bytes to a handler. The codec core makes no assumption about frame origin;
// this package is one such origin.
package feed

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/stratum/internal/logging"
)

const (
	// Time allowed to read the next message from the peer
	readWait = 60 * time.Second

	// Maximum frame size allowed from peer
	maxFrameSize = 1 << 20
)

// Handler receives the payload of each binary frame. The slice is owned by
// the handler; the feed never reuses it.
type Handler func(remoteAddr string, frame []byte)

// Server accepts websocket connections and feeds binary frames to a Handler.
type Server struct {
	handler  Handler
	upgrader websocket.Upgrader
	srv      *http.Server
}

// New returns a feed server listening on addr once ListenAndServe is called.
func New(addr string, handler Handler) *Server {
	s := &Server{
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Frames come from local capture tooling, not browsers
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.srv = &http.Server{Addr: addr, Handler: s}
	return s
}

// ListenAndServe blocks serving websocket upgrades until Shutdown.
func (s *Server) ListenAndServe() error {
	logging.Info("Frame feed listening", zap.String("addr", s.srv.Addr))
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// ServeHTTP upgrades the connection and runs the frame receive loop.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("Websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	remoteAddr := conn.RemoteAddr().String()
	logging.LogConnection(remoteAddr, "websocket_upgraded")

	defer func() {
		_ = conn.Close()
		logging.LogConnection(remoteAddr, "websocket_closed")
	}()

	conn.SetReadLimit(maxFrameSize)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readWait)); err != nil {
			logging.Info("Failed to set read deadline, connection may be closed",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			return
		}

		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info("Connection closed by peer",
					zap.String("remote_addr", remoteAddr),
				)
			} else {
				logging.Info("Connection closed or error reading frame",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			logging.LogFrame(remoteAddr, "received", data)
			s.handler(remoteAddr, data)

		case websocket.TextMessage:
			// Only binary frames carry captured packets
			logging.Debug("Ignoring text frame",
				zap.String("remote_addr", remoteAddr),
				zap.Int("length", len(data)),
			)
		}
	}
}
