package server

import (
	"context"
	"ctchen222/tictac/internal/api/response"
	"ctchen222/tictac/internal/session"
	"ctchen222/tictac/internal/validator"
	"ctchen222/tictac/pkg/proto"
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	heartbeatInterval = 10 * time.Second
	pongWait          = 2 * heartbeatInterval
	writeWait         = 5 * time.Second
	maxMessageSize    = 1024
)

var errMissingPosition = errors.New("move needs a position")

// handleStream upgrades the connection and relays the session to it. The client may
// send moves, hints, undo, reset and state requests over the same connection.
func (s *Server) handleStream(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "server.handleStream", trace.WithAttributes(
		attribute.String("session.id", c.Param("id")),
	))
	defer span.End()

	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		span.RecordError(err)
		response.DomainErrorResponse(c, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}

	updates, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	replies := make(chan proto.ServerToClientMessage, 8)
	writerDone := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump(ctx, conn, updates, replies, readerDone)
	}()

	state := sess.State()
	reply := func(msg proto.ServerToClientMessage) {
		select {
		case replies <- msg:
		case <-writerDone:
		}
	}
	reply(proto.ServerToClientMessage{Type: proto.TypeState, State: &state})

	s.readPump(ctx, conn, sess, reply)
	close(readerDone)
	<-writerDone
}

// readPump handles client messages until the connection fails.
func (s *Server) readPump(ctx context.Context, conn *websocket.Conn, sess *session.Session, reply func(proto.ServerToClientMessage)) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.WarnContext(ctx, "stream connection error", "session.id", sess.ID, "error", err)
			}
			return
		}
		s.handleMessage(ctx, sess, raw, reply)
	}
}

func (s *Server) handleMessage(ctx context.Context, sess *session.Session, raw []byte, reply func(proto.ServerToClientMessage)) {
	ctx, span := tracer.Start(ctx, "server.handleMessage", trace.WithAttributes(
		attribute.String("session.id", sess.ID),
	))
	defer span.End()

	fail := func(err error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		reply(proto.ServerToClientMessage{Type: proto.TypeError, Reason: err.Error()})
	}

	var message proto.ClientToServerMessage
	if err := json.Unmarshal(raw, &message); err != nil {
		fail(err)
		return
	}
	if err := validator.GetValidator().Struct(message); err != nil {
		fail(err)
		return
	}
	span.SetAttributes(attribute.String("message.type", message.Type))

	switch message.Type {
	case proto.TypeMove:
		if len(message.Position) != 2 {
			fail(errMissingPosition)
			return
		}
		if _, err := sess.Move(ctx, message.Position[0], message.Position[1]); err != nil {
			fail(err)
		}
	case proto.TypeHint:
		hint, err := sess.Hint(ctx)
		if err != nil {
			fail(err)
			return
		}
		reply(proto.ServerToClientMessage{Type: proto.TypeHint, Hint: &hint})
	case proto.TypeUndo:
		if err := sess.Undo(ctx); err != nil {
			fail(err)
		}
	case proto.TypeReset:
		if err := sess.Reset(ctx); err != nil {
			fail(err)
		}
	case proto.TypeState:
		state := sess.State()
		reply(proto.ServerToClientMessage{Type: proto.TypeState, State: &state})
	}
}

// writePump is the only goroutine writing to conn.
func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, updates <-chan proto.ServerToClientMessage, replies <-chan proto.ServerToClientMessage, readerDone <-chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	write := func(msg proto.ServerToClientMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.WarnContext(ctx, "error writing message to stream", "message.type", msg.Type, "error", err)
			return false
		}
		return true
	}

	for {
		select {
		case <-readerDone:
			return
		case msg, ok := <-updates:
			if !ok {
				// The session was closed.
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "round closed"))
				return
			}
			if !write(msg) {
				return
			}
		case msg := <-replies:
			if !write(msg) {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
