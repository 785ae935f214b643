package server

import (
	"ctchen222/tictac/internal/api/controller"
	"ctchen222/tictac/internal/round"
	"ctchen222/tictac/internal/session"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("server")

type Server struct {
	sessions        *session.Manager
	roundController *controller.RoundController
	upgrader        websocket.Upgrader
	logger          *slog.Logger
}

func NewServer(sessions *session.Manager, defaultMode round.Mode, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		sessions:        sessions,
		roundController: controller.NewRoundController(sessions, defaultMode),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger.With("component", "server"),
	}
}

// Engine builds the HTTP handler serving the round API and the websocket stream.
func (s *Server) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())

	engine.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	api := engine.Group("/api")
	{
		rounds := api.Group("/rounds")
		rounds.POST("", s.roundController.Create)
		rounds.GET("", s.roundController.List)
		rounds.GET("/:id", s.roundController.Get)
		rounds.POST("/:id/moves", s.roundController.Move)
		rounds.GET("/:id/hint", s.roundController.Hint)
		rounds.POST("/:id/undo", s.roundController.Undo)
		rounds.POST("/:id/reset", s.roundController.Reset)
		rounds.DELETE("/:id", s.roundController.Delete)
	}

	engine.GET("/ws/rounds/:id", s.handleStream)

	return engine
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.InfoContext(c.Request.Context(), "http request",
			"http.method", c.Request.Method,
			"http.route", c.FullPath(),
			"http.status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
