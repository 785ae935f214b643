package controller

import (
	"ctchen222/tictac/internal/api/models"
	"ctchen222/tictac/internal/api/response"
	"ctchen222/tictac/internal/round"
	"ctchen222/tictac/internal/session"
	"ctchen222/tictac/pkg/proto"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RoundController handles round-related HTTP requests.
type RoundController struct {
	sessions    *session.Manager
	defaultMode round.Mode
}

// NewRoundController creates a new RoundController.
func NewRoundController(sessions *session.Manager, defaultMode round.Mode) *RoundController {
	return &RoundController{
		sessions:    sessions,
		defaultMode: defaultMode,
	}
}

// Create handles starting a new round.
func (rc *RoundController) Create(c *gin.Context) {
	var req models.CreateRoundRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	mode := rc.defaultMode
	if req.Mode != "" {
		mode = round.Mode(req.Mode)
	}

	s, err := rc.sessions.Create(c.Request.Context(), mode)
	if err != nil {
		response.DomainErrorResponse(c, err)
		return
	}

	response.CreatedResponse(c, s.State())
}

// List handles listing every hosted round.
func (rc *RoundController) List(c *gin.Context) {
	sessions := rc.sessions.List()
	states := make([]proto.RoundState, 0, len(sessions))
	for _, s := range sessions {
		states = append(states, s.State())
	}

	response.SuccessResponse(c, models.RoundListResponse{Rounds: states})
}

// Get handles reading the state of a round.
func (rc *RoundController) Get(c *gin.Context) {
	s, ok := rc.session(c)
	if !ok {
		return
	}

	response.SuccessResponse(c, s.State())
}

// Move handles a click on a field.
func (rc *RoundController) Move(c *gin.Context) {
	s, ok := rc.session(c)
	if !ok {
		return
	}

	var req models.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.Move(c.Request.Context(), *req.X, *req.Y)
	if err != nil {
		response.DomainErrorResponse(c, err)
		return
	}

	response.SuccessResponse(c, models.MoveResponse{Result: result.String(), State: s.State()})
}

// Hint handles asking for a suggested move.
func (rc *RoundController) Hint(c *gin.Context) {
	s, ok := rc.session(c)
	if !ok {
		return
	}

	hint, err := s.Hint(c.Request.Context())
	if err != nil {
		response.DomainErrorResponse(c, err)
		return
	}

	response.SuccessResponse(c, hint)
}

// Undo handles taking back the last two moves.
func (rc *RoundController) Undo(c *gin.Context) {
	s, ok := rc.session(c)
	if !ok {
		return
	}

	if err := s.Undo(c.Request.Context()); err != nil {
		response.DomainErrorResponse(c, err)
		return
	}

	response.SuccessResponse(c, s.State())
}

// Reset handles starting a round over.
func (rc *RoundController) Reset(c *gin.Context) {
	s, ok := rc.session(c)
	if !ok {
		return
	}

	if err := s.Reset(c.Request.Context()); err != nil {
		response.DomainErrorResponse(c, err)
		return
	}

	response.SuccessResponse(c, s.State())
}

// Delete handles closing a round.
func (rc *RoundController) Delete(c *gin.Context) {
	if err := rc.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.DomainErrorResponse(c, err)
		return
	}

	response.SuccessResponse(c, gin.H{"message": "Round closed"})
}

func (rc *RoundController) session(c *gin.Context) (*session.Session, bool) {
	s, err := rc.sessions.Get(c.Param("id"))
	if err != nil {
		response.DomainErrorResponse(c, err)
		return nil, false
	}
	return s, true
}
