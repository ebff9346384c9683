package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sohanAi024/News-Multi-Agent/models"
	"github.com/sohanAi024/News-Multi-Agent/session"
)

const defaultSessionID = "default"

// Chatter processes one conversation turn and returns the rendered reply.
type Chatter interface {
	ProcessTurn(ctx context.Context, key, text string) string
}

type ChatHandler struct {
	Chat        Chatter
	Sessions    session.Store
	TurnTimeout time.Duration
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("", h.chat)
	g.GET("/sessions/:id", h.history)
	g.DELETE("/sessions/:id", h.clear)
}

// chat
//
//	@Summary	Send a chat message
//	@Tags		chat
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		ChatRequest	true	"Chat payload"
//	@Success	200		{object}	ChatResponse
//	@Failure	400		{object}	HTTPError
//	@Router		/chat/ [post]
func (h *ChatHandler) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}
	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = defaultSessionID
	}

	ctx := c.Request().Context()
	if h.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.TurnTimeout)
		defer cancel()
	}
	return c.JSON(http.StatusOK, ChatResponse{Response: h.Chat.ProcessTurn(ctx, req.SessionID, req.Message)})
}

func (h *ChatHandler) history(c echo.Context) error {
	id := c.Param("id")
	st, err := h.Sessions.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	msgs := st.Messages
	if msgs == nil {
		msgs = []models.Message{}
	}
	return c.JSON(http.StatusOK, SessionResponse{SessionID: id, Messages: msgs, DocumentPath: st.DocumentPath})
}

func (h *ChatHandler) clear(c echo.Context) error {
	if err := h.Sessions.Clear(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
