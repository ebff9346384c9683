package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sohanAi024/News-Multi-Agent/news"
	"github.com/sohanAi024/News-Multi-Agent/pkg/log"
	"github.com/sohanAi024/News-Multi-Agent/session"
)

// AdminHandler serves operator routes behind bearer auth.
type AdminHandler struct {
	Sessions session.Store
	Ingest   Ingester
	OnRun    func(time.Time)
}

func (h *AdminHandler) Register(g *echo.Group, secret []byte) {
	g.Use(requireToken(secret))
	g.DELETE("/sessions", h.clearSessions)
	g.POST("/scrape", h.scrape)
}

func (h *AdminHandler) clearSessions(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.Sessions.ClearAll(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	log.FromCtx(ctx).Info().Interface("subject", c.Get("subject")).Msg("all sessions cleared")
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) scrape(c echo.Context) error {
	rep := h.Ingest.Run(c.Request().Context())
	if errors.Is(rep.Err, news.ErrIngestRunning) {
		return c.JSON(http.StatusConflict, MessageResponse{Message: rep.Message()})
	}
	if h.OnRun != nil && rep.Err == nil {
		h.OnRun(time.Now())
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: rep.Message()})
}
