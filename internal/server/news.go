package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sohanAi024/News-Multi-Agent/news"
)

type NewsHandler struct {
	Ingest Ingester
	// OnRun is told about every manual ingestion so the schedule does not repeat it.
	OnRun func(time.Time)
}

func (h *NewsHandler) Register(g *echo.Group) {
	g.POST("/scrape", h.scrape)
	g.GET("/health", h.health)
}

// scrape
//
//	@Summary	Fetch headlines and store new articles
//	@Tags		news
//	@Produce	json
//	@Success	200	{object}	MessageResponse
//	@Failure	409	{object}	MessageResponse
//	@Router		/news/scrape/ [post]
func (h *NewsHandler) scrape(c echo.Context) error {
	rep := h.Ingest.Run(c.Request().Context())
	if errors.Is(rep.Err, news.ErrIngestRunning) {
		return c.JSON(http.StatusConflict, MessageResponse{Message: rep.Message()})
	}
	if h.OnRun != nil && rep.Err == nil {
		h.OnRun(time.Now())
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: rep.Message()})
}

func (h *NewsHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Message: "News service is running"})
}
