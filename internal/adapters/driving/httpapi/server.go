// Package httpapi exposes the research pipeline over HTTP. Plain
// search answers as JSON; deep search streams tokens as server-sent
// events so clients see the answer as it is generated.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/custodia-labs/websearch-cli/internal/core/domain"
	"github.com/custodia-labs/websearch-cli/internal/core/ports/driving"
	"github.com/custodia-labs/websearch-cli/internal/logger"
)

// Server hosts the HTTP API. One research call runs at a time: the
// pipeline fans out against rate-limited external services, so
// concurrent requests would starve each other.
type Server struct {
	echo     *echo.Echo
	research driving.ResearchService
	busy     atomic.Bool
}

// searchRequest is the request body for both endpoints.
type searchRequest struct {
	Query string `json:"query"`
}

// searchResponse is the /search response body.
type searchResponse struct {
	Answer string `json:"answer"`
}

// errorResponse is the error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// NewServer creates the HTTP server around a research service.
func NewServer(research driving.ResearchService) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		research: research,
	}

	e.GET("/healthz", s.handleHealth)
	e.POST("/search", s.handleSearch)
	e.POST("/deepsearch", s.handleDeepSearch)

	return s
}

// Start begins serving on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	logger.Info("HTTP server listening on %s", addr)
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(c echo.Context) error {
	req, ok := bindQuery(c)
	if !ok {
		return nil
	}

	release, err := s.acquire()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	defer release()

	answer, err := s.research.Search(c.Request().Context(), req.Query, nil)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, searchResponse{Answer: answer})
}

func (s *Server) handleDeepSearch(c echo.Context) error {
	req, ok := bindQuery(c)
	if !ok {
		return nil
	}

	release, err := s.acquire()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	defer release()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	_, err = s.research.DeepSearch(c.Request().Context(), req.Query, func(token string) {
		fmt.Fprintf(res, "data: %s\n\n", token)
		res.Flush()
	})
	if err != nil {
		// Headers are already out; report the failure in-stream.
		logger.Error("Deep search failed: %v", err)
		fmt.Fprintf(res, "data: [ERROR] %s\n\n", err.Error())
		res.Flush()
		return nil
	}

	fmt.Fprint(res, "data: [DONE]\n\n")
	res.Flush()
	return nil
}

// acquire takes the single-search slot, or reports that a search is
// already running.
func (s *Server) acquire() (release func(), err error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, domain.ErrSearchInProgress
	}
	return func() { s.busy.Store(false) }, nil
}

// bindQuery decodes the request body, writing the 400 itself when the
// body is unusable.
func bindQuery(c echo.Context) (searchRequest, bool) {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		_ = c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return req, false
	}
	if req.Query == "" {
		_ = c.JSON(http.StatusBadRequest, errorResponse{Error: "query is required"})
		return req, false
	}
	return req, true
}

func errorJSON(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidKey):
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, errorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

// StartWithGracefulShutdown serves until ctx is cancelled, then drains
// in-flight requests for up to the grace period.
func (s *Server) StartWithGracefulShutdown(ctx context.Context, addr string, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
