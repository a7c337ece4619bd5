package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/bbox-editor-mcp/internal/ocr"
)

// shutdownTimeout bounds graceful shutdown of the HTTP transport.
const shutdownTimeout = 5 * time.Second

// Handler returns the HTTP transport for the tools:
//
//	GET  /healthz       liveness and OCR availability
//	GET  /tools         tool definitions
//	POST /tools/:name   run a tool; the body is its JSON arguments
//	POST /mcp           one JSON-RPC request per call
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.cfg.Debug() {
		r.Use(gin.Logger())
	}

	r.GET("/healthz", s.httpHealth)
	r.GET("/tools", s.httpTools)
	r.POST("/tools/:name", s.httpCallTool)
	r.POST("/mcp", s.httpRPC)
	return r
}

// ListenAndServe serves Handler on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP transport listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) httpHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"name":    Name,
		"version": Version,
		"ocr":     ocr.GetInfo(),
	})
}

func (s *Server) httpTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": GetToolDefinitions()})
}

func (s *Server) httpCallTool(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body is not valid JSON"})
		return
	}

	result, err := s.executeTool(c.Request.Context(), c.Param("name"), body)
	switch {
	case errors.Is(err, errUnknownTool):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"result": result})
	}
}

func (s *Server) httpRPC(c *gin.Context) {
	var req MCPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, s.errorResponse(nil, -32700, "Parse error", err.Error()))
		return
	}
	resp := s.handleRequest(c.Request.Context(), &req)
	if resp == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, resp)
}
