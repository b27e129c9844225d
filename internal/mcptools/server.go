// Package mcptools exposes the safety capabilities as MCP tools.
//
// Each tool is backed by the matching operation in a capability.Set, so tool
// calls go through the same state machine as every other caller.
package mcptools

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/dusk-indust/safeguard/internal/capability"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with one tool per capability plus the
// screen and capability_status tools.
func NewServer(set *capability.Set, logger *zap.Logger) *mcp.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "safeguard",
		Version: version,
	}, nil)

	svc := &ToolService{set: set, logger: logger}
	registerCapabilities(server, svc)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "screen",
		Description: "Run bullying, unsafe-content and emotion analysis on one piece of content in parallel and return a combined risk level.",
	}, svc.Screen)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "capability_status",
		Description: "Report the current state (idle, pending, fulfilled, rejected) of every capability on this server.",
	}, svc.Status)

	return server
}

// RunHTTP serves the MCP tools over streamable HTTP until ctx is canceled.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string, logger *zap.Logger) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp shutdown", zap.Error(err))
		}
	}()

	logger.Info("serving mcp", zap.String("addr", addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RunStdio runs the MCP server on stdio, blocking until stdin is closed or
// ctx is canceled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
