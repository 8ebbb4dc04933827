package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/actingweb/actingweb-sub001/internal/app"
	"github.com/actingweb/actingweb-sub001/internal/logging"
	"github.com/actingweb/actingweb-sub001/pkg/mcpserver/dispatch"
)

var (
	mcpSSEAddr string
	mcpMode    string
	mcpTimeout string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the dispatcher as an MCP server",
	Long: `Serve the dispatch and list_hooks tools over the Model Context Protocol.

By default the server speaks MCP on stdin/stdout. With --sse it listens
for SSE clients on the given address instead.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpSSEAddr, "sse", "", "Serve SSE on this address (e.g. localhost:8081) instead of stdio")
	mcpCmd.Flags().StringVar(&mcpMode, "mode", "", "Dispatch mode (blocking|cooperative)")
	mcpCmd.Flags().StringVar(&mcpTimeout, "timeout", "", "Default dispatch deadline, e.g. 5s")
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol; logs only go to stderr with --print-logs.
	_, cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	applyDispatchFlags(cfg, mcpMode, mcpTimeout)

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := a.Start(ctx); err != nil {
		return err
	}

	s := dispatch.NewServer(a, a.Table, Version)
	if mcpSSEAddr == "" {
		return server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout)
	}

	sse := server.NewSSEServer(s, server.WithBaseURL(fmt.Sprintf("http://%s", mcpSSEAddr)))
	logging.Info().Str("addr", mcpSSEAddr).Msg("serving MCP over SSE")
	errCh := make(chan error, 1)
	go func() {
		if err := sse.Start(mcpSSEAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil {
			logging.Error().Err(err).Msg("MCP SSE server failed")
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := sse.Shutdown(shutdownCtx); shutdownErr != nil {
		logging.Warn().Err(shutdownErr).Msg("MCP SSE shutdown")
	}
	return err
}
