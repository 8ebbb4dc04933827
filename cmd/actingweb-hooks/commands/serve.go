package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/actingweb/actingweb-sub001/internal/app"
	"github.com/actingweb/actingweb-sub001/internal/logging"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

var (
	servePort     int
	serveHostname string
	serveMode     string
	serveTimeout  string
	serveWatch    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP hook dispatcher",
	Long: `Start the dispatcher as an HTTP server. Every request to an actor
endpoint becomes one dispatch against the registered hooks.

In cooperative mode all dispatches share one scheduler goroutine and
suspendable hooks never hold it while they run.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default 8080)")
	serveCmd.Flags().StringVar(&serveHostname, "hostname", "", "Hostname to listen on")
	serveCmd.Flags().StringVar(&serveMode, "mode", "", "Dispatch mode (blocking|cooperative)")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "", "Default dispatch deadline, e.g. 5s")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "Reload permission rules when config files change")
}

func runServe(cmd *cobra.Command, args []string) error {
	dir, cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	applyDispatchFlags(cfg, serveMode, serveTimeout)
	if servePort != 0 || serveHostname != "" {
		if cfg.Server == nil {
			cfg.Server = &types.ServerConfig{}
		}
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if serveHostname != "" {
			cfg.Server.Hostname = serveHostname
		}
	}

	log := logging.Component("serve")
	log.Info().Str("version", Version).Str("directory", dir).Msg("starting")

	a, err := app.New(cfg, app.WithDirectory(dir), app.WithWatch(serveWatch))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		a.Close(context.Background())
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.Server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if closeErr := a.Close(shutdownCtx); closeErr != nil {
		log.Error().Err(closeErr).Msg("shutdown")
	}

	log.Info().Msg("stopped")
	return err
}

// applyDispatchFlags overrides the dispatch section of cfg with non-empty
// flag values.
func applyDispatchFlags(cfg *types.Config, mode, timeout string) {
	if mode == "" && timeout == "" {
		return
	}
	if cfg.Dispatch == nil {
		cfg.Dispatch = &types.DispatchConfig{}
	}
	if mode != "" {
		cfg.Dispatch.Mode = mode
	}
	if timeout != "" {
		cfg.Dispatch.Timeout = timeout
	}
}
