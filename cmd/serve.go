package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pable/bg-insights/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve insights over HTTP",
	Long: `Start the JSON API:

  GET /api/health
  GET /api/games?user=ID
  GET /api/games/{id}/insights?user=ID

Requests without a user parameter read the --user / $BGI_USER_ID user.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default $BGI_LISTEN_ADDR or :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr == "" {
		serveAddr = cfg.ListenAddr
	}

	store, closeStore, err := openReadStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	log := logger.WithField("component", "api")
	srv := api.NewServer(store, newInsightsService(store), log)
	srv.DefaultUserID = userID

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(serveAddr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case s := <-sig:
		log.WithField("signal", s.String()).Info("shutting down")
	}

	if err := srv.Stop(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
