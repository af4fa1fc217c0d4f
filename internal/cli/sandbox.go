package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-client/internal/fakeapi"
)

// newSandboxCmd serves an in-memory quiz API for trying the client offline.
func newSandboxCmd() *cobra.Command {
	var (
		port    string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run a local in-memory quiz API",
		Long: "Run a local in-memory quiz API. Point the client at it with\n" +
			"--server http://localhost:<port>/api/. Reset tokens are logged instead of emailed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := "info"
			if verbose {
				level = "debug"
			}
			log := setupLogger(level, "development").Named("sandbox")
			defer func() { _ = log.Sync() }()
			return runSandbox(cmd.Context(), port, log)
		},
	}
	cmd.Flags().StringVar(&port, "port", "5000", "port to listen on")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func runSandbox(ctx context.Context, port string, log *zap.Logger) error {
	api := fakeapi.New(fakeapi.WithResetNotifier(func(username, token string) {
		log.Info("password reset requested", zap.String("username", username), zap.String("token", token))
	}))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("/api/", api.Handler())

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting sandbox api", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Info("shutting down sandbox api")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
