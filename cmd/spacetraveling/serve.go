package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve post pages over HTTP",
	Long: `serve starts the HTTP server. Pages are built on first request and
rebuilt in the background once they are older than the revalidation interval.
With --watch and a content directory, editing a Markdown file invalidates the
cached pages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			appConfig.Addr = serveAddr
		}
		app := newApp()
		defer app.Close()
		if err := app.Setup(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if serveWatch {
			go func() {
				if err := app.WatchContent(ctx); err != nil {
					logger.Error("content watcher stopped", zap.Error(err))
				}
			}()
		}

		errc := make(chan error, 1)
		go func() { errc <- app.Start() }()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			logger.Error("forced shutdown", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :3000)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "invalidate pages when files in the content directory change")
}
