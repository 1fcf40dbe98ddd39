package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dgallion1/docbuild/internal/api"
	"github.com/dgallion1/docbuild/internal/pipeline"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve <root>",
	Short: "Serve validation reports and rendered previews over HTTP",
	Long: `Starts an HTTP server for one documentation root:
  GET  /health               liveness
  GET  /api/report           validate now (?format=json|text|csv)
  POST /api/builds           queue a build ({"docx": bool, "write": bool})
  GET  /api/builds/{id}      build status and issues
  GET  /site/*               files of the latest completed build
Set DOCBUILD_API_KEY to require a bearer token on /api routes.`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

var (
	servePort   string
	serveOutDir string
)

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveOutDir, "out", "", "Directory builds may write to")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	root := args[0]
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}
	log := newLogger(cmd.ErrOrStderr(), cfg, "json")

	if serveOutDir != "" {
		if err := pipeline.CheckOutDir(root, serveOutDir); err != nil {
			return err
		}
	}

	runner := pipeline.NewRunner(cfg, log)
	// Fail fast on a missing root rather than serving errors.
	if _, err := runner.Validate(cmd.Context(), root); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())

	orch := pipeline.NewOrchestrator(cfg, runner, log)
	orch.Start(ctx)

	// Initial build so /site has something to show.
	if err := orch.Submit(pipeline.NewJob(root, "", cfg.Docx)); err != nil {
		log.Warn("initial build not queued", "error", err)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewServer(orch, root, serveOutDir, log, cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		log.Info("starting docbuild", "port", cfg.Port, "root", root)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown.
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		err := httpServer.Shutdown(shutdownCtx)
		orch.Stop()
		return err
	})

	return g.Wait()
}
