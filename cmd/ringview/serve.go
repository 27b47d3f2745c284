package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fraudlens/ringview/internal/archive"
	"github.com/fraudlens/ringview/internal/config"
	"github.com/fraudlens/ringview/internal/feed"
	"github.com/fraudlens/ringview/internal/graph"
	"github.com/fraudlens/ringview/internal/store"
	"github.com/fraudlens/ringview/internal/store/postgres"
)

var serveCaseID string

func init() {
	serveCmd.Flags().StringVar(&serveCaseID, "case", "", "case id to load on start and save on shutdown")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the graph feed server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Pick the snapshot store.
		var st store.Store
		if cfg.DatabaseURL != "" {
			st, err = postgres.New(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			logger.Info("postgres store connected")
		} else {
			st = store.NewMemoryStore()
			logger.Info("using in-memory store (RINGVIEW_DATABASE_URL not set)")
		}

		// Seed the graph from a saved case when requested.
		m := graph.New(logger)
		if serveCaseID != "" {
			snap, updatedAt, err := st.GetSnapshot(cmd.Context(), serveCaseID)
			switch {
			case err == nil:
				m.Seed(snap)
				logger.Info("case loaded", "case", serveCaseID,
					"nodes", len(snap.Nodes), "edges", len(snap.Edges), "updated_at", updatedAt)
			case err == store.ErrNotFound:
				logger.Info("case not found, starting empty", "case", serveCaseID)
			default:
				st.Close()
				return err
			}
		}

		srv := feed.NewServer(m, logger)

		// Bridge pipeline events in from NATS when configured.
		var bridgeCancel context.CancelFunc
		var natsSub *feed.NATSSubscriber
		if cfg.NATSURL != "" {
			natsSub, err = feed.NewNATSSubscriber(cfg.NATSURL)
			if err != nil {
				st.Close()
				return err
			}
			messages, cancelSub, err := natsSub.Subscribe(feed.SubjectPrefix + ".>")
			if err != nil {
				natsSub.Close()
				st.Close()
				return err
			}
			var bridgeCtx context.Context
			bridgeCtx, bridgeCancel = context.WithCancel(context.Background())
			go func() {
				srv.RunBridge(bridgeCtx, messages)
				cancelSub()
			}()
			logger.Info("pipeline bridge started", "nats_url", cfg.NATSURL)
		} else {
			logger.Info("pipeline bridge disabled (RINGVIEW_NATS_URL not set)")
		}

		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: srv.NewHTTPHandler(cfg.AuthToken),
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Archive saved cases on an interval when destinations exist.
		var scheduler *archive.Scheduler
		if cfg.ArchiveInterval > 0 {
			var dests []archive.Destination
			if cfg.ArchiveS3Bucket != "" {
				s3Dest, err := archive.NewS3Destination(
					context.Background(),
					cfg.ArchiveS3Bucket,
					cfg.ArchiveS3Key,
					cfg.ArchiveS3Region,
					cfg.ArchiveS3Endpoint,
				)
				if err != nil {
					logger.Error("failed to create S3 archive destination", "err", err)
				} else {
					dests = append(dests, s3Dest)
					logger.Info("archive S3 destination enabled", "bucket", cfg.ArchiveS3Bucket, "key", cfg.ArchiveS3Key)
				}
			}
			if cfg.ArchiveFile != "" {
				dests = append(dests, archive.NewFileDestination(cfg.ArchiveFile))
				logger.Info("archive file destination enabled", "path", cfg.ArchiveFile)
			}
			if len(dests) > 0 {
				scheduler = archive.NewScheduler(st, dests, cfg.ArchiveInterval, logger)
				scheduler.Start()
				logger.Info("archive scheduler started", "interval", cfg.ArchiveInterval)
			}
		}

		logger.Info("ringview server started", "http_addr", cfg.HTTPAddr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if bridgeCancel != nil {
			bridgeCancel()
			natsSub.Close()
			logger.Info("pipeline bridge stopped")
		}
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("archive scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		// Persist the working graph back to its case.
		if serveCaseID != "" {
			if err := st.SaveSnapshot(shutdownCtx, serveCaseID, m.Snapshot()); err != nil {
				logger.Error("saving case on shutdown failed", "case", serveCaseID, "err", err)
			} else {
				logger.Info("case saved", "case", serveCaseID)
			}
		}

		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
