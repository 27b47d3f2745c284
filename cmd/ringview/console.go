package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fraudlens/ringview/internal/channel"
	"github.com/fraudlens/ringview/internal/config"
	"github.com/fraudlens/ringview/internal/feed"
	"github.com/fraudlens/ringview/internal/graph"
	"github.com/fraudlens/ringview/internal/layout"
	"github.com/fraudlens/ringview/internal/model"
	"github.com/fraudlens/ringview/internal/render"
	"github.com/fraudlens/ringview/internal/ui"
	"github.com/fraudlens/ringview/internal/view"
)

var consoleFrameOut string

func init() {
	consoleCmd.Flags().StringVar(&consoleFrameOut, "frame-out", "", "continuously render the live layout to this PNG or SVG file")
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Attach a live investigation console to the feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Seed the local graph from the server before going live.
		m := graph.New(logger)
		client := feed.NewClient(httpURL, authToken)
		seedCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		snap, err := client.FetchGraph(seedCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("fetching initial state: %w", err)
		}
		m.Seed(snap)
		fmt.Printf("seeded %s nodes, %s edges\n",
			ui.RenderAccent(fmt.Sprint(len(snap.Nodes))),
			ui.RenderAccent(fmt.Sprint(len(snap.Edges))))

		mgr := channel.New(channel.Options{
			URL:               resolveFeedURL(cfg),
			Token:             func() string { return authToken },
			BackoffBase:       cfg.BackoffBase,
			MaxAttempts:       cfg.MaxAttempts,
			HeartbeatInterval: cfg.HeartbeatInterval,
			Logger:            logger,
		})

		mgr.OnStateChange(func(s channel.State) {
			fmt.Printf("channel %s\n", ui.RenderState(s.String()))
		})

		// Graph mutations feed the model; everything is echoed to the log.
		mgr.Subscribe(model.TopicWildcard, func(env model.Envelope) {
			printEvent(env)
			ev, err := model.DecodeGraphEvent(env)
			if err != nil {
				return
			}
			switch {
			case ev.NodeUpserted != nil:
				m.UpsertNode(ev.NodeUpserted.Node)
			case ev.EdgeUpserted != nil:
				m.UpsertEdge(ev.EdgeUpserted.Edge)
			case ev.NodeRemoved != nil:
				m.RemoveNode(ev.NodeRemoved.NodeID)
			case ev.Alert != nil:
				m.SetFlagged(ev.Alert.NodeID, true)
			}
		})

		// Layout loop, optionally mirrored to a frame file.
		sim := layout.New(layoutConfig(cfg.Layout))
		var renderer view.Renderer
		if consoleFrameOut != "" {
			renderer = &render.FileRenderer{Path: consoleFrameOut}
		}
		loop := view.NewLoop(m, sim, renderer, view.NewInteraction(), 0, logger)
		loop.Start()

		if err := mgr.Connect(cmd.Context()); err != nil {
			fmt.Fprintln(os.Stderr, "initial connect failed, retrying:", err)
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		loop.Stop()
		mgr.Disconnect()
		fmt.Println("console detached")
		return nil
	},
}

// resolveFeedURL prefers the --feed-url flag over the configured URL.
func resolveFeedURL(cfg *config.Config) string {
	if feedURL != "" {
		return feedURL
	}
	return cfg.FeedURL
}

func layoutConfig(l config.Layout) layout.Config {
	return layout.Config{
		Repulsion:   l.Repulsion,
		Stiffness:   l.Stiffness,
		Gravity:     l.Gravity,
		Damping:     l.Damping,
		MinDistance: l.MinDistance,
		Width:       l.Width,
		Height:      l.Height,
	}
}

func printEvent(env model.Envelope) {
	if jsonOutput {
		if data, err := json.Marshal(env); err == nil {
			fmt.Println(string(data))
		}
		return
	}

	ts := env.Timestamp.Format("15:04:05")
	ev, err := model.DecodeGraphEvent(env)
	if err != nil {
		fmt.Printf("%s %s\n", ui.RenderMuted(ts), ui.RenderMuted(env.Type))
		return
	}
	switch {
	case ev.NodeUpserted != nil:
		n := ev.NodeUpserted.Node
		fmt.Printf("%s node %s (%s)\n", ui.RenderMuted(ts), ui.RenderAccent(n.ID), n.Type)
	case ev.EdgeUpserted != nil:
		e := ev.EdgeUpserted.Edge
		fmt.Printf("%s edge %s -> %s (%s)\n", ui.RenderMuted(ts),
			ui.RenderAccent(e.Source), ui.RenderAccent(e.Target), e.Type)
	case ev.NodeRemoved != nil:
		fmt.Printf("%s removed %s\n", ui.RenderMuted(ts), ui.RenderAccent(ev.NodeRemoved.NodeID))
	case ev.Alert != nil:
		a := ev.Alert
		fmt.Printf("%s %s %s: %s\n", ui.RenderMuted(ts),
			ui.RenderFlagged("ALERT "+a.Severity), ui.RenderAccent(a.NodeID), a.Message)
	case ev.Job != nil:
		fmt.Printf("%s job %s (%s)\n", ui.RenderMuted(ts), ui.RenderAccent(ev.Job.JobID), ev.Job.Kind)
	}
}
