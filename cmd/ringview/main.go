// Command ringview runs the fraud-ring investigation console: a feed
// server bridging pipeline events to connected consoles, a terminal console
// attached to that feed, and an offline renderer for case exports.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fraudlens/ringview/internal/ui"
)

var (
	feedURL    string
	httpURL    string
	authToken  string
	jsonOutput bool
)

func defaultHTTPURL() string {
	if s := os.Getenv("RINGVIEW_HTTP_URL"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

var rootCmd = &cobra.Command{
	Use:   "ringview <command>",
	Short: "Fraud-ring investigation console",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "feed server HTTP URL")
	rootCmd.PersistentFlags().StringVar(&feedURL, "feed-url", "", "feed server websocket URL (default from RINGVIEW_FEED_URL)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("RINGVIEW_AUTH_TOKEN"), "bearer token for the feed server")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
