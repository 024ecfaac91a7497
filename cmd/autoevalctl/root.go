package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	autoeval "github.com/kailas-cloud/autoeval/pkg/sdk"
)

type globalFlags struct {
	server  string
	apiKey  string
	timeout time.Duration
	json    bool
	verbose bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "autoevalctl",
		Short: "Score answer sheets against reference answers",
		Long: `autoevalctl talks to an autoeval server.

Examples:
  autoevalctl score --file answer.png --text "Plants make food" --marks 10
  autoevalctl health --server http://autoeval:8080
  autoevalctl usage --period day --json
  autoevalctl weights init --out weights/siamese.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.server, "server", envOr("AUTOEVAL_SERVER", "http://localhost:8080"),
		"autoeval server URL (env AUTOEVAL_SERVER)")
	root.PersistentFlags().StringVar(&g.apiKey, "api-key", os.Getenv("AUTOEVAL_API_KEY"),
		"bearer API key (env AUTOEVAL_API_KEY)")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 2*time.Minute, "request timeout")
	root.PersistentFlags().BoolVar(&g.json, "json", false, "output as JSON")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log SDK operations to stderr")

	root.AddCommand(
		newScoreCmd(g),
		newHealthCmd(g),
		newUsageCmd(g),
		newVersionCmd(),
		newWeightsCmd(),
	)
	return root
}

func (g *globalFlags) client(stderr io.Writer) (*autoeval.Client, error) {
	opts := []autoeval.Option{
		autoeval.WithHTTPClient(&http.Client{Timeout: g.timeout}),
	}
	if g.apiKey != "" {
		opts = append(opts, autoeval.WithAPIKey(g.apiKey))
	}
	if g.verbose {
		opts = append(opts, autoeval.WithLogger(slog.New(slog.NewTextHandler(stderr,
			&slog.HandlerOptions{Level: slog.LevelDebug}))))
	}
	c, err := autoeval.New(g.server, opts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
