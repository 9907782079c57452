// Command feedcheck runs every upstream resource the service depends on once
// against the configured collaborators and prints a pass/fail report.
//
// Usage:
//
//	go run ./cmd/feedcheck -only spacex,nasa -timeout 30s
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/galaxia/internal/config"
	"github.com/couchcryptid/galaxia/internal/observability"
)

func main() {
	only := flag.String("only", "", "comma-separated groups to check (spacex,nasa,iss,news,gemini,impact)")
	timeout := flag.Duration("timeout", 60*time.Second, "overall deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if code := run(ctx, cfg, splitGroups(*only), os.Stdout, logger, observability.NewMetricsForTesting()); code != 0 {
		cancel()
		os.Exit(code)
	}
}

func splitGroups(s string) map[string]bool {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	out := make(map[string]bool)
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(strings.ToLower(g)); g != "" {
			out[g] = true
		}
	}
	return out
}
