// Command nsscheck drives the entry points of an NSS module in-process,
// the way the C library would: small buffers are grown on TryAgain and
// the status of every call is reported.
//
//	nsscheck -config static.toml -db passwd
//	nsscheck -config static.toml -db services -key http/tcp -buflen 8
//	nsscheck -config static.toml -i
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"github.com/wippyai/libnss/config"
	"github.com/wippyai/libnss/database"
	"github.com/wippyai/libnss/internal/module"
	"github.com/wippyai/libnss/metrics"
)

func main() {
	var (
		cfgPath     = flag.String("config", "", "Module configuration file (default: $LIBNSS_<MODULE>_CONFIG or /etc/libnss/<module>.toml)")
		name        = flag.String("module", "static", "Module name")
		db          = flag.String("db", "passwd", "Database: services, passwd, group, shadow, hosts")
		key         = flag.String("key", "", "Key to look up; enumerate when empty")
		buflen      = flag.Int("buflen", 64, "Initial buffer size in bytes")
		showMetrics = flag.Bool("metrics", false, "Print call counters after the query")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if err := run(*cfgPath, *name, *db, *key, *buflen, *showMetrics, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, name, db, key string, buflen int, showMetrics, interactive bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfgPath == "" {
		cfgPath = config.PathFor(name)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	m, err := module.Open(ctx, name, cfg, database.WithObserver(collector))
	if m == nil {
		return fmt.Errorf("open module: %w", err)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if interactive {
		return runInteractive(m, buflen)
	}

	res, err := query(m, db, key, buflen)
	if err != nil {
		return err
	}

	styled := term.IsTerminal(int(os.Stdout.Fd()))
	fmt.Print(render(db, key, res, styled))

	if showMetrics {
		fmt.Println()
		if err := metrics.WriteText(os.Stdout, reg); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}
	return nil
}
