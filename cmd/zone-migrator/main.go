package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/railadeividas/powerdns-migrator/internal/batch"
	"github.com/railadeividas/powerdns-migrator/internal/config"
	"github.com/railadeividas/powerdns-migrator/internal/diff"
	pdnserrors "github.com/railadeividas/powerdns-migrator/internal/errors"
	"github.com/railadeividas/powerdns-migrator/internal/migrator"
	"github.com/railadeividas/powerdns-migrator/internal/sanitize"
	"github.com/railadeividas/powerdns-migrator/internal/zoneapi"
)

const (
	exitOK             = 0
	exitZoneFailures   = 1
	exitStoppedByError = 2
	exitCancelled      = 3
	exitUsage          = 64
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.ParseFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}

	ll, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	log.SetLevel(ll)
	log.SetFormatter(&log.JSONFormatter{})

	zoneNames, err := resolveZoneNames(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}

	if cfg.DryRun {
		log.Info("running in dry-run mode, no changes will be made to the target")
	}

	source := zoneapi.New(cfg.Source)
	defer source.Close()
	target := zoneapi.New(cfg.Target)
	defer target.Close()

	mig := migrator.New(source, target, migrator.Options{
		Sanitize: sanitize.Options{
			NormalizeTXTEscapes:         cfg.NormalizeTXTEscapes,
			AutoFixCNAMEConflicts:       cfg.AutoFixCNAMEConflicts,
			AutoFixDoubleCNAMEConflicts: cfg.AutoFixDoubleCNAMEConflicts,
		},
		Diff:     diff.Options{IgnoreSOASerial: cfg.IgnoreSOASerial},
		Recreate: cfg.Recreate,
		DryRun:   cfg.DryRun,
	})

	driver := batch.New(mig.Migrate, batch.Options{
		Concurrency:      cfg.Concurrency,
		OnError:          cfg.OnError,
		GracefulTimeout:  cfg.GracefulTimeout,
		ProgressInterval: cfg.ProgressInterval,
		OnProgress: func(s batch.Snapshot) {
			log.Infof("progress: %d/%d complete (%d ok, %d failed, %d in flight), elapsed %s",
				s.Completed, s.Total, s.Succeeded, s.Failed, s.InFlight, s.Elapsed.Round(1e6))
		},
	})

	if cfg.MetricsAddress != "" {
		go serveMetrics(cfg.MetricsAddress, driver)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	result := driver.Run(ctx, zoneNames)
	return summarize(result)
}

// resolveZoneNames returns the single --zone or the deduplicated
// contents of --zones-file, per spec §6 (Config.Validate already
// enforces exactly one of the two is set).
func resolveZoneNames(cfg *config.Config) ([]string, error) {
	if cfg.Zone != "" {
		return []string{cfg.Zone}, nil
	}
	return config.ReadZonesFile(cfg.ZonesFile)
}

// handleSignals cancels ctx on the first SIGINT/SIGTERM so Run begins
// graceful shutdown; a second signal forces immediate process exit,
// abandoning the grace period entirely.
func handleSignals(cancel func()) {
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
	log.Warn("received interrupt, starting graceful shutdown")
	cancel()
	<-signals
	log.Warn("received second interrupt, abandoning in-flight zones")
	os.Exit(exitCancelled)
}

func serveMetrics(address string, driver *batch.Driver) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(driver.Registry(), promhttp.HandlerOpts{}))
	log.Fatal(http.ListenAndServe(address, mux))
}

// summarize prints the per-action and per-error-kind totals required by
// spec §7 and returns the process exit code per spec §6's table.
func summarize(result *batch.Result) int {
	byAction := map[migrator.Action]int{}
	byKind := map[pdnserrors.Kind]int{}
	failures, cancelled := 0, 0

	for _, o := range result.Outcomes {
		switch {
		case o.Err != nil:
			if pdnserrors.IsCancelled(o.Err) || o.Cancelled {
				cancelled++
			} else {
				failures++
			}
			byKind[pdnserrors.KindOf(o.Err)]++
		case o.Result != nil:
			byAction[o.Result.Action]++
		}
	}

	fmt.Printf("migrated %d zones: ", len(result.Outcomes))
	actions := make([]string, 0, len(byAction))
	for a := range byAction {
		actions = append(actions, string(a))
	}
	sort.Strings(actions)
	for _, a := range actions {
		fmt.Printf("%s=%d ", a, byAction[migrator.Action(a)])
	}
	fmt.Printf("failed=%d cancelled=%d\n", failures, cancelled)

	for kind, n := range byKind {
		fmt.Printf("  error kind %s: %d\n", kind, n)
	}

	switch {
	case result.StoppedBy != nil:
		return exitStoppedByError
	case cancelled > 0 && failures == 0:
		return exitCancelled
	case failures > 0:
		return exitZoneFailures
	default:
		return exitOK
	}
}
