package config

import (
	"time"

	"github.com/alecthomas/kingpin"
)

// ParseFlags builds the kingpin application for the flat CLI surface of
// spec §6 and parses args (typically os.Args[1:]) into a new Config.
// Usage errors are reported by kingpin itself with exit code 64 by the
// caller, per spec §6's exit-code table.
func ParseFlags(args []string) (*Config, error) {
	cfg := New()
	app := kingpin.New("zone-migrator", "Migrate authoritative DNS zones between two PowerDNS servers.")

	app.Flag("source-url", "Source PowerDNS API base URL").Required().StringVar(&cfg.Source.BaseURL)
	app.Flag("source-key", "Source PowerDNS API key").Required().StringVar(&cfg.Source.APIKey)
	app.Flag("source-server-id", "Source PowerDNS server id").Default(defaultServerID).StringVar(&cfg.Source.ServerID)

	app.Flag("target-url", "Target PowerDNS API base URL").Required().StringVar(&cfg.Target.BaseURL)
	app.Flag("target-key", "Target PowerDNS API key").Required().StringVar(&cfg.Target.APIKey)
	app.Flag("target-server-id", "Target PowerDNS server id").Default(defaultServerID).StringVar(&cfg.Target.ServerID)

	app.Flag("zone", "Single zone name to migrate").StringVar(&cfg.Zone)
	app.Flag("zones-file", "Path to a newline-delimited list of zone names").StringVar(&cfg.ZonesFile)

	app.Flag("recreate", "Delete the target zone before re-creating it").BoolVar(&cfg.Recreate)
	app.Flag("dry-run", "Compute changes without mutating the target").BoolVar(&cfg.DryRun)

	app.Flag("insecure-source", "Skip TLS verification against the source server").BoolVar(&cfg.Source.InsecureSkipVerify)
	app.Flag("insecure-target", "Skip TLS verification against the target server").BoolVar(&cfg.Target.InsecureSkipVerify)

	var timeoutSec int
	app.Flag("timeout", "HTTP per-attempt timeout, seconds").Default("10").IntVar(&timeoutSec)
	app.Flag("retries", "Additional retry attempts on transient failures").Default("3").IntVar(&cfg.Source.Retry.Retries)
	app.Flag("retry-backoff", "Base retry backoff").Default("250ms").DurationVar(&cfg.Source.Retry.BaseBackoff)
	app.Flag("retry-max-backoff", "Maximum retry backoff").Default("5s").DurationVar(&cfg.Source.Retry.MaxBackoff)
	app.Flag("retry-jitter", "Maximum retry jitter").Default("250ms").DurationVar(&cfg.Source.Retry.Jitter)

	app.Flag("ignore-soa-serial", "Ignore SOA serial drift when diffing zones").BoolVar(&cfg.IgnoreSOASerial)
	app.Flag("auto-fix-cname-conflicts", "Auto-resolve CNAME-vs-other-type conflicts").BoolVar(&cfg.AutoFixCNAMEConflicts)
	app.Flag("auto-fix-double-cname-conflicts", "Trim multi-record CNAME RRSets to one record").BoolVar(&cfg.AutoFixDoubleCNAMEConflicts)
	app.Flag("normalize-txt-escapes", "Normalize TXT/SPF decimal escapes before comparing").BoolVar(&cfg.NormalizeTXTEscapes)

	var onError string
	app.Flag("on-error", "Batch error policy: continue or stop").Default(string(OnErrorContinue)).EnumVar(&onError, string(OnErrorContinue), string(OnErrorStop))
	app.Flag("concurrency", "Number of zones migrated concurrently").Default("4").IntVar(&cfg.Concurrency)
	var gracefulTimeoutSec, progressIntervalSec int
	app.Flag("graceful-timeout", "Seconds to wait for in-flight zones on interrupt, 0 = wait indefinitely").Default("30").IntVar(&gracefulTimeoutSec)
	app.Flag("progress-interval", "Seconds between progress snapshots, 0 = disable").Default("5").IntVar(&progressIntervalSec)
	app.Flag("metrics-address", "Optional address to serve Prometheus metrics on, e.g. :9108").StringVar(&cfg.MetricsAddress)

	app.Flag("log-level", "Log level: debug, info, warn, error").Default("info").StringVar(&cfg.LogLevel)
	app.Flag("verbose", "Shorthand for --log-level=debug").BoolVar(&cfg.Verbose)

	// Retry policy is a single policy in spec §6 (one set of --retry-*
	// flags), shared by both connections.
	if _, err := app.Parse(args); err != nil {
		return nil, err
	}
	cfg.Source.Timeout = time.Duration(timeoutSec) * time.Second
	cfg.Target.Timeout = cfg.Source.Timeout
	cfg.Target.Retry = cfg.Source.Retry
	cfg.GracefulTimeout = time.Duration(gracefulTimeoutSec) * time.Second
	cfg.ProgressInterval = time.Duration(progressIntervalSec) * time.Second
	cfg.OnError = OnErrorPolicy(onError)

	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
