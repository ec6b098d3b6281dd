// Package config defines the immutable connection descriptor and the
// process-wide CLI configuration, bound with kingpin the way
// external-dns's internal/flags binder wraps it — a flat flag surface
// (spec §6), since this tool has no subcommands.
package config

import (
	"time"

	pdnserrors "github.com/railadeividas/powerdns-migrator/internal/errors"
)

// RetryPolicy controls the API Client's retry/backoff behavior (§4.1).
type RetryPolicy struct {
	Retries    int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Jitter      time.Duration
}

// Connection is the immutable descriptor for one PowerDNS server.
type Connection struct {
	BaseURL            string
	APIKey             string
	ServerID           string
	InsecureSkipVerify bool
	Timeout            time.Duration
	Retry              RetryPolicy
}

const defaultServerID = "localhost"

// OnErrorPolicy is the Batch Driver's error-handling mode (§4.5).
type OnErrorPolicy string

const (
	OnErrorContinue OnErrorPolicy = "continue"
	OnErrorStop     OnErrorPolicy = "stop"
)

// Config is the fully parsed, validated process configuration.
type Config struct {
	Source Connection
	Target Connection

	Zone      string
	ZonesFile string

	Recreate bool
	DryRun   bool

	IgnoreSOASerial             bool
	AutoFixCNAMEConflicts       bool
	AutoFixDoubleCNAMEConflicts bool
	NormalizeTXTEscapes         bool

	OnError           OnErrorPolicy
	Concurrency       int
	GracefulTimeout   time.Duration
	ProgressInterval  time.Duration
	MetricsAddress    string

	LogLevel string
	Verbose  bool
}

// New returns a Config populated with the defaults from spec §6.
func New() *Config {
	return &Config{
		Source: Connection{ServerID: defaultServerID, Timeout: 10 * time.Second, Retry: defaultRetry()},
		Target: Connection{ServerID: defaultServerID, Timeout: 10 * time.Second, Retry: defaultRetry()},
		OnError:          OnErrorContinue,
		Concurrency:      4,
		GracefulTimeout:  30 * time.Second,
		ProgressInterval: 5 * time.Second,
		LogLevel:         "info",
	}
}

func defaultRetry() RetryPolicy {
	return RetryPolicy{
		Retries:     3,
		BaseBackoff: 250 * time.Millisecond,
		MaxBackoff:  5 * time.Second,
		Jitter:      250 * time.Millisecond,
	}
}

// Validate applies the cross-field rules spec §6/§7 require before any
// network call is made, returning a *errors.ConfigError on failure.
func (c *Config) Validate() error {
	if c.Source.BaseURL == "" {
		return pdnserrors.NewConfigError("--source-url is required")
	}
	if c.Target.BaseURL == "" {
		return pdnserrors.NewConfigError("--target-url is required")
	}
	if c.Source.APIKey == "" {
		return pdnserrors.NewConfigError("--source-key is required")
	}
	if c.Target.APIKey == "" {
		return pdnserrors.NewConfigError("--target-key is required")
	}

	haveZone := c.Zone != ""
	haveZonesFile := c.ZonesFile != ""
	if haveZone == haveZonesFile {
		return pdnserrors.NewConfigError("exactly one of --zone or --zones-file is required")
	}

	switch c.OnError {
	case OnErrorContinue, OnErrorStop:
	default:
		return pdnserrors.NewConfigError("--on-error must be %q or %q", OnErrorContinue, OnErrorStop)
	}

	if c.Concurrency < 1 {
		return pdnserrors.NewConfigError("--concurrency must be >= 1")
	}
	if c.Source.Retry.Retries < 0 || c.Target.Retry.Retries < 0 {
		return pdnserrors.NewConfigError("--retries must be >= 0")
	}
	return nil
}
