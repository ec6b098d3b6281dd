// Package migrator implements the per-zone state machine of spec §4.4:
// FETCH_SOURCE → SANITIZE → PROBE_TARGET → {CREATE_ZONE | RECREATE_ZONE |
// PATCH_ZONE | NOOP}. It generalizes the fetch-then-decide-then-apply
// shape of kreigan/powerdns-zone-manager's manager.Manager.Apply/
// applyZone to include the target-side diff and recreate branch that
// tool does not have.
package migrator

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/railadeividas/powerdns-migrator/internal/diff"
	"github.com/railadeividas/powerdns-migrator/internal/sanitize"
	"github.com/railadeividas/powerdns-migrator/internal/zonemodel"
)

// Action is the decision the migrator reaches for one zone.
type Action string

const (
	CreateZone   Action = "CREATE_ZONE"
	RecreateZone Action = "RECREATE_ZONE"
	PatchZone    Action = "PATCH_ZONE"
	Noop         Action = "NOOP"
)

// Client is the subset of zoneapi.Client the migrator depends on,
// narrowed to an interface so tests can substitute a fake server.
type Client interface {
	GetZone(ctx context.Context, zone string) (zonemodel.Zone, error)
	ZoneExists(ctx context.Context, zone string) (bool, error)
	CreateZone(ctx context.Context, zone zonemodel.Zone) error
	DeleteZone(ctx context.Context, zone string) error
	PatchRRSets(ctx context.Context, zone string, rrsets []zonemodel.RRSet) error
}

// Options configures one migrator instance, combining the sanitizer
// options, diff equivalence, and the two execution-mode flags of §4.4.
type Options struct {
	Sanitize sanitize.Options
	Diff     diff.Options
	Recreate bool
	DryRun   bool
}

// Migrator orchestrates a single zone's migration pipeline.
type Migrator struct {
	Source Client
	Target Client
	Opts   Options
}

// New builds a Migrator.
func New(source, target Client, opts Options) *Migrator {
	return &Migrator{Source: source, Target: target, Opts: opts}
}

// Result is the outcome of one zone's migration, per spec §3.
type Result struct {
	SourceZone string
	TargetZone string
	Action     Action
	Changes    []diff.Change
	Elapsed    time.Duration
}

// Migrate runs the state machine of §4.4 for one zone name.
func (m *Migrator) Migrate(ctx context.Context, zoneName string) (*Result, error) {
	start := time.Now()
	zoneName = zonemodel.EnsureTrailingDot(zoneName)

	raw, err := m.Source.GetZone(ctx, zoneName)
	if err != nil {
		return nil, err
	}

	sanitized, err := sanitize.Sanitize(raw, m.Opts.Sanitize)
	if err != nil {
		return nil, err
	}

	exists, err := m.Target.ZoneExists(ctx, zoneName)
	if err != nil {
		return nil, err
	}

	result := &Result{SourceZone: zoneName, TargetZone: zoneName}

	switch {
	case !exists:
		result.Action = CreateZone
		result.Changes = diff.Diff(sanitized.RRSets, nil, m.Opts.Diff)
		if err := m.create(ctx, sanitized); err != nil {
			return nil, err
		}

	case m.Opts.Recreate:
		targetZone, err := m.Target.GetZone(ctx, zoneName)
		if err != nil {
			return nil, err
		}
		changes := diff.Diff(sanitized.RRSets, targetZone.RRSets, m.Opts.Diff)
		result.Changes = changes
		if diff.HasChanges(changes) {
			result.Action = RecreateZone
			if err := m.recreate(ctx, sanitized); err != nil {
				return nil, err
			}
		} else {
			result.Action = Noop
		}

	default:
		targetZone, err := m.Target.GetZone(ctx, zoneName)
		if err != nil {
			return nil, err
		}
		changes := diff.Diff(sanitized.RRSets, targetZone.RRSets, m.Opts.Diff)
		result.Changes = changes
		if diff.HasChanges(changes) {
			result.Action = PatchZone
			if err := m.patch(ctx, zoneName, changes); err != nil {
				return nil, err
			}
		} else {
			result.Action = Noop
		}
	}

	result.Elapsed = time.Since(start)
	log.Infof("zone %s: action=%s changes=%d elapsed=%s", zoneName, result.Action, len(result.Changes), result.Elapsed)
	return result, nil
}

func (m *Migrator) create(ctx context.Context, zone zonemodel.Zone) error {
	if m.Opts.DryRun {
		return nil
	}
	return m.Target.CreateZone(ctx, zone)
}

func (m *Migrator) recreate(ctx context.Context, zone zonemodel.Zone) error {
	if m.Opts.DryRun {
		return nil
	}
	if err := m.Target.DeleteZone(ctx, zone.Name); err != nil {
		return err
	}
	return m.Target.CreateZone(ctx, zone)
}

func (m *Migrator) patch(ctx context.Context, zoneName string, changes []diff.Change) error {
	if m.Opts.DryRun {
		return nil
	}
	rrsets := make([]zonemodel.RRSet, 0, len(changes))
	for _, c := range changes {
		rrsets = append(rrsets, zonemodel.RRSet{
			Name:       c.Name,
			Type:       c.Type,
			TTL:        c.TTL,
			Records:    c.Records,
			Comments:   c.Comments,
			ChangeType: string(c.ChangeType),
		})
	}
	return m.Target.PatchRRSets(ctx, zoneName, rrsets)
}
