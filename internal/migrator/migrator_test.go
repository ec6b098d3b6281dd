package migrator

import (
	"context"
	"testing"

	pdnserrors "github.com/railadeividas/powerdns-migrator/internal/errors"
	"github.com/railadeividas/powerdns-migrator/internal/zonemodel"
)

// fakeClient is an in-memory stand-in for zoneapi.Client, grounded in
// the teacher's own style of testing providers against an in-memory
// fixture rather than a live server (provider/inmemory is the teacher's
// analogue for its own Provider interface).
type fakeClient struct {
	zones map[string]zonemodel.Zone

	createCalls []zonemodel.Zone
	deleteCalls []string
	patchCalls  [][]zonemodel.RRSet

	createErr error
	getErr    error
}

func (f *fakeClient) GetZone(_ context.Context, zone string) (zonemodel.Zone, error) {
	if f.getErr != nil {
		return zonemodel.Zone{}, f.getErr
	}
	z, ok := f.zones[zone]
	if !ok {
		return zonemodel.Zone{}, &pdnserrors.NotFoundError{HttpError: &pdnserrors.HttpError{StatusCode: 404}}
	}
	return z, nil
}

func (f *fakeClient) ZoneExists(_ context.Context, zone string) (bool, error) {
	_, ok := f.zones[zone]
	return ok, nil
}

func (f *fakeClient) CreateZone(_ context.Context, zone zonemodel.Zone) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.createCalls = append(f.createCalls, zone)
	if f.zones == nil {
		f.zones = map[string]zonemodel.Zone{}
	}
	f.zones[zone.Name] = zone
	return nil
}

func (f *fakeClient) DeleteZone(_ context.Context, zone string) error {
	f.deleteCalls = append(f.deleteCalls, zone)
	delete(f.zones, zone)
	return nil
}

func (f *fakeClient) PatchRRSets(_ context.Context, zone string, rrsets []zonemodel.RRSet) error {
	f.patchCalls = append(f.patchCalls, rrsets)
	z := f.zones[zone]
	z.RRSets = rrsets
	f.zones[zone] = z
	return nil
}

func zoneWithA(name string, ttl int, ip string) zonemodel.Zone {
	return zonemodel.Zone{
		Name: name,
		RRSets: []zonemodel.RRSet{
			{Name: name, Type: "A", TTL: ttl, Records: []zonemodel.Record{{Content: ip}}},
		},
	}
}

func TestMigrateCreatesMissingZone(t *testing.T) {
	source := &fakeClient{zones: map[string]zonemodel.Zone{"example.com.": zoneWithA("example.com.", 300, "1.2.3.4")}}
	target := &fakeClient{zones: map[string]zonemodel.Zone{}}
	m := New(source, target, Options{})

	result, err := m.Migrate(context.Background(), "example.com.")
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if result.Action != CreateZone {
		t.Errorf("expected CreateZone, got %s", result.Action)
	}
	if len(target.createCalls) != 1 {
		t.Errorf("expected one CreateZone call, got %d", len(target.createCalls))
	}
}

func TestMigrateIsNoopWhenIdentical(t *testing.T) {
	z := zoneWithA("example.com.", 300, "1.2.3.4")
	source := &fakeClient{zones: map[string]zonemodel.Zone{"example.com.": z}}
	target := &fakeClient{zones: map[string]zonemodel.Zone{"example.com.": z}}
	m := New(source, target, Options{})

	result, err := m.Migrate(context.Background(), "example.com.")
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if result.Action != Noop {
		t.Errorf("expected NOOP, got %s", result.Action)
	}
	if len(target.patchCalls) != 0 {
		t.Errorf("expected no PatchRRSets call for a no-op migration, got %d", len(target.patchCalls))
	}
}

func TestMigratePatchesWhenDrifted(t *testing.T) {
	source := &fakeClient{zones: map[string]zonemodel.Zone{"example.com.": zoneWithA("example.com.", 300, "9.9.9.9")}}
	target := &fakeClient{zones: map[string]zonemodel.Zone{"example.com.": zoneWithA("example.com.", 300, "1.2.3.4")}}
	m := New(source, target, Options{})

	result, err := m.Migrate(context.Background(), "example.com.")
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if result.Action != PatchZone {
		t.Errorf("expected PatchZone, got %s", result.Action)
	}
	if len(target.patchCalls) != 1 {
		t.Errorf("expected one PatchRRSets call, got %d", len(target.patchCalls))
	}
}

func TestMigrateRecreateDeletesThenCreates(t *testing.T) {
	source := &fakeClient{zones: map[string]zonemodel.Zone{"example.com.": zoneWithA("example.com.", 300, "9.9.9.9")}}
	target := &fakeClient{zones: map[string]zonemodel.Zone{"example.com.": zoneWithA("example.com.", 300, "1.2.3.4")}}
	m := New(source, target, Options{Recreate: true})

	result, err := m.Migrate(context.Background(), "example.com.")
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if result.Action != RecreateZone {
		t.Errorf("expected RecreateZone, got %s", result.Action)
	}
	if len(target.deleteCalls) != 1 || len(target.createCalls) != 1 {
		t.Errorf("expected one delete then one create, got deletes=%d creates=%d", len(target.deleteCalls), len(target.createCalls))
	}
}

func TestMigrateRecreateIsNoopWhenAlreadySynced(t *testing.T) {
	z := zoneWithA("example.com.", 300, "1.2.3.4")
	source := &fakeClient{zones: map[string]zonemodel.Zone{"example.com.": z}}
	target := &fakeClient{zones: map[string]zonemodel.Zone{"example.com.": z}}
	m := New(source, target, Options{Recreate: true})

	result, err := m.Migrate(context.Background(), "example.com.")
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if result.Action != Noop {
		t.Errorf("expected NOOP for a second --recreate run against an already-synced target, got %s", result.Action)
	}
	if len(target.deleteCalls) != 0 || len(target.createCalls) != 0 {
		t.Errorf("expected no delete/create calls, got deletes=%d creates=%d", len(target.deleteCalls), len(target.createCalls))
	}
}

func TestMigrateDryRunMakesNoMutatingCalls(t *testing.T) {
	source := &fakeClient{zones: map[string]zonemodel.Zone{"example.com.": zoneWithA("example.com.", 300, "1.2.3.4")}}
	target := &fakeClient{zones: map[string]zonemodel.Zone{}}
	m := New(source, target, Options{DryRun: true})

	result, err := m.Migrate(context.Background(), "example.com.")
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if result.Action != CreateZone {
		t.Errorf("expected CreateZone decision even in dry-run, got %s", result.Action)
	}
	if len(target.createCalls) != 0 {
		t.Errorf("expected no CreateZone call in dry-run mode, got %d", len(target.createCalls))
	}
}

func TestMigratePropagatesSourceFetchError(t *testing.T) {
	source := &fakeClient{getErr: pdnserrors.NewConfigError("boom")}
	target := &fakeClient{}
	m := New(source, target, Options{})

	if _, err := m.Migrate(context.Background(), "example.com."); err == nil {
		t.Fatal("expected Migrate to propagate the source fetch error")
	}
}
