package diff

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/railadeividas/powerdns-migrator/internal/zonemodel"
)

func rr(name, typ string, ttl int, contents ...string) zonemodel.RRSet {
	recs := make([]zonemodel.Record, 0, len(contents))
	for _, c := range contents {
		recs = append(recs, zonemodel.Record{Content: c})
	}
	return zonemodel.RRSet{Name: name, Type: typ, TTL: ttl, Records: recs}
}

func TestDiffFreshCreate(t *testing.T) {
	source := []zonemodel.RRSet{rr("example.com.", "A", 300, "1.2.3.4")}
	changes := Diff(source, nil, Options{})
	if len(changes) != 1 || changes[0].ChangeType != Replace {
		t.Fatalf("expected one REPLACE, got %+v", changes)
	}
}

func TestDiffNoopWhenIdentical(t *testing.T) {
	a := rr("example.com.", "A", 300, "1.2.3.4")
	changes := Diff([]zonemodel.RRSet{a}, []zonemodel.RRSet{a}, Options{})
	if len(changes) != 0 {
		t.Fatalf("expected no changes for identical RRSets, got %+v", changes)
	}
}

func TestDiffDeletesMissingFromSource(t *testing.T) {
	target := []zonemodel.RRSet{rr("stale.example.com.", "A", 300, "1.1.1.1")}
	changes := Diff(nil, target, Options{})
	if len(changes) != 1 || changes[0].ChangeType != Delete {
		t.Fatalf("expected one DELETE, got %+v", changes)
	}
}

func TestDiffIgnoresRecordOrder(t *testing.T) {
	source := rr("example.com.", "A", 300, "1.1.1.1", "2.2.2.2")
	target := rr("example.com.", "A", 300, "2.2.2.2", "1.1.1.1")
	changes := Diff([]zonemodel.RRSet{source}, []zonemodel.RRSet{target}, Options{})
	if len(changes) != 0 {
		t.Fatalf("expected record multiset equality to ignore order, got %+v", changes)
	}
}

func TestDiffSOASerialDrift(t *testing.T) {
	source := rr("example.com.", "SOA", 3600, "a.example.com. hostmaster.example.com. 100 10800 3600 604800 3600")
	target := rr("example.com.", "SOA", 3600, "a.example.com. hostmaster.example.com. 999 10800 3600 604800 3600")

	// Without IgnoreSOASerial, the differing serial produces a REPLACE.
	changes := Diff([]zonemodel.RRSet{source}, []zonemodel.RRSet{target}, Options{})
	if len(changes) != 1 {
		t.Fatalf("expected serial drift to produce a change without IgnoreSOASerial, got %+v", changes)
	}

	// With IgnoreSOASerial, serial-only drift is a no-op.
	changes = Diff([]zonemodel.RRSet{source}, []zonemodel.RRSet{target}, Options{IgnoreSOASerial: true})
	if len(changes) != 0 {
		t.Fatalf("expected no changes with IgnoreSOASerial, got %+v", changes)
	}
}

func TestDiffOrdersReplacesBeforeDeletes(t *testing.T) {
	source := []zonemodel.RRSet{rr("b.example.com.", "A", 300, "1.1.1.1")}
	target := []zonemodel.RRSet{rr("a.example.com.", "A", 300, "9.9.9.9")}
	changes := Diff(source, target, Options{})
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if changes[0].ChangeType != Replace || changes[1].ChangeType != Delete {
		t.Fatalf("expected REPLACE before DELETE, got %+v", changes)
	}
}

func TestCommentsEqualIgnoresModifiedAt(t *testing.T) {
	source := rr("example.com.", "TXT", 300, "\"v=spf1 -all\"")
	source.Comments = []zonemodel.Comment{{Content: "note", Account: "acct", ModifiedAt: 100}}
	target := source
	target.Comments = []zonemodel.Comment{{Content: "note", Account: "acct", ModifiedAt: 999}}

	changes := Diff([]zonemodel.RRSet{source}, []zonemodel.RRSet{target}, Options{})
	if len(changes) != 0 {
		t.Fatalf("expected ModifiedAt-only drift to be a no-op, got %+v", changes)
	}
}

func TestHasChanges(t *testing.T) {
	if HasChanges(nil) {
		t.Error("HasChanges(nil) should be false")
	}
	if !HasChanges([]Change{{}}) {
		t.Error("HasChanges with one element should be true")
	}
}

func TestDiffOutputIsDeterministic(t *testing.T) {
	source := []zonemodel.RRSet{
		rr("z.example.com.", "A", 300, "1.1.1.1"),
		rr("a.example.com.", "A", 300, "2.2.2.2"),
	}
	c1 := Diff(source, nil, Options{})
	c2 := Diff(source, nil, Options{})
	if diff := cmp.Diff(c1, c2); diff != "" {
		t.Fatalf("Diff should be deterministic across calls (-c1 +c2):\n%s", diff)
	}
	if c1[0].Name != "a.example.com." {
		t.Fatalf("expected changes sorted by name, got %+v", c1)
	}
}
