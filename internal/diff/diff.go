// Package diff computes the minimal set of RRSet mutations that would
// make a target zone's record sets equal to a sanitized source zone's,
// per spec §4.3. It mirrors the row-matching idea of external-dns's
// plan.Plan (matching candidates against current state by key) narrowed
// to the two-snapshot, (name,type)-keyed case this system needs.
package diff

import (
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/railadeividas/powerdns-migrator/internal/zonemodel"
)

// ChangeType mirrors the PowerDNS PATCH changetype values.
type ChangeType string

const (
	Replace ChangeType = "REPLACE"
	Delete  ChangeType = "DELETE"
)

// Change is one RRSet mutation to apply to the target zone.
type Change struct {
	ChangeType ChangeType
	Name       string
	Type       string
	TTL        int
	Records    []zonemodel.Record
	Comments   []zonemodel.Comment
}

// Options configures the equivalence relation used to compare RRSets.
type Options struct {
	// IgnoreSOASerial makes SOA comparison ignore the serial token: the
	// target keeps its own serial and is considered equal whenever every
	// other SOA field and the TTL match.
	IgnoreSOASerial bool
}

// Diff computes changes that would bring target to equal source under
// the configured equivalence. Output is ordered REPLACEs (sorted by
// name,type) before DELETEs (sorted by name,type), per spec §4.3.
func Diff(source, target []zonemodel.RRSet, opts Options) []Change {
	sourceByKey := indexByKey(source)
	targetByKey := indexByKey(target)

	var replaces []Change
	var deletes []Change

	for key, src := range sourceByKey {
		tgt, ok := targetByKey[key]
		if !ok || !equivalent(src, tgt, opts) {
			replaces = append(replaces, toReplace(src))
		}
	}
	for key, tgt := range targetByKey {
		if _, ok := sourceByKey[key]; !ok {
			deletes = append(deletes, toDelete(tgt))
		}
	}

	sortChanges(replaces)
	sortChanges(deletes)

	changes := make([]Change, 0, len(replaces)+len(deletes))
	changes = append(changes, replaces...)
	changes = append(changes, deletes...)
	return changes
}

func indexByKey(rrsets []zonemodel.RRSet) map[zonemodel.Key]zonemodel.RRSet {
	out := make(map[zonemodel.Key]zonemodel.RRSet, len(rrsets))
	for _, rr := range rrsets {
		out[rr.Key()] = rr
	}
	return out
}

func toReplace(rr zonemodel.RRSet) Change {
	return Change{
		ChangeType: Replace,
		Name:       rr.Name,
		Type:       rr.Type,
		TTL:        rr.TTL,
		Records:    rr.Records,
		Comments:   rr.Comments,
	}
}

func toDelete(rr zonemodel.RRSet) Change {
	return Change{ChangeType: Delete, Name: rr.Name, Type: rr.Type}
}

func sortChanges(changes []Change) {
	sort.SliceStable(changes, func(i, j int) bool {
		if changes[i].Name != changes[j].Name {
			return changes[i].Name < changes[j].Name
		}
		return changes[i].Type < changes[j].Type
	})
}

// equivalent reports whether two RRSets are equal under the configured
// equivalence relation: equal TTL, records equal as a multiset of
// (content, disabled), comments equal as a multiset ignoring ModifiedAt.
func equivalent(a, b zonemodel.RRSet, opts Options) bool {
	if opts.IgnoreSOASerial && strings.EqualFold(a.Type, "SOA") {
		b = withSourceSerial(a, b)
	}
	if a.TTL != b.TTL {
		return false
	}
	return multisetEqual(a.Records, b.Records) && commentsEqual(a.Comments, b.Comments)
}

// withSourceSerial returns a copy of target whose SOA serial field has
// been replaced by source's, so the comparison ignores serial drift.
func withSourceSerial(source, target zonemodel.RRSet) zonemodel.RRSet {
	out := target
	out.Records = make([]zonemodel.Record, len(target.Records))
	copy(out.Records, target.Records)
	srcSerial := soaSerial(source)
	for i, rec := range out.Records {
		out.Records[i].Content = replaceSOASerial(rec.Content, srcSerial)
	}
	return out
}

// soaSerial extracts the serial (3rd whitespace-separated field) from
// the first SOA record's content, or "" if absent/malformed.
func soaSerial(rr zonemodel.RRSet) string {
	if len(rr.Records) == 0 {
		return ""
	}
	fields := strings.Fields(rr.Records[0].Content)
	if len(fields) < 3 {
		return ""
	}
	return fields[2]
}

// replaceSOASerial substitutes the serial field of a SOA record content
// string ("mname rname serial refresh retry expire minimum") with serial.
func replaceSOASerial(content, serial string) string {
	if serial == "" {
		return content
	}
	fields := strings.Fields(content)
	if len(fields) < 3 {
		return content
	}
	fields[2] = serial
	return strings.Join(fields, " ")
}

func multisetEqual(a, b []zonemodel.Record) bool {
	return cmp.Equal(sortedRecords(a), sortedRecords(b))
}

func sortedRecords(in []zonemodel.Record) []zonemodel.Record {
	out := make([]zonemodel.Record, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Content != out[j].Content {
			return out[i].Content < out[j].Content
		}
		return !out[i].Disabled && out[j].Disabled
	})
	return out
}

func commentsEqual(a, b []zonemodel.Comment) bool {
	return cmp.Equal(sortedComments(a), sortedComments(b), cmpopts.IgnoreFields(zonemodel.Comment{}, "ModifiedAt"))
}

func sortedComments(in []zonemodel.Comment) []zonemodel.Comment {
	out := make([]zonemodel.Comment, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Account != out[j].Account {
			return out[i].Account < out[j].Account
		}
		return out[i].Content < out[j].Content
	})
	return out
}

// HasChanges reports whether changes contains anything to apply.
func HasChanges(changes []Change) bool { return len(changes) > 0 }
