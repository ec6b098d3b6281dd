// Package zonemodel holds the PowerDNS wire types shared by the API
// client, sanitizer, diff engine and migrator: Zone, RRSet, Record and
// Comment, named and tagged after the Authoritative HTTP API
// (https://doc.powerdns.com/authoritative/http-api/zone.html).
package zonemodel

import "strings"

// Record is a single resource-record value within an RRSet.
type Record struct {
	Content  string `json:"content"`
	Disabled bool   `json:"disabled"`
}

// Comment is a free-form annotation attached to an RRSet. ModifiedAt is
// server-managed and is never compared for equality (see diff package).
type Comment struct {
	Content    string `json:"content"`
	Account    string `json:"account,omitempty"`
	ModifiedAt int64  `json:"modified_at,omitempty"`
}

// RRSet is one (name, type) record set within a zone.
type RRSet struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	TTL        int       `json:"ttl"`
	Records    []Record  `json:"records"`
	Comments   []Comment `json:"comments,omitempty"`
	ChangeType string    `json:"changetype,omitempty"`
}

// Key identifies an RRSet by its (name, type) pair, with the name
// lower-cased and the type upper-cased for case-insensitive comparison.
type Key struct {
	Name string
	Type string
}

// Key returns the (name, type) identity of the RRSet, with the name
// lower-cased and the type upper-cased.
func (r RRSet) Key() Key {
	return Key{Name: strings.ToLower(r.Name), Type: strings.ToUpper(r.Type)}
}

// Zone is a full zone document as returned by / sent to the PowerDNS API.
type Zone struct {
	// Read-write fields.
	Name        string  `json:"name"`
	Kind        string  `json:"kind,omitempty"`
	RRSets      []RRSet `json:"rrsets"`
	Nameservers []string `json:"nameservers,omitempty"`
	Masters     []string `json:"masters,omitempty"`
	Account     string  `json:"account,omitempty"`
	SoaEdit     string  `json:"soa_edit,omitempty"`
	SoaEditAPI  string  `json:"soa_edit_api,omitempty"`

	// Read-only fields, stripped by the sanitizer before a write, except
	// Nsec3Param, which the sanitizer leaves as the server returned it.
	ID             string `json:"id,omitempty"`
	URL            string `json:"url,omitempty"`
	Serial         int    `json:"serial,omitempty"`
	NotifiedSerial int    `json:"notified_serial,omitempty"`
	EditedSerial   int    `json:"edited_serial,omitempty"`
	APIRectify     *bool  `json:"api_rectify,omitempty"`
	DNSsec         *bool  `json:"dnssec,omitempty"`
	Nsec3Param     string `json:"nsec3param,omitempty"`
	Presigned      *bool  `json:"presigned,omitempty"`
	LastCheck      int    `json:"last_check,omitempty"`
}

// ZoneSummary is the abbreviated form returned by "list zones".
type ZoneSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Serial int    `json:"serial"`
}

// EnsureTrailingDot appends a trailing dot to a name if it is missing.
func EnsureTrailingDot(name string) string {
	if name == "" || strings.HasSuffix(name, ".") {
		return name
	}
	return name + "."
}

// NormalizeName lower-cases the ASCII portion of a fully-qualified name
// for use as a comparison key. It does not mutate the server-facing form.
func NormalizeName(name string) string {
	return strings.ToLower(EnsureTrailingDot(name))
}

// IsApex reports whether owner is the zone's own apex name.
func IsApex(owner, zoneName string) bool {
	return NormalizeName(owner) == NormalizeName(zoneName)
}

// IsSubdomainOf reports whether owner is the zone apex or a name below it.
func IsSubdomainOf(owner, zoneName string) bool {
	o := NormalizeName(owner)
	z := NormalizeName(zoneName)
	return o == z || strings.HasSuffix(o, "."+z)
}
