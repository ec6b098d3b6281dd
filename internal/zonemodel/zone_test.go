package zonemodel

import "testing"

func TestEnsureTrailingDot(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{"", ""},
		{"example.com", "example.com."},
		{"example.com.", "example.com."},
	} {
		if got := EnsureTrailingDot(tc.in); got != tc.want {
			t.Errorf("EnsureTrailingDot(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsApex(t *testing.T) {
	for _, tc := range []struct {
		owner, zone string
		want        bool
	}{
		{"example.com.", "example.com.", true},
		{"example.com", "example.com.", true},
		{"EXAMPLE.com.", "example.com.", true},
		{"www.example.com.", "example.com.", false},
	} {
		if got := IsApex(tc.owner, tc.zone); got != tc.want {
			t.Errorf("IsApex(%q, %q) = %v, want %v", tc.owner, tc.zone, got, tc.want)
		}
	}
}

func TestIsSubdomainOf(t *testing.T) {
	for _, tc := range []struct {
		owner, zone string
		want        bool
	}{
		{"example.com.", "example.com.", true},
		{"www.example.com.", "example.com.", true},
		{"notexample.com.", "example.com.", false},
		{"other.org.", "example.com.", false},
	} {
		if got := IsSubdomainOf(tc.owner, tc.zone); got != tc.want {
			t.Errorf("IsSubdomainOf(%q, %q) = %v, want %v", tc.owner, tc.zone, got, tc.want)
		}
	}
}

func TestRRSetKey(t *testing.T) {
	a := RRSet{Name: "WWW.example.com.", Type: "cname"}
	b := RRSet{Name: "www.example.com.", Type: "CNAME"}
	if a.Key() != b.Key() {
		t.Errorf("Key() should be case-insensitive: %v != %v", a.Key(), b.Key())
	}
}
