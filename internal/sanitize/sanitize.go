// Package sanitize turns a raw server-returned zone document into the
// canonical form used for comparison and upload, per spec §4.2. It
// generalizes the field-normalization style of external-dns's
// provider/pdns.convertRRSetToEndpoints (trailing-dot names, uppercase
// types) to the full RRSet fidelity (records, disabled flags, comments)
// this system's diff engine needs.
package sanitize

import (
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	pdnserrors "github.com/railadeividas/powerdns-migrator/internal/errors"
	"github.com/railadeividas/powerdns-migrator/internal/zonemodel"
)

// Options controls the opt-in repair steps of §4.2.
type Options struct {
	NormalizeTXTEscapes         bool
	AutoFixCNAMEConflicts       bool
	AutoFixDoubleCNAMEConflicts bool
}

// Sanitize transforms a raw zone into canonical form, per spec §4.2
// steps 1-6. It returns a ValidationError if a (name,type) duplicate
// remains after the configured auto-fix options are applied.
func Sanitize(raw zonemodel.Zone, opts Options) (zonemodel.Zone, error) {
	zone := raw
	zone.Name = zonemodel.EnsureTrailingDot(raw.Name)

	// Step 1: drop read-only fields.
	zone.ID = ""
	zone.URL = ""
	zone.Serial = 0
	zone.NotifiedSerial = 0
	zone.EditedSerial = 0
	zone.APIRectify = nil
	zone.DNSsec = nil
	zone.Presigned = nil
	zone.LastCheck = 0
	// Nsec3Param and soa_edit* may be active DNSSEC/signing configuration,
	// not purely read-only presentation state; leave them as the server
	// returned them rather than silently stripping (see DESIGN.md §DNSSEC).

	// Step 2/3: normalize each RRSet.
	rrsets := make([]zonemodel.RRSet, 0, len(raw.RRSets))
	for _, rr := range raw.RRSets {
		rrsets = append(rrsets, normalizeRRSet(rr))
	}

	if opts.NormalizeTXTEscapes {
		for i := range rrsets {
			if isTextualType(rrsets[i].Type) {
				normalizeTXTEscapes(&rrsets[i])
			}
		}
	}

	if opts.AutoFixCNAMEConflicts || opts.AutoFixDoubleCNAMEConflicts {
		rrsets = fixCNAMEConflicts(rrsets, zone.Name, opts)
	}

	// Step 6: canonical sort by (name, type).
	sort.SliceStable(rrsets, func(i, j int) bool {
		if rrsets[i].Name != rrsets[j].Name {
			return rrsets[i].Name < rrsets[j].Name
		}
		return rrsets[i].Type < rrsets[j].Type
	})

	if dupName, dupType, ok := firstDuplicateKey(rrsets); ok {
		return zonemodel.Zone{}, &pdnserrors.ValidationError{
			Zone:    zone.Name,
			Message: "duplicate rrset for " + dupName + " " + dupType + " after sanitization",
		}
	}

	// A CNAME at an owner that still carries any other type is invalid
	// per RFC 1034 regardless of which auto-fix options were enabled;
	// the two flags above only describe how to repair it, not whether
	// the conflict is tolerated unrepaired.
	if owner, ok := cnameConflictOwner(rrsets); ok {
		return zonemodel.Zone{}, &pdnserrors.ValidationError{
			Zone:    zone.Name,
			Message: "CNAME at " + owner + " conflicts with another rrset at the same owner",
		}
	}

	zone.RRSets = rrsets
	return zone, nil
}

func normalizeRRSet(rr zonemodel.RRSet) zonemodel.RRSet {
	out := rr
	out.Name = zonemodel.EnsureTrailingDot(rr.Name)
	out.Type = strings.ToUpper(rr.Type)
	if out.Records == nil {
		out.Records = []zonemodel.Record{}
	}
	if out.Comments == nil {
		out.Comments = []zonemodel.Comment{}
	}
	return out
}

func isTextualType(t string) bool {
	switch strings.ToUpper(t) {
	case "TXT", "SPF":
		return true
	default:
		return false
	}
}

// normalizeTXTEscapes decodes decimal escape triplets (\NNN) in each
// record's content into raw bytes, then re-serializes using PowerDNS's
// canonical quoting (a double-quoted, backslash-escaped string), so that
// two semantically identical TXT records from different backends
// compare equal.
func normalizeTXTEscapes(rr *zonemodel.RRSet) {
	for i, rec := range rr.Records {
		decoded := decodeDecimalEscapes(rec.Content)
		rr.Records[i].Content = canonicalQuote(decoded)
	}
}

// decodeDecimalEscapes unescapes \NNN (0<=NNN<=255, exactly 3 digits)
// triplets into raw bytes, and unescapes \" and \\ in the usual way. It
// also strips one layer of surrounding double quotes if present, since
// server content is usually already quoted.
func decodeDecimalEscapes(s string) []byte {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		// Lookahead for a 3-digit decimal escape.
		if i+3 < len(s) && isDigit(s[i+1]) && isDigit(s[i+2]) && isDigit(s[i+3]) {
			n, err := strconv.Atoi(s[i+1 : i+4])
			if err == nil && n >= 0 && n <= 255 {
				out = append(out, byte(n))
				i += 3
				continue
			}
		}
		// \" or \\ or any other escaped byte: keep the escaped byte itself.
		if i+1 < len(s) {
			out = append(out, s[i+1])
			i++
			continue
		}
		out = append(out, c)
	}
	return out
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// canonicalQuote re-serializes raw bytes as a double-quoted string,
// escaping embedded quotes, backslashes and non-printable bytes as
// decimal triplets, matching PowerDNS's own TXT quoting.
func canonicalQuote(raw []byte) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, c := range raw {
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 0x20 || c >= 0x7f:
			b.WriteString("\\")
			b.WriteString(padDecimal(c))
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func padDecimal(c byte) string {
	s := strconv.Itoa(int(c))
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

// fixCNAMEConflicts applies the two independent CNAME-repair options of
// spec §4.2 step 5.
func fixCNAMEConflicts(rrsets []zonemodel.RRSet, zoneName string, opts Options) []zonemodel.RRSet {
	if opts.AutoFixDoubleCNAMEConflicts {
		for i := range rrsets {
			if rrsets[i].Type == "CNAME" && len(rrsets[i].Records) > 1 {
				rrsets[i].Records = rrsets[i].Records[:1]
			}
		}
	}

	if !opts.AutoFixCNAMEConflicts {
		return rrsets
	}

	byOwner := make(map[string][]int)
	for i, rr := range rrsets {
		byOwner[rr.Name] = append(byOwner[rr.Name], i)
	}

	drop := make(map[int]bool)
	for owner, idxs := range byOwner {
		hasCNAME := false
		for _, i := range idxs {
			if rrsets[i].Type == "CNAME" {
				hasCNAME = true
				break
			}
		}
		if !hasCNAME || len(idxs) < 2 {
			continue
		}
		if zonemodel.IsApex(owner, zoneName) {
			// Apex: drop the CNAME, keep everything else.
			for _, i := range idxs {
				if rrsets[i].Type == "CNAME" {
					drop[i] = true
					log.Debugf("sanitize: dropping apex CNAME at %s to resolve conflict", owner)
				}
			}
		} else {
			// Elsewhere: drop every non-CNAME, keep only the CNAME.
			for _, i := range idxs {
				if rrsets[i].Type != "CNAME" {
					drop[i] = true
					log.Debugf("sanitize: dropping %s at %s to resolve CNAME conflict", rrsets[i].Type, owner)
				}
			}
		}
	}

	out := make([]zonemodel.RRSet, 0, len(rrsets))
	for i, rr := range rrsets {
		if !drop[i] {
			out = append(out, rr)
		}
	}
	return out
}

// cnameConflictOwner reports the first owner name, if any, that carries
// both a CNAME rrset and at least one rrset of another type. rrsets is
// assumed sorted by (name, type), so all rrsets sharing an owner are
// adjacent.
func cnameConflictOwner(rrsets []zonemodel.RRSet) (owner string, found bool) {
	for i := 0; i < len(rrsets); {
		j := i
		hasCNAME, hasOther := false, false
		for j < len(rrsets) && rrsets[j].Name == rrsets[i].Name {
			if rrsets[j].Type == "CNAME" {
				hasCNAME = true
			} else {
				hasOther = true
			}
			j++
		}
		if hasCNAME && hasOther {
			return rrsets[i].Name, true
		}
		i = j
	}
	return "", false
}

func firstDuplicateKey(rrsets []zonemodel.RRSet) (name string, typ string, found bool) {
	seen := make(map[zonemodel.Key]bool, len(rrsets))
	for _, rr := range rrsets {
		k := rr.Key()
		if seen[k] {
			return rr.Name, rr.Type, true
		}
		seen[k] = true
	}
	return "", "", false
}
