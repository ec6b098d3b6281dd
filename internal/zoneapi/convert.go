package zoneapi

import (
	pgo "github.com/ffledgling/pdns-go"

	"github.com/railadeividas/powerdns-migrator/internal/zonemodel"
)

// This file converts between pgo's generated PowerDNS wire types and
// this system's own zonemodel types, the same role
// convertRRSetToEndpoints/ConvertEndpointsToZones play in
// provider/pdns/pdns.go — except round-tripping full RRSet fidelity
// (records, disabled flags, comments) instead of collapsing to
// endpoint.Endpoint, since the sanitizer and diff engine need it.

func fromPgoZone(z pgo.Zone) zonemodel.Zone {
	return zonemodel.Zone{
		Name:           z.Name,
		Kind:           z.Kind,
		RRSets:         fromPgoRRSets(z.Rrsets),
		Nameservers:    z.Nameservers,
		Masters:        z.Masters,
		Account:        z.Account,
		SoaEdit:        z.SoaEdit,
		SoaEditAPI:     z.SoaEditApi,
		ID:             z.Id,
		URL:            z.Url,
		Serial:         int(z.Serial),
		NotifiedSerial: int(z.NotifiedSerial),
		EditedSerial:   int(z.EditedSerial),
		APIRectify:     boolPtr(z.ApiRectify),
		DNSsec:         boolPtr(z.Dnssec),
		Nsec3Param:     z.Nsec3param,
		Presigned:      boolPtr(z.Presigned),
		LastCheck:      int(z.LastCheck),
	}
}

func toPgoZone(z zonemodel.Zone) pgo.Zone {
	return pgo.Zone{
		Name:        z.Name,
		Kind:        z.Kind,
		Rrsets:      toPgoRRSets(z.RRSets),
		Nameservers: z.Nameservers,
		Masters:     z.Masters,
		Account:     z.Account,
		SoaEdit:     z.SoaEdit,
		SoaEditApi:  z.SoaEditAPI,
	}
}

func fromPgoRRSets(in []pgo.RrSet) []zonemodel.RRSet {
	out := make([]zonemodel.RRSet, 0, len(in))
	for _, rr := range in {
		out = append(out, zonemodel.RRSet{
			Name:       rr.Name,
			Type:       rr.Type_,
			TTL:        int(rr.Ttl),
			Records:    fromPgoRecords(rr.Records),
			Comments:   fromPgoComments(rr.Comments),
			ChangeType: rr.Changetype,
		})
	}
	return out
}

func toPgoRRSets(in []zonemodel.RRSet) []pgo.RrSet {
	out := make([]pgo.RrSet, 0, len(in))
	for _, rr := range in {
		out = append(out, pgo.RrSet{
			Name:       rr.Name,
			Type_:      rr.Type,
			Ttl:        int32(rr.TTL),
			Records:    toPgoRecords(rr.Records),
			Comments:   toPgoComments(rr.Comments),
			Changetype: rr.ChangeType,
		})
	}
	return out
}

func fromPgoRecords(in []pgo.Record) []zonemodel.Record {
	out := make([]zonemodel.Record, 0, len(in))
	for _, r := range in {
		out = append(out, zonemodel.Record{Content: r.Content, Disabled: r.Disabled})
	}
	return out
}

func toPgoRecords(in []zonemodel.Record) []pgo.Record {
	out := make([]pgo.Record, 0, len(in))
	for _, r := range in {
		out = append(out, pgo.Record{Content: r.Content, Disabled: r.Disabled})
	}
	return out
}

func fromPgoComments(in []pgo.Comment) []zonemodel.Comment {
	out := make([]zonemodel.Comment, 0, len(in))
	for _, c := range in {
		out = append(out, zonemodel.Comment{Content: c.Content, Account: c.Account, ModifiedAt: c.ModifiedAt})
	}
	return out
}

func toPgoComments(in []zonemodel.Comment) []pgo.Comment {
	out := make([]pgo.Comment, 0, len(in))
	for _, c := range in {
		out = append(out, pgo.Comment{Content: c.Content, Account: c.Account, ModifiedAt: c.ModifiedAt})
	}
	return out
}

func boolPtr(b bool) *bool { return &b }
