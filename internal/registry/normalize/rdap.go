package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
)

type rdapDomain struct {
	ObjectClassName string       `json:"objectClassName"`
	LDHName         string       `json:"ldhName"`
	UnicodeName     string       `json:"unicodeName"`
	Status          []string     `json:"status"`
	Events          []rdapEvent  `json:"events"`
	Nameservers     []rdapNS     `json:"nameservers"`
	Entities        []rdapEntity `json:"entities"`
}

type rdapEvent struct {
	Action string `json:"eventAction"`
	Date   string `json:"eventDate"`
}

type rdapNS struct {
	LDHName string `json:"ldhName"`
}

type rdapEntity struct {
	Roles      []string          `json:"roles"`
	VCardArray []json.RawMessage `json:"vcardArray"`
	Entities   []rdapEntity      `json:"entities"`
}

// vcard holds the jCard properties the canonical record uses.
type vcard struct {
	fn, org, tel, email string
	street, city        string
	postalCode, country string
}

// ProjectRDAP reads an RDAP domain object (RFC 9083) onto the canonical set.
func ProjectRDAP(body []byte) (CanonicalRecord, error) {
	var d rdapDomain
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("decode rdap domain: %w", err)
	}
	if d.ObjectClassName != "" && d.ObjectClassName != "domain" {
		return nil, fmt.Errorf("unexpected object class %q", d.ObjectClassName)
	}

	m := map[string]any{
		FieldDomain: firstNonEmpty([]string{d.LDHName, d.UnicodeName}),
		FieldStatus: d.Status,
	}

	for _, ev := range d.Events {
		switch strings.ToLower(ev.Action) {
		case "registration":
			m[FieldCreationDate] = FormatDate(ev.Date)
		case "expiration":
			m[FieldExpirationDate] = FormatDate(ev.Date)
		case "last changed":
			m[FieldUpdatedDate] = FormatDate(ev.Date)
		}
	}

	ns := make([]string, 0, len(d.Nameservers))
	for _, n := range d.Nameservers {
		ns = append(ns, n.LDHName)
	}
	m[FieldNameServers] = ns

	if e := findEntity(d.Entities, "registrar"); e != nil {
		m[FieldRegistrar] = parseVCard(e.VCardArray).fn
	}
	if e := findEntity(d.Entities, "registrant"); e != nil {
		card := parseVCard(e.VCardArray)
		m[FieldRegistrantName] = card.fn
		m[FieldRegistrantOrganization] = card.org
		m[FieldRegistrantStreet] = card.street
		m[FieldRegistrantCity] = card.city
		m[FieldRegistrantPostalCode] = card.postalCode
		m[FieldRegistrantCountry] = card.country
		m[FieldRegistrantPhone] = card.tel
		m[FieldRegistrantEmail] = card.email
	}

	return Canonicalize(m), nil
}

// findEntity walks entities depth-first; registrars often nest their
// contacts one level down.
func findEntity(entities []rdapEntity, role string) *rdapEntity {
	for i := range entities {
		for _, r := range entities[i].Roles {
			if strings.EqualFold(r, role) {
				return &entities[i]
			}
		}
	}
	for i := range entities {
		if e := findEntity(entities[i].Entities, role); e != nil {
			return e
		}
	}
	return nil
}

// parseVCard reads ["vcard", [[name, params, type, value], ...]]. Malformed
// properties are skipped.
func parseVCard(raw []json.RawMessage) vcard {
	var card vcard
	if len(raw) < 2 {
		return card
	}
	var props [][]json.RawMessage
	if err := json.Unmarshal(raw[1], &props); err != nil {
		return card
	}
	for _, prop := range props {
		if len(prop) < 4 {
			continue
		}
		var name string
		if err := json.Unmarshal(prop[0], &name); err != nil {
			continue
		}
		switch strings.ToLower(name) {
		case "fn":
			card.fn = jsonText(prop[3])
		case "org":
			card.org = jsonText(prop[3])
		case "tel":
			card.tel = strings.TrimPrefix(jsonText(prop[3]), "tel:")
		case "email":
			card.email = strings.TrimPrefix(jsonText(prop[3]), "mailto:")
		case "adr":
			var parts []json.RawMessage
			if err := json.Unmarshal(prop[3], &parts); err != nil || len(parts) < 7 {
				continue
			}
			card.street = jsonText(parts[2])
			card.city = jsonText(parts[3])
			card.postalCode = jsonText(parts[5])
			card.country = jsonText(parts[6])
		}
	}
	return card
}

// jsonText reads a string or an array of strings (joined with ", ").
func jsonText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		nonEmpty := list[:0]
		for _, v := range list {
			if strings.TrimSpace(v) != "" {
				nonEmpty = append(nonEmpty, v)
			}
		}
		return strings.Join(nonEmpty, ", ")
	}
	return ""
}
