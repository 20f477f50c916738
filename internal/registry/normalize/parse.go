package normalize

import (
	"strings"
	"time"
	"unicode"
)

// DisplayDateLayout is the human-readable form date fields are rewritten to.
const DisplayDateLayout = "January 2, 2006 at 03:04:05 PM MST"

// dateKeys are the parsed keys whose values are reformatted for display.
var dateKeys = []string{
	"CreationDate",
	"UpdatedDate",
	"RegistryExpiryDate",
	"ExpirationDate",
	"RegistrarRegistrationExpirationDate",
}

var dateFields = map[string]bool{
	FieldCreationDate:   true,
	FieldExpirationDate: true,
	FieldUpdatedDate:    true,
}

var inputDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006.01.02 15:04:05",
	"2006.01.02",
	"02-Jan-2006",
	"02-Jan-2006 15:04:05 MST",
	"2006/01/02",
	time.RFC1123,
	time.RFC1123Z,
}

// aliases maps parsed (whitespace-stripped) keys onto canonical fields. The
// first alias present wins for scalar fields; list fields collect them all.
var aliases = map[string][]string{
	FieldDomain:                 {"DomainName", "Domain", "domain"},
	FieldRegistrar:              {"Registrar", "RegistrarName", "SponsoringRegistrar", "registrar"},
	FieldCreationDate:           {"CreationDate", "Created", "CreatedOn", "RegistrationTime", "Registered", "created"},
	FieldExpirationDate:         {"RegistryExpiryDate", "RegistrarRegistrationExpirationDate", "ExpirationDate", "ExpiryDate", "Expires", "paid-till"},
	FieldUpdatedDate:            {"UpdatedDate", "LastUpdated", "LastModified", "Changed", "changed"},
	FieldStatus:                 {"DomainStatus", "Status", "state"},
	FieldNameServers:            {"NameServer", "NameServers", "Nameservers", "nserver"},
	FieldRegistrantName:         {"RegistrantName"},
	FieldRegistrantOrganization: {"RegistrantOrganization", "RegistrantOrganisation", "org"},
	FieldRegistrantStreet:       {"RegistrantStreet"},
	FieldRegistrantCity:         {"RegistrantCity"},
	FieldRegistrantPostalCode:   {"RegistrantPostalCode"},
	FieldRegistrantCountry:      {"RegistrantCountry"},
	FieldRegistrantPhone:        {"RegistrantPhone"},
	FieldRegistrantEmail:        {"RegistrantEmail"},
}

// Parse reads a text WHOIS answer into Fields. A line counts only when it has
// a ':'; the key is the text before the first ':' with all whitespace removed
// and the value is the rest, trimmed. Lines with an empty key or value are
// skipped. Date keys are rewritten with FormatDate.
func Parse(text string) *Fields {
	f := NewFields()
	for _, line := range strings.Split(text, "\n") {
		rawKey, rawValue, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key := stripSpace(rawKey)
		value := strings.TrimSpace(rawValue)
		if key == "" || value == "" {
			continue
		}
		f.Add(key, value)
	}

	for _, key := range dateKeys {
		values := f.Values(key)
		if len(values) == 0 {
			continue
		}
		formatted := make([]string, len(values))
		for i, v := range values {
			formatted[i] = FormatDate(v)
		}
		f.Set(key, formatted...)
	}
	return f
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// FormatDate rewrites a recognized timestamp into DisplayDateLayout in UTC.
// Anything it cannot parse, or whose zone abbreviation has no known offset,
// is returned unchanged.
func FormatDate(value string) string {
	v := strings.TrimSpace(value)
	for _, layout := range inputDateLayouts {
		t, err := time.Parse(layout, v)
		if err != nil {
			continue
		}
		if strings.Contains(layout, "MST") && !knownZone(t) {
			return value
		}
		return t.UTC().Format(DisplayDateLayout)
	}
	return value
}

// knownZone reports whether a zone abbreviation was resolved to a real
// offset. time.Parse gives unknown abbreviations (CET, JST, ...) a zero
// offset, which would relabel their clock time as UTC.
func knownZone(t time.Time) bool {
	name, offset := t.Zone()
	return offset != 0 || name == "UTC" || name == "GMT"
}

// Project maps parsed Fields onto the canonical set through the alias table.
// Keys with no alias (RegistrantStateProvince among them) do not reach the
// canonical record but stay in Fields.
func Project(f *Fields) CanonicalRecord {
	m := make(map[string]any, len(CanonicalFields))
	for field, keys := range aliases {
		var values []string
		for _, k := range keys {
			vs := f.Values(k)
			if len(vs) == 0 {
				continue
			}
			values = append(values, vs...)
			if !listFields[field] {
				break
			}
		}
		if len(values) == 0 {
			continue
		}
		if dateFields[field] {
			for i, v := range values {
				values[i] = FormatDate(v)
			}
		}
		m[field] = values
	}
	return Canonicalize(m)
}
