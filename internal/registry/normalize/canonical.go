package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	pstrings "domainlens/pkg/platform/strings"
)

// Canonical field names. The set is closed: every CanonicalRecord carries
// exactly these keys, absent values included as null.
const (
	FieldDomain                 = "domain"
	FieldRegistrar              = "registrar"
	FieldCreationDate           = "creation_date"
	FieldExpirationDate         = "expiration_date"
	FieldUpdatedDate            = "updated_date"
	FieldStatus                 = "status"
	FieldNameServers            = "name_servers"
	FieldRegistrantName         = "registrant_name"
	FieldRegistrantOrganization = "registrant_organization"
	FieldRegistrantStreet       = "registrant_street"
	FieldRegistrantCity         = "registrant_city"
	FieldRegistrantPostalCode   = "registrant_postal_code"
	FieldRegistrantCountry      = "registrant_country"
	FieldRegistrantPhone        = "registrant_phone"
	FieldRegistrantEmail        = "registrant_email"
)

// CanonicalFields lists the canonical keys in output order.
var CanonicalFields = []string{
	FieldDomain,
	FieldRegistrar,
	FieldCreationDate,
	FieldExpirationDate,
	FieldUpdatedDate,
	FieldStatus,
	FieldNameServers,
	FieldRegistrantName,
	FieldRegistrantOrganization,
	FieldRegistrantStreet,
	FieldRegistrantCity,
	FieldRegistrantPostalCode,
	FieldRegistrantCountry,
	FieldRegistrantPhone,
	FieldRegistrantEmail,
}

// listFields always hold []string.
var listFields = map[string]bool{
	FieldStatus:      true,
	FieldNameServers: true,
}

func isCanonical(key string) bool {
	for _, k := range CanonicalFields {
		if k == key {
			return true
		}
	}
	return false
}

// CanonicalRecord maps every canonical key to a string, a []string (status
// and name_servers) or nil. Build it with Canonicalize.
type CanonicalRecord map[string]any

// Canonicalize closes m over the canonical key set: unknown keys are dropped,
// missing keys become nil, empty values become nil, list fields become
// deduplicated []string and scalar fields keep their first non-empty value.
// Canonicalize(Canonicalize(m)) equals Canonicalize(m).
func Canonicalize(m map[string]any) CanonicalRecord {
	rec := make(CanonicalRecord, len(CanonicalFields))
	for _, key := range CanonicalFields {
		values := toStrings(m[key])
		if listFields[key] {
			if key == FieldNameServers {
				values = pstrings.HostNames(values)
			} else {
				values = pstrings.DedupeAndTrim(values)
			}
			if len(values) == 0 {
				rec[key] = nil
				continue
			}
			rec[key] = values
			continue
		}
		rec[key] = firstNonEmpty(values)
	}
	return rec
}

func toStrings(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, toStrings(item)...)
		}
		return out
	case map[string]any:
		return nil
	default:
		return []string{fmt.Sprint(t)}
	}
}

func firstNonEmpty(values []string) any {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return nil
}

// Get returns the scalar value under key, or "" when absent or a list.
func (r CanonicalRecord) Get(key string) string {
	s, _ := r[key].(string)
	return s
}

// List returns the list value under key.
func (r CanonicalRecord) List(key string) []string {
	l, _ := r[key].([]string)
	return l
}

// Fields flattens the record into Fields under canonical names, skipping nils.
func (r CanonicalRecord) Fields() *Fields {
	f := NewFields()
	for _, key := range CanonicalFields {
		f.Set(key, toStrings(r[key])...)
	}
	return f
}

// MarshalJSON writes the canonical keys in CanonicalFields order.
func (r CanonicalRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range CanonicalFields {
		if i > 0 {
			buf.WriteByte(',')
		}
		val, err := json.Marshal(r[key])
		if err != nil {
			return nil, err
		}
		buf.WriteString(`"` + key + `":`)
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes any flat JSON object and canonicalizes it.
func (r *CanonicalRecord) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*r = Canonicalize(m)
	return nil
}
