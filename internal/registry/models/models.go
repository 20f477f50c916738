package models

// LookupResult is what the service hands to the transport layer. Payload is
// a json.RawMessage RDAP document, a normalize.CanonicalRecord or
// *normalize.Fields depending on the requested view.
type LookupResult struct {
	Domain   string
	Strategy string
	Payload  any
}

// LookupResponse is the /api/lookup body.
type LookupResponse struct {
	Domain string `json:"domain"`
	RDAP   any    `json:"rdap"`
}

// WhoisResponse is the /api/whois body.
type WhoisResponse struct {
	Domain string `json:"domain"`
	Whois  any    `json:"whois"`
}
