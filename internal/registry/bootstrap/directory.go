package bootstrap

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DefaultDirectoryURL is the IANA RDAP bootstrap registry for domain names.
const DefaultDirectoryURL = "https://data.iana.org/rdap/dns.json"

// Service is one directory entry: a TLD set served by an ordered list of base URLs.
type Service struct {
	TLDs []string `json:"tlds"`
	URLs []string `json:"urls"`
}

// Directory is a parsed RFC 9224 bootstrap document. Services keep the order of
// the source document; that order decides which entry wins.
type Directory struct {
	Version     string    `json:"version"`
	Publication string    `json:"publication"`
	Description string    `json:"description,omitempty"`
	Services    []Service `json:"services"`
}

// wireDirectory mirrors the IANA layout where each service is [[tlds...], [urls...]].
type wireDirectory struct {
	Version     string       `json:"version"`
	Publication string       `json:"publication"`
	Description string       `json:"description"`
	Services    [][][]string `json:"services"`
}

// ParseDirectory decodes an IANA bootstrap document.
func ParseDirectory(data []byte) (*Directory, error) {
	var wire wireDirectory
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode bootstrap directory: %w", err)
	}
	if wire.Services == nil {
		return nil, errors.New("bootstrap directory has no services")
	}
	dir := &Directory{
		Version:     wire.Version,
		Publication: wire.Publication,
		Description: wire.Description,
		Services:    make([]Service, 0, len(wire.Services)),
	}
	for i, entry := range wire.Services {
		if len(entry) < 2 {
			return nil, fmt.Errorf("bootstrap service %d: expected tld and url lists", i)
		}
		dir.Services = append(dir.Services, Service{TLDs: entry[0], URLs: entry[1]})
	}
	return dir, nil
}

// Lookup returns the first URL of the first service whose TLD set contains tld.
func (d *Directory) Lookup(tld string) (string, bool) {
	tld = strings.ToLower(tld)
	for _, svc := range d.Services {
		for _, candidate := range svc.TLDs {
			if strings.ToLower(candidate) != tld {
				continue
			}
			if len(svc.URLs) == 0 {
				break
			}
			return svc.URLs[0], true
		}
	}
	return "", false
}
