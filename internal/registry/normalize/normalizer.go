// Package normalize turns raw registry answers into the canonical record.
package normalize

import (
	"context"
	"fmt"

	"domainlens/internal/registry/providers"
	dErrors "domainlens/pkg/domain-errors"
)

// Strategy names accepted by Select.
const (
	StrategyParse    = "parse"
	StrategyAssisted = "assisted"
	StrategyLayered  = "layered"
)

// Normalized is the outcome of one normalization: the open Fields mapping
// and its closed canonical projection.
type Normalized struct {
	Fields *Fields
	Record CanonicalRecord
}

// Normalizer converts a RawRecord. Failures carry CodeNormalizationFailed.
type Normalizer interface {
	Name() string
	Normalize(ctx context.Context, raw *providers.RawRecord) (*Normalized, error)
}

// Parser is the deterministic strategy. Text records go through Parse and
// Project; structured records through ProjectRDAP.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Name() string {
	return StrategyParse
}

func (p *Parser) Normalize(_ context.Context, raw *providers.RawRecord) (*Normalized, error) {
	if raw.Empty() {
		return nil, dErrors.New(dErrors.CodeNormalizationFailed, "record is empty")
	}

	switch raw.Kind {
	case providers.RecordStructured:
		rec, err := ProjectRDAP(raw.Body)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeNormalizationFailed, "failed to project rdap record")
		}
		return &Normalized{Fields: rec.Fields(), Record: rec}, nil
	case providers.RecordText:
		fields := Parse(raw.Text)
		if fields.Len() == 0 {
			return nil, dErrors.New(dErrors.CodeNormalizationFailed, "no fields found in record")
		}
		return &Normalized{Fields: fields, Record: Project(fields)}, nil
	default:
		return nil, dErrors.New(dErrors.CodeNormalizationFailed, fmt.Sprintf("unsupported record kind %q", raw.Kind))
	}
}

// Select builds the configured strategy. The assisted and layered strategies
// need an Extractor.
func Select(name string, extractor Extractor, opts ...AssistedOption) (Normalizer, error) {
	switch name {
	case "", StrategyParse:
		return NewParser(), nil
	case StrategyAssisted:
		if extractor == nil {
			return nil, fmt.Errorf("normalizer %q requires an extractor", name)
		}
		return NewAssisted(extractor, opts...), nil
	case StrategyLayered:
		if extractor == nil {
			return nil, fmt.Errorf("normalizer %q requires an extractor", name)
		}
		assisted := NewAssisted(extractor, opts...)
		return NewLayered(assisted, NewParser(), assisted.logger), nil
	default:
		return nil, fmt.Errorf("unknown normalizer %q", name)
	}
}
