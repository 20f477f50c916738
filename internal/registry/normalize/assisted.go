package normalize

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"domainlens/internal/registry/providers"
	dErrors "domainlens/pkg/domain-errors"
	"domainlens/pkg/requestcontext"
)

// DefaultAssistTimeout bounds one extractor call.
const DefaultAssistTimeout = 15 * time.Second

const maxPromptPayload = 32 << 10

// Extractor sends a prompt to a text-understanding service and returns its
// free-text answer.
type Extractor interface {
	Extract(ctx context.Context, prompt string) (string, error)
}

// Assisted delegates extraction to an Extractor. It is single-shot: a bad
// answer fails the normalization and is never retried.
type Assisted struct {
	extractor Extractor
	timeout   time.Duration
	logger    *slog.Logger
}

type AssistedOption func(*Assisted)

func WithTimeout(d time.Duration) AssistedOption {
	return func(a *Assisted) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) AssistedOption {
	return func(a *Assisted) {
		a.logger = logger
	}
}

func NewAssisted(extractor Extractor, opts ...AssistedOption) *Assisted {
	a := &Assisted{
		extractor: extractor,
		timeout:   DefaultAssistTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Assisted) Name() string {
	return StrategyAssisted
}

func (a *Assisted) Normalize(ctx context.Context, raw *providers.RawRecord) (*Normalized, error) {
	if raw.Empty() {
		return nil, dErrors.New(dErrors.CodeNormalizationFailed, "record is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	answer, err := a.extractor.Extract(ctx, BuildPrompt(raw.Payload()))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeNormalizationFailed, "assisted extraction failed")
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(StripCodeFences(answer)), &m); err != nil {
		a.logger.WarnContext(ctx, "assisted extraction returned invalid JSON",
			"request_id", requestcontext.RequestID(ctx),
			"domain", raw.Domain,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeNormalizationFailed, "assisted extraction returned invalid JSON")
	}

	rec := Canonicalize(m)
	return &Normalized{Fields: rec.Fields(), Record: rec}, nil
}

// BuildPrompt asks for exactly the canonical keys as a flat JSON object.
func BuildPrompt(payload string) string {
	if len(payload) > maxPromptPayload {
		payload = payload[:maxPromptPayload]
	}
	var b strings.Builder
	b.WriteString("Extract the following fields from the domain registration record below: ")
	b.WriteString(strings.Join(CanonicalFields, ", "))
	b.WriteString(".\nReturn exactly these keys as a flat JSON object. Use null for any field that is not present. ")
	b.WriteString("Use arrays of strings for status and name_servers. Do not add any other keys, text or formatting.\n\n")
	b.WriteString(payload)
	return b.String()
}

// StripCodeFences removes a surrounding ``` fence, with or without a
// language tag.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
