package normalize

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainlens/internal/registry/providers"
	"domainlens/pkg/domain"
	dErrors "domainlens/pkg/domain-errors"
)

type stubExtractor struct {
	answer string
	err    error
	delay  time.Duration
	prompt string
	calls  int
}

func (s *stubExtractor) Extract(ctx context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return s.answer, s.err
}

func textRecord(text string) *providers.RawRecord {
	return &providers.RawRecord{
		Domain: domain.DomainName("example.com"),
		Source: "whois",
		Kind:   providers.RecordText,
		Text:   text,
	}
}

func TestParser_Normalize(t *testing.T) {
	ctx := context.Background()
	p := NewParser()

	t.Run("text record", func(t *testing.T) {
		n, err := p.Normalize(ctx, textRecord(verisignRecord))
		require.NoError(t, err)
		assert.Equal(t, "EXAMPLE.COM", n.Record.Get(FieldDomain))
		_, ok := n.Fields.First("DNSSEC")
		assert.True(t, ok)
	})

	t.Run("structured record", func(t *testing.T) {
		n, err := p.Normalize(ctx, &providers.RawRecord{Kind: providers.RecordStructured, Body: []byte(rdapDocument)})
		require.NoError(t, err)
		assert.Equal(t, "Example Registrar, Inc.", n.Record.Get(FieldRegistrar))
		v, _ := n.Fields.First(FieldRegistrar)
		assert.Equal(t, "Example Registrar, Inc.", v)
	})

	t.Run("text without fields fails", func(t *testing.T) {
		_, err := p.Normalize(ctx, textRecord("no separators here"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNormalizationFailed))
	})

	t.Run("broken structured record fails", func(t *testing.T) {
		_, err := p.Normalize(ctx, &providers.RawRecord{Kind: providers.RecordStructured, Body: []byte("{")})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNormalizationFailed))
	})
}

func TestStripCodeFences(t *testing.T) {
	tests := map[string]string{
		"```json\n{\"domain\":\"a.com\"}\n```": `{"domain":"a.com"}`,
		"```\n{\"domain\":\"a.com\"}```":       `{"domain":"a.com"}`,
		"```json{\"domain\":\"a.com\"}```":     `{"domain":"a.com"}`,
		"  {\"domain\":\"a.com\"}  ":           `{"domain":"a.com"}`,
	}
	for in, want := range tests {
		assert.Equal(t, want, StripCodeFences(in), in)
	}
}

func TestAssisted_Normalize(t *testing.T) {
	ctx := context.Background()

	t.Run("fenced answer is parsed and closed over canonical keys", func(t *testing.T) {
		ext := &stubExtractor{answer: "```json\n{\"domain\":\"example.com\",\"registrar\":\"IANA\",\"mood\":\"happy\"}\n```"}
		n, err := NewAssisted(ext).Normalize(ctx, textRecord(verisignRecord))
		require.NoError(t, err)

		assert.Equal(t, "example.com", n.Record.Get(FieldDomain))
		assert.Equal(t, "IANA", n.Record.Get(FieldRegistrar))
		assert.NotContains(t, n.Record, "mood")
		assert.Contains(t, n.Record, FieldRegistrantEmail)
		assert.Nil(t, n.Record[FieldRegistrantEmail])
	})

	t.Run("prompt names every canonical field and carries the payload", func(t *testing.T) {
		ext := &stubExtractor{answer: "{}"}
		_, err := NewAssisted(ext).Normalize(ctx, textRecord(verisignRecord))
		require.NoError(t, err)
		for _, f := range CanonicalFields {
			assert.Contains(t, ext.prompt, f)
		}
		assert.True(t, strings.HasSuffix(ext.prompt, verisignRecord))
	})

	t.Run("malformed JSON is a normalization failure", func(t *testing.T) {
		ext := &stubExtractor{answer: "```json\nSure! Here you go: {domain: example.com\n```"}
		_, err := NewAssisted(ext).Normalize(ctx, textRecord(verisignRecord))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNormalizationFailed))
		assert.Equal(t, 1, ext.calls)
	})

	t.Run("extractor error is a normalization failure", func(t *testing.T) {
		ext := &stubExtractor{err: errors.New("quota exceeded")}
		_, err := NewAssisted(ext).Normalize(ctx, textRecord(verisignRecord))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNormalizationFailed))
	})
}

func TestLayered_Normalize(t *testing.T) {
	ctx := context.Background()

	t.Run("uses assisted result when it succeeds", func(t *testing.T) {
		ext := &stubExtractor{answer: `{"domain":"from-assist.com"}`}
		n, err := NewLayered(NewAssisted(ext), NewParser(), nil).Normalize(ctx, textRecord(verisignRecord))
		require.NoError(t, err)
		assert.Equal(t, "from-assist.com", n.Record.Get(FieldDomain))
	})

	t.Run("falls back to parse on timeout", func(t *testing.T) {
		ext := &stubExtractor{answer: `{"domain":"late.com"}`, delay: time.Second}
		layered := NewLayered(NewAssisted(ext, WithTimeout(20*time.Millisecond)), NewParser(), nil)

		n, err := layered.Normalize(ctx, textRecord(verisignRecord))
		require.NoError(t, err)
		assert.Equal(t, "EXAMPLE.COM", n.Record.Get(FieldDomain))
	})

	t.Run("falls back to parse on malformed answer", func(t *testing.T) {
		ext := &stubExtractor{answer: "not json"}
		n, err := NewLayered(NewAssisted(ext), NewParser(), nil).Normalize(ctx, textRecord(verisignRecord))
		require.NoError(t, err)
		assert.Equal(t, "EXAMPLE.COM", n.Record.Get(FieldDomain))
	})
}

func TestLayeredLogsFallbackToInjectedLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	n, err := Select(StrategyLayered, &stubExtractor{answer: "not json"}, WithLogger(logger))
	require.NoError(t, err)
	rec, err := n.Normalize(context.Background(), textRecord(verisignRecord))
	require.NoError(t, err)

	assert.Equal(t, "EXAMPLE.COM", rec.Record.Get(FieldDomain))
	assert.Contains(t, logs.String(), "falling back to deterministic normalization")
}

func TestSelect(t *testing.T) {
	ext := &stubExtractor{}

	n, err := Select("", nil)
	require.NoError(t, err)
	assert.Equal(t, StrategyParse, n.Name())

	n, err = Select(StrategyLayered, ext)
	require.NoError(t, err)
	assert.Equal(t, StrategyLayered, n.Name())

	_, err = Select(StrategyAssisted, nil)
	assert.Error(t, err)

	_, err = Select("magic", ext)
	assert.Error(t, err)
}

func TestOpenAIExtractor(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","created":1,"model":"test-model",
			"choices":[{"index":0,"message":{"role":"assistant","content":"{\"domain\":\"example.com\"}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	ext := NewOpenAIExtractor("sk-test", srv.URL+"/v1", "test-model")
	answer, err := ext.Extract(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"domain":"example.com"}`, answer)
	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
}
