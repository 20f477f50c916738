package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Domain Parameter is required", New(CodeInvalidInput, "Domain Parameter is required").Error())
	assert.Equal(t, "upstream lookup failed: status 503",
		Wrap(errors.New("status 503"), CodeUpstreamFetchFailed, "upstream lookup failed").Error())
}

func TestCodeOf(t *testing.T) {
	inner := New(CodeNoServerForTLD, "no rdap server")
	outer := Wrap(inner, CodeAllStrategiesExhausted, "all lookup strategies failed")

	assert.Equal(t, CodeAllStrategiesExhausted, CodeOf(outer))
	assert.Equal(t, CodeNoServerForTLD, CodeOf(fmt.Errorf("resolve: %w", inner)))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeInternal, CodeOf(nil))
}

func TestHasCode(t *testing.T) {
	inner := New(CodeDirectoryUnavailable, "directory down")
	outer := Wrap(fmt.Errorf("strategy rdap: %w", inner), CodeUpstreamFetchFailed, "upstream lookup failed")

	assert.True(t, HasCode(outer, CodeUpstreamFetchFailed))
	assert.True(t, HasCode(outer, CodeDirectoryUnavailable))
	assert.False(t, HasCode(outer, CodeInvalidInput))
	assert.False(t, HasCode(nil, CodeInternal))
	assert.ErrorIs(t, outer, inner)
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(CodeInvalidInput))
	for _, code := range []Code{
		CodeDirectoryUnavailable, CodeNoServerForTLD, CodeUpstreamFetchFailed,
		CodeNormalizationFailed, CodeAllStrategiesExhausted, CodeInternal,
	} {
		assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(code), code)
	}
}
