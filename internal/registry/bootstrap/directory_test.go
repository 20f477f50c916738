package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ianaSample = `{
  "description": "RDAP bootstrap file for Domain Name System registrations",
  "publication": "2024-05-01T18:00:01Z",
  "services": [
    [["com", "net"], ["https://rdap.verisign.com/com/v1/"]],
    [["org"], ["https://rdap.publicinterestregistry.org/rdap/", "https://backup.example/rdap/"]],
    [["COM"], ["https://shadowed.example/"]],
    [["empty"], []]
  ],
  "version": "1.0"
}`

func TestParseDirectory(t *testing.T) {
	dir, err := ParseDirectory([]byte(ianaSample))
	require.NoError(t, err)

	assert.Equal(t, "1.0", dir.Version)
	assert.Equal(t, "2024-05-01T18:00:01Z", dir.Publication)
	require.Len(t, dir.Services, 4)
	assert.Equal(t, []string{"com", "net"}, dir.Services[0].TLDs)

	t.Run("rejects malformed json", func(t *testing.T) {
		_, err := ParseDirectory([]byte(`{"services": [`))
		assert.Error(t, err)
	})

	t.Run("rejects document without services", func(t *testing.T) {
		_, err := ParseDirectory([]byte(`{"version": "1.0"}`))
		assert.Error(t, err)
	})

	t.Run("rejects service without url list", func(t *testing.T) {
		_, err := ParseDirectory([]byte(`{"services": [[["com"]]]}`))
		assert.Error(t, err)
	})
}

func TestDirectoryLookup(t *testing.T) {
	dir, err := ParseDirectory([]byte(ianaSample))
	require.NoError(t, err)

	t.Run("first matching entry wins", func(t *testing.T) {
		url, ok := dir.Lookup("com")
		require.True(t, ok)
		assert.Equal(t, "https://rdap.verisign.com/com/v1/", url)
	})

	t.Run("first url of entry is used", func(t *testing.T) {
		url, ok := dir.Lookup("org")
		require.True(t, ok)
		assert.Equal(t, "https://rdap.publicinterestregistry.org/rdap/", url)
	})

	t.Run("match is case insensitive", func(t *testing.T) {
		url, ok := dir.Lookup("NET")
		require.True(t, ok)
		assert.Equal(t, "https://rdap.verisign.com/com/v1/", url)
	})

	t.Run("unknown tld", func(t *testing.T) {
		_, ok := dir.Lookup("invalid")
		assert.False(t, ok)
	})

	t.Run("entry without urls does not match", func(t *testing.T) {
		_, ok := dir.Lookup("empty")
		assert.False(t, ok)
	})
}
