package utils

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLFromPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "words file.txt")
	require.NoError(t, os.WriteFile(file, []byte("hello"), 0o600))
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o750))

	u, err := URLFromPath(file)
	require.NoError(t, err)
	assert.Equal(t, "file", u.Scheme)
	assert.True(t, strings.HasSuffix(u.Path, "/words file.txt"))
	assert.Contains(t, u.String(), "words%20file.txt")

	u, err = URLFromPath(sub)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(u.String(), "/sub/"))

	back, err := PathFromURL(u)
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(sub)
	require.NoError(t, err)
	assert.Equal(t, resolved, filepath.Clean(back))

	_, err = URLFromPath(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestURLFromPathRoundTripsThroughString(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a b#c.html")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	u, err := URLFromPath(file)
	require.NoError(t, err)

	parsed, err := url.Parse(u.String())
	require.NoError(t, err)
	p, err := PathFromURL(parsed)
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(file)
	require.NoError(t, err)
	assert.Equal(t, resolved, p)
}

func TestPathFromURLErrors(t *testing.T) {
	tests := []string{
		"https://example.com/a",
		"file://remote.host/a",
		"file:",
	}
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			u, err := url.Parse(raw)
			require.NoError(t, err)
			_, err = PathFromURL(u)
			assert.Error(t, err)
		})
	}
	_, err := PathFromURL(nil)
	assert.Error(t, err)
}

func TestGetDomainFromURL(t *testing.T) {
	assert.Equal(t, "example.com", GetDomainFromURL("https://Example.COM:8443/path"))
	assert.Equal(t, "", GetDomainFromURL("mailto:a@b.com"))
	assert.Equal(t, "", GetDomainFromURL("://bad"))
}
