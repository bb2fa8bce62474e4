package reporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/wordcrawl/internal/models"
	"github.com/amosWeiskopf/wordcrawl/pkg/extractor"
)

func testSummary() *models.Summary {
	return &models.Summary{
		StartingURL:  "https://example.com/",
		DepthReached: 2,
		GeneratedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		TotalURLs:    4,
		Statuses: []models.StatusCount{
			{Status: "visited", Count: 2, URLs: []string{"https://example.com/", "https://example.com/a"}},
			{Status: "staged"},
			{Status: "unvisited", Count: 1, URLs: []string{"https://example.com/b"}},
			{Status: "skipped"},
			{Status: "errored", Count: 1, URLs: []string{"https://example.com/<missing>"}},
		},
		TopHosts: []models.HostCount{{Host: "example.com", Count: 4}},
		Words: models.WordStats{
			Unique:        3,
			AverageLength: 4,
			Longest:       "words",
			Lengths:       []models.LengthBucket{{Length: 3, Count: 1}, {Length: 4, Count: 1}, {Length: 5, Count: 1}},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" markdown ", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"html", FormatHTML, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateReport(t *testing.T) {
	r := New()

	tests := []struct {
		format   Format
		contains []string
	}{
		{FormatText, []string{"Crawl of https://example.com/", "Depth reached: 2", "visited", "total", "3 unique", `longest "words"`, "example.com", "Urls errored:"}},
		{FormatMarkdown, []string{"# Crawl report for https://example.com/", "May 1, 2024", "| visited | 2 |", "| **total** | **4** |", "- example.com: 4", "| 5 | 1 |", "## Urls errored"}},
		{FormatHTML, []string{"<!DOCTYPE html>", "Crawl Report for https://example.com/", "May 1, 2024", `<div class="item errored">`, "<code>words</code>"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			out, err := r.GenerateReport(testSummary(), tt.format)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestGenerateJSONReport(t *testing.T) {
	out, err := New().GenerateReport(testSummary(), FormatJSON)
	require.NoError(t, err)

	var decoded models.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, *testSummary(), decoded)
	assert.Contains(t, out, `"depth_reached": 2`)
}

func TestGenerateHTMLEscapes(t *testing.T) {
	summary := testSummary()
	summary.StartingURL = "https://example.com/<script>"

	out, err := New().GenerateReport(summary, FormatHTML)
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestGenerateTextTruncatesURLs(t *testing.T) {
	summary := testSummary()
	long := "https://example.com/" + strings.Repeat("segment/", 30)
	summary.Statuses[4].URLs = []string{long}

	out, err := New().GenerateReport(summary, FormatText)
	require.NoError(t, err)
	assert.NotContains(t, out, long)
	assert.Contains(t, out, "...")
}

func TestGenerateReportErrors(t *testing.T) {
	_, err := New().GenerateReport(testSummary(), Format("pdf"))
	assert.Error(t, err)

	_, err = New().GenerateReport(nil, FormatText)
	assert.Error(t, err)
}

func TestDictionaryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wdict.txt")
	require.NoError(t, WriteDictionary(path, []string{"alpha", "beta", "gamma"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alpha\nbeta\ngamma\n", string(data))

	db := extractor.NewWordDB()
	db.Insert("beta")
	added, err := LoadDictionary(path, db, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, db.Words())
}

func TestWriteEmptyDictionary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wdict.txt")
	require.NoError(t, WriteDictionary(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestLoadDictionarySkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wdict.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\n\n  two  \r\n\n"), 0o600))

	db := extractor.NewWordDB()
	added, err := LoadDictionary(path, db, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"one", "two"}, db.Words())
}

func TestLoadMissingDictionary(t *testing.T) {
	db := extractor.NewWordDB()
	added, err := LoadDictionary(filepath.Join(t.TempDir(), "absent.txt"), db, nil)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Zero(t, db.Len())
}

func TestWriteDictionaryBadPath(t *testing.T) {
	err := WriteDictionary(filepath.Join(t.TempDir(), "missing", "wdict.txt"), []string{"a"})
	assert.Error(t, err)
}
