// Package extractor turns fetched documents into words.
package extractor

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/amosWeiskopf/wordcrawl/pkg/utils"
)

// Options configures word extraction.
type Options struct {
	MinWordLength int          // shortest word kept, in runes
	MaxWordLength int          // longest word kept, in runes; <= 0 means no limit
	IncludeJS     bool         // extract <script> text
	IncludeCSS    bool         // extract <style> text
	Filters       []FilterMode // applied in order to every lowercased word
	MainContent   bool         // only extract the main article text of html pages
}

// Extractor sniffs documents, extracts their text and stores the filtered
// words. It is safe for concurrent use.
type Extractor struct {
	opts   Options
	words  *WordDB
	logger *slog.Logger

	mu   sync.Mutex
	seen map[uint64]struct{}
}

// New returns an extractor storing words in words.
func New(opts Options, words *WordDB, logger *slog.Logger) *Extractor {
	if opts.MaxWordLength <= 0 {
		opts.MaxWordLength = math.MaxInt
	}
	opts.Filters = append([]FilterMode(nil), opts.Filters...)
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		opts:   opts,
		words:  words,
		logger: logger,
		seen:   make(map[uint64]struct{}),
	}
}

// Words returns the word store.
func (e *Extractor) Words() *WordDB {
	return e.words
}

// Extract stores the words of doc. Documents identical to one already
// extracted are ignored.
func (e *Extractor) Extract(doc []byte) {
	if len(doc) == 0 || !e.firstSighting(doc) {
		return
	}

	mime := http.DetectContentType(doc)
	switch {
	case strings.HasPrefix(mime, "text/html"):
		e.addText(e.htmlText(doc))
	case strings.HasPrefix(mime, "text/"):
		e.addText(decodeText(doc, mime))
	default:
		e.logger.Debug("unsupported mime type", "mime", mime)
	}
}

func (e *Extractor) firstSighting(doc []byte) bool {
	sum := xxhash.Sum64(doc)
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.seen[sum]; ok {
		return false
	}
	e.seen[sum] = struct{}{}
	return true
}

func (e *Extractor) htmlText(doc []byte) string {
	if e.opts.MainContent {
		result, err := trafilatura.Extract(bytes.NewReader(doc), trafilatura.Options{})
		if err == nil && result != nil && strings.TrimSpace(result.ContentText) != "" {
			return result.Metadata.Title + " " + result.ContentText
		}
		e.logger.Debug("main content extraction failed, using full text", "error", err)
	}
	return textFromHTML(doc, e.opts.IncludeJS, e.opts.IncludeCSS)
}

// textFromHTML joins every text node of doc with spaces. Script and style
// text is only kept when asked for.
func textFromHTML(doc []byte, includeJS, includeCSS bool) string {
	r, err := charset.NewReader(bytes.NewReader(doc), "text/html")
	if err != nil {
		r = bytes.NewReader(doc)
	}
	root, err := html.Parse(r)
	if err != nil {
		return string(doc)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if keepText(n.Parent, includeJS, includeCSS) {
				sb.WriteString(n.Data)
				sb.WriteByte(' ')
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return sb.String()
}

func keepText(parent *html.Node, includeJS, includeCSS bool) bool {
	if parent == nil || parent.Type != html.ElementNode {
		return true
	}
	switch strings.ToLower(parent.Data) {
	case "script":
		return includeJS
	case "style":
		return includeCSS
	default:
		return true
	}
}

func decodeText(doc []byte, mime string) string {
	if utf8.Valid(doc) {
		return string(doc)
	}
	r, err := charset.NewReader(bytes.NewReader(doc), mime)
	if err != nil {
		return strings.ToValidUTF8(string(doc), " ")
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return strings.ToValidUTF8(string(doc), " ")
	}
	return string(decoded)
}

func (e *Extractor) addText(text string) {
	for _, w := range utils.Words(text) {
		word := ApplyAll(strings.ToLower(w), e.opts.Filters)
		if word == "" {
			continue
		}
		n := utf8.RuneCountInString(word)
		if n < e.opts.MinWordLength || n > e.opts.MaxWordLength {
			continue
		}
		e.words.Insert(word)
	}
}
