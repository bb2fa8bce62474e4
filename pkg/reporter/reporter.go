// Package reporter renders crawl summaries and reads and writes the
// dictionary file.
package reporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"text/tabwriter"

	"github.com/amosWeiskopf/wordcrawl/internal/models"
	"github.com/amosWeiskopf/wordcrawl/pkg/utils"
)

// Format selects a report encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatJSON, FormatMarkdown, FormatHTML}

// ParseFormat returns the format named by s. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "md" {
		return FormatMarkdown, nil
	}
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// Reporter handles report generation in various formats
type Reporter struct {
	// listed is the status whose URLs the text and markdown reports print.
	listed   string
	urlWidth int
}

// New creates a new Reporter instance
func New() *Reporter {
	return &Reporter{
		listed:   "errored",
		urlWidth: 100,
	}
}

// GenerateReport renders summary in the specified format
func (r *Reporter) GenerateReport(summary *models.Summary, format Format) (string, error) {
	if summary == nil {
		return "", fmt.Errorf("no summary to report")
	}
	switch format {
	case FormatText:
		return r.generateText(summary)
	case FormatJSON:
		return r.generateJSON(summary)
	case FormatHTML:
		return r.generateHTML(summary)
	case FormatMarkdown:
		return r.generateMarkdown(summary)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func (r *Reporter) generateJSON(summary *models.Summary) (string, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data) + "\n", nil
}

func (r *Reporter) generateText(summary *models.Summary) (string, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Crawl of %s\n", summary.StartingURL)
	fmt.Fprintf(&buf, "Depth reached: %d\n\n", summary.DepthReached)

	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	for _, sc := range summary.Statuses {
		fmt.Fprintf(tw, "%s\t%d\n", sc.Status, sc.Count)
	}
	fmt.Fprintf(tw, "total\t%d\n", summary.TotalURLs)
	if err := tw.Flush(); err != nil {
		return "", err
	}

	fmt.Fprintf(&buf, "\nWords: %d unique", summary.Words.Unique)
	if summary.Words.Unique > 0 {
		fmt.Fprintf(&buf, ", average length %.2f, longest %q", summary.Words.AverageLength, summary.Words.Longest)
	}
	fmt.Fprintln(&buf)

	if len(summary.TopHosts) > 0 {
		fmt.Fprintf(&buf, "\nTop hosts:\n")
		tw = tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
		for _, h := range summary.TopHosts {
			fmt.Fprintf(tw, "  %s\t%d\n", h.Host, h.Count)
		}
		if err := tw.Flush(); err != nil {
			return "", err
		}
	}

	if urls := r.listedURLs(summary); len(urls) > 0 {
		fmt.Fprintf(&buf, "\nUrls %s:\n", r.listed)
		for _, u := range urls {
			fmt.Fprintf(&buf, "  %s\n", utils.TruncateText(u, r.urlWidth))
		}
	}
	return buf.String(), nil
}

func (r *Reporter) listedURLs(summary *models.Summary) []string {
	for _, sc := range summary.Statuses {
		if sc.Status == r.listed {
			return sc.URLs
		}
	}
	return nil
}

func (r *Reporter) generateMarkdown(summary *models.Summary) (string, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Crawl report for %s\n\n", summary.StartingURL)
	fmt.Fprintf(&buf, "*Generated on %s*\n\n", summary.GeneratedAt.Format("January 2, 2006"))
	fmt.Fprintf(&buf, "**Depth reached:** %d\n\n", summary.DepthReached)

	fmt.Fprintf(&buf, "## URLs\n\n")
	fmt.Fprintf(&buf, "| Status | Count |\n")
	fmt.Fprintf(&buf, "|--------|-------|\n")
	for _, sc := range summary.Statuses {
		fmt.Fprintf(&buf, "| %s | %d |\n", sc.Status, sc.Count)
	}
	fmt.Fprintf(&buf, "| **total** | **%d** |\n\n", summary.TotalURLs)

	if len(summary.TopHosts) > 0 {
		fmt.Fprintf(&buf, "## Top hosts\n\n")
		for _, h := range summary.TopHosts {
			fmt.Fprintf(&buf, "- %s: %d\n", h.Host, h.Count)
		}
		fmt.Fprintf(&buf, "\n")
	}

	fmt.Fprintf(&buf, "## Words\n\n")
	fmt.Fprintf(&buf, "- **Unique:** %d\n", summary.Words.Unique)
	if summary.Words.Unique > 0 {
		fmt.Fprintf(&buf, "- **Average length:** %.2f\n", summary.Words.AverageLength)
		fmt.Fprintf(&buf, "- **Longest:** %s\n", summary.Words.Longest)
		fmt.Fprintf(&buf, "\n| Length | Words |\n")
		fmt.Fprintf(&buf, "|--------|-------|\n")
		for _, b := range summary.Words.Lengths {
			fmt.Fprintf(&buf, "| %d | %d |\n", b.Length, b.Count)
		}
	}

	if urls := r.listedURLs(summary); len(urls) > 0 {
		fmt.Fprintf(&buf, "\n## Urls %s\n\n", r.listed)
		for _, u := range urls {
			fmt.Fprintf(&buf, "- <%s>\n", u)
		}
	}
	return buf.String(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Crawl Report - {{.StartingURL}}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 1000px;
            margin: 0 auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 2rem;
            border-radius: 10px;
            margin-bottom: 2rem;
        }
        .card {
            background: white;
            border-radius: 10px;
            padding: 1.5rem;
            margin-bottom: 1.5rem;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
        }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(150px, 1fr));
            gap: 1rem;
        }
        .item {
            text-align: center;
            padding: 1rem;
            background: #f8f9fa;
            border-radius: 8px;
        }
        .value {
            font-size: 2rem;
            font-weight: bold;
            color: #667eea;
        }
        .label {
            color: #666;
            font-size: 0.9rem;
        }
        .errored .value {
            color: #dc3545;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>Crawl Report for {{.StartingURL}}</h1>
        <p>Generated on {{.GeneratedAt.Format "January 2, 2006"}}, depth reached {{.DepthReached}}</p>
    </div>

    <div class="card">
        <h2>URLs</h2>
        <div class="grid">
            {{range .Statuses}}
            <div class="item {{.Status}}">
                <div class="value">{{.Count}}</div>
                <div class="label">{{.Status}}</div>
            </div>
            {{end}}
            <div class="item">
                <div class="value">{{.TotalURLs}}</div>
                <div class="label">total</div>
            </div>
        </div>
    </div>

    {{if .TopHosts}}
    <div class="card">
        <h2>Top Hosts</h2>
        <ul>
            {{range .TopHosts}}
            <li>{{.Host}}: {{.Count}}</li>
            {{end}}
        </ul>
    </div>
    {{end}}

    <div class="card">
        <h2>Words</h2>
        <p>{{.Words.Unique}} unique{{if .Words.Longest}}, average length {{printf "%.2f" .Words.AverageLength}}, longest <code>{{.Words.Longest}}</code>{{end}}</p>
        {{if .Words.Lengths}}
        <table>
            <tr><th>Length</th><th>Words</th></tr>
            {{range .Words.Lengths}}
            <tr><td>{{.Length}}</td><td>{{.Count}}</td></tr>
            {{end}}
        </table>
        {{end}}
    </div>
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Parse(htmlTemplate))

func (r *Reporter) generateHTML(summary *models.Summary) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, summary); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
