package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amosWeiskopf/wordcrawl/internal/config"
	"github.com/amosWeiskopf/wordcrawl/pkg/analyzer"
	"github.com/amosWeiskopf/wordcrawl/pkg/crawler"
	"github.com/amosWeiskopf/wordcrawl/pkg/extractor"
	"github.com/amosWeiskopf/wordcrawl/pkg/reporter"
	"github.com/amosWeiskopf/wordcrawl/pkg/state"
	"github.com/amosWeiskopf/wordcrawl/pkg/urldb"
	"github.com/amosWeiskopf/wordcrawl/pkg/utils"
)

// themes are canned starting points.
var themes = map[string]string{
	"star-wars":   "https://www.starwars.com/databank",
	"tolkien":     "https://www.quicksilver899.com/Tolkien/Tolkien_Dictionary.html",
	"witcher":     "https://witcher.fandom.com/wiki/Elder_Speech",
	"pokemon":     "https://www.smogon.com",
	"bebop":       "https://cowboybebop.fandom.com/wiki/Cowboy_Bebop",
	"greek":       "https://www.theoi.com",
	"greco-roman": "https://www.gutenberg.org/files/22381/22381-h/22381-h.htm",
	"lovecraft":   "https://www.hplovecraft.com",
}

func themeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var targetFlags = []string{"url", "theme", "path", "resume", "resume-strict"}

func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl a site or directory and write a dictionary",
		Long: `Crawl starts from exactly one target: a URL, a theme, a local path, or the
state file of a previous run (--resume, --resume-strict). A plain resume keeps the
settings given on the command line; a strict resume uses the saved ones.`,
		Example: `  wordcrawl crawl --url https://example.com --depth 2
  wordcrawl crawl --theme tolkien --filters deunicode,no-numbers
  wordcrawl crawl --path ./docs --depth 10 --output docs.txt
  wordcrawl crawl --resume --state-file state-wdict.json`,
		Args: cobra.NoArgs,
		RunE: runCrawl,
	}

	f := cmd.Flags()
	f.StringP("url", "u", "", "URL to start crawling from")
	f.String("theme", "", "Canned starting URL: "+strings.Join(themeNames(), ", "))
	f.StringP("path", "p", "", "Local file or directory to start crawling from")
	f.Bool("resume", false, "Resume from the state file, keeping command line settings")
	f.Bool("resume-strict", false, "Resume from the state file, using its saved settings")
	cmd.MarkFlagsMutuallyExclusive(targetFlags...)
	cmd.MarkFlagsOneRequired(targetFlags...)

	f.IntP("depth", "d", 1, "Number of link levels to crawl")
	f.IntP("min-word-length", "m", 3, "Only keep words at least this long")
	f.IntP("max-word-length", "x", math.MaxInt, "Only keep words at most this long")
	f.BoolP("include-js", "j", false, "Include javascript from <script> tags and script links")
	f.BoolP("include-css", "c", false, "Include css from <style> tags and stylesheet links")
	f.StringSlice("filters", []string{"none"}, "Comma separated word filters: "+strings.Join(extractor.FilterNames(), ", "))
	f.String("site-policy", "same", "Which hosts to follow: same, subdomain, sibling, all")
	f.IntP("req-per-sec", "r", 5, "Requests per second")
	f.IntP("limit-concurrent", "l", 5, "Concurrent requests")
	f.StringP("output", "o", "wdict.txt", "Dictionary file (overwritten)")
	f.Bool("append", false, "Keep the words of an existing dictionary")
	f.Bool("output-state", false, "Write the crawl state when done")
	f.String("state-file", "state-wdict.json", "State file (.json, .yaml, .yml, .db, .sqlite)")
	f.Bool("respect-robots", false, "Skip URLs disallowed by robots.txt")
	f.StringSlice("exclude", nil, "URL glob patterns to skip")
	f.Bool("main-content", false, "Only extract the main article text of html pages")
	f.String("user-agent", crawler.DefaultUserAgent, "User-Agent header")
	f.Duration("timeout", 10*time.Second, "Request timeout")
	f.Duration("connect-timeout", 5*time.Second, "Connection timeout")
	f.Int64("max-body-size", 10<<20, "Largest response body read, in bytes")
	return cmd
}

// setup loads and validates configuration and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, io.Closer, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	logger, closer, err := config.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, closer, nil
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	cfg, logger, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	current, err := cfg.Settings()
	if err != nil {
		return err
	}

	resumeStrict, _ := cmd.Flags().GetBool("resume-strict")
	resume, _ := cmd.Flags().GetBool("resume")
	resuming := resume || resumeStrict

	var persisted *state.State
	var origin string
	if resuming {
		persisted, err = state.Load(cfg.Output.StateFile)
		if err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		origin = persisted.StartingURL
	} else {
		origin, err = targetURL(cmd)
		if err != nil {
			return err
		}
	}

	u, err := url.Parse(origin)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("%w: starting url %q is not an absolute url", config.ErrInvalidConfig, origin)
	}

	settings := state.Merge(persisted, current, resumeStrict)

	urls := urldb.New()
	depth := 0
	if persisted != nil {
		depth = persisted.Restore(urls)
		logger.Info("restored crawl state", "file", cfg.Output.StateFile, "urls", urls.Len(), "depth", depth)
	}

	words := extractor.NewWordDB()
	if cfg.Output.Append || resuming {
		n, err := reporter.LoadDictionary(cfg.Output.File, words, logger)
		if err != nil {
			return err
		}
		logger.Info("loaded dictionary", "file", cfg.Output.File, "words", n)
	}

	ext := extractor.New(cfg.ExtractOptions(settings), words, logger)
	c, err := crawler.New(cfg.CrawlOptions(u, settings), urls, ext, crawler.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}
	if resuming {
		c.SetDepth(depth)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	reached := c.Crawl(ctx)
	stop()

	snapshot := state.Capture(u.String(), reached, urls, settings)
	dictionary := words.Words()

	summary, err := analyzer.New().Analyze(snapshot, dictionary)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	report, err := reporter.New().GenerateReport(summary, reporter.FormatText)
	if err != nil {
		return fmt.Errorf("report generation failed: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, report)

	if err := reporter.WriteDictionary(cfg.Output.File, dictionary); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nDictionary saved to %s\n", cfg.Output.File)

	if cfg.Output.OutputState {
		if err := state.Save(cfg.Output.StateFile, snapshot); err != nil {
			return err
		}
		fmt.Fprintf(out, "State saved to %s\n", cfg.Output.StateFile)
	}
	return nil
}

// targetURL resolves the --url, --theme or --path target.
func targetURL(cmd *cobra.Command) (string, error) {
	f := cmd.Flags()
	switch {
	case f.Changed("url"):
		raw, _ := f.GetString("url")
		if raw == "" || strings.TrimSpace(raw) != raw {
			return "", fmt.Errorf("%w: --url %q", config.ErrBlankString, raw)
		}
		return raw, nil
	case f.Changed("theme"):
		name, _ := f.GetString("theme")
		raw, ok := themes[strings.ToLower(name)]
		if !ok {
			return "", fmt.Errorf("%w: unknown theme %q, expected one of %s",
				config.ErrInvalidConfig, name, strings.Join(themeNames(), ", "))
		}
		return raw, nil
	case f.Changed("path"):
		p, _ := f.GetString("path")
		if p == "" || strings.TrimSpace(p) != p {
			return "", fmt.Errorf("%w: --path %q", config.ErrBlankString, p)
		}
		u, err := utils.URLFromPath(p)
		if err != nil {
			return "", fmt.Errorf("%w: --path %q: %v", config.ErrInvalidConfig, p, err)
		}
		return u.String(), nil
	default:
		return "", fmt.Errorf("%w: one of --%s is required", config.ErrInvalidConfig, strings.Join(targetFlags, ", --"))
	}
}
