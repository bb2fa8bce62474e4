package reporter

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/amosWeiskopf/wordcrawl/pkg/extractor"
)

// WriteDictionary writes words to path, one per line, replacing the file.
func WriteDictionary(path string, words []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dictionary: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, word := range words {
		if _, err := w.WriteString(word + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("write dictionary: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write dictionary: %w", err)
	}
	return f.Close()
}

// LoadDictionary inserts every non-blank line of path into db and returns
// how many words were new. A missing file is logged and yields no words.
func LoadDictionary(path string, db *extractor.WordDB, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("dictionary not found, starting empty", "path", path)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	added := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if db.Insert(strings.TrimSpace(scanner.Text())) {
			added++
		}
	}
	if err := scanner.Err(); err != nil {
		return added, fmt.Errorf("read dictionary: %w", err)
	}
	return added, nil
}
