// Package archive stores raw fetched pages as files and replays them later.
//
// The raw-fetch variant of the collector only writes the page it fetched;
// extraction happens in a second job that walks the folder, parses each
// file, and moves it to Done or Error. The filename carries everything the
// replay needs: the fetch timestamp and the HTTP status.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/minsoo-dev/libcrowd/extract"
	"github.com/minsoo-dev/libcrowd/models"
	"github.com/minsoo-dev/libcrowd/store"
)

// Subfolders processed files are moved into.
const (
	DoneDir  = "Done"
	ErrorDir = "Error"
)

// PageFileName renders the archival filename for a fetch. The timestamp
// prefix must stay parseable by extract.TimestampFromName.
func PageFileName(fr models.FetchResult) string {
	return fmt.Sprintf("%s_PageContent_Code-%d.html", fr.Timestamp, fr.StatusCode)
}

// SavePage writes the raw content of a fetch into dir, creating dir if
// needed, and returns the file path.
func SavePage(dir string, fr models.FetchResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir %q: %w", dir, err)
	}
	path := filepath.Join(dir, PageFileName(fr))
	if err := os.WriteFile(path, []byte(fr.RawContent), 0o644); err != nil {
		return "", fmt.Errorf("write page %q: %w", path, err)
	}
	return path, nil
}

// Report summarizes one folder-processing pass.
type Report struct {
	Processed int
	Done      int
	Failed    int
	Rows      int
}

// ProcessFolder extracts readings from every archived page in dir and
// persists them to s. Successfully parsed files move to Done/, failures to
// Error/; files without a timestamp in their name are failures too. A file
// that cannot be moved is left in place and reported.
func ProcessFolder(ctx context.Context, dir string, s store.Store) (Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Report{}, fmt.Errorf("read archive dir %q: %w", dir, err)
	}

	var report Report
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++

		path := filepath.Join(dir, entry.Name())
		rows, err := processFile(ctx, path, entry.Name(), s)
		if err != nil {
			slog.Warn("archived page failed",
				slog.String("file", entry.Name()),
				slog.Any("error", err),
			)
			report.Failed++
			moveTo(dir, entry.Name(), ErrorDir)
			continue
		}

		report.Done++
		report.Rows += rows
		moveTo(dir, entry.Name(), DoneDir)
	}
	return report, nil
}

func processFile(ctx context.Context, path, name string, s store.Store) (int, error) {
	timestamp, ok := extract.TimestampFromName(name)
	if !ok {
		return 0, fmt.Errorf("no timestamp in filename %q", name)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read page: %w", err)
	}

	saved := store.SaveResult(ctx, s, extract.Readings(string(content), timestamp))
	return saved.Unpack()
}

func moveTo(dir, name, sub string) {
	target := filepath.Join(dir, sub)
	if err := os.MkdirAll(target, 0o755); err != nil {
		slog.Error("create archive subfolder", slog.String("dir", target), slog.Any("error", err))
		return
	}
	if err := os.Rename(filepath.Join(dir, name), filepath.Join(target, name)); err != nil {
		slog.Error("move archived page", slog.String("file", name), slog.Any("error", err))
	}
}
