package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/minsoo-dev/libcrowd/models"
	"github.com/minsoo-dev/libcrowd/store"
)

const pageFixture = `
<div class="map-floor" data-floor="1F">
  <span class="map-pin" data-status="원활"><em class="pin-label">대강당</em></span>
</div>`

func TestPageFileName(t *testing.T) {
	fr := models.FetchResult{
		Timestamp:  "2025-11-06_11-20-02",
		StatusCode: 200,
	}
	want := "2025-11-06_11-20-02_PageContent_Code-200.html"
	if got := PageFileName(fr); got != want {
		t.Fatalf("PageFileName = %q, want %q", got, want)
	}

	fr.StatusCode = 503
	if got := PageFileName(fr); got != "2025-11-06_11-20-02_PageContent_Code-503.html" {
		t.Fatalf("PageFileName = %q, want status embedded", got)
	}
}

func TestSavePageWritesRawContent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pages")
	fr := models.FetchResult{
		Timestamp:  "2025-11-06_11-20-02",
		RawContent: pageFixture,
		StatusCode: 200,
	}

	path, err := SavePage(dir, fr)
	if err != nil {
		t.Fatalf("save page: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved page: %v", err)
	}
	if string(content) != pageFixture {
		t.Fatalf("saved content differs from raw content")
	}
}

func TestProcessFolderRoundTrip(t *testing.T) {
	dir := t.TempDir()

	fr := models.FetchResult{Timestamp: "2025-11-06_11-20-02", RawContent: pageFixture, StatusCode: 200}
	if _, err := SavePage(dir, fr); err != nil {
		t.Fatalf("save page: %v", err)
	}
	// A page that parses to nothing ends up in Error/.
	bad := models.FetchResult{Timestamp: "2025-11-06_11-35-01", RawContent: "<p>maintenance</p>", StatusCode: 200}
	if _, err := SavePage(dir, bad); err != nil {
		t.Fatalf("save bad page: %v", err)
	}

	wb, err := store.OpenWorkbook(t.TempDir(), "c", "t")
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}

	report, err := ProcessFolder(context.Background(), dir, wb)
	if err != nil {
		t.Fatalf("process folder: %v", err)
	}
	if report.Processed != 2 || report.Done != 1 || report.Failed != 1 || report.Rows != 1 {
		t.Fatalf("report = %+v, want 2 processed / 1 done / 1 failed / 1 row", report)
	}

	if _, err := os.Stat(filepath.Join(dir, DoneDir, PageFileName(fr))); err != nil {
		t.Fatalf("parsed page should be in Done/: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ErrorDir, PageFileName(bad))); err != nil {
		t.Fatalf("failed page should be in Error/: %v", err)
	}

	readings, err := wb.QueryReadings(context.Background())
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("persisted readings = %d, want 1", len(readings))
	}
	r := readings[0]
	// The timestamp comes from the filename, keeping archive naming and
	// extraction in lockstep.
	if r.Timestamp != "2025-11-06_11-20-02" || r.Floor != "1F" || r.Location != "대강당" {
		t.Fatalf("reading = %+v, want filename-derived timestamp and 1F/대강당", r)
	}
}

func TestProcessFolderSkipsUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "unstamped.html"), []byte(pageFixture), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	wb, err := store.OpenWorkbook(t.TempDir(), "c", "t")
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}

	report, err := ProcessFolder(context.Background(), dir, wb)
	if err != nil {
		t.Fatalf("process folder: %v", err)
	}
	// The .txt is ignored outright; the unstamped .html is a failure.
	if report.Processed != 1 || report.Failed != 1 {
		t.Fatalf("report = %+v, want 1 processed / 1 failed", report)
	}
	if _, err := os.Stat(filepath.Join(dir, ErrorDir, "unstamped.html")); err != nil {
		t.Fatalf("unstamped page should be in Error/: %v", err)
	}
}
