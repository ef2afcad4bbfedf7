package store

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/minsoo-dev/libcrowd/models"
)

func readAllRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open table: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read table: %v", err)
	}
	return records
}

func sampleReadings() []*models.Reading {
	return []*models.Reading{
		{Timestamp: "2025-11-06_11-20-02", Floor: "1F", Location: "대강당", Status: "원활"},
		{Timestamp: "2025-11-06_11-20-02", Floor: "B1", Location: "자료실", Status: "혼잡"},
	}
}

func TestOpenWorkbookCreatesContainerAndTable(t *testing.T) {
	root := t.TempDir()

	wb, err := OpenWorkbook(root, "library-congestion", "readings")
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}

	records := readAllRows(t, wb.TablePath())
	if len(records) != 1 {
		t.Fatalf("rows = %d, want header only", len(records))
	}
	if records[0][0] != "Timestamp" || records[0][3] != "Status" {
		t.Fatalf("unexpected header: %v", records[0])
	}
}

func TestOpenWorkbookIdempotent(t *testing.T) {
	root := t.TempDir()

	wb, err := OpenWorkbook(root, "library-congestion", "readings")
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := wb.AppendReadings(context.Background(), sampleReadings()); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Second open must reuse container and table, leaving data and the
	// single header untouched.
	if _, err := OpenWorkbook(root, "library-congestion", "readings"); err != nil {
		t.Fatalf("second open: %v", err)
	}

	records := readAllRows(t, wb.TablePath())
	if len(records) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(records))
	}
	headerCount := 0
	for _, row := range records {
		if row[0] == "Timestamp" {
			headerCount++
		}
	}
	if headerCount != 1 {
		t.Fatalf("header present %d times, want exactly once", headerCount)
	}

	entries, err := os.ReadDir(filepath.Join(root, "library-congestion"))
	if err != nil {
		t.Fatalf("read container: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("container entries = %d, want only the table", len(entries))
	}
}

func TestOpenWorkbookRemovesPlaceholder(t *testing.T) {
	root := t.TempDir()

	if _, err := OpenWorkbook(root, "library-congestion", "readings"); err != nil {
		t.Fatalf("open workbook: %v", err)
	}

	placeholder := filepath.Join(root, "library-congestion", PlaceholderTable+".csv")
	if _, err := os.Stat(placeholder); !os.IsNotExist(err) {
		t.Fatalf("placeholder should be removed once the target table exists")
	}
}

func TestOpenWorkbookKeepsPlaceholderWhenTargeted(t *testing.T) {
	root := t.TempDir()

	wb, err := OpenWorkbook(root, "library-congestion", PlaceholderTable)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	if _, err := os.Stat(wb.TablePath()); err != nil {
		t.Fatalf("the placeholder is the target and must survive: %v", err)
	}
}

func TestOpenWorkbookHeaderForEmptyTable(t *testing.T) {
	root := t.TempDir()
	containerDir := filepath.Join(root, "library-congestion")
	if err := os.MkdirAll(containerDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Table exists but has zero rows, not even a header.
	if err := os.WriteFile(filepath.Join(containerDir, "readings.csv"), nil, 0o644); err != nil {
		t.Fatalf("touch table: %v", err)
	}

	wb, err := OpenWorkbook(root, "library-congestion", "readings")
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	records := readAllRows(t, wb.TablePath())
	if len(records) != 1 || records[0][0] != "Timestamp" {
		t.Fatalf("header not bootstrapped into empty table: %v", records)
	}
}

func TestAppendReadingsEmptyIsNoop(t *testing.T) {
	root := t.TempDir()
	wb, err := OpenWorkbook(root, "c", "t")
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}

	if err := wb.AppendReadings(context.Background(), nil); err != nil {
		t.Fatalf("empty append must succeed, got %v", err)
	}
	if records := readAllRows(t, wb.TablePath()); len(records) != 1 {
		t.Fatalf("rows = %d, want header only after empty append", len(records))
	}
}

func TestAppendReadingsContiguousBlock(t *testing.T) {
	root := t.TempDir()
	wb, err := OpenWorkbook(root, "c", "t")
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}

	first := sampleReadings()
	if err := wb.AppendReadings(context.Background(), first); err != nil {
		t.Fatalf("first append: %v", err)
	}
	second := []*models.Reading{
		{Timestamp: "2025-11-06_11-35-01", Floor: "2F", Location: "열람실", Status: "보통"},
	}
	if err := wb.AppendReadings(context.Background(), second); err != nil {
		t.Fatalf("second append: %v", err)
	}

	records := readAllRows(t, wb.TablePath())
	if len(records) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(records))
	}
	// Existing rows untouched, new block starts right after them.
	if records[1][2] != "대강당" || records[2][2] != "자료실" {
		t.Fatalf("earlier rows were disturbed: %v", records[1:3])
	}
	if records[3][0] != "2025-11-06_11-35-01" || records[3][1] != "2F" {
		t.Fatalf("appended row misplaced: %v", records[3])
	}
}

func TestQueryReadingsRoundTrip(t *testing.T) {
	root := t.TempDir()
	wb, err := OpenWorkbook(root, "c", "t")
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	if err := wb.AppendReadings(context.Background(), sampleReadings()); err != nil {
		t.Fatalf("append: %v", err)
	}

	readings, err := wb.QueryReadings(context.Background())
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("readings = %d, want 2", len(readings))
	}
	if readings[0].Location != "대강당" || readings[1].Status != "혼잡" {
		t.Fatalf("round trip mismatch: %+v", readings)
	}
}

func TestCompactDeduplicatesAndSorts(t *testing.T) {
	root := t.TempDir()
	wb, err := OpenWorkbook(root, "c", "t")
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}

	rows := []*models.Reading{
		{Timestamp: "2025-11-06_12-00-00", Floor: "1F", Location: "대강당", Status: "보통"},
		{Timestamp: "2025-11-06_11-20-02", Floor: "1F", Location: "대강당", Status: "원활"},
		{Timestamp: "2025-11-06_12-00-00", Floor: "1F", Location: "대강당", Status: "보통"},
	}
	if err := wb.AppendReadings(context.Background(), rows); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := wb.Compact(); err != nil {
		t.Fatalf("compact: %v", err)
	}

	records := readAllRows(t, wb.TablePath())
	if len(records) != 3 {
		t.Fatalf("rows = %d, want header + 2 unique", len(records))
	}
	if records[1][0] != "2025-11-06_11-20-02" || records[2][0] != "2025-11-06_12-00-00" {
		t.Fatalf("rows not sorted by timestamp: %v", records[1:])
	}
}

func TestWorkbookValidate(t *testing.T) {
	root := t.TempDir()
	wb, err := OpenWorkbook(root, "c", "t")
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	if err := wb.Validate(); err != nil {
		t.Fatalf("table with header should validate, got %v", err)
	}

	if err := os.Remove(wb.TablePath()); err != nil {
		t.Fatalf("remove table: %v", err)
	}
	if err := wb.Validate(); err == nil {
		t.Fatalf("missing table must fail validation")
	}
}
