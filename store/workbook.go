package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/minsoo-dev/libcrowd/models"
)

// PlaceholderTable is the default sheet a freshly created container starts
// with, mirroring spreadsheet backends that always create one. It is removed
// once the real table exists, unless it IS the real table.
const PlaceholderTable = "Sheet1"

// Workbook is a CSV-backed container/table store: the container is a
// directory under root, the table a CSV file inside it with the fixed
// header.
type Workbook struct {
	root      string
	container string
	table     string
	tablePath string
	mu        sync.Mutex
}

// OpenWorkbook locates or creates the container and table. Calling it twice
// for the same names never duplicates either, and the header row ends up
// present exactly once.
func OpenWorkbook(root, container, table string) (*Workbook, error) {
	containerDir := filepath.Join(root, container)

	created, err := ensureContainer(containerDir)
	if err != nil {
		return nil, ErrPersistence{Step: "locate container", Err: err}
	}
	if created {
		// Backend parity: a brand-new container starts with a default sheet.
		if err := writeHeaderFile(tableFile(containerDir, PlaceholderTable)); err != nil {
			return nil, ErrPersistence{Step: "locate container", Err: err}
		}
	}

	tablePath := tableFile(containerDir, table)
	if err := ensureTable(tablePath); err != nil {
		return nil, ErrPersistence{Step: "locate table", Err: err}
	}

	// Drop the placeholder only after the target table is confirmed present,
	// and never when the placeholder is the target itself.
	if table != PlaceholderTable {
		placeholder := tableFile(containerDir, PlaceholderTable)
		if _, err := os.Stat(tablePath); err == nil {
			if _, err := os.Stat(placeholder); err == nil {
				if err := os.Remove(placeholder); err != nil {
					return nil, ErrPersistence{Step: "locate table", Err: err}
				}
			}
		}
	}

	return &Workbook{
		root:      root,
		container: container,
		table:     table,
		tablePath: tablePath,
	}, nil
}

// AppendReadings appends one row per reading as a contiguous block after
// existing content. An empty list is a trivial success with no write.
func (w *Workbook) AppendReadings(ctx context.Context, readings []*models.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return ErrPersistence{Step: "append rows", Err: err}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.tablePath, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return ErrPersistence{Step: "append rows", Err: err}
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	for _, r := range readings {
		if err := writer.Write([]string{r.Timestamp, r.Floor, r.Location, r.Status}); err != nil {
			return ErrPersistence{Step: "append rows", Err: err}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return ErrPersistence{Step: "append rows", Err: err}
	}
	return nil
}

// QueryReadings reads all persisted rows back, skipping the header.
func (w *Workbook) QueryReadings(ctx context.Context) ([]*models.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrPersistence{Step: "query rows", Err: err}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.readRows()
	if err != nil {
		return nil, ErrPersistence{Step: "query rows", Err: err}
	}

	readings := make([]*models.Reading, 0, len(rows))
	for _, row := range rows {
		readings = append(readings, &models.Reading{
			Timestamp: row[0],
			Floor:     row[1],
			Location:  row[2],
			Status:    row[3],
		})
	}
	return readings, nil
}

// Compact removes duplicate rows and sorts the table by timestamp. The
// header stays in place.
func (w *Workbook) Compact() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.readRows()
	if err != nil {
		return ErrPersistence{Step: "append rows", Err: err}
	}

	seen := make(map[string]struct{}, len(rows))
	unique := rows[:0]
	for _, row := range rows {
		key := row[0] + "|" + row[1] + "|" + row[2] + "|" + row[3]
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, row)
	}
	sort.SliceStable(unique, func(i, j int) bool { return unique[i][0] < unique[j][0] })

	tmp := w.tablePath + ".tmp"
	if err := writeTable(tmp, unique); err != nil {
		return ErrPersistence{Step: "append rows", Err: err}
	}
	if err := os.Rename(tmp, w.tablePath); err != nil {
		return ErrPersistence{Step: "append rows", Err: err}
	}
	return nil
}

// Validate ensures the table file exists and carries at least the header.
func (w *Workbook) Validate() error {
	info, err := os.Stat(w.tablePath)
	if err != nil {
		return fmt.Errorf("stat table: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("table %s is empty", w.table)
	}
	return nil
}

// Close is a no-op; the workbook holds no open handles between appends.
func (w *Workbook) Close() error {
	return nil
}

// TablePath exposes the backing file location, for the cmd summary.
func (w *Workbook) TablePath() string {
	return w.tablePath
}

func tableFile(containerDir, table string) string {
	return filepath.Join(containerDir, table+".csv")
}

func ensureContainer(dir string) (created bool, err error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a container directory", dir)
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, err
	}
	return true, nil
}

func ensureTable(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return writeHeaderFile(path)
	}
	if err != nil {
		return err
	}
	// Present but empty: the header still needs to be written.
	if info.Size() == 0 {
		return writeHeaderFile(path)
	}
	return nil
}

func writeHeaderFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table %s: %w", path, err)
	}
	writer := csv.NewWriter(f)
	if err := writer.Write(Header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush header: %w", err)
	}
	return f.Close()
}

func (w *Workbook) readRows() ([][]string, error) {
	f, err := os.Open(w.tablePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}

func writeTable(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(f)
	if err := writer.Write(Header); err != nil {
		f.Close()
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
