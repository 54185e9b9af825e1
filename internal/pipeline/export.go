package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ppiankov/edgarflat/internal/model"
)

// ExportPath is the per-user CSV location under dir
func ExportPath(dir, userID string) string {
	return filepath.Join(dir, model.ExportFileName(userID))
}

// WriteCSV writes the header and rows. NULL cells are empty.
func WriteCSV(w io.Writer, rows []model.ViewRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.ViewColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile replaces path with the rendered rows. The file is written next
// to its destination and renamed into place, so a reader sees either the old
// export or the new one.
func WriteCSVFile(path string, rows []model.ViewRow) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := WriteCSV(tmp, rows); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename export file: %w", err)
	}
	return nil
}
