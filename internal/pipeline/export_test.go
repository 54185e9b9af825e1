package pipeline

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ppiankov/edgarflat/internal/model"
)

func TestWriteCSV(t *testing.T) {
	rows := []model.ViewRow{
		{
			CIK:        320193,
			EntityName: `Example, "Corp"`,
			End:        sql.NullString{String: "2020-12-31", Valid: true},
			AccountID:  "Assets",
			Units:      "USD",
			Val:        decimal.NewNullDecimal(decimal.RequireFromString("1000.5")),
		},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatal(err)
	}
	want := "cik,entity_name,start,end,fy,fp,account_id,account,units,val,form\n" +
		`320193,"Example, ""Corp""",,2020-12-31,,,Assets,,USD,1000.5,` + "\n"
	if buf.String() != want {
		t.Errorf("WriteCSV =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteCSVFile_Replaces(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "csv_files")
	path := ExportPath(dir, "7")

	if err := WriteCSVFile(path, []model.ViewRow{{AccountID: "A"}}); err != nil {
		t.Fatal(err)
	}
	if err := WriteCSVFile(path, nil); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "cik,entity_name,start,end,fy,fp,account_id,account,units,val,form\n" {
		t.Errorf("Expected header only after replace, got %q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected only the export file, got %d entries", len(entries))
	}
}
