package excel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	sheetdb "github.com/ideamans/go-sheetdb"
	"github.com/ideamans/go-sheetdb/internal/transporttest"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  &Config{FilePath: "test.xlsx"},
			wantErr: false,
		},
		{
			name:    "missing file path",
			config:  &Config{},
			wantErr: true,
		},
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransport_Conformance(t *testing.T) {
	transporttest.Run(t, func(t *testing.T) sheetdb.Transport {
		transport, err := New(&Config{FilePath: filepath.Join(t.TempDir(), "db.xlsx")})
		if err != nil {
			t.Fatalf("Failed to create transport: %v", err)
		}
		return transport
	})
}

func TestTransport_NonExistentFile(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "nested", "db.xlsx")
	transport, err := New(&Config{FilePath: testFile})
	if err != nil {
		t.Fatalf("Failed to create transport: %v", err)
	}
	ctx := context.Background()

	meta, err := transport.Metadata(ctx)
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if len(meta.Sheets) != 0 {
		t.Errorf("Metadata() got %d sheets, want 0", len(meta.Sheets))
	}
	if meta.DocumentID != "db.xlsx" {
		t.Errorf("DocumentID = %q, want db.xlsx", meta.DocumentID)
	}

	if _, err := os.Stat(testFile); !os.IsNotExist(err) {
		t.Errorf("reading should not create the workbook")
	}

	err = transport.BatchUpdate(ctx, []sheetdb.Request{{Type: sheetdb.RequestAddSheet, Title: "users"}})
	if err != nil {
		t.Fatalf("BatchUpdate() error = %v", err)
	}
	if _, err := os.Stat(testFile); err != nil {
		t.Errorf("Excel file was not created: %v", err)
	}

	meta, err = transport.Metadata(ctx)
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if len(meta.Sheets) != 1 || meta.Sheets[0].Title != "users" {
		t.Errorf("Metadata() sheets = %+v, want only users", meta.Sheets)
	}
}

func TestTransport_PersistsAcrossInstances(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "db.xlsx")
	ctx := context.Background()

	first, _ := New(&Config{FilePath: testFile})
	if err := first.BatchUpdate(ctx, []sheetdb.Request{{Type: sheetdb.RequestAddSheet, Title: "todos"}}); err != nil {
		t.Fatalf("BatchUpdate() error = %v", err)
	}
	if err := first.UpdateValues(ctx, sheetdb.HeaderRange("todos"), [][]interface{}{{"id", "title"}}); err != nil {
		t.Fatalf("UpdateValues() error = %v", err)
	}
	if err := first.AppendValues(ctx, sheetdb.TableRange("todos"), [][]interface{}{{"1", "Call vendor"}}); err != nil {
		t.Fatalf("AppendValues() error = %v", err)
	}

	second, _ := New(&Config{FilePath: testFile})
	values, err := second.GetValues(ctx, sheetdb.TableRange("todos"))
	if err != nil {
		t.Fatalf("GetValues() error = %v", err)
	}
	if len(values) != 2 || values[1][1] != "Call vendor" {
		t.Errorf("GetValues() = %v", values)
	}
}

func TestTransport_InvalidFile(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "broken.xlsx")
	if err := os.WriteFile(testFile, []byte("not a workbook"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	transport, _ := New(&Config{FilePath: testFile})
	_, err := transport.Metadata(context.Background())
	if !errors.Is(err, ErrInvalidFileFormat) {
		t.Errorf("Metadata() error = %v, want %v", err, ErrInvalidFileFormat)
	}
}

func TestTransport_DeleteRowsUnknownSheet(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "db.xlsx")
	ctx := context.Background()
	transport, _ := New(&Config{FilePath: testFile})

	if err := transport.BatchUpdate(ctx, []sheetdb.Request{{Type: sheetdb.RequestAddSheet, Title: "users"}}); err != nil {
		t.Fatalf("BatchUpdate() error = %v", err)
	}
	err := transport.BatchUpdate(ctx, []sheetdb.Request{
		{Type: sheetdb.RequestDeleteRows, SheetID: 999, StartIndex: 1, EndIndex: 2},
	})
	if !errors.Is(err, ErrUnknownSheetID) {
		t.Errorf("BatchUpdate() error = %v, want %v", err, ErrUnknownSheetID)
	}
}

func TestCrop(t *testing.T) {
	rows := [][]string{
		{"id", "name", "team"},
		{"1", "a", ""},
		{"", "", ""},
	}

	got := crop(rows, sheetdb.Range{Sheet: "s", StartCol: 2, StartRow: 1, EndCol: 2})
	want := [][]string{{"name"}, {"a"}}
	if len(got) != len(want) || got[0][0] != "name" || got[1][0] != "a" {
		t.Errorf("crop() = %v, want %v", got, want)
	}
}
