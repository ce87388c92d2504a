package waveio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"ayursense/internal/errors"
)

func TestRead_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.csv")
	content := "amplitude\n0.10\n0.25\n-0.05\nnot-a-number\n0.40\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	w, err := NewCaptureReader().Read(path, 50)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	want := []float64{0.10, 0.25, -0.05, 0.40}
	if len(w.Samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(w.Samples))
	}
	for i, v := range want {
		if w.Samples[i] != v {
			t.Errorf("sample %d = %f, want %f", i, w.Samples[i], v)
		}
	}
	if w.SamplingRate != 50 {
		t.Errorf("sampling rate = %f, want 50", w.SamplingRate)
	}
}

func TestRead_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := []interface{}{"amplitude", 0.2, 0.4, 0.6}
	for i, v := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			t.Fatalf("setting cell: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("saving fixture workbook: %v", err)
	}

	w, err := NewCaptureReader().Read(path, 100)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(w.Samples) != 3 {
		t.Fatalf("expected 3 samples (header skipped), got %d", len(w.Samples))
	}
	if w.Samples[0] != 0.2 || w.Samples[2] != 0.6 {
		t.Errorf("unexpected samples: %v", w.Samples)
	}
}

func TestRead_UnsupportedExtension(t *testing.T) {
	_, err := NewCaptureReader().Read("capture.wav", 50)
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	if errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", errors.GetCode(err))
	}
}

func TestRead_NoNumericSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("header\nonly text\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	_, err := NewCaptureReader().Read(path, 50)
	if errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT for sample-free file, got %v", err)
	}
}

func TestRead_MissingFile(t *testing.T) {
	_, err := NewCaptureReader().Read(filepath.Join(t.TempDir(), "absent.csv"), 50)
	if err == nil {
		t.Error("expected error for missing file")
	}
}
