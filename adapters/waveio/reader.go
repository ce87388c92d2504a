// Package waveio ingests captured pulse waveforms from sensor export files
// (xlsx or csv, one amplitude column) into the core's waveform shape.
package waveio

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"ayursense/domain/pulse"
	"ayursense/internal/errors"
)

// CaptureReader reads waveform capture exports. The first column of the
// first sheet (or of the csv) holds amplitude samples; non-numeric rows
// such as headers are skipped.
type CaptureReader struct{}

// NewCaptureReader creates a capture file reader.
func NewCaptureReader() *CaptureReader {
	return &CaptureReader{}
}

// Read loads the file at path and returns its waveform at the given
// sampling rate. Supported extensions: .xlsx, .csv.
func (r *CaptureReader) Read(path string, samplingRate float64) (pulse.RawWaveform, error) {
	var (
		samples []float64
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		samples, err = readXLSX(path)
	case ".csv":
		samples, err = readCSV(path)
	default:
		return pulse.RawWaveform{}, errors.InvalidInput("unsupported capture format: " + filepath.Ext(path))
	}
	if err != nil {
		return pulse.RawWaveform{}, err
	}
	if len(samples) == 0 {
		return pulse.RawWaveform{}, errors.InvalidInput("capture file contains no numeric samples")
	}
	return pulse.NewRawWaveform(samples, samplingRate)
}

func readXLSX(path string) ([]float64, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open capture file %s", path)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.InvalidInput("capture workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheet)
	}

	var samples []float64
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if err != nil {
			continue // header or annotation row
		}
		samples = append(samples, v)
	}
	return samples, nil
}

func readCSV(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open capture file %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	var samples []float64
	for _, record := range records {
		if len(record) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			continue
		}
		samples = append(samples, v)
	}
	return samples, nil
}
