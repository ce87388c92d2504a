// Command cli analyzes a pulse waveform from a capture file or a synthetic
// signal and prints the resulting assessment.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"ayursense/adapters/report"
	"ayursense/adapters/waveio"
	"ayursense/app"
	"ayursense/domain/pulse"
	"ayursense/internal"
	"ayursense/internal/config"
	"ayursense/internal/container"
	"ayursense/ports"
)

func main() {
	var (
		file         = flag.String("file", "", "capture file to analyze (.xlsx or .csv)")
		samplingRate = flag.Float64("sampling-rate", 50, "capture sampling rate in Hz")
		heartRate    = flag.Float64("hr", 70, "synthetic heart rate in bpm (when no file is given)")
		duration     = flag.Float64("duration", 60, "synthetic duration in seconds")
		seed         = flag.Int64("seed", 42, "synthetic generator seed")
		asReport     = flag.Bool("report", false, "print a markdown report instead of JSON")
	)
	flag.Parse()

	log := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration: %v", err)
		os.Exit(1)
	}
	c := container.New(cfg, log)

	waveform, err := loadWaveform(*file, *samplingRate, *heartRate, *duration, *seed)
	if err != nil {
		log.Error("failed to load waveform: %v", err)
		os.Exit(1)
	}

	assessment, err := c.Service.Assess(context.Background(), app.AssessmentRequest{Waveform: &waveform})
	if err != nil {
		log.Error("analysis failed: %v", err)
		os.Exit(1)
	}

	if *asReport {
		fmt.Print(report.NewRenderer().Markdown(assessment.Fusion, assessment.Explanation))
		return
	}

	out, err := json.MarshalIndent(assessment, "", "  ")
	if err != nil {
		log.Error("failed to encode assessment: %v", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func loadWaveform(file string, samplingRate, heartRate, duration float64, seed int64) (pulse.RawWaveform, error) {
	if file != "" {
		var reader ports.WaveformReaderPort = waveio.NewCaptureReader()
		return reader.Read(file, samplingRate)
	}
	return pulse.Synthesize(pulse.SyntheticParams{
		HeartRate:    heartRate,
		Duration:     duration,
		SamplingRate: samplingRate,
		Seed:         seed,
	})
}
