package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/brachisim/internal/dynamo"
)

type ExportData struct {
	Label          string               `json:"label"`
	Dt             float64              `json:"dt"`
	Duration       float64              `json:"duration"`
	Anchor         [3]float64           `json:"anchor"`
	Separation     float64              `json:"separation"`
	Steps          int                  `json:"steps"`
	AllStoppedTime *float64             `json:"all_stopped_time,omitempty"`
	Summaries      []dynamo.BodySummary `json:"summaries"`
	Events         []dynamo.Event       `json:"events"`
	Frames         []dynamo.Snapshot    `json:"frames"`
	Metrics        map[string]float64   `json:"metrics"`
}

func NewExportData(info RunInfo, result *dynamo.Result) ExportData {
	return ExportData{
		Label:          info.Label,
		Dt:             info.Dt,
		Duration:       info.Duration,
		Anchor:         [3]float64(info.Anchor),
		Separation:     info.Separation,
		Steps:          result.StepsTaken,
		AllStoppedTime: result.AllStoppedTime,
		Summaries:      result.Summaries,
		Events:         result.Events,
		Frames:         result.Frames,
		Metrics:        result.Metrics,
	}
}

func WriteJSON(w io.Writer, info RunInfo, result *dynamo.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(info, result))
}

// ExportJSON writes the full run to path, or stdout when path is "-".
func ExportJSON(path string, info RunInfo, result *dynamo.Result) error {
	if path == "-" {
		return WriteJSON(os.Stdout, info, result)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, info, result)
}

// ExportCSV writes the frame table uncompressed.
func ExportCSV(path string, frames []dynamo.Snapshot) error {
	if path == "-" {
		return WriteFramesCSV(os.Stdout, frames)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteFramesCSV(file, frames)
}
