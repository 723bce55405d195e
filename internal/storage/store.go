package storage

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/san-kum/brachisim/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv.zst"
	eventsFile   = "events.jsonl.sz"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo is what the caller knows about a run besides its result.
type RunInfo struct {
	Label      string
	Dt         float64
	Duration   float64
	Anchor     dynamo.Vec3
	Separation float64
}

type RunMetadata struct {
	ID             string               `json:"id"`
	Label          string               `json:"label"`
	Timestamp      time.Time            `json:"timestamp"`
	Dt             float64              `json:"dt"`
	Duration       float64              `json:"duration"`
	Anchor         [3]float64           `json:"anchor"`
	Separation     float64              `json:"separation"`
	Steps          int                  `json:"steps"`
	AllStoppedTime *float64             `json:"all_stopped_time,omitempty"`
	Summaries      []dynamo.BodySummary `json:"summaries"`
	Metrics        map[string]float64   `json:"metrics"`
}

// Info recovers the RunInfo the run was saved with.
func (m *RunMetadata) Info() RunInfo {
	return RunInfo{
		Label:      m.Label,
		Dt:         m.Dt,
		Duration:   m.Duration,
		Anchor:     dynamo.Vec3(m.Anchor),
		Separation: m.Separation,
	}
}

// Winner is the top-ranked body, or "" when nobody reached the wall.
func (m *RunMetadata) Winner() string {
	if len(m.Summaries) == 0 || m.Summaries[0].FirstImpact == nil {
		return ""
	}
	return m.Summaries[0].Name
}

func (s *Store) Save(info RunInfo, result *dynamo.Result) (string, error) {
	label := info.Label
	if label == "" {
		label = "race"
	}
	runID := fmt.Sprintf("%s_%s", label, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:             runID,
		Label:          label,
		Timestamp:      time.Now(),
		Dt:             info.Dt,
		Duration:       info.Duration,
		Anchor:         [3]float64(info.Anchor),
		Separation:     info.Separation,
		Steps:          result.StepsTaken,
		AllStoppedTime: result.AllStoppedTime,
		Summaries:      result.Summaries,
		Metrics:        result.Metrics,
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, metadataFile), data, 0644); err != nil {
		return "", err
	}

	if err := writeFrames(filepath.Join(runDir, framesFile), result.Frames); err != nil {
		return "", err
	}
	if err := writeEvents(filepath.Join(runDir, eventsFile), result.Events); err != nil {
		return "", err
	}

	return runID, nil
}

// FrameHeader is the CSV header for frames of the given bodies.
func FrameHeader(bodies []dynamo.BodySnapshot) []string {
	header := []string{"time", "platform_x"}
	for _, b := range bodies {
		header = append(header, b.Name+"_t", b.Name+"_v", b.Name+"_x", b.Name+"_y", b.Name+"_z")
	}
	return header
}

// FrameRow flattens a snapshot in FrameHeader order.
func FrameRow(s dynamo.Snapshot) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	row := []string{f(s.Time), f(s.PlatformX)}
	for _, b := range s.Bodies {
		row = append(row, f(b.T), f(b.Velocity), f(b.Position.X()), f(b.Position.Y()), f(b.Position.Z()))
	}
	return row
}

// WriteFramesCSV writes frames as plain CSV.
func WriteFramesCSV(out io.Writer, frames []dynamo.Snapshot) error {
	w := csv.NewWriter(out)
	if len(frames) > 0 {
		if err := w.Write(FrameHeader(frames[0].Bodies)); err != nil {
			return err
		}
	}
	for _, fr := range frames {
		if err := w.Write(FrameRow(fr)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeFrames(path string, frames []dynamo.Snapshot) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc, err := zstd.NewWriter(file)
	if err != nil {
		return err
	}
	if err := WriteFramesCSV(enc, frames); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func writeEvents(path string, events []dynamo.Event) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	stream := snappy.NewBufferedWriter(file)
	enc := json.NewEncoder(stream)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			stream.Close()
			return err
		}
	}
	return stream.Close()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Frames is a decoded frame table.
type Frames struct {
	Columns []string
	Times   []float64
	Rows    [][]float64
}

// Series returns the column with the given name, or nil.
func (f *Frames) Series(column string) []float64 {
	idx := -1
	for i, c := range f.Columns {
		if c == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]float64, 0, len(f.Rows))
	for _, row := range f.Rows {
		if idx < len(row) {
			out = append(out, row[idx])
		}
	}
	return out
}

// Bodies lists the body names present in the table, in column order.
func (f *Frames) Bodies() []string {
	names := make([]string, 0, 3)
	for _, c := range f.Columns {
		if name, ok := strings.CutSuffix(c, "_t"); ok {
			names = append(names, name)
		}
	}
	return names
}

// Snapshots rebuilds the kinematic part of every frame. Phase, mass and
// impact times are not stored in the table and stay zero.
func (f *Frames) Snapshots() []dynamo.Snapshot {
	names := f.Bodies()
	out := make([]dynamo.Snapshot, len(f.Rows))
	for i, row := range f.Rows {
		snap := dynamo.Snapshot{Step: i, Time: row[0], Started: true}
		if len(row) > 1 {
			snap.PlatformX = row[1]
		}
		for j, name := range names {
			base := 2 + j*5
			if base+4 >= len(row) {
				break
			}
			snap.Bodies = append(snap.Bodies, dynamo.BodySnapshot{
				Name:     name,
				T:        row[base],
				Velocity: row[base+1],
				Position: dynamo.Vec3{row[base+2], row[base+3], row[base+4]},
			})
		}
		out[i] = snap
	}
	return out
}

func (s *Store) LoadFrames(runID string) (*Frames, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dec, err := zstd.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	r := csv.NewReader(dec)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	frames := &Frames{}
	if len(records) == 0 {
		return frames, nil
	}
	frames.Columns = records[0]
	frames.Times = make([]float64, 0, len(records)-1)
	frames.Rows = make([][]float64, 0, len(records)-1)

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}

		row := make([]float64, 0, len(record))
		for _, field := range record {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("frames %s: %w", runID, err)
			}
			row = append(row, val)
		}
		frames.Times = append(frames.Times, row[0])
		frames.Rows = append(frames.Rows, row)
	}

	return frames, nil
}

func (s *Store) LoadEvents(runID string) ([]dynamo.Event, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, eventsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(snappy.NewReader(file))
	events := make([]dynamo.Event, 0)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e dynamo.Event
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
