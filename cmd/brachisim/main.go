package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/brachisim/internal/audio"
	"github.com/san-kum/brachisim/internal/config"
	"github.com/san-kum/brachisim/internal/dynamo"
	"github.com/san-kum/brachisim/internal/export"
	"github.com/san-kum/brachisim/internal/logging"
	"github.com/san-kum/brachisim/internal/metrics"
	"github.com/san-kum/brachisim/internal/physics"
	"github.com/san-kum/brachisim/internal/ramp"
	"github.com/san-kum/brachisim/internal/sim"
	"github.com/san-kum/brachisim/internal/storage"
	"github.com/san-kum/brachisim/internal/stream"
	"github.com/san-kum/brachisim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logger     *log.Logger

	// scene overrides
	anchorX    float64
	anchorY    float64
	separation float64
	dt         float64
	duration   float64

	heights   []float64
	frameRate int
	addr      string
	plotField string
	outPath   string
	play      bool
	withSound bool
	asJSON    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "brachisim",
		Short: "brachistochrone race: line vs parabola vs cycloid",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(os.Stderr, logLevel)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".brachisim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "classic", "preset scenario")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "race headless and save the run",
		Args:  cobra.NoArgs,
		RunE:  runRace,
	}
	sceneFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "race with live terminal visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	sceneFlags(liveCmd)
	liveCmd.Flags().BoolVar(&withSound, "sound", false, "click on impacts through the default audio device")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a per-body trace of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotField, "field", "v", "trace to plot: t, v, x, y or z")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export frames and events to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export frames to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the tracks and body paths of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <run_id>.svg)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "race from several start heights concurrently",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sceneFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&heights, "heights", []float64{3, 4, 5, 7}, "start heights of A")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the race in real time and stream snapshots over websocket",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	sceneFlags(serveCmd)
	serveCmd.Flags().IntVar(&frameRate, "fps", 60, "simulation steps per second")
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	soundCmd := &cobra.Command{
		Use:   "sound [run_id]",
		Short: "render the impacts of a run to WAV",
		Args:  cobra.ExactArgs(1),
		RunE:  renderSound,
	}
	soundCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <run_id>.wav)")
	soundCmd.Flags().BoolVar(&play, "play", false, "replay the impacts on the default audio device")

	geometryCmd := &cobra.Command{
		Use:   "geometry",
		Short: "print track lengths and slopes",
		Args:  cobra.NoArgs,
		RunE:  printGeometry,
	}
	sceneFlags(geometryCmd)
	geometryCmd.Flags().BoolVar(&asJSON, "json", false, "print the renderer layout as JSON")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, exportCSVCmd, exportSVGCmd,
		presetsCmd, sweepCmd, serveCmd, soundCmd, geometryCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func sceneFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&anchorX, "ax", 1, "x of the start point A")
	cmd.Flags().Float64Var(&anchorY, "ay", 5, "height of the start point A")
	cmd.Flags().Float64Var(&separation, "sep", 1, "lane separation")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "maximum duration")
}

// loadScene resolves the config file or preset, then applies the flags the
// user actually set on top of it.
func loadScene(cmd *cobra.Command) (*config.Config, string, error) {
	var (
		cfg   *config.Config
		label string
	)
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
		label = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	} else {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		label = preset
	}

	flags := cmd.Flags()
	if flags.Changed("ax") {
		cfg.Anchor.X = anchorX
	}
	if flags.Changed("ay") {
		cfg.Anchor.Y = anchorY
	}
	if flags.Changed("sep") {
		cfg.Separation = separation
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, label, nil
}

func newScenario(cfg *config.Config) (*sim.Scenario, error) {
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	s, err := sim.New(settings)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		s.SetLogger(logger.WithPrefix("sim"))
	}
	return s, nil
}

func bodyNames(cfg *config.Config) []string {
	names := make([]string, len(cfg.Bodies))
	for i, b := range cfg.Bodies {
		names[i] = b.Name
	}
	return names
}

func runInfo(cfg *config.Config, label string) storage.RunInfo {
	return storage.RunInfo{
		Label:      label,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Anchor:     dynamo.Vec3{cfg.Anchor.X, cfg.Anchor.Y, cfg.Anchor.Z},
		Separation: cfg.Separation,
	}
}

func fmtTime(t *float64) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%.3fs", *t)
}

func runRace(cmd *cobra.Command, args []string) error {
	cfg, label, err := loadScene(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	s, err := newScenario(cfg)
	if err != nil {
		return err
	}
	for _, m := range metrics.Standard(bodyNames(cfg)) {
		s.AddMetric(m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("racing %s from A=(%.2f, %.2f)...\n", label, cfg.Anchor.X, cfg.Anchor.Y)
	start := time.Now()

	result, err := s.Run(ctx, cfg.Sim())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(runInfo(cfg, label), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if result.AllStoppedTime == nil {
		logger.Warn("duration reached before every body stopped", "duration", cfg.Duration)
	} else {
		fmt.Printf("all stopped: %s\n", fmtTime(result.AllStoppedTime))
	}

	fmt.Println()
	if err := printStandings(result.Summaries); err != nil {
		return err
	}

	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func printStandings(summaries []dynamo.BodySummary) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tBODY\tCURVE\tLENGTH\tFIRST IMPACT\tSTOPPED\tREBOUNDS")
	for _, b := range summaries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.3fm\t%s\t%s\t%d\n",
			b.Rank, b.Name, b.Curve, b.Length, fmtTime(b.FirstImpact), fmtTime(b.FinalStop), b.Rebounds)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, label, err := loadScene(cmd)
	if err != nil {
		return err
	}
	s, err := newScenario(cfg)
	if err != nil {
		return err
	}
	// the TUI owns the terminal
	s.SetLogger(logging.Nop())

	m := viz.NewModel(s, cfg.Dt, label)
	if withSound {
		p := audio.NewProcessor()
		if err := p.Start(); err != nil {
			return fmt.Errorf("audio: %w", err)
		}
		defer p.Stop()
		m = m.WithSound(p)
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tTIME\tANCHOR\tDT\tWINNER\tALL STOPPED")
	for _, run := range runs {
		winner := run.Winner()
		if winner == "" {
			winner = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t(%.2f, %.2f)\t%.4fs\t%s\t%s\n",
			run.ID,
			run.Label,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Anchor[0], run.Anchor[1],
			run.Dt,
			winner,
			fmtTime(run.AllStoppedTime),
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames.Rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	series := make([]viz.Series, 0, 3)
	for _, name := range frames.Bodies() {
		values := frames.Series(name + "_" + plotField)
		if values == nil {
			return fmt.Errorf("unknown field %q (want t, v, x, y or z)", plotField)
		}
		series = append(series, viz.Series{Name: name, Values: values})
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("winner: %s\n", meta.Winner())
	fmt.Printf("samples: %d over %.2fs\n\n", len(frames.Rows), frames.Times[len(frames.Times)-1])

	captions := map[string]string{
		"t": "curve parameter t",
		"v": "velocity (m/s)",
		"x": "x (m)",
		"y": "height (m)",
		"z": "lane z (m)",
	}
	fmt.Println(viz.Plot(series, captions[plotField], 80, 12))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// loadResult reassembles a stored run into a Result.
func loadResult(st *storage.Store, runID string) (*storage.RunMetadata, *dynamo.Result, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	events, err := st.LoadEvents(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, &dynamo.Result{
		Frames:         frames.Snapshots(),
		Events:         events,
		Summaries:      meta.Summaries,
		Metrics:        meta.Metrics,
		StepsTaken:     meta.Steps,
		AllStoppedTime: meta.AllStoppedTime,
	}, nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := loadResult(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(outPath, meta.Info(), result)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, result, err := loadResult(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}
	if len(result.Frames) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.ExportCSV(outPath, result.Frames)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	meta, result, err := loadResult(storage.New(dataDir), runID)
	if err != nil {
		return err
	}

	rc, err := ramp.NewConfig(dynamo.Vec3(meta.Anchor), meta.Separation)
	if err != nil {
		return err
	}
	set, err := ramp.BuildSet(rc, 200, 100)
	if err != nil {
		return err
	}

	colors := make(map[string]string)
	for _, b := range meta.Summaries {
		k, err := ramp.ParseKind(b.Curve)
		if err != nil {
			continue
		}
		colors[b.Name] = string(viz.BodyColor(physics.DefaultColor(k)))
	}

	path := outPath
	if path == "" {
		path = runID + ".svg"
	}
	if err := os.WriteFile(path, []byte(export.RaceSVG(set, result.Frames, colors, 800, 500)), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tANCHOR\tSEP\tBODIES")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t(%.2f, %.2f)\t%.2f\t%s\n",
			name, p.Anchor.X, p.Anchor.Y, p.Separation, strings.Join(bodyNames(p), ", "))
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadScene(cmd)
	if err != nil {
		return err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	names := bodyNames(cfg)
	sw := sim.NewSweep(settings, heights).WithMetrics(func() []dynamo.Metric {
		return metrics.Standard(names)
	})

	logger.Info("sweeping", "heights", heights)
	start := time.Now()
	runs, err := sw.Run(ctx, cfg.Sim())
	if err != nil {
		return err
	}
	logger.Debug("sweep done", "elapsed", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HEIGHT\tWINNER\tFIRST IMPACT\tMARGIN\tALL STOPPED")
	for _, r := range runs {
		winner, first := "-", (*float64)(nil)
		if len(r.Result.Summaries) > 0 && r.Result.Summaries[0].FirstImpact != nil {
			winner, first = r.Result.Summaries[0].Name, r.Result.Summaries[0].FirstImpact
		}
		fmt.Fprintf(w, "%.2f\t%s\t%s\t%.3fs\t%s\n",
			r.Height, winner, fmtTime(first), r.Result.Metrics["win_margin"], fmtTime(r.Result.AllStoppedTime))
	}
	return w.Flush()
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, label, err := loadScene(cmd)
	if err != nil {
		return err
	}
	if frameRate <= 0 {
		return fmt.Errorf("fps must be positive, got %d", frameRate)
	}
	s, err := newScenario(cfg)
	if err != nil {
		return err
	}

	hub := stream.NewHub(s)
	hub.SetLogger(logger.WithPrefix("stream"))
	s.AddObserver(hub)
	defer hub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv := &http.Server{Addr: addr, Handler: hub.Handler()}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("serving", "scene", label, "addr", addr, "fps", frameRate)

	step := 1 / float64(frameRate)
	ticker := time.NewTicker(time.Second / time.Duration(frameRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdown)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ticker.C:
			s.Step(step)
		}
	}
}

func renderSound(cmd *cobra.Command, args []string) error {
	runID := args[0]
	events, err := storage.New(dataDir).LoadEvents(runID)
	if err != nil {
		return err
	}

	path := outPath
	if path == "" {
		path = runID + ".wav"
	}
	if err := audio.WriteWAV(path, events); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)

	if play {
		return replay(cmd.Context(), events)
	}
	return nil
}

// replay triggers the live processor at the recorded impact times.
func replay(ctx context.Context, events []dynamo.Event) error {
	p := audio.NewProcessor()
	if err := p.Start(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	defer p.Stop()

	start := time.Now()
	for _, e := range events {
		if e.Kind != dynamo.EventImpact && e.Kind != dynamo.EventRebound && e.Kind != dynamo.EventStop {
			continue
		}
		wait := time.Duration(e.Time*float64(time.Second)) - time.Since(start)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		p.Trigger(e.Body, e.Velocity)
		logger.Debug("click", "event", e)
	}
	time.Sleep(500 * time.Millisecond)
	return nil
}

func printGeometry(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadScene(cmd)
	if err != nil {
		return err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	set, err := ramp.BuildSet(settings.Ramp, cfg.PhysicsSamples, cfg.RenderSamples)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stream.NewLayout(set))
	}

	rc := set.Config
	fmt.Printf("A=(%.2f, %.2f)  B=(%.2f, %.2f)  drop=%.2fm  platform=%.2fm\n\n",
		rc.A.X(), rc.A.Y(), rc.B.X(), rc.B.Y(), rc.Drop(), rc.PlatformHeight())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CURVE\tZ\tLENGTH\tMIN SLOPE\tMAX SLOPE")
	for _, k := range ramp.Kinds() {
		g := set.Physics[k]
		lo, hi := g.SlopeRange()
		fmt.Fprintf(w, "%s\t%.2f\t%.4fm\t%.4f\t%.4f\n", k.Title(), g.ZOffset, g.Length, lo, hi)
	}
	return w.Flush()
}
