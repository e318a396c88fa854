// Command tbfs evaluates tight binding band structures, orbitally projected
// Fermi surfaces and simulated ARPES cuts for Sr2RuO4 and Ca1.8Sr0.2RuO4.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/notargets/TBFermi/bands"
	"github.com/notargets/TBFermi/config"
	"github.com/notargets/TBFermi/hamiltonian"
	"github.com/notargets/TBFermi/lattice"
	"github.com/notargets/TBFermi/observability"
	"github.com/notargets/TBFermi/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds the state shared by the subcommands of one invocation
type app struct {
	// Global flags
	configPath  string
	verbose     bool
	outDir      string
	dbPath      string
	metricsAddr string
	trace       bool
	paramsPath  string
	kpoints     int
	workers     int
	model       string
	preset      string
	level       float64

	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Collector
	server  *http.Server
	results *store.Store

	shutdownTracing func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "tbfs",
		Short: "Tight binding band structures and orbitally projected Fermi surfaces",
		Long: `tbfs diagonalizes the single band, three orbital (Sr2RuO4) and bilayer
six orbital (Ca1.8Sr0.2RuO4) tight binding models on a momentum mesh.

Results are written as CSV files to --out and optionally recorded in a
SQLite database with --db.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.configPath, "config", "c", "", "YAML run configuration")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	f.StringVarP(&a.outDir, "out", "o", "", "output directory (default from config)")
	f.StringVar(&a.dbPath, "db", "", "SQLite result database")
	f.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.BoolVar(&a.trace, "trace", false, "export trace spans to stderr")
	f.StringVar(&a.paramsPath, "params", "", "YAML parameter file (preset plus overrides)")
	f.IntVarP(&a.kpoints, "kpoints", "k", 0, "mesh points per axis")
	f.IntVarP(&a.workers, "workers", "w", 0, "parallel workers, 0 for GOMAXPROCS")
	f.StringVarP(&a.model, "model", "m", "", "model kind: single, three-orbital, bilayer")
	f.StringVarP(&a.preset, "preset", "p", "", "parameter preset: "+fmt.Sprint(hamiltonian.PresetNames()))
	f.Float64VarP(&a.level, "level", "e", 0, "energy level of the Fermi surface (e0)")

	root.AddCommand(
		newBandsCmd(a),
		newFermiCmd(a),
		newCutCmd(a),
		newPresetsCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup builds the logger, loads and validates the configuration and starts
// the optional metrics, tracing and storage backends
func (a *app) setup(cmd *cobra.Command, args []string) error {
	zc := zap.NewProductionConfig()
	if a.verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	var err error
	if a.logger, err = zc.Build(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg := config.Default()
	if a.configPath != "" {
		if cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}
	if err := a.applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	// A private registry keeps repeated invocations in one process independent
	if a.metrics, err = observability.NewCollector(prometheus.NewRegistry()); err != nil {
		return err
	}
	if cfg.Output.MetricsAddr != "" {
		if err := a.serveMetrics(cfg.Output.MetricsAddr); err != nil {
			return err
		}
	}

	a.shutdownTracing, err = observability.InitTracing(cmd.Context(), observability.TracingConfig{
		Enabled:     cfg.Output.Trace,
		ServiceName: "tbfs",
		Writer:      cmd.ErrOrStderr(),
		SampleRatio: 1,
	}, a.logger)
	if err != nil {
		return err
	}

	if cfg.Output.Database != "" {
		if a.results, err = store.Open(cfg.Output.Database, a.logger); err != nil {
			return err
		}
	}
	if cfg.Output.Dir != "" {
		if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return nil
}

// applyFlags lets explicitly set flags override the configuration file
func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("out") {
		cfg.Output.Dir = a.outDir
	}
	if changed("db") {
		cfg.Output.Database = a.dbPath
	}
	if changed("metrics-addr") {
		cfg.Output.MetricsAddr = a.metricsAddr
	}
	if changed("trace") {
		cfg.Output.Trace = a.trace
	}
	if changed("kpoints") {
		cfg.Mesh.Kpoints = a.kpoints
	}
	if changed("workers") {
		cfg.Sweep.Workers = a.workers
	}
	if changed("model") {
		cfg.Model.Kind = a.model
	}
	if changed("preset") {
		cfg.Model.Preset = a.preset
		cfg.Model.Params = nil
	}
	if changed("level") {
		cfg.Model.Level = a.level
	}
	if a.paramsPath != "" {
		f, err := os.Open(a.paramsPath)
		if err != nil {
			return fmt.Errorf("failed to open parameter file: %w", err)
		}
		defer f.Close()
		p, err := hamiltonian.LoadParams(f)
		if err != nil {
			return err
		}
		cfg.Model.Preset = ""
		cfg.Model.Params = p
	}
	return nil
}

func (a *app) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	a.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	a.logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	var errs []error
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.shutdownTracing != nil {
		errs = append(errs, a.shutdownTracing(ctx))
	}
	if a.server != nil {
		errs = append(errs, a.server.Shutdown(ctx))
	}
	if a.results != nil {
		errs = append(errs, a.results.Close())
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}

// buildModel assembles the configured model on the configured mesh
func (a *app) buildModel() (*lattice.Mesh, hamiltonian.Model, hamiltonian.Params, error) {
	mesh, err := lattice.NewMesh(a.cfg.Mesh.A, a.cfg.Mesh.Kbnd, a.cfg.Mesh.Kpoints)
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := a.cfg.Params()
	if err != nil {
		return nil, nil, nil, err
	}
	kind, err := hamiltonian.ParseKind(a.cfg.Model.Kind)
	if err != nil {
		return nil, nil, nil, err
	}
	model, err := hamiltonian.New(kind, p, a.cfg.Mesh.A)
	if err != nil {
		return nil, nil, nil, err
	}
	return mesh, model, p, nil
}

// sweepOptions maps the configuration onto the mesh sweep
func (a *app) sweepOptions() (bands.Options, error) {
	strategy, err := a.cfg.Strategy()
	if err != nil {
		return bands.Options{}, err
	}
	return bands.Options{
		Workers:  a.cfg.Sweep.Workers,
		Strategy: strategy,
		Logger:   a.logger,
		Metrics:  a.metrics,
	}, nil
}

// record stores the run when a database is configured and returns its ID
func (a *app) record(ctx context.Context, model string, p hamiltonian.Params) (string, error) {
	if a.results == nil {
		return "", nil
	}
	return a.results.SaveRun(ctx, store.Run{
		Model:   model,
		Params:  p,
		Level:   a.cfg.Model.Level,
		Kpoints: a.cfg.Mesh.Kpoints,
	})
}
