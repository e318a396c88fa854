// Package cut evaluates a tight binding model along a 1D momentum path and
// renders the orbital character of every band into an energy-momentum image,
// the simulated counterpart of a measured ARPES cut.
package cut

import (
	"context"
	"fmt"
	"time"

	"github.com/notargets/TBFermi/eigen"
	"github.com/notargets/TBFermi/hamiltonian"
	"github.com/notargets/TBFermi/lattice"
	"github.com/notargets/TBFermi/observability"
	"github.com/notargets/TBFermi/partitions"
	"github.com/notargets/TBFermi/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultEMin   = -0.65
	DefaultEMax   = 0.3
	DefaultPoints = 500
	DefaultSigma  = 3.
)

// Options controls the energy axis and the blur of the image. Zero fields
// take the defaults; a negative sigma disables blurring along that axis.
type Options struct {
	EMin, EMax    float64
	Points        int
	SigmaEnergy   float64 // Blur along the energy axis in bins
	SigmaMomentum float64 // Blur along the path in samples
	Workers       int
	Logger        *zap.Logger
	Metrics       *observability.Collector
}

func (o Options) withDefaults() Options {
	if o.EMin == 0 && o.EMax == 0 {
		o.EMin, o.EMax = DefaultEMin, DefaultEMax
	}
	if o.Points <= 0 {
		o.Points = DefaultPoints
	}
	if o.SigmaEnergy == 0 {
		o.SigmaEnergy = DefaultSigma
	}
	if o.SigmaMomentum == 0 {
		o.SigmaMomentum = DefaultSigma
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Result holds the simulated cut
type Result struct {
	Energy    []float64
	Intensity *mat.Dense  // len(Energy) x path length, blurred
	Raw       *mat.Dense  // Intensity before the blur
	Bands     [][]float64 // [band][path point] ascending eigenvalues
	Names     []string
}

// Evaluate diagonalizes the model at every point of the path. Each eigenvalue
// is assigned to its nearest energy bin; energies outside [EMin, EMax] land in
// the edge bins. When two bands of one path point share a bin the higher band
// wins.
func Evaluate(ctx context.Context, path lattice.Path, model hamiltonian.Model, opts Options) (*Result, error) {
	if path.Len() == 0 || len(path.Kx) != len(path.Ky) {
		return nil, fmt.Errorf("%w: len(kx)=%d len(ky)=%d", lattice.ErrInvalidPath, len(path.Kx), len(path.Ky))
	}
	opts = opts.withDefaults()
	if opts.EMax <= opts.EMin {
		return nil, fmt.Errorf("empty energy window [%g, %g]", opts.EMin, opts.EMax)
	}
	_, span := observability.Tracer().Start(ctx, "cut.Evaluate", trace.WithAttributes(
		attribute.String("model", model.Name()),
		attribute.Int("points", path.Len()),
	))
	defer span.End()
	start := time.Now()

	var (
		np    = path.Len()
		norb  = model.Norb()
		basis = model.Basis()
		res   = &Result{
			Energy: utils.Linspace(opts.EMin, opts.EMax, opts.Points),
			Raw:    mat.NewDense(opts.Points, np, nil),
			Bands:  make([][]float64, norb),
			Names:  model.BandNames(),
		}
	)
	for n := range res.Bands {
		res.Bands[n] = make([]float64, np)
	}

	layout, err := partitions.ForWorkers(np, opts.Workers, partitions.BlockPartition)
	if err != nil {
		return nil, fmt.Errorf("partition path: %w", err)
	}
	var g errgroup.Group
	for _, part := range layout.Partitions {
		points := part.Items
		g.Go(func() error {
			for _, i := range points {
				d, err := eigen.Decompose(model.Build(path.Kx[i], path.Ky[i]))
				if err != nil {
					return fmt.Errorf("path point %d (%g,%g): %w", i, path.Kx[i], path.Ky[i], err)
				}
				// Column i belongs to this worker alone
				for n, e := range d.Values {
					res.Bands[n][i] = e
					res.Raw.Set(utils.FindIndex(res.Energy, e), i, basis.Project(d.Vectors, n))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	res.Intensity = utils.GaussianFilter(res.Raw, opts.SigmaEnergy, opts.SigmaMomentum)

	opts.Metrics.AddDiagonalizations(model.Name(), "cut", np)
	opts.Metrics.ObservePhase(model.Name(), "cut", start)
	opts.Logger.Debug("cut evaluated",
		zap.String("model", model.Name()),
		zap.Int("points", np),
		zap.Int("energies", opts.Points),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}
