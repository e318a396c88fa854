package bands

import (
	"context"
	"fmt"
	"time"

	"github.com/notargets/TBFermi/eigen"
	"github.com/notargets/TBFermi/hamiltonian"
	"github.com/notargets/TBFermi/lattice"
	"github.com/notargets/TBFermi/observability"
	"github.com/notargets/TBFermi/partitions"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Options tunes a mesh sweep. The zero value is usable.
type Options struct {
	Workers     int // Parallel workers, GOMAXPROCS when <= 0
	Strategy    partitions.PartitionStrategy
	KeepVectors bool // Retain every eigendecomposition for later lookup
	Logger      *zap.Logger
	Metrics     *observability.Collector
}

// BandStructure holds the n-th ascending eigenvalue of every mesh point, one
// len(Y) x len(X) matrix per band
type BandStructure struct {
	Model string
	Names []string
	Bands []*mat.Dense
}

// NumBands is the number of bands
func (bs *BandStructure) NumBands() int { return len(bs.Bands) }

// Band returns the band labelled name, nil when absent
func (bs *BandStructure) Band(name string) *mat.Dense {
	for i, n := range bs.Names {
		if n == name {
			return bs.Bands[i]
		}
	}
	return nil
}

// Range returns the lowest and highest energy of band n
func (bs *BandStructure) Range(n int) (lo, hi float64) {
	return mat.Min(bs.Bands[n]), mat.Max(bs.Bands[n])
}

// Result is a band structure plus the eigendecompositions when requested
type Result struct {
	*BandStructure
	Mesh    *lattice.Mesh
	vectors []*eigen.Decomposition // row major, nil unless KeepVectors
}

// Decomposition returns the stored eigendecomposition at mesh point (i, j),
// nil when the sweep did not keep vectors
func (r *Result) Decomposition(i, j int) *eigen.Decomposition {
	if r.vectors == nil {
		return nil
	}
	_, nx := r.Mesh.Dims()
	return r.vectors[i*nx+j]
}

// HasVectors reports whether eigenvectors were retained
func (r *Result) HasVectors() bool { return r.vectors != nil }

// HamiltonianAt assembles the Hamiltonian at mesh point (i, j)
func HamiltonianAt(model hamiltonian.Model, mesh *lattice.Mesh, i, j int) *mat.CDense {
	return model.Build(mesh.K(i, j))
}

// Sweep diagonalizes the Hamiltonian at every mesh point. Mesh rows are split
// into partitions evaluated concurrently; each worker writes disjoint entries
// of the output matrices, so the result does not depend on scheduling.
func Sweep(ctx context.Context, mesh *lattice.Mesh, model hamiltonian.Model, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()
	ny, nx := mesh.Dims()
	norb := model.Norb()

	_, span := observability.Tracer().Start(ctx, "bands.Sweep", trace.WithAttributes(
		attribute.String("model", model.Name()),
		attribute.Int("kpoints", nx),
		attribute.Bool("vectors", opts.KeepVectors),
	))
	defer span.End()

	layout, err := partitions.ForWorkers(ny, opts.Workers, opts.Strategy)
	if err != nil {
		return nil, fmt.Errorf("partition mesh rows: %w", err)
	}

	res := &Result{
		BandStructure: &BandStructure{
			Model: model.Name(),
			Names: model.BandNames(),
			Bands: make([]*mat.Dense, norb),
		},
		Mesh: mesh,
	}
	for n := range res.Bands {
		res.Bands[n] = mat.NewDense(ny, nx, nil)
	}
	if opts.KeepVectors {
		res.vectors = make([]*eigen.Decomposition, ny*nx)
	}

	var g errgroup.Group
	for _, part := range layout.Partitions {
		rows := part.Items
		g.Go(func() error {
			for _, i := range rows {
				for j := 0; j < nx; j++ {
					H := HamiltonianAt(model, mesh, i, j)
					if opts.KeepVectors {
						d, err := eigen.Decompose(H)
						if err != nil {
							return fmt.Errorf("mesh point (%d,%d): %w", i, j, err)
						}
						res.vectors[i*nx+j] = d
						res.setPoint(i, j, d.Values)
						continue
					}
					vals, err := eigen.Values(H)
					if err != nil {
						return fmt.Errorf("mesh point (%d,%d): %w", i, j, err)
					}
					res.setPoint(i, j, vals)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	opts.Metrics.AddDiagonalizations(model.Name(), "sweep", ny*nx)
	opts.Metrics.SetMeshPoints(ny * nx)
	opts.Metrics.ObservePhase(model.Name(), "sweep", start)
	log.Debug("band sweep complete",
		zap.String("model", model.Name()),
		zap.Int("kpoints", nx),
		zap.Int("bands", norb),
		zap.Int("partitions", layout.NumPartitions),
		zap.Duration("elapsed", time.Since(start)))

	return res, nil
}

func (r *Result) setPoint(i, j int, vals []float64) {
	for n, v := range vals {
		r.Bands[n].Set(i, j, v)
	}
}
