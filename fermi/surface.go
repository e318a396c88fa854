package fermi

import (
	"context"
	"fmt"
	"time"

	"github.com/notargets/TBFermi/bands"
	"github.com/notargets/TBFermi/contour"
	"github.com/notargets/TBFermi/eigen"
	"github.com/notargets/TBFermi/hamiltonian"
	"github.com/notargets/TBFermi/lattice"
	"github.com/notargets/TBFermi/observability"
	"github.com/notargets/TBFermi/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// TieBreak decides the pixel value when several contour vertices land on the
// same pixel of the Fermi surface map
type TieBreak uint8

const (
	// LastWriter keeps the value of the vertex visited last, visiting bands in
	// ascending order, then paths, then vertices along each path
	LastWriter TieBreak = iota
	// Average keeps the mean character of all vertices on the pixel
	Average
)

func (t TieBreak) String() string {
	switch t {
	case LastWriter:
		return "last"
	case Average:
		return "average"
	}
	return fmt.Sprintf("TieBreak(%d)", uint8(t))
}

// ParseTieBreak accepts "last" or "average"
func ParseTieBreak(s string) (TieBreak, error) {
	switch s {
	case "", "last":
		return LastWriter, nil
	case "average", "mean":
		return Average, nil
	}
	return 0, fmt.Errorf("unknown tie break %q", s)
}

const (
	DefaultResolution = 1000
	DefaultSigma      = 10.
)

// Options controls a Fermi surface computation
type Options struct {
	Level      float64 // Iso-energy level, 0 is the Fermi level
	Vert       bool    // Keep the contour vertices in the result
	Project    bool    // Build the orbital projected map, requires Vert
	Resolution int     // Map points per axis, DefaultResolution when <= 0
	Sigma      float64 // Gaussian blur in map pixels, DefaultSigma when 0, none when < 0
	TieBreak   TieBreak
	// ReuseSweep looks up the eigenvectors of the nearest mesh point from the
	// initial sweep instead of diagonalizing again. Same nearest index rule,
	// same numbers.
	ReuseSweep bool
	Sweep      bands.Options
}

// Result is the output of one model invocation
type Result struct {
	*bands.BandStructure
	Mesh     *lattice.Mesh
	Contours [][]contour.Path // [band][path], nil unless Vert

	// Orbital projected map, rows along Ky and columns along Kx. Nil unless
	// both Vert and Project were requested.
	Kx, Ky     []float64
	FS         *mat.Dense
	Unsmoothed *mat.Dense
}

// NumVertices counts the contour vertices of band n
func (r *Result) NumVertices(n int) int {
	if r.Contours == nil {
		return 0
	}
	var total int
	for _, p := range r.Contours[n] {
		total += p.Len()
	}
	return total
}

// pixel is one projected contour vertex
type pixel struct {
	row, col int
	w        float64
}

// Compute sweeps the mesh, extracts the iso-energy contour of every band and,
// when requested, paints the orbital character of the contour vertices into a
// dense map that is then blurred.
func Compute(ctx context.Context, mesh *lattice.Mesh, model hamiltonian.Model, opts Options) (*Result, error) {
	log := opts.Sweep.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ctx, span := observability.Tracer().Start(ctx, "fermi.Compute", trace.WithAttributes(
		attribute.String("model", model.Name()),
		attribute.Float64("level", opts.Level),
		attribute.Bool("vert", opts.Vert),
		attribute.Bool("project", opts.Project),
	))
	defer span.End()

	project := opts.Vert && opts.Project
	if opts.Project && !opts.Vert {
		log.Debug("projection requested without vertices, skipping")
	}

	sweepOpts := opts.Sweep
	sweepOpts.KeepVectors = sweepOpts.KeepVectors || (project && opts.ReuseSweep)
	sweep, err := bands.Sweep(ctx, mesh, model, sweepOpts)
	if err != nil {
		return nil, err
	}

	res := &Result{BandStructure: sweep.BandStructure, Mesh: mesh}
	contours := extractContours(ctx, mesh, sweep.BandStructure, opts.Level, opts.Sweep.Metrics)
	if !opts.Vert {
		return res, nil
	}
	res.Contours = contours
	if !project {
		return res, nil
	}

	if err := res.project(ctx, sweep, model, opts, log); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return res, nil
}

// extractContours runs the contour phase for every band
func extractContours(ctx context.Context, mesh *lattice.Mesh, bs *bands.BandStructure,
	level float64, metrics *observability.Collector) [][]contour.Path {
	_, span := observability.Tracer().Start(ctx, "fermi.Contours")
	defer span.End()
	start := time.Now()

	x, y := mesh.X(), mesh.Y()
	out := make([][]contour.Path, bs.NumBands())
	for n, b := range bs.Bands {
		out[n] = contour.Isolines(x, y, b, level)
		var nv int
		for _, p := range out[n] {
			nv += p.Len()
		}
		metrics.AddVertices(bs.Model, bs.Names[n], nv)
	}
	metrics.ObservePhase(bs.Model, "contour", start)
	return out
}

// project runs the projection and smoothing phases
func (r *Result) project(ctx context.Context, sweep *bands.Result, model hamiltonian.Model,
	opts Options, log *zap.Logger) error {
	_, span := observability.Tracer().Start(ctx, "fermi.Project")
	defer span.End()
	start := time.Now()

	res := opts.Resolution
	if res <= 0 {
		res = DefaultResolution
	}
	xmin, xmax, ymin, ymax := r.Mesh.Bounds()
	r.Kx = utils.Linspace(xmin, xmax, res)
	r.Ky = utils.Linspace(ymin, ymax, res)

	var (
		basis  = model.Basis()
		pixels = make([][]pixel, len(r.Contours))
		counts = make([]int, len(r.Contours))
		g      errgroup.Group
	)
	if opts.Sweep.Workers > 0 {
		g.SetLimit(opts.Sweep.Workers)
	}
	for n := range r.Contours {
		g.Go(func() error {
			for _, p := range r.Contours[n] {
				for k := range p.X {
					var (
						xi = r.Mesh.NearestX(p.X[k])
						yi = r.Mesh.NearestY(p.Y[k])
						d  *eigen.Decomposition
					)
					if opts.ReuseSweep {
						d = sweep.Decomposition(yi, xi)
					} else {
						var err error
						if d, err = eigen.Decompose(bands.HamiltonianAt(model, r.Mesh, yi, xi)); err != nil {
							return fmt.Errorf("band %d vertex (%g,%g): %w", n, p.X[k], p.Y[k], err)
						}
						counts[n]++
					}
					pixels[n] = append(pixels[n], pixel{
						row: utils.FindIndex(r.Ky, p.Y[k]),
						col: utils.FindIndex(r.Kx, p.X[k]),
						w:   basis.Project(d.Vectors, n),
					})
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	r.Unsmoothed = paint(res, pixels, opts.TieBreak)
	sigma := opts.Sigma
	if sigma == 0 {
		sigma = DefaultSigma
	}
	r.FS = utils.GaussianFilter(r.Unsmoothed, sigma, sigma)

	var total int
	for _, c := range counts {
		total += c
	}
	opts.Sweep.Metrics.AddDiagonalizations(model.Name(), "project", total)
	opts.Sweep.Metrics.ObservePhase(model.Name(), "project", start)
	log.Debug("fermi surface projected",
		zap.String("model", model.Name()),
		zap.Int("resolution", res),
		zap.Int("diagonalizations", total),
		zap.Stringer("tie_break", opts.TieBreak),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// paint writes the projected vertices in band order into a res x res map
func paint(res int, pixels [][]pixel, tb TieBreak) *mat.Dense {
	fs := mat.NewDense(res, res, nil)
	switch tb {
	case Average:
		var (
			sum = mat.NewDense(res, res, nil)
			cnt = mat.NewDense(res, res, nil)
		)
		for _, band := range pixels {
			for _, p := range band {
				sum.Set(p.row, p.col, sum.At(p.row, p.col)+p.w)
				cnt.Set(p.row, p.col, cnt.At(p.row, p.col)+1)
			}
		}
		for i := 0; i < res; i++ {
			for j := 0; j < res; j++ {
				if c := cnt.At(i, j); c > 0 {
					fs.Set(i, j, sum.At(i, j)/c)
				}
			}
		}
	default:
		for _, band := range pixels {
			for _, p := range band {
				fs.Set(p.row, p.col, p.w)
			}
		}
	}
	return fs
}
