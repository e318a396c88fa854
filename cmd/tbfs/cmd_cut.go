package main

import (
	"fmt"

	"github.com/notargets/TBFermi/cut"
	"github.com/notargets/TBFermi/lattice"
	"github.com/spf13/cobra"
)

func newCutCmd(a *app) *cobra.Command {
	var (
		from, to []float64
		points   int
	)
	cmd := &cobra.Command{
		Use:   "cut",
		Short: "Simulate an energy-momentum cut along a straight path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(from) != 2 || len(to) != 2 {
				return fmt.Errorf("%w: --from and --to take kx,ky", lattice.ErrInvalidPath)
			}
			path, err := lattice.StraightCut(from[0], from[1], to[0], to[1], points)
			if err != nil {
				return err
			}
			_, model, _, err := a.buildModel()
			if err != nil {
				return err
			}
			res, err := cut.Evaluate(cmd.Context(), path, model, cut.Options{
				EMin:          a.cfg.Cut.EMin,
				EMax:          a.cfg.Cut.EMax,
				Points:        a.cfg.Cut.Points,
				SigmaEnergy:   a.cfg.Cut.Sigma,
				SigmaMomentum: a.cfg.Cut.Sigma,
				Workers:       a.cfg.Sweep.Workers,
				Logger:        a.logger,
				Metrics:       a.metrics,
			})
			if err != nil {
				return err
			}

			img, err := writeCSV(a.cfg.Output.Dir, "cut_intensity.csv", matrixRecords(res.Intensity))
			if err != nil {
				return err
			}
			header := append([]string{"kx", "ky"}, res.Names...)
			cols := append([][]float64{path.Kx, path.Ky}, res.Bands...)
			bnd, err := writeCSV(a.cfg.Output.Dir, "cut_bands.csv", vectorRecords(header, cols...))
			if err != nil {
				return err
			}
			if _, err := writeCSV(a.cfg.Output.Dir, "cut_energy.csv",
				vectorRecords([]string{"energy"}, res.Energy)); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s cut (%g,%g) -> (%g,%g), %d points, %d energies\n",
				model.Name(), from[0], from[1], to[0], to[1], points, len(res.Energy))
			fmt.Fprintf(out, "intensity -> %s\nbands -> %s\n", img, bnd)
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64SliceVar(&from, "from", []float64{-1, 0}, "start of the path kx,ky in units of pi/a")
	f.Float64SliceVar(&to, "to", []float64{1, 0}, "end of the path kx,ky in units of pi/a")
	f.IntVarP(&points, "points", "n", 200, "samples along the path")
	return cmd
}
