package main

import (
	"fmt"

	"github.com/notargets/TBFermi/bands"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newBandsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bands",
		Short: "Diagonalize the model over the mesh and write one CSV per band",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mesh, model, p, err := a.buildModel()
			if err != nil {
				return err
			}
			opts, err := a.sweepOptions()
			if err != nil {
				return err
			}
			res, err := bands.Sweep(ctx, mesh, model, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s model, %d x %d mesh, %s\n", model.Name(), a.cfg.Mesh.Kpoints, a.cfg.Mesh.Kpoints, p)
			for n, name := range res.Names {
				path, err := writeCSV(a.cfg.Output.Dir, "band_"+name+".csv", matrixRecords(res.Bands[n]))
				if err != nil {
					return err
				}
				lo, hi := res.Range(n)
				fmt.Fprintf(out, "  %-4s [% .4f, % .4f] eV -> %s\n", name, lo, hi, path)
			}
			if err := writeAxes(a, mesh.X(), mesh.Y()); err != nil {
				return err
			}

			id, err := a.record(ctx, model.Name(), p)
			if err != nil || id == "" {
				return err
			}
			if err := a.results.SaveBandStructure(ctx, id, res.BandStructure, nil, nil); err != nil {
				return err
			}
			a.logger.Info("run stored", zap.String("id", id))
			fmt.Fprintf(out, "run %s\n", id)
			return nil
		},
	}
}

func writeAxes(a *app, x, y []float64) error {
	_, err := writeCSV(a.cfg.Output.Dir, "mesh_axes.csv", vectorRecords([]string{"kx", "ky"}, x, y))
	return err
}
