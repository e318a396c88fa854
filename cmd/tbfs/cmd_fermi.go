package main

import (
	"fmt"

	"github.com/notargets/TBFermi/fermi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newFermiCmd(a *app) *cobra.Command {
	var noProject bool
	cmd := &cobra.Command{
		Use:   "fermi",
		Short: "Extract the Fermi surface contours and the orbitally projected map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mesh, model, p, err := a.buildModel()
			if err != nil {
				return err
			}
			sweep, err := a.sweepOptions()
			if err != nil {
				return err
			}
			tb, err := fermi.ParseTieBreak(a.cfg.Fermi.TieBreak)
			if err != nil {
				return err
			}
			res, err := fermi.Compute(ctx, mesh, model, fermi.Options{
				Level:      a.cfg.Model.Level,
				Vert:       true,
				Project:    a.cfg.Fermi.Project && !noProject,
				Resolution: a.cfg.Fermi.Resolution,
				Sigma:      a.cfg.Fermi.Sigma,
				TieBreak:   tb,
				ReuseSweep: a.cfg.Fermi.ReuseSweep,
				Sweep:      sweep,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s model at e0 = %g, %s\n", model.Name(), a.cfg.Model.Level, p)
			for n, name := range res.Names {
				fmt.Fprintf(out, "  %-4s %3d paths %6d vertices\n", name, len(res.Contours[n]), res.NumVertices(n))
			}
			path, err := writeCSV(a.cfg.Output.Dir, "contours.csv", contourRecords(res.Names, res.Contours))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "contours -> %s\n", path)
			if res.FS != nil {
				if path, err = writeCSV(a.cfg.Output.Dir, "fermi_surface.csv", matrixRecords(res.FS)); err != nil {
					return err
				}
				if _, err = writeCSV(a.cfg.Output.Dir, "fermi_axes.csv",
					vectorRecords([]string{"kx", "ky"}, res.Kx, res.Ky)); err != nil {
					return err
				}
				fmt.Fprintf(out, "projected map %dx%d -> %s\n", len(res.Ky), len(res.Kx), path)
			}

			id, err := a.record(ctx, model.Name(), p)
			if err != nil || id == "" {
				return err
			}
			if err := a.results.SaveBandStructure(ctx, id, res.BandStructure, res.FS, res.Unsmoothed); err != nil {
				return err
			}
			a.logger.Info("run stored", zap.String("id", id))
			fmt.Fprintf(out, "run %s\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noProject, "no-project", false, "skip the orbital projection")
	return cmd
}
