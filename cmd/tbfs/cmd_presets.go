package main

import (
	"fmt"

	"github.com/notargets/TBFermi/hamiltonian"
	"github.com/spf13/cobra"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the parameter presets and model kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range hamiltonian.PresetNames() {
				p, err := hamiltonian.Preset(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-7s %s\n", name, p)
			}
			fmt.Fprintln(out, "models:")
			for _, k := range hamiltonian.Kinds() {
				fmt.Fprintf(out, "  %s\n", k)
			}
			return nil
		},
	}
}
