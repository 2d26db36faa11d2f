package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/brusilov1916/brusilov-map/internal/phase"
	"github.com/brusilov1916/brusilov-map/pkg/core"
	"github.com/spf13/cobra"
)

var phasesCmd = &cobra.Command{
	Use:   "phases",
	Short: "List the operation phases and their movement counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPERIOD\tMOVEMENTS")
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", "(all)", "All phases", "", len(ds.Movements))
		for _, info := range ds.Phases {
			n := len(phase.FilterMovements(ds.Movements, info.ID))
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", info.ID, info.Name, info.Period, n)
		}
		return w.Flush()
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the dataset for unknown phases, bad coordinates and duplicate ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		fmt.Printf("dataset %s ok: %d movements, %d front lines, %d cities, %d rivers, %d phases\n",
			ds.Version, len(ds.Movements), len(ds.FrontLines), len(ds.Cities), len(ds.Rivers), len(ds.Phases))
		if len(ds.Phases) != len(core.Phases) {
			fmt.Printf("warning: %d of %d phases described\n", len(ds.Phases), len(core.Phases))
		}
		return nil
	},
}
