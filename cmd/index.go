package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/boundary-lookup/internal/boundary"
)

var indexJSON bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the index and print its statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(cfg, "index")
		if err != nil {
			return err
		}
		if _, err := svc.Build(cmd.Context()); err != nil {
			return err
		}
		stats, _ := svc.Stats()
		return printStats(cmd.OutOrStdout(), stats, indexJSON)
	},
}

func printStats(w io.Writer, s boundary.Stats, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	fmt.Fprintf(w, "build id:          %s\n", s.BuildID)
	fmt.Fprintf(w, "features:          %d\n", s.Features)
	fmt.Fprintf(w, "indexed polygons:  %d\n", s.Polygons)
	fmt.Fprintf(w, "skipped features:  %d\n", s.SkippedFeatures)
	if s.Bounds != nil {
		fmt.Fprintf(w, "bounds:            [%g, %g] - [%g, %g]\n",
			s.Bounds.MinX, s.Bounds.MinY, s.Bounds.MaxX, s.Bounds.MaxY)
	}
	fmt.Fprintf(w, "build duration:    %s\n", s.BuildDuration)
	return nil
}

func init() {
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "print stats as JSON")
	rootCmd.AddCommand(indexCmd)
}
