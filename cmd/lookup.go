package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/boundary-lookup/internal/boundary"
	"github.com/sells-group/boundary-lookup/internal/geo"
)

// errNoMatch is returned when no boundary contains the point.
var errNoMatch = eris.New("no boundary contains the point")

var (
	lookupLat      float64
	lookupLng      float64
	lookupGeometry bool
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Resolve one latitude/longitude pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := geo.ValidateLatLng(lookupLat, lookupLng)
		if err != nil {
			return err
		}

		svc, err := newService(cfg, "lookup")
		if err != nil {
			return err
		}

		m, err := svc.Resolve(cmd.Context(), p)
		if err != nil {
			return err
		}
		return printMatch(cmd.OutOrStdout(), cmd.ErrOrStderr(), m, lookupGeometry)
	},
}

type lookupOutput struct {
	ID         string          `json:"id"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry,omitempty"`
}

// printMatch writes the matched feature as JSON, or a not-found message.
func printMatch(out, errOut io.Writer, m boundary.Match, withGeometry bool) error {
	if !m.Found() {
		fmt.Fprintln(errOut, "not found: no boundary contains this point")
		return errNoMatch
	}

	f := m.Feature()
	o := lookupOutput{ID: f.ID, Properties: f.Properties}
	if withGeometry {
		g, err := geo.GeoJSON(f.Geometry)
		if err != nil {
			return err
		}
		o.Geometry = g
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(o), "write result")
}

func init() {
	lookupCmd.Flags().Float64Var(&lookupLat, "lat", 0, "latitude in degrees")
	lookupCmd.Flags().Float64Var(&lookupLng, "lng", 0, "longitude in degrees")
	lookupCmd.Flags().BoolVar(&lookupGeometry, "geometry", false, "include the boundary geometry as GeoJSON")
	_ = lookupCmd.MarkFlagRequired("lat")
	_ = lookupCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(lookupCmd)
}
