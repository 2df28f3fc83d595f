package dataset

import (
	"bytes"
	"encoding/json"
	"regexp"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/sells-group/boundary-lookup/internal/boundary"
	"github.com/sells-group/boundary-lookup/internal/geo"
)

// identPattern matches a table or column name, optionally schema-qualified.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// TableSpec names the table and columns a database source reads from.
type TableSpec struct {
	Table            string
	IDColumn         string
	GeomColumn       string
	PropertiesColumn string
}

// withDefaults fills empty column names.
func (t TableSpec) withDefaults() TableSpec {
	if t.IDColumn == "" {
		t.IDColumn = "id"
	}
	if t.GeomColumn == "" {
		t.GeomColumn = "geom"
	}
	if t.PropertiesColumn == "" {
		t.PropertiesColumn = "properties"
	}
	return t
}

// validate rejects names that are not plain identifiers, since they are
// interpolated into SQL.
// columns lists the written columns in publishRow order.
func (t TableSpec) columns() []string {
	return []string{t.IDColumn, t.PropertiesColumn, t.GeomColumn}
}

func (t TableSpec) validate() error {
	for _, name := range []string{t.Table, t.IDColumn, t.GeomColumn, t.PropertiesColumn} {
		if !identPattern.MatchString(name) {
			return eris.Errorf("dataset: invalid identifier %q", name)
		}
	}
	return nil
}

// decodeRow builds a feature from a database row holding WKB geometry and
// JSON properties.
func decodeRow(id string, props []byte, geomWKB []byte) (*boundary.Feature, error) {
	f := &boundary.Feature{ID: id, Properties: map[string]any{}}

	props = bytes.TrimSpace(props)
	if len(props) > 0 && !bytes.Equal(props, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(props))
		dec.UseNumber()
		if err := dec.Decode(&f.Properties); err != nil {
			return nil, eris.Wrapf(err, "dataset: properties of %s", id)
		}
	}

	if len(geomWKB) == 0 {
		f.Geometry = boundary.Unsupported("null")
		return f, nil
	}
	g, err := wkb.Unmarshal(geomWKB)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: geometry of %s", id)
	}
	f.Geometry = geo.FromGeom(g)
	return f, nil
}
