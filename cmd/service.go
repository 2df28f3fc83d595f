package main

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boundary-lookup/internal/boundary"
	"github.com/sells-group/boundary-lookup/internal/config"
	"github.com/sells-group/boundary-lookup/internal/dataset"
	"github.com/sells-group/boundary-lookup/internal/metrics"
)

// newService validates cfg for mode and returns an unbuilt service over the
// configured dataset.
func newService(c *config.Config, mode string) (*boundary.Service, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	src, err := dataset.Open(c.Dataset)
	if err != nil {
		return nil, eris.Wrap(err, "open dataset")
	}

	return boundary.NewService(src,
		boundary.WithNodeSize(c.Index.MinChildren, c.Index.MaxChildren),
		boundary.WithLogger(zap.L()),
		boundary.WithObserver(metrics.BuildObserver{}),
	), nil
}
