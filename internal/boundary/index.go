package boundary

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/rotisserie/eris"
)

// Default R-tree node fan-out.
const (
	DefaultMinChildren = 25
	DefaultMaxChildren = 50
)

// Index is a write-once R-tree over polygon bounding boxes.
type Index struct {
	tree   *rtreego.Rtree
	size   int
	bounds BBox
}

// entry adapts a BBox to rtreego.Spatial.
type entry struct {
	box  BBox
	rect rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect { return e.rect }

// NewIndex bulk-loads boxes with the default node size.
func NewIndex(boxes []BBox) (*Index, error) {
	return NewIndexWithNodeSize(boxes, DefaultMinChildren, DefaultMaxChildren)
}

// NewIndexWithNodeSize bulk-loads boxes into an R-tree whose nodes hold
// between minChildren and maxChildren entries.
func NewIndexWithNodeSize(boxes []BBox, minChildren, maxChildren int) (*Index, error) {
	if minChildren < 1 || maxChildren < 2*minChildren {
		return nil, eris.Errorf("boundary: invalid node size min=%d max=%d", minChildren, maxChildren)
	}

	objs := make([]rtreego.Spatial, 0, len(boxes))
	var bounds BBox
	for i, b := range boxes {
		rect, err := paddedRect(b)
		if err != nil {
			return nil, eris.Wrapf(err, "boundary: rect for polygon %d", b.PolygonID)
		}
		objs = append(objs, &entry{box: b, rect: rect})

		if i == 0 {
			bounds = b
		} else {
			bounds = bounds.union(b)
		}
	}
	bounds.PolygonID = -1

	return &Index{
		tree:   rtreego.NewTree(2, minChildren, maxChildren, objs...),
		size:   len(boxes),
		bounds: bounds,
	}, nil
}

// Search returns the stored boxes overlapping q, boundaries included.
// The order of the result is unspecified.
func (idx *Index) Search(q BBox) []BBox {
	if idx == nil || idx.size == 0 {
		return nil
	}

	rect, err := paddedRect(q)
	if err != nil {
		return nil
	}

	hits := idx.tree.SearchIntersect(rect)
	out := make([]BBox, 0, len(hits))
	for _, h := range hits {
		e := h.(*entry)
		if e.box.Overlaps(q) {
			out = append(out, e.box)
		}
	}
	return out
}

// paddedRect widens b by one ulp per side. rtreego treats touching
// rectangles as disjoint and rejects zero extents, so every rect it sees is
// padded and hits are re-checked against the exact boxes.
func paddedRect(b BBox) (rtreego.Rect, error) {
	return rtreego.NewRectFromPoints(
		rtreego.Point{math.Nextafter(b.MinX, math.Inf(-1)), math.Nextafter(b.MinY, math.Inf(-1))},
		rtreego.Point{math.Nextafter(b.MaxX, math.Inf(1)), math.Nextafter(b.MaxY, math.Inf(1))},
	)
}

// SearchPoint returns the stored boxes containing p.
func (idx *Index) SearchPoint(p Point) []BBox {
	return idx.Search(PointBox(p))
}

// Len returns the number of stored boxes.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return idx.size
}

// Bounds returns the extent of all stored boxes. ok is false for an empty
// index.
func (idx *Index) Bounds() (b BBox, ok bool) {
	if idx == nil || idx.size == 0 {
		return BBox{PolygonID: -1}, false
	}
	return idx.bounds, true
}
