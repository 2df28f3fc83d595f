package boundary

// RingContains reports whether p lies inside r using the crossing-number
// rule: a ray from p towards +X crosses the ring an odd number of times.
//
// An edge counts only when its endpoints straddle p.Y under the half-open
// test (yi > y) != (yj > y), so a vertex lying exactly on the ray is counted
// once. Points exactly on an edge are not guaranteed either way; for an
// axis-aligned ring the left and bottom edges test inside and the right and
// top edges test outside.
func RingContains(p Point, r Ring) bool {
	n := len(r)
	if n == 0 {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := r[i].X, r[i].Y
		xj, yj := r[j].X, r[j].Y

		if (yi > p.Y) != (yj > p.Y) && p.X < (xj-xi)*(p.Y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// PolygonContains reports whether p lies inside poly's outer ring and
// outside every hole.
func PolygonContains(p Point, poly Polygon) bool {
	if !RingContains(p, poly.Outer) {
		return false
	}
	for _, h := range poly.Holes {
		if RingContains(p, h) {
			return false
		}
	}
	return true
}
