package boundary

// RingBounds returns the tight bounding box of r. r must hold at least one
// point.
func RingBounds(r Ring) BBox {
	first := r[0]
	b := BBox{MinX: first.X, MinY: first.Y, MaxX: first.X, MaxY: first.Y}

	for _, p := range r[1:] {
		if p.X < b.MinX {
			b.MinX = p.X
		} else if p.X > b.MaxX {
			b.MaxX = p.X
		}
		if p.Y < b.MinY {
			b.MinY = p.Y
		} else if p.Y > b.MaxY {
			b.MaxY = p.Y
		}
	}
	return b
}

// union grows b to cover o.
func (b BBox) union(o BBox) BBox {
	if o.MinX < b.MinX {
		b.MinX = o.MinX
	}
	if o.MinY < b.MinY {
		b.MinY = o.MinY
	}
	if o.MaxX > b.MaxX {
		b.MaxX = o.MaxX
	}
	if o.MaxY > b.MaxY {
		b.MaxY = o.MaxY
	}
	return b
}
