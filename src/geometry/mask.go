package geometry

// DimRegions returns the parts of bounds that lie outside the selection, as up
// to four disjoint rectangles: a band below, a band above, and the left and right
// slices between them. Painting them gives the same result as an even-odd fill
// of bounds plus selection. An empty selection dims the whole surface.
func DimRegions(bounds Rect, selection Rect) []Rect {
	if bounds.Empty() {
		return nil
	}
	sel := bounds.Intersect(selection)
	if sel.Empty() {
		return []Rect{bounds}
	}

	regions := make([]Rect, 0, 4)
	add := func(r Rect) {
		if !r.Empty() {
			regions = append(regions, r)
		}
	}

	add(Rect{X: bounds.X, Y: bounds.Y, W: bounds.W, H: sel.Y - bounds.Y})
	add(Rect{X: bounds.X, Y: sel.MaxY(), W: bounds.W, H: bounds.MaxY() - sel.MaxY()})
	add(Rect{X: bounds.X, Y: sel.Y, W: sel.X - bounds.X, H: sel.H})
	add(Rect{X: sel.MaxX(), Y: sel.Y, W: bounds.MaxX() - sel.MaxX(), H: sel.H})
	return regions
}

// Dimmed reports whether p is painted by the even-odd dim mask.
func Dimmed(bounds Rect, selection Rect, p Point) bool {
	return bounds.Contains(p) && !selection.Contains(p)
}
