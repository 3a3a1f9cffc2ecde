package geom

import "math"

// Nearest picks the candidate closest to p, measuring distance to each
// candidate's bounding box (0 when inside). Candidates are visited in order
// and later ones win ties, so with back-to-front input the front-most shape
// is preferred. When several boxes contain p, the box whose edges are
// closest to p wins, which favours small shapes stacked on large ones.
//
// ok is false when items is empty.
func Nearest[T any](p Point, items []T, bounds func(T) Rect) (nearest T, distance float64, ok bool) {
	minDist := math.Inf(1)
	minInner := math.Inf(1)

	for _, item := range items {
		box := bounds(item)
		dist := box.OuterDistance(p)
		if dist > minDist {
			continue
		}
		minDist = dist

		if dist == 0 {
			inner := box.InnerDistance(p)
			if inner <= minInner {
				minInner = inner
				nearest = item
				ok = true
			}
		} else {
			nearest = item
			ok = true
		}
	}
	return nearest, minDist, ok
}
