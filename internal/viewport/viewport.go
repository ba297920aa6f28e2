// Package viewport holds the scroll-position collaborators of the reveal
// machinery: the scrolled flag and region/viewport intersection.
package viewport

const (
	// DefaultScrollThreshold is the offset past which the page counts as scrolled.
	DefaultScrollThreshold = 50
	// DefaultVisibility is the fraction of a region that must be inside the
	// viewport before it counts as entered.
	DefaultVisibility = 0.1
)

// ScrollFlag reports whether the page has been scrolled past Threshold.
type ScrollFlag struct {
	Threshold float64
}

// NewScrollFlag returns a flag with the default threshold.
func NewScrollFlag() ScrollFlag {
	return ScrollFlag{Threshold: DefaultScrollThreshold}
}

// Update returns position > Threshold.
func (f ScrollFlag) Update(position float64) bool {
	return position > f.Threshold
}

// Rect is a region's vertical extent on the page.
type Rect struct {
	X, Y int
	W, H int
}

// Bottom returns the first row below the rect.
func (r Rect) Bottom() int { return r.Y + r.H }

// Viewport is the visible window of the page.
type Viewport struct {
	Top    int
	Height int
}

// Bottom returns the first row below the viewport.
func (v Viewport) Bottom() int { return v.Top + v.Height }

// IntersectionRatio returns the visible fraction of r, in [0, 1].
func (v Viewport) IntersectionRatio(r Rect) float64 {
	if r.H <= 0 || v.Height <= 0 {
		return 0
	}
	top := max(r.Y, v.Top)
	bottom := min(r.Bottom(), v.Bottom())
	if bottom <= top {
		return 0
	}
	return float64(bottom-top) / float64(r.H)
}

// Intersects reports whether at least threshold of r is visible. A zero
// threshold means any overlap.
func (v Viewport) Intersects(r Rect, threshold float64) bool {
	ratio := v.IntersectionRatio(r)
	if threshold <= 0 {
		return ratio > 0
	}
	return ratio >= threshold
}

// Clamp keeps a scroll offset within a page of the given height.
func (v Viewport) Clamp(top, pageHeight int) int {
	maxTop := pageHeight - v.Height
	if maxTop < 0 {
		maxTop = 0
	}
	switch {
	case top < 0:
		return 0
	case top > maxTop:
		return maxTop
	}
	return top
}
