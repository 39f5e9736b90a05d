// Package camera maps the fixed-size arena onto the viewer window.
package camera

import "math"

// maxZoomFactor bounds how far past the full-arena view the camera can
// magnify.
const maxZoomFactor = 8.0

// Camera controls the viewport into the arena. The arena is toroidal and
// much smaller than the window, so the default view shows all of it and
// zoom is expressed relative to that fit.
type Camera struct {
	// Position is the camera center in arena coordinates
	X, Y float32

	// Zoom level in screen pixels per arena unit
	Zoom float32

	// Viewport dimensions (window size in pixels)
	ViewportW, ViewportH float32

	// Arena dimensions (for toroidal wrapping)
	ArenaW, ArenaH float32

	// Zoom constraints. MinZoom is the full-arena fit.
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the arena showing all of it.
func New(viewportW, viewportH, arenaW, arenaH float32) *Camera {
	fit := fitZoom(viewportW, viewportH, arenaW, arenaH)
	return &Camera{
		X:         arenaW / 2,
		Y:         arenaH / 2,
		Zoom:      fit,
		ViewportW: viewportW,
		ViewportH: viewportH,
		ArenaW:    arenaW,
		ArenaH:    arenaH,
		MinZoom:   fit,
		MaxZoom:   fit * maxZoomFactor,
	}
}

// fitZoom is the zoom at which the whole arena fits inside the viewport.
func fitZoom(viewportW, viewportH, arenaW, arenaH float32) float32 {
	zx := viewportW / arenaW
	zy := viewportH / arenaH
	if zy < zx {
		return zy
	}
	return zx
}

// WorldToScreen converts arena coordinates to screen coordinates.
// The arena is toroidal, so the point is placed via the shortest path to
// the camera center.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	dx := toroidalDelta(wx, c.X, c.ArenaW)
	dy := toroidalDelta(wy, c.Y, c.ArenaH)

	sx = c.ViewportW/2 + dx*c.Zoom
	sy = c.ViewportH/2 + dy*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to arena coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	dx := (sx - c.ViewportW/2) / c.Zoom
	dy := (sy - c.ViewportH/2) / c.Zoom

	wx = mod(c.X+dx, c.ArenaW)
	wy = mod(c.Y+dy, c.ArenaH)
	return wx, wy
}

// IsVisible returns true if a circle at (wx, wy) with the given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	dx := toroidalDelta(wx, c.X, c.ArenaW)
	dy := toroidalDelta(wy, c.Y, c.ArenaH)

	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius

	return absf(dx) <= halfW && absf(dy) <= halfH
}

// GhostPositions returns additional screen positions for entities
// straddling the arena edge, so a wrapping fragment shows on both sides.
// Returns up to 3 extra positions (edge, edge, corner).
func (c *Camera) GhostPositions(wx, wy, radius float32) []struct{ X, Y float32 } {
	var ghosts []struct{ X, Y float32 }

	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)

	dx := toroidalDelta(wx, c.X, c.ArenaW)
	dy := toroidalDelta(wy, c.Y, c.ArenaH)

	needsHorizontalGhost := false
	var hGhostX float32
	if dx > halfW-radius && dx < halfW+radius {
		// Near right edge of view, ghost on left
		needsHorizontalGhost = true
		hGhostX = c.ViewportW/2 + (dx-c.ArenaW)*c.Zoom
	} else if dx < -halfW+radius && dx > -halfW-radius {
		// Near left edge of view, ghost on right
		needsHorizontalGhost = true
		hGhostX = c.ViewportW/2 + (dx+c.ArenaW)*c.Zoom
	}

	needsVerticalGhost := false
	var vGhostY float32
	if dy > halfH-radius && dy < halfH+radius {
		needsVerticalGhost = true
		vGhostY = c.ViewportH/2 + (dy-c.ArenaH)*c.Zoom
	} else if dy < -halfH+radius && dy > -halfH-radius {
		needsVerticalGhost = true
		vGhostY = c.ViewportH/2 + (dy+c.ArenaH)*c.Zoom
	}

	sx := c.ViewportW/2 + dx*c.Zoom
	sy := c.ViewportH/2 + dy*c.Zoom

	if needsHorizontalGhost {
		ghosts = append(ghosts, struct{ X, Y float32 }{hGhostX, sy})
	}
	if needsVerticalGhost {
		ghosts = append(ghosts, struct{ X, Y float32 }{sx, vGhostY})
	}
	if needsHorizontalGhost && needsVerticalGhost {
		ghosts = append(ghosts, struct{ X, Y float32 }{hGhostX, vGhostY})
	}

	return ghosts
}

// Resize updates viewport dimensions, preserving the zoom relative to the
// full-arena fit.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	rel := c.Zoom / c.MinZoom
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.MinZoom = fitZoom(viewportW, viewportH, c.ArenaW, c.ArenaH)
	c.MaxZoom = c.MinZoom * maxZoomFactor
	c.Zoom = clamp(c.MinZoom*rel, c.MinZoom, c.MaxZoom)
}

// Pan moves the camera by the given delta in screen pixels, wrapping
// around the arena.
func (c *Camera) Pan(dx, dy float32) {
	c.X = mod(c.X+dx/c.Zoom, c.ArenaW)
	c.Y = mod(c.Y+dy/c.Zoom, c.ArenaH)
}

// Follow centers the camera on an arena position, typically the ship.
func (c *Camera) Follow(x, y float32) {
	c.X = mod(x, c.ArenaW)
	c.Y = mod(y, c.ArenaH)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the centered full-arena view.
func (c *Camera) Reset() {
	c.X = c.ArenaW / 2
	c.Y = c.ArenaH / 2
	c.Zoom = c.MinZoom
}

// VisibleWorldBounds returns the arena-coordinate bounds of the visible
// area as (minX, minY, maxX, maxY). When zoomed past the arena size, the
// bounds extend beyond it.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)

	minX = c.X - halfW
	maxX = c.X + halfW
	minY = c.Y - halfH
	maxY = c.Y + halfH
	return
}

// toroidalDelta computes the shortest signed distance from 'from' to 'to'
// in a toroidal space of the given size.
func toroidalDelta(to, from, size float32) float32 {
	d := to - from
	if d > size/2 {
		d -= size
	} else if d < -size/2 {
		d += size
	}
	return d
}

// mod computes the positive modulo (Go's % can return negative).
func mod(x, m float32) float32 {
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
