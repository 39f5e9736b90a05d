package game

import (
	"hash/fnv"
	"math"

	"github.com/aquilax/go-perlin"
)

// outlineVertices is the silhouette resolution. Small on purpose: the
// arena is 160 units wide and fragments render at a handful of pixels.
const outlineVertices = 12

// outlineCache builds and memoizes lumpy rock silhouettes, one per
// lineage id, as unit radial offsets around a circle. Noise-driven so a
// fragment keeps the same shape every frame, but siblings differ.
type outlineCache struct {
	shapes map[string][]float32
}

func newOutlineCache() *outlineCache {
	return &outlineCache{shapes: make(map[string][]float32)}
}

// Shape returns the radial offsets for a lineage id, generating them on
// first use.
func (c *outlineCache) Shape(key string) []float32 {
	if shape, ok := c.shapes[key]; ok {
		return shape
	}
	// Bound the cache; released fragments leave stale keys behind.
	if len(c.shapes) > 512 {
		c.shapes = make(map[string][]float32)
	}

	h := fnv.New64a()
	h.Write([]byte(key))
	p := perlin.NewPerlin(2, 2, 2, int64(h.Sum64()))

	shape := make([]float32, outlineVertices)
	for i := range shape {
		// Sample around a circle so the silhouette closes cleanly.
		theta := 2 * math.Pi * float64(i) / float64(outlineVertices)
		n := p.Noise2D(0.5+0.4*math.Cos(theta), 0.5+0.4*math.Sin(theta))
		shape[i] = 1 + 0.3*float32(n)
	}
	c.shapes[key] = shape
	return shape
}
