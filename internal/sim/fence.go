package sim

import (
	"github.com/herdfence/simulator/internal/geo"
	"github.com/herdfence/simulator/internal/model/core"
)

// Fence is the active containment polygon. The zero value is an inactive
// fence that contains everything. A fence is only ever replaced
// wholesale; draft vertex lists being edited by a caller never reach the
// classifier.
type Fence struct {
	vertices []core.Point
}

// NewFence validates and activates a vertex sequence. Fewer than three
// vertices is a validation failure and produces no fence.
func NewFence(vertices []core.Point) (Fence, error) {
	if len(vertices) < 3 {
		return Fence{}, geo.ErrFenceTooSmall
	}
	vs := make([]core.Point, len(vertices))
	copy(vs, vertices)
	return Fence{vertices: vs}, nil
}

// Active reports whether the fence constrains containment.
func (f Fence) Active() bool {
	return len(f.vertices) >= 3
}

// Contains classifies p against the fence. An inactive fence contains
// every point by definition; an active one delegates to the raycast
// as-is, with no repair of malformed polygons.
func (f Fence) Contains(p core.Point) bool {
	if !f.Active() {
		return true
	}
	return geo.PointInPolygon(p, f.vertices)
}

// Vertices returns a copy of the fence's vertex sequence, nil when
// inactive.
func (f Fence) Vertices() []core.Point {
	if len(f.vertices) == 0 {
		return nil
	}
	vs := make([]core.Point, len(f.vertices))
	copy(vs, f.vertices)
	return vs
}
