package skeleton

import (
	"github.com/chewxy/math32"
)

// Rect is an axis-aligned rectangle in world units.
type Rect struct {
	X, Y, Width, Height float32
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Bounds computes the axis-aligned bounding box of every region and mesh attachment in the snapshot.
// Clipping and other attachments do not contribute. An empty snapshot yields the zero Rect.
//
// Parameters:
//   - s: the posed snapshot to measure
//
// Returns:
//   - Rect: the bounding box in world units
func Bounds(s Snapshot) Rect {
	var minX, minY float32 = math32.MaxFloat32, math32.MaxFloat32
	var maxX, maxY float32 = -math32.MaxFloat32, -math32.MaxFloat32
	found := false

	for i := 0; i < s.SlotCount(); i++ {
		verts := s.Slot(i).Attachment.WorldVertices()
		for j := 0; j+1 < len(verts); j += 2 {
			x, y := verts[j], verts[j+1]
			minX = math32.Min(minX, x)
			minY = math32.Min(minY, y)
			maxX = math32.Max(maxX, x)
			maxY = math32.Max(maxY, y)
			found = true
		}
	}

	if !found {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
