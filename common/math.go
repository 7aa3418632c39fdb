package common

import (
	"unsafe"

	"github.com/chewxy/math32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(unsafe.Sizeof(zero))*len(data))
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(unsafe.Sizeof(*v)))
}

// Affine is a 2D affine transform in the bone convention:
//
//	x' = A*x + B*y + X
//	y' = C*x + D*y + Y
type Affine struct {
	A, B, C, D float32
	X, Y       float32
}

// IdentityAffine leaves every point where it is.
var IdentityAffine = Affine{A: 1, D: 1}

// AffineFromTRS builds a transform that scales, then rotates counter-clockwise, then translates.
//
// Parameters:
//   - x, y: translation
//   - rotation: rotation in degrees
//   - scaleX, scaleY: scale factors along the local axes
//
// Returns:
//   - Affine: the composed transform
func AffineFromTRS(x, y, rotation, scaleX, scaleY float32) Affine {
	sin, cos := math32.Sincos(rotation * math32.Pi / 180)
	return Affine{
		A: cos * scaleX, B: -sin * scaleY,
		C: sin * scaleX, D: cos * scaleY,
		X: x, Y: y,
	}
}

// Mul returns m * n: the transform that applies n first and m second.
//
// Parameters:
//   - n: the inner (child) transform
//
// Returns:
//   - Affine: the combined transform
func (m Affine) Mul(n Affine) Affine {
	return Affine{
		A: m.A*n.A + m.B*n.C,
		B: m.A*n.B + m.B*n.D,
		C: m.C*n.A + m.D*n.C,
		D: m.C*n.B + m.D*n.D,
		X: m.A*n.X + m.B*n.Y + m.X,
		Y: m.C*n.X + m.D*n.Y + m.Y,
	}
}

// Apply transforms the point (x, y).
func (m Affine) Apply(x, y float32) (float32, float32) {
	return m.A*x + m.B*y + m.X, m.C*x + m.D*y + m.Y
}
