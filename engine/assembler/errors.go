package assembler

import (
	"errors"
	"fmt"
)

var (
	// ErrGeometryMismatch is reported when an attachment's vertex, UV or triangle arrays are inconsistent.
	ErrGeometryMismatch = errors.New("geometry mismatch")

	// ErrIndexOverflow is reported when a frame needs more vertices than a uint16 index can address.
	ErrIndexOverflow = errors.New("vertex count exceeds uint16 index range")

	// ErrInvalidViewport is reported when the viewport has a non-positive dimension.
	ErrInvalidViewport = errors.New("viewport dimensions must be positive")
)

// GeometryError describes a malformed attachment found during assembly.
// It always unwraps to ErrGeometryMismatch.
type GeometryError struct {
	// SlotIndex is the draw-order position of the offending slot.
	SlotIndex int

	// SlotName is the name of the offending slot.
	SlotName string

	// Attachment is the name of the offending attachment.
	Attachment string

	// Reason describes what is inconsistent.
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("slot %d (%s) attachment %q: %s: %s", e.SlotIndex, e.SlotName, e.Attachment, ErrGeometryMismatch, e.Reason)
}

func (e *GeometryError) Unwrap() error {
	return ErrGeometryMismatch
}
