// Package skeleton holds the read-only snapshot of a posed skeleton that the posing engine hands
// to the renderer once per frame. Nothing in this package computes bone transforms.
package skeleton

// snapshot is the implementation of the Snapshot interface.
type snapshot struct {
	name      string
	skin      string
	drawOrder []Slot
}

// Snapshot is a posed skeleton as seen by the renderer: slots in draw order, each with world-space
// attachment geometry already computed. Snapshots are owned by the posing engine and must be treated
// as read-only by every consumer.
type Snapshot interface {
	// Name returns the skeleton identifier.
	//
	// Returns:
	//   - string: the skeleton name
	Name() string

	// Skin returns the name of the active skin, or "" for the default skin.
	//
	// Returns:
	//   - string: the skin name
	Skin() string

	// SlotCount returns the number of slots in draw order.
	//
	// Returns:
	//   - int: the slot count
	SlotCount() int

	// Slot returns the slot at the given draw-order position. Index 0 is drawn first (back-most).
	//
	// Parameters:
	//   - index: the draw-order position, 0 <= index < SlotCount()
	//
	// Returns:
	//   - *Slot: the slot at that position
	Slot(index int) *Slot
}

var _ Snapshot = &snapshot{}

// NewSnapshot creates a Snapshot with the specified options applied.
//
// Parameters:
//   - options: a variadic list of SnapshotBuilderOption functions to configure the Snapshot
//
// Returns:
//   - Snapshot: a new Snapshot configured with the provided options
func NewSnapshot(options ...SnapshotBuilderOption) Snapshot {
	s := &snapshot{}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *snapshot) Name() string {
	return s.name
}

func (s *snapshot) Skin() string {
	return s.skin
}

func (s *snapshot) SlotCount() int {
	return len(s.drawOrder)
}

func (s *snapshot) Slot(index int) *Slot {
	return &s.drawOrder[index]
}
