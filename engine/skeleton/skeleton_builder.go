package skeleton

// SnapshotBuilderOption is a functional option for configuring a Snapshot via NewSnapshot.
type SnapshotBuilderOption func(*snapshot)

// WithName is an option builder that sets the skeleton name of the Snapshot.
//
// Parameters:
//   - name: the skeleton identifier
//
// Returns:
//   - SnapshotBuilderOption: a function that applies the name option to a snapshot
func WithName(name string) SnapshotBuilderOption {
	return func(s *snapshot) {
		s.name = name
	}
}

// WithSkin is an option builder that records the active skin name.
//
// Parameters:
//   - skin: the skin name
//
// Returns:
//   - SnapshotBuilderOption: a function that applies the skin option to a snapshot
func WithSkin(skin string) SnapshotBuilderOption {
	return func(s *snapshot) {
		s.skin = skin
	}
}

// WithSlots is an option builder that appends slots to the draw order. Slots are drawn in the order given.
//
// Parameters:
//   - slots: the slots to append
//
// Returns:
//   - SnapshotBuilderOption: a function that applies the slots option to a snapshot
func WithSlots(slots ...Slot) SnapshotBuilderOption {
	return func(s *snapshot) {
		s.drawOrder = append(s.drawOrder, slots...)
	}
}
