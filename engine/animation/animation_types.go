package animation

import "github.com/chewxy/math32"

// EventType identifies what happened to a track entry during an update.
type EventType int

const (
	// EventStart is reported for the first update after an animation was set on a track.
	EventStart EventType = iota

	// EventInterrupt is reported when an entry is replaced before it ended.
	EventInterrupt

	// EventComplete is reported once per update in which a looping entry wraps, and once when a
	// non-looping entry reaches its duration. TrackEvent.Loops counts the wraps.
	EventComplete

	// EventEnd is reported when an entry leaves its track for good.
	EventEnd
)

// String returns the lowercase name of the event type.
func (e EventType) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventInterrupt:
		return "interrupt"
	case EventComplete:
		return "complete"
	case EventEnd:
		return "end"
	default:
		return "unknown"
	}
}

// TrackEvent is one notification produced by Update.
type TrackEvent struct {
	// Type is what happened.
	Type EventType

	// Track is the index of the track the entry played on.
	Track int

	// Animation is the name of the entry's animation.
	Animation string

	// Loop is true if the entry was looping.
	Loop bool

	// Loops is the number of completed iterations an EventComplete stands for, 0 for other types.
	Loops int
}

// maxLoopsPerEvent caps TrackEvent.Loops at the largest integer a float32 track time counts exactly.
const maxLoopsPerEvent = 1 << 24

// TrackEntry is a read-only copy of the state of one track.
type TrackEntry struct {
	// Track is the track index.
	Track int

	// Animation is the animation name.
	Animation string

	// Duration is the animation length in seconds.
	Duration float32

	// TrackTime is the unwrapped time the entry has been playing, in seconds.
	TrackTime float32

	// Loop repeats the animation when it reaches Duration.
	Loop bool

	// MixingOut is true while an empty animation fades this entry out.
	MixingOut bool

	// MixDuration is the length of the fade out in seconds.
	MixDuration float32

	// MixTime is how far into the fade out the entry is, in seconds.
	MixTime float32

	completed bool
}

// AnimationTime returns the time within the animation to pose at: wrapped for looping entries,
// clamped to Duration otherwise.
//
// Returns:
//   - float32: the pose time in seconds
func (e TrackEntry) AnimationTime() float32 {
	if e.Duration <= 0 {
		return 0
	}
	if e.Loop {
		return math32.Mod(e.TrackTime, e.Duration)
	}
	return math32.Min(e.TrackTime, e.Duration)
}

// Alpha returns the weight the entry should be applied with: 1 while playing, falling linearly
// to 0 across an empty-animation fade out.
//
// Returns:
//   - float32: the mix weight in [0, 1]
func (e TrackEntry) Alpha() float32 {
	if !e.MixingOut {
		return 1
	}
	if e.MixDuration <= 0 {
		return 0
	}
	return math32.Max(0, 1-e.MixTime/e.MixDuration)
}
