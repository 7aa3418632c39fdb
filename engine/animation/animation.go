// Package animation keeps per-track animation clocks and reports track lifecycle events as return
// values of Update instead of through callbacks.
package animation

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/chewxy/math32"
)

// ErrInvalidTrack is returned when a negative track index is used.
var ErrInvalidTrack = errors.New("track index must not be negative")

// state is the implementation of the State interface.
type state struct {
	mu        sync.Mutex
	timeScale float32
	tracks    map[int]*TrackEntry
	pending   []TrackEvent
}

// State is a set of independent animation tracks, indexed from 0.
//
// Each track plays at most one entry. Entries advance by the scaled delta passed to Update,
// which returns every event produced since the previous call in the order they happened.
// State is safe for concurrent use.
type State interface {
	// SetAnimation plays an animation on a track, replacing (and interrupting) any current entry.
	//
	// Parameters:
	//   - track: the track index
	//   - name: the animation name
	//   - duration: the animation length in seconds
	//   - loop: whether the animation repeats
	//
	// Returns:
	//   - TrackEntry: a copy of the new entry
	//   - error: ErrInvalidTrack for a negative track, or an error for a negative duration
	SetAnimation(track int, name string, duration float32, loop bool) (TrackEntry, error)

	// SetEmptyAnimation fades the current entry of a track out over mixDuration seconds,
	// after which the track is cleared and EventEnd is reported. No-op on an empty track.
	//
	// Parameters:
	//   - track: the track index
	//   - mixDuration: the fade out length in seconds (0 clears on the next update)
	SetEmptyAnimation(track int, mixDuration float32)

	// ClearTrack removes the entry of a track immediately, reporting EventEnd.
	//
	// Parameters:
	//   - track: the track index
	ClearTrack(track int)

	// ClearTracks removes every entry immediately.
	ClearTracks()

	// TimeScale returns the multiplier applied to every delta.
	//
	// Returns:
	//   - float32: the time scale
	TimeScale() float32

	// SetTimeScale sets the multiplier applied to every delta. Negative values are treated as 0.
	//
	// Parameters:
	//   - scale: the new time scale
	SetTimeScale(scale float32)

	// Update advances every track by delta * TimeScale seconds.
	//
	// Parameters:
	//   - delta: elapsed time in seconds
	//
	// Returns:
	//   - []TrackEvent: the events produced since the previous Update, in order
	Update(delta float32) []TrackEvent

	// Tracks returns copies of the active entries ordered by track index.
	//
	// Returns:
	//   - []TrackEntry: the active entries
	Tracks() []TrackEntry

	// Track returns a copy of the entry playing on a track.
	//
	// Parameters:
	//   - track: the track index
	//
	// Returns:
	//   - TrackEntry: the entry
	//   - bool: false if the track is empty
	Track(track int) (TrackEntry, bool)
}

var _ State = &state{}

// NewState creates a new animation State with the specified options applied.
//
// Parameters:
//   - options: a variadic list of StateBuilderOption functions to configure the State
//
// Returns:
//   - State: a new State configured with the provided options
func NewState(options ...StateBuilderOption) State {
	s := &state{
		timeScale: 1,
		tracks:    make(map[int]*TrackEntry),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *state) SetAnimation(track int, name string, duration float32, loop bool) (TrackEntry, error) {
	if track < 0 {
		return TrackEntry{}, fmt.Errorf("set animation %q on track %d: %w", name, track, ErrInvalidTrack)
	}
	if duration < 0 {
		return TrackEntry{}, fmt.Errorf("set animation %q on track %d: negative duration %v", name, track, duration)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.tracks[track]; ok {
		s.pending = append(s.pending,
			current.event(EventInterrupt),
			current.event(EventEnd),
		)
	}

	entry := &TrackEntry{
		Track:     track,
		Animation: name,
		Duration:  duration,
		Loop:      loop,
	}
	s.tracks[track] = entry
	s.pending = append(s.pending, entry.event(EventStart))
	return *entry, nil
}

func (s *state) SetEmptyAnimation(track int, mixDuration float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tracks[track]
	if !ok || current.MixingOut {
		return
	}
	if !current.completed {
		s.pending = append(s.pending, current.event(EventInterrupt))
	}
	current.MixingOut = true
	current.MixDuration = math32.Max(0, mixDuration)
	current.MixTime = 0
}

func (s *state) ClearTrack(track int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear(track)
}

func (s *state) ClearTracks() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, track := range s.indices() {
		s.clear(track)
	}
}

func (s *state) TimeScale() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.timeScale
}

func (s *state) SetTimeScale(scale float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timeScale = math32.Max(0, scale)
}

func (s *state) Update(delta float32) []TrackEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	delta *= s.timeScale
	if delta < 0 {
		delta = 0
	}

	for _, track := range s.indices() {
		entry := s.tracks[track]

		if entry.MixingOut {
			entry.MixTime += delta
			entry.TrackTime += delta
			if entry.MixTime >= entry.MixDuration {
				s.clear(track)
			}
			continue
		}

		previous := entry.TrackTime
		entry.TrackTime += delta
		s.pending = append(s.pending, entry.completions(previous)...)
	}

	events := s.pending
	s.pending = nil
	return events
}

func (s *state) Tracks() []TrackEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]TrackEntry, 0, len(s.tracks))
	for _, track := range s.indices() {
		entries = append(entries, *s.tracks[track])
	}
	return entries
}

func (s *state) Track(track int) (TrackEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tracks[track]
	if !ok {
		return TrackEntry{}, false
	}
	return *entry, true
}

// clear removes a track and queues its end event. Callers hold s.mu.
func (s *state) clear(track int) {
	entry, ok := s.tracks[track]
	if !ok {
		return
	}
	delete(s.tracks, track)
	s.pending = append(s.pending, entry.event(EventEnd))
}

// indices returns the occupied track indices in ascending order. Callers hold s.mu.
func (s *state) indices() []int {
	indices := make([]int, 0, len(s.tracks))
	for track := range s.tracks {
		indices = append(indices, track)
	}
	sort.Ints(indices)
	return indices
}

func (e *TrackEntry) event(t EventType) TrackEvent {
	return TrackEvent{Type: t, Track: e.Track, Animation: e.Animation, Loop: e.Loop}
}

// completions returns the complete event for advancing from previous to the current track time.
// A looping entry that wraps several times in one update reports them as a single event.
func (e *TrackEntry) completions(previous float32) []TrackEvent {
	if e.Loop {
		if e.Duration <= 0 {
			return nil
		}
		wraps := math32.Floor(e.TrackTime/e.Duration) - math32.Floor(previous/e.Duration)
		if wraps < 1 {
			return nil
		}
		event := e.event(EventComplete)
		event.Loops = int(min(wraps, maxLoopsPerEvent))
		return []TrackEvent{event}
	}

	if e.completed || e.TrackTime < e.Duration {
		return nil
	}
	e.completed = true
	event := e.event(EventComplete)
	event.Loops = 1
	return []TrackEvent{event}
}
