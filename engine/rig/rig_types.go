package rig

import "github.com/dragonikpl/spine-runtimes/engine/skeleton"

// Property is the bone channel a timeline animates.
type Property string

const (
	// PropertyRotate offsets the bone rotation, in degrees.
	PropertyRotate Property = "rotate"

	// PropertyTranslateX offsets the bone x position.
	PropertyTranslateX Property = "x"

	// PropertyTranslateY offsets the bone y position.
	PropertyTranslateY Property = "y"
)

// BoneData is the setup pose of one bone. Parents must be listed before their children.
// ScaleX and ScaleY default to 1 when left at zero.
type BoneData struct {
	Name     string  `yaml:"name"`
	Parent   string  `yaml:"parent,omitempty"`
	X        float32 `yaml:"x"`
	Y        float32 `yaml:"y"`
	Rotation float32 `yaml:"rotation"`
	ScaleX   float32 `yaml:"scaleX"`
	ScaleY   float32 `yaml:"scaleY"`
}

// SlotData is one draw-order position. Slots are drawn in the order they are listed.
type SlotData struct {
	Name       string          `yaml:"name"`
	Bone       string          `yaml:"bone"`
	Attachment string          `yaml:"attachment,omitempty"`
	Blend      string          `yaml:"blend,omitempty"`
	Color      *skeleton.Color `yaml:"color,omitempty"`
}

// AttachmentData describes a region or mesh in the space of its slot's bone.
//
// A region is a Width × Height quad centered on (X, Y), rotated by Rotation degrees; its UVs are
// listed for the corners bottom-left, bottom-right, top-right, top-left. A mesh lists bone-space
// Vertices, matching UVs and local Triangles.
type AttachmentData struct {
	Name      string          `yaml:"name"`
	Type      string          `yaml:"type"`
	X         float32         `yaml:"x,omitempty"`
	Y         float32         `yaml:"y,omitempty"`
	Rotation  float32         `yaml:"rotation,omitempty"`
	Width     float32         `yaml:"width,omitempty"`
	Height    float32         `yaml:"height,omitempty"`
	Vertices  []float32       `yaml:"vertices,omitempty"`
	UVs       []float32       `yaml:"uvs"`
	Triangles []uint16        `yaml:"triangles,omitempty"`
	Color     *skeleton.Color `yaml:"color,omitempty"`
}

// SkinData maps slot names to the attachments visible in that slot under this skin.
type SkinData struct {
	Name        string                      `yaml:"name"`
	Attachments map[string][]AttachmentData `yaml:"attachments"`
}

// Keyframe is one timed value of a timeline.
type Keyframe struct {
	Time  float32 `yaml:"time"`
	Value float32 `yaml:"value"`
}

// Timeline animates one property of one bone, interpolating linearly between keyframes.
type Timeline struct {
	Bone     string     `yaml:"bone"`
	Property Property   `yaml:"property"`
	Keys     []Keyframe `yaml:"keys"`
}

// AnimationData is a named set of timelines.
type AnimationData struct {
	Name      string     `yaml:"name"`
	Duration  float32    `yaml:"duration"`
	Timelines []Timeline `yaml:"timelines"`
}

// SkeletonData is the complete setup description of a rig.
type SkeletonData struct {
	Name       string          `yaml:"name"`
	Width      float32         `yaml:"width"`
	Height     float32         `yaml:"height"`
	Atlas      string          `yaml:"atlas,omitempty"`
	Bones      []BoneData      `yaml:"bones"`
	Slots      []SlotData      `yaml:"slots"`
	Skins      []SkinData      `yaml:"skins"`
	Animations []AnimationData `yaml:"animations"`
}

// DefaultSkin is the skin consulted when the active skin has no attachment for a slot.
const DefaultSkin = "default"

// Animation looks up an animation by name.
//
// Parameters:
//   - name: the animation name
//
// Returns:
//   - *AnimationData: the animation, or nil if not found
func (d *SkeletonData) Animation(name string) *AnimationData {
	for i := range d.Animations {
		if d.Animations[i].Name == name {
			return &d.Animations[i]
		}
	}
	return nil
}

// Skin looks up a skin by name.
//
// Parameters:
//   - name: the skin name
//
// Returns:
//   - *SkinData: the skin, or nil if not found
func (d *SkeletonData) Skin(name string) *SkinData {
	for i := range d.Skins {
		if d.Skins[i].Name == name {
			return &d.Skins[i]
		}
	}
	return nil
}

// attachment finds a named attachment for a slot in a skin.
func (s *SkinData) attachment(slot, name string) *AttachmentData {
	if s == nil {
		return nil
	}
	for i := range s.Attachments[slot] {
		if s.Attachments[slot][i].Name == name {
			return &s.Attachments[slot][i]
		}
	}
	return nil
}

// sample returns the timeline value at time t, holding the first and last keys outside their range.
func (tl *Timeline) sample(t float32) float32 {
	keys := tl.Keys
	if len(keys) == 0 {
		return 0
	}
	if t <= keys[0].Time {
		return keys[0].Value
	}
	for i := 1; i < len(keys); i++ {
		if t < keys[i].Time {
			prev, next := keys[i-1], keys[i]
			span := next.Time - prev.Time
			if span <= 0 {
				return next.Value
			}
			return prev.Value + (next.Value-prev.Value)*(t-prev.Time)/span
		}
	}
	return keys[len(keys)-1].Value
}
