// Package rig is a small reference posing engine: bones with keyframed rotation and translation,
// skins that pick attachments per slot, and snapshots of the posed result in draw order.
package rig

import (
	"errors"
	"fmt"

	"github.com/dragonikpl/spine-runtimes/common"
	"github.com/dragonikpl/spine-runtimes/engine/animation"
	"github.com/dragonikpl/spine-runtimes/engine/skeleton"
)

var (
	// ErrInvalidData is returned when skeleton data references something that does not exist.
	ErrInvalidData = errors.New("invalid skeleton data")

	// ErrUnknownSkin is returned when selecting a skin the data does not define.
	ErrUnknownSkin = errors.New("unknown skin")
)

type bone struct {
	data   *BoneData
	parent int

	x, y, rotation float32
	scaleX, scaleY float32

	world common.Affine
}

type slot struct {
	data      *SlotData
	bone      int
	blendMode skeleton.BlendMode
	color     skeleton.Color
}

// rig is the implementation of the Rig interface.
type rig struct {
	data        *SkeletonData
	bones       []bone
	boneIndex   map[string]int
	slots       []slot
	skin        *SkinData
	defaultSkin *SkinData

	initialSkin string
	x, y        float32
	scale       float32
}

// Rig poses a skeleton from animation track state and exposes the result as a skeleton.Snapshot.
// A Rig is owned by a single layer and is not safe for concurrent use.
type Rig interface {
	// Data returns the setup data the rig was built from.
	//
	// Returns:
	//   - *SkeletonData: the skeleton data
	Data() *SkeletonData

	// Skin returns the name of the active skin, or "" when only the default skin is used.
	//
	// Returns:
	//   - string: the active skin name
	Skin() string

	// SetSkin selects the skin attachments are looked up in first. An empty name selects
	// the default skin only.
	//
	// Parameters:
	//   - name: the skin name
	//
	// Returns:
	//   - error: ErrUnknownSkin if the data has no such skin
	SetSkin(name string) error

	// Position returns the root offset in world units.
	//
	// Returns:
	//   - float32: x
	//   - float32: y
	Position() (float32, float32)

	// SetPosition moves the skeleton root.
	//
	// Parameters:
	//   - x: the root x in world units
	//   - y: the root y in world units
	SetPosition(x, y float32)

	// AnimationDuration reports the length of a named animation.
	//
	// Parameters:
	//   - name: the animation name
	//
	// Returns:
	//   - float32: the duration in seconds
	//   - bool: false if the animation does not exist
	AnimationDuration(name string) (float32, bool)

	// Pose resets the bones to the setup pose, applies every track, updates world transforms and
	// returns the posed snapshot.
	//
	// Parameters:
	//   - tracks: the active animation tracks, lowest index first
	//
	// Returns:
	//   - skeleton.Snapshot: the posed skeleton in draw order
	Pose(tracks []animation.TrackEntry) skeleton.Snapshot
}

var _ Rig = &rig{}

// NewRig creates a new Rig for the given data with the specified options applied.
//
// Parameters:
//   - data: the skeleton setup data
//   - options: a variadic list of RigBuilderOption functions to configure the Rig
//
// Returns:
//   - Rig: a new Rig in the setup pose
//   - error: ErrInvalidData if the data is inconsistent, ErrUnknownSkin for an unknown initial skin
func NewRig(data *SkeletonData, options ...RigBuilderOption) (Rig, error) {
	if data == nil {
		return nil, fmt.Errorf("new rig: %w: nil data", ErrInvalidData)
	}

	r := &rig{
		data:      data,
		boneIndex: make(map[string]int, len(data.Bones)),
		scale:     1,
	}
	for _, opt := range options {
		opt(r)
	}

	if err := r.buildBones(); err != nil {
		return nil, err
	}
	if err := r.buildSlots(); err != nil {
		return nil, err
	}
	if err := r.validateSkins(); err != nil {
		return nil, err
	}

	r.defaultSkin = data.Skin(DefaultSkin)
	if err := r.SetSkin(r.initialSkin); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *rig) buildBones() error {
	r.bones = make([]bone, len(r.data.Bones))
	for i := range r.data.Bones {
		bd := &r.data.Bones[i]
		if _, dup := r.boneIndex[bd.Name]; dup {
			return fmt.Errorf("new rig %s: %w: duplicate bone %q", r.data.Name, ErrInvalidData, bd.Name)
		}
		parent := -1
		if bd.Parent != "" {
			p, ok := r.boneIndex[bd.Parent]
			if !ok {
				return fmt.Errorf("new rig %s: %w: bone %q has parent %q that is not listed before it", r.data.Name, ErrInvalidData, bd.Name, bd.Parent)
			}
			parent = p
		}
		r.boneIndex[bd.Name] = i
		r.bones[i] = bone{data: bd, parent: parent}
	}
	return nil
}

func (r *rig) buildSlots() error {
	r.slots = make([]slot, len(r.data.Slots))
	for i := range r.data.Slots {
		sd := &r.data.Slots[i]
		b, ok := r.boneIndex[sd.Bone]
		if !ok {
			return fmt.Errorf("new rig %s: %w: slot %q uses unknown bone %q", r.data.Name, ErrInvalidData, sd.Name, sd.Bone)
		}
		mode, err := ParseBlendMode(sd.Blend)
		if err != nil {
			return fmt.Errorf("new rig %s: slot %q: %w", r.data.Name, sd.Name, err)
		}
		color := skeleton.White
		if sd.Color != nil {
			color = *sd.Color
		}
		r.slots[i] = slot{data: sd, bone: b, blendMode: mode, color: color}
	}
	return nil
}

func (r *rig) validateSkins() error {
	for _, skin := range r.data.Skins {
		for slotName, attachments := range skin.Attachments {
			for _, ad := range attachments {
				if err := validateAttachment(&ad); err != nil {
					return fmt.Errorf("new rig %s: skin %q slot %q: %w", r.data.Name, skin.Name, slotName, err)
				}
			}
		}
	}
	for _, anim := range r.data.Animations {
		for _, tl := range anim.Timelines {
			if _, ok := r.boneIndex[tl.Bone]; !ok {
				return fmt.Errorf("new rig %s: %w: animation %q animates unknown bone %q", r.data.Name, ErrInvalidData, anim.Name, tl.Bone)
			}
			switch tl.Property {
			case PropertyRotate, PropertyTranslateX, PropertyTranslateY:
			default:
				return fmt.Errorf("new rig %s: %w: animation %q has unknown property %q", r.data.Name, ErrInvalidData, anim.Name, tl.Property)
			}
		}
	}
	return nil
}

func validateAttachment(ad *AttachmentData) error {
	switch ad.Type {
	case "region", "":
		if len(ad.UVs) != skeleton.RegionVertexFloats {
			return fmt.Errorf("%w: region %q needs %d uvs, has %d", ErrInvalidData, ad.Name, skeleton.RegionVertexFloats, len(ad.UVs))
		}
	case "mesh":
		if len(ad.Vertices)%2 != 0 || len(ad.UVs) != len(ad.Vertices) {
			return fmt.Errorf("%w: mesh %q has %d vertex floats and %d uvs", ErrInvalidData, ad.Name, len(ad.Vertices), len(ad.UVs))
		}
	case "clipping", "boundingbox", "path", "point":
	default:
		return fmt.Errorf("%w: attachment %q has unknown type %q", ErrInvalidData, ad.Name, ad.Type)
	}
	return nil
}

// ParseBlendMode converts a blend mode name to a skeleton.BlendMode. The empty string is normal.
//
// Parameters:
//   - name: one of "", "normal", "additive", "multiply", "screen"
//
// Returns:
//   - skeleton.BlendMode: the blend mode
//   - error: ErrInvalidData for an unknown name
func ParseBlendMode(name string) (skeleton.BlendMode, error) {
	switch name {
	case "", "normal":
		return skeleton.BlendModeNormal, nil
	case "additive":
		return skeleton.BlendModeAdditive, nil
	case "multiply":
		return skeleton.BlendModeMultiply, nil
	case "screen":
		return skeleton.BlendModeScreen, nil
	default:
		return skeleton.BlendModeNormal, fmt.Errorf("%w: unknown blend mode %q", ErrInvalidData, name)
	}
}

func (r *rig) Data() *SkeletonData {
	return r.data
}

func (r *rig) Skin() string {
	if r.skin == nil {
		return ""
	}
	return r.skin.Name
}

func (r *rig) SetSkin(name string) error {
	if name == "" {
		r.skin = nil
		return nil
	}
	skin := r.data.Skin(name)
	if skin == nil {
		return fmt.Errorf("set skin %q: %w", name, ErrUnknownSkin)
	}
	r.skin = skin
	return nil
}

func (r *rig) Position() (float32, float32) {
	return r.x, r.y
}

func (r *rig) SetPosition(x, y float32) {
	r.x = x
	r.y = y
}

func (r *rig) AnimationDuration(name string) (float32, bool) {
	anim := r.data.Animation(name)
	if anim == nil {
		return 0, false
	}
	return anim.Duration, true
}

func (r *rig) Pose(tracks []animation.TrackEntry) skeleton.Snapshot {
	r.setupPose()
	for _, entry := range tracks {
		r.apply(entry)
	}
	r.updateWorldTransform()
	return r.snapshot()
}

func (r *rig) setupPose() {
	for i := range r.bones {
		b := &r.bones[i]
		b.x = b.data.X
		b.y = b.data.Y
		b.rotation = b.data.Rotation
		b.scaleX = common.Coalesce(b.data.ScaleX, 1)
		b.scaleY = common.Coalesce(b.data.ScaleY, 1)
	}
}

// apply adds an entry's timeline values, weighted by the entry's alpha, on top of the current pose.
func (r *rig) apply(entry animation.TrackEntry) {
	anim := r.data.Animation(entry.Animation)
	if anim == nil {
		return
	}
	t := entry.AnimationTime()
	alpha := entry.Alpha()
	for i := range anim.Timelines {
		tl := &anim.Timelines[i]
		b := &r.bones[r.boneIndex[tl.Bone]]
		v := tl.sample(t) * alpha
		switch tl.Property {
		case PropertyRotate:
			b.rotation += v
		case PropertyTranslateX:
			b.x += v
		case PropertyTranslateY:
			b.y += v
		}
	}
}

func (r *rig) updateWorldTransform() {
	root := common.AffineFromTRS(r.x, r.y, 0, r.scale, r.scale)
	for i := range r.bones {
		b := &r.bones[i]
		parent := root
		if b.parent >= 0 {
			parent = r.bones[b.parent].world
		}
		b.world = parent.Mul(common.AffineFromTRS(b.x, b.y, b.rotation, b.scaleX, b.scaleY))
	}
}

func (r *rig) snapshot() skeleton.Snapshot {
	slots := make([]skeleton.Slot, len(r.slots))
	for i := range r.slots {
		s := &r.slots[i]
		slots[i] = skeleton.Slot{
			Name:      s.data.Name,
			BoneName:  r.bones[s.bone].data.Name,
			BlendMode: s.blendMode,
			Color:     s.color,
		}
		if ad := r.resolve(s.data); ad != nil {
			slots[i].Attachment = r.attachment(ad, r.bones[s.bone].world)
		}
	}

	skin := ""
	if r.skin != nil {
		skin = r.skin.Name
	}
	return skeleton.NewSnapshot(
		skeleton.WithName(r.data.Name),
		skeleton.WithSkin(skin),
		skeleton.WithSlots(slots...),
	)
}

// resolve looks a slot's attachment up in the active skin, then in the default skin.
func (r *rig) resolve(sd *SlotData) *AttachmentData {
	if sd.Attachment == "" {
		return nil
	}
	if ad := r.skin.attachment(sd.Name, sd.Attachment); ad != nil {
		return ad
	}
	return r.defaultSkin.attachment(sd.Name, sd.Attachment)
}

func (r *rig) attachment(ad *AttachmentData, world common.Affine) *skeleton.Attachment {
	color := skeleton.White
	if ad.Color != nil {
		color = *ad.Color
	}

	switch ad.Type {
	case "region", "":
		region := &skeleton.RegionAttachment{Name: ad.Name, Color: color}
		tf := world.Mul(common.AffineFromTRS(ad.X, ad.Y, ad.Rotation, 1, 1))
		hw, hh := ad.Width/2, ad.Height/2
		corners := [skeleton.RegionVertexFloats]float32{-hw, -hh, hw, -hh, hw, hh, -hw, hh}
		for i := 0; i < len(corners); i += 2 {
			region.WorldVertices[i], region.WorldVertices[i+1] = tf.Apply(corners[i], corners[i+1])
		}
		copy(region.UVs[:], ad.UVs)
		return skeleton.NewRegion(region)
	case "mesh":
		return skeleton.NewMesh(&skeleton.MeshAttachment{
			Name:          ad.Name,
			WorldVertices: transform(world, ad.Vertices),
			UVs:           ad.UVs,
			Triangles:     ad.Triangles,
			Color:         color,
		})
	case "clipping":
		return skeleton.NewClipping(&skeleton.ClippingAttachment{
			Name:          ad.Name,
			WorldVertices: transform(world, ad.Vertices),
		})
	default:
		return skeleton.NewOther(ad.Name)
	}
}

func transform(tf common.Affine, local []float32) []float32 {
	out := make([]float32, len(local))
	for i := 0; i+1 < len(local); i += 2 {
		out[i], out[i+1] = tf.Apply(local[i], local[i+1])
	}
	return out
}
