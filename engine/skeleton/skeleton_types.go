package skeleton

// --- Color & Blending ---

// Color is a straight (non-premultiplied) RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// White is the neutral tint.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// Vec4 returns the color as an [4]float32 in RGBA order, matching the GPU vertex color layout.
//
// Returns:
//   - [4]float32: the color components (r, g, b, a)
func (c Color) Vec4() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

// BlendMode identifies how a slot's pixels are composited over what was drawn before it.
type BlendMode int

const (
	// BlendModeNormal composites with straight source-over.
	BlendModeNormal BlendMode = iota

	// BlendModeAdditive adds the source color onto the destination.
	BlendModeAdditive

	// BlendModeMultiply multiplies the destination by the source color.
	BlendModeMultiply

	// BlendModeScreen inverts, multiplies and inverts again, brightening the destination.
	BlendModeScreen
)

// String returns the lowercase name of the blend mode.
func (b BlendMode) String() string {
	switch b {
	case BlendModeAdditive:
		return "additive"
	case BlendModeMultiply:
		return "multiply"
	case BlendModeScreen:
		return "screen"
	default:
		return "normal"
	}
}

// --- Attachments ---

// AttachmentKind is the closed set of attachment variants a slot can hold.
type AttachmentKind int

const (
	// AttachmentRegion is a textured quad with exactly four vertices.
	AttachmentRegion AttachmentKind = iota

	// AttachmentMesh is an arbitrary triangulated polygon.
	AttachmentMesh

	// AttachmentClipping is a clipping polygon. It never produces geometry on its own.
	AttachmentClipping

	// AttachmentOther covers every remaining kind (bounding boxes, paths, points).
	AttachmentOther
)

// String returns the lowercase name of the attachment kind.
func (k AttachmentKind) String() string {
	switch k {
	case AttachmentRegion:
		return "region"
	case AttachmentMesh:
		return "mesh"
	case AttachmentClipping:
		return "clipping"
	default:
		return "other"
	}
}

// RegionVertexFloats is the number of floats in a region's world vertex and UV arrays (4 vertices × 2 coords).
const RegionVertexFloats = 8

// QuadTriangles is the fixed triangle fan shared by every region attachment.
var QuadTriangles = [6]uint16{0, 1, 2, 2, 3, 0}

// RegionAttachment is a quad whose four corners have already been transformed into world space
// by the posing engine.
type RegionAttachment struct {
	// Name is the attachment identifier within its skin.
	Name string

	// WorldVertices holds the four corners as x0,y0, x1,y1, x2,y2, x3,y3.
	WorldVertices [RegionVertexFloats]float32

	// UVs holds the texture coordinates of the four corners in the same order.
	UVs [RegionVertexFloats]float32

	// Color is the attachment tint.
	Color Color
}

// MeshAttachment is a triangulated polygon with world-space vertices computed by the posing engine.
type MeshAttachment struct {
	// Name is the attachment identifier within its skin.
	Name string

	// WorldVertices holds the polygon vertices as interleaved x,y pairs.
	WorldVertices []float32

	// UVs holds one u,v pair per world vertex.
	UVs []float32

	// Triangles holds attachment-local vertex indices, three per triangle.
	Triangles []uint16

	// Color is the attachment tint.
	Color Color
}

// ClippingAttachment marks the start of a clipping range. It is carried through the snapshot
// but never rendered.
type ClippingAttachment struct {
	// Name is the attachment identifier within its skin.
	Name string

	// EndSlot is the name of the slot at which clipping stops.
	EndSlot string

	// WorldVertices holds the clipping polygon as interleaved x,y pairs.
	WorldVertices []float32
}

// Attachment is a tagged union over the attachment variants. Exactly one of the variant pointers
// matching Kind is set; the others are nil.
type Attachment struct {
	Kind AttachmentKind

	Region   *RegionAttachment
	Mesh     *MeshAttachment
	Clipping *ClippingAttachment

	// OtherName names attachments of kind AttachmentOther for diagnostics.
	OtherName string
}

// NewRegion wraps a region attachment in the union.
func NewRegion(r *RegionAttachment) *Attachment {
	return &Attachment{Kind: AttachmentRegion, Region: r}
}

// NewMesh wraps a mesh attachment in the union.
func NewMesh(m *MeshAttachment) *Attachment {
	return &Attachment{Kind: AttachmentMesh, Mesh: m}
}

// NewClipping wraps a clipping attachment in the union.
func NewClipping(c *ClippingAttachment) *Attachment {
	return &Attachment{Kind: AttachmentClipping, Clipping: c}
}

// NewOther builds an attachment of an unsupported kind.
func NewOther(name string) *Attachment {
	return &Attachment{Kind: AttachmentOther, OtherName: name}
}

// Name returns the name of whichever variant is set.
//
// Returns:
//   - string: the attachment name, or "" if the variant is missing
func (a *Attachment) Name() string {
	if a == nil {
		return ""
	}
	switch a.Kind {
	case AttachmentRegion:
		if a.Region != nil {
			return a.Region.Name
		}
	case AttachmentMesh:
		if a.Mesh != nil {
			return a.Mesh.Name
		}
	case AttachmentClipping:
		if a.Clipping != nil {
			return a.Clipping.Name
		}
	case AttachmentOther:
		return a.OtherName
	}
	return ""
}

// WorldVertices returns the world-space vertex floats of a region or mesh attachment,
// or nil for every other kind.
//
// Returns:
//   - []float32: interleaved x,y world coordinates
func (a *Attachment) WorldVertices() []float32 {
	if a == nil {
		return nil
	}
	switch a.Kind {
	case AttachmentRegion:
		if a.Region != nil {
			return a.Region.WorldVertices[:]
		}
	case AttachmentMesh:
		if a.Mesh != nil {
			return a.Mesh.WorldVertices
		}
	}
	return nil
}

// --- Slots ---

// Slot is one draw-order position in a posed skeleton.
type Slot struct {
	// Name is the slot identifier from the skeleton data.
	Name string

	// BoneName is the bone the slot is attached to. Informational only.
	BoneName string

	// Attachment is the active attachment, or nil when the slot shows nothing.
	Attachment *Attachment

	// BlendMode is the slot's compositing mode.
	BlendMode BlendMode

	// Color is the slot color set by animation.
	Color Color
}
