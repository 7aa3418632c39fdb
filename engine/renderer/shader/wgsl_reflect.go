package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	structDecl   = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	resourceDecl = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
	stageDecl    = regexp.MustCompile(`@(vertex|fragment)\s+fn\s+(\w+)`)
	attributeRef = regexp.MustCompile(`@(\w+)(?:\(\s*([^)]*?)\s*\))?`)
)

// vertexFormats covers the attribute types a skeleton vertex can carry. Shorthand aliases such as
// vec4f are rewritten to their long form before lookup.
var vertexFormats = map[string]struct {
	format wgpu.VertexFormat
	size   uint64
}{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"i32":       {wgpu.VertexFormatSint32, 4},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},
}

var typeAliases = map[string]string{
	"vec2f": "vec2<f32>",
	"vec3f": "vec3<f32>",
	"vec4f": "vec4<f32>",
	"vec4u": "vec4<u32>",
}

// wgslMember is one member of a WGSL struct. location is -1 when the member has no @location.
type wgslMember struct {
	name     string
	typ      string
	location int
	builtin  bool
}

type wgslStruct struct {
	name    string
	members []wgslMember
}

// wgslResource is a module scope `@group(g) @binding(b) var<space> name: type;` declaration.
type wgslResource struct {
	group   int
	binding int
	space   string
	name    string
	typ     string
}

// wgslReflection is what pipeline creation needs to know about a WGSL program: its entry
// points, its structs and its bound resources.
type wgslReflection struct {
	entryPoints map[ShaderType]string
	structs     []wgslStruct
	resources   []wgslResource
}

// reflectWGSL scans comment-free WGSL source once and records its declarations.
//
// Parameters:
//   - source: the pre-processed WGSL source
//
// Returns:
//   - wgslReflection: the declarations in source order
func reflectWGSL(source string) wgslReflection {
	code := stripComments(source)
	r := wgslReflection{entryPoints: make(map[ShaderType]string, 2)}

	for _, m := range stageDecl.FindAllStringSubmatch(code, -1) {
		stage := ShaderTypeVertex
		if m[1] == "fragment" {
			stage = ShaderTypeFragment
		}
		if _, seen := r.entryPoints[stage]; !seen {
			r.entryPoints[stage] = m[2]
		}
	}

	for _, m := range structDecl.FindAllStringSubmatch(code, -1) {
		s := wgslStruct{name: m[1]}
		for _, decl := range splitMembers(m[2]) {
			if member, ok := parseMember(decl); ok {
				s.members = append(s.members, member)
			}
		}
		r.structs = append(r.structs, s)
	}

	for _, m := range resourceDecl.FindAllStringSubmatch(code, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		r.resources = append(r.resources, wgslResource{
			group:   group,
			binding: binding,
			space:   strings.TrimSpace(m[3]),
			name:    m[4],
			typ:     strings.TrimSpace(m[5]),
		})
	}
	return r
}

// vertexLayouts builds one tightly packed buffer layout per vertex input struct, meaning a struct
// whose members all carry @location and none a @builtin. Structs with a member type that has no
// vertex format are left out.
func (r wgslReflection) vertexLayouts() []wgpu.VertexBufferLayout {
	var layouts []wgpu.VertexBufferLayout
	for _, s := range r.structs {
		if layout, ok := vertexLayout(s); ok {
			layouts = append(layouts, layout)
		}
	}
	return layouts
}

// bindGroupLayouts groups the declared resources into layout descriptors with entries sorted by
// binding, all visible to the given stage.
//
// Parameters:
//   - visibility: the stage that declared the resources
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group
//   - map[int]map[int]string: variable names keyed by group, then binding
func (r wgslReflection) bindGroupLayouts(visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	layouts := make(map[int]wgpu.BindGroupLayoutDescriptor)
	names := make(map[int]map[int]string)

	for _, res := range r.resources {
		desc := layouts[res.group]
		desc.Entries = append(desc.Entries, res.layoutEntry(visibility))
		layouts[res.group] = desc

		if names[res.group] == nil {
			names[res.group] = make(map[int]string)
		}
		names[res.group][res.binding] = res.name
	}
	for _, desc := range layouts {
		sort.Slice(desc.Entries, func(i, j int) bool {
			return desc.Entries[i].Binding < desc.Entries[j].Binding
		})
	}
	return layouts, names
}

func (res wgslResource) layoutEntry(visibility wgpu.ShaderStage) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    uint32(res.binding),
		Visibility: visibility,
	}

	switch {
	case res.space == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case strings.HasPrefix(res.space, "storage") && strings.Contains(res.space, "read_write"):
		entry.Buffer.Type = wgpu.BufferBindingTypeStorage
	case strings.HasPrefix(res.space, "storage"):
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
	case res.space != "":
	case res.typ == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case strings.HasPrefix(res.typ, "texture_"):
		kind, sampled, _ := strings.Cut(strings.TrimSuffix(res.typ, ">"), "<")
		switch kind {
		case "texture_2d":
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		case "texture_2d_array":
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2DArray
		case "texture_multisampled_2d":
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
			entry.Texture.Multisampled = true
		}
		switch strings.TrimSpace(sampled) {
		case "f32":
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		case "i32":
			entry.Texture.SampleType = wgpu.TextureSampleTypeSint
		case "u32":
			entry.Texture.SampleType = wgpu.TextureSampleTypeUint
		}
	}
	return entry
}

func vertexLayout(s wgslStruct) (wgpu.VertexBufferLayout, bool) {
	if len(s.members) == 0 {
		return wgpu.VertexBufferLayout{}, false
	}
	attrs := make([]wgpu.VertexAttribute, 0, len(s.members))
	var stride uint64
	for _, m := range s.members {
		if m.builtin || m.location < 0 {
			return wgpu.VertexBufferLayout{}, false
		}
		typ := m.typ
		if long, ok := typeAliases[typ]; ok {
			typ = long
		}
		vf, ok := vertexFormats[typ]
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         vf.format,
			Offset:         stride,
			ShaderLocation: uint32(m.location),
		})
		stride += vf.size
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: stride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}

// parseMember reads `@location(0) name: type` and friends.
func parseMember(decl string) (wgslMember, bool) {
	m := wgslMember{location: -1}
	for _, attr := range attributeRef.FindAllStringSubmatch(decl, -1) {
		switch attr[1] {
		case "builtin":
			m.builtin = true
		case "location":
			if loc, err := strconv.Atoi(attr[2]); err == nil {
				m.location = loc
			}
		}
	}
	name, typ, ok := strings.Cut(attributeRef.ReplaceAllString(decl, ""), ":")
	if !ok {
		return m, false
	}
	m.name = strings.TrimSpace(name)
	m.typ = strings.Join(strings.Fields(typ), "")
	return m, m.name != "" && m.typ != ""
}

// splitMembers splits a struct body at commas outside template brackets, dropping empty parts.
func splitMembers(body string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i <= len(body); i++ {
		if i < len(body) {
			switch body[i] {
			case '<':
				depth++
				continue
			case '>':
				depth = max(depth-1, 0)
				continue
			case ',':
				if depth > 0 {
					continue
				}
			default:
				continue
			}
		}
		if part := strings.TrimSpace(body[start:i]); part != "" {
			parts = append(parts, part)
		}
		start = i + 1
	}
	return parts
}

// stripComments removes // and nestable /* */ comments, keeping newlines.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		c := source[i]
		var next byte
		if i+1 < len(source) {
			next = source[i+1]
		}
		switch {
		case c == '/' && next == '*':
			depth++
			i++
		case c == '*' && next == '/' && depth > 0:
			depth--
			i++
		case depth > 0:
			if c == '\n' {
				sb.WriteByte(c)
			}
		case c == '/' && next == '/':
			for i+1 < len(source) && source[i+1] != '\n' {
				i++
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
