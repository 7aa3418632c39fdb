package shader

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType is the programmable stage a shader feeds.
type ShaderType int

const (
	ShaderTypeVertex ShaderType = iota
	ShaderTypeFragment
)

// String returns the WGSL attribute name of the stage.
func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	}
	return "unknown"
}

// visibility is the bind group visibility flag of the stage.
func (t ShaderType) visibility() wgpu.ShaderStage {
	if t == ShaderTypeFragment {
		return wgpu.ShaderStageFragment
	}
	return wgpu.ShaderStageVertex
}

// shader is the implementation of the Shader interface.
type shader struct {
	key   string
	stage ShaderType
	code  string
	entry string

	groups   map[int]wgpu.BindGroupLayoutDescriptor
	varNames map[int]map[int]string
	vertices []wgpu.VertexBufferLayout
}

// Shader is one stage of a WGSL program with the layouts reflected from its source. Pipelines
// merge the bind group layouts of their stages and take vertex buffer layouts from the vertex stage.
type Shader interface {
	// Key is the cache key and debug label of the shader.
	Key() string

	// Source is the WGSL after include expansion.
	Source() string

	ShaderType() ShaderType

	// EntryPoint is the name of the stage's entry function, such as vs_main.
	EntryPoint() string

	// BindGroupLayoutDescriptor returns the layout of one @group, empty when the stage declares none.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: entries sorted by binding
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors returns every declared group keyed by index.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindingFromVarName finds the @binding of a module scope variable.
	//
	// Parameters:
	//   - group: the @group the variable lives in
	//   - varName: the WGSL variable name, such as atlasTexture
	//
	// Returns:
	//   - int: the binding, or -1
	//   - bool: whether the variable was found
	BindingFromVarName(group int, varName string) (int, bool)

	// VertexLayouts returns one layout per vertex input struct. Fragment stages have none.
	VertexLayouts() []wgpu.VertexBufferLayout

	// Module describes the shader module to compile.
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader expands includes in source and reflects the layouts of one stage from it.
//
// Parameters:
//   - key: the cache key and debug label
//   - shaderType: the stage to reflect
//   - source: WGSL, possibly with include annotations
//
// Returns:
//   - Shader: the reflected stage
//   - error: an error if an include fails or the source has no entry point for the stage
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	code, err := NewPreProcessor().Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}

	reflection := reflectWGSL(code)
	entry := reflection.entryPoints[shaderType]
	if entry == "" {
		return nil, fmt.Errorf("shader %s: no @%s entry point", key, shaderType)
	}

	s := &shader{key: key, stage: shaderType, code: code, entry: entry}
	s.groups, s.varNames = reflection.bindGroupLayouts(shaderType.visibility())
	if shaderType == ShaderTypeVertex {
		s.vertices = reflection.vertexLayouts()
	}
	return s, nil
}

func (s *shader) Key() string            { return s.key }
func (s *shader) Source() string         { return s.code }
func (s *shader) ShaderType() ShaderType { return s.stage }
func (s *shader) EntryPoint() string     { return s.entry }

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.groups[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.groups
}

func (s *shader) BindingFromVarName(group int, varName string) (int, bool) {
	for binding, name := range s.varNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertices
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return &wgpu.ShaderModuleDescriptor{
		Label:          s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: s.code},
	}
}
