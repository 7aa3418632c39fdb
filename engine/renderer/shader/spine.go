package shader

import (
	_ "embed"
	"fmt"
)

// SpineSource is the WGSL program for assembled skeleton geometry: positions pass through
// unchanged and the fragment is the atlas texel multiplied by the vertex tint.
//
//go:embed assets/spine.wgsl
var SpineSource string

const (
	// SpineVertexKey is the cache key of the skeleton vertex shader.
	SpineVertexKey = "spine_vertex"

	// SpineFragmentKey is the cache key of the skeleton fragment shader.
	SpineFragmentKey = "spine_fragment"

	// AtlasGroup is the bind group holding the atlas texture and sampler.
	AtlasGroup = 0
)

// NewSpineShaders parses SpineSource into its vertex and fragment stages.
//
// Returns:
//   - Shader: the vertex stage
//   - Shader: the fragment stage
//   - error: an error if either stage fails to parse
func NewSpineShaders() (Shader, Shader, error) {
	vs, err := NewShader(SpineVertexKey, ShaderTypeVertex, SpineSource)
	if err != nil {
		return nil, nil, err
	}
	fs, err := NewShader(SpineFragmentKey, ShaderTypeFragment, SpineSource)
	if err != nil {
		return nil, nil, err
	}
	return vs, fs, nil
}

// AtlasBindings returns the binding indices of the atlas texture and sampler in a parsed skeleton shader.
//
// Parameters:
//   - s: a shader parsed from SpineSource
//
// Returns:
//   - int: the texture binding
//   - int: the sampler binding
//   - error: an error if either variable is missing
func AtlasBindings(s Shader) (int, int, error) {
	texture, ok := s.BindingFromVarName(AtlasGroup, "atlasTexture")
	if !ok {
		return 0, 0, fmt.Errorf("shader %s: atlasTexture is not bound in group %d", s.Key(), AtlasGroup)
	}
	sampler, ok := s.BindingFromVarName(AtlasGroup, "atlasSampler")
	if !ok {
		return 0, 0, fmt.Errorf("shader %s: atlasSampler is not bound in group %d", s.Key(), AtlasGroup)
	}
	return texture, sampler, nil
}
