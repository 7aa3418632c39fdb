package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption stages a resource on a provider at construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithTextureView stages a texture view the provider takes ownership of.
//
// Parameters:
//   - binding: the @binding index of the texture
//   - tv: the texture view
//
// Returns:
//   - BindGroupProviderOption: the option
func WithTextureView(binding int, tv *wgpu.TextureView) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.SetTextureView(binding, tv)
	}
}

// WithSampler stages a sampler the provider takes ownership of.
func WithSampler(binding int, s *wgpu.Sampler) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.SetSampler(binding, s)
	}
}
