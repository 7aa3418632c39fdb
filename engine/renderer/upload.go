package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/dragonikpl/spine-runtimes/common"
)

// copyAlignment is the byte multiple WebGPU requires for buffer sizes and queue writes.
const copyAlignment = 4

// planCapacity decides whether a buffer of the given capacity can hold required bytes.
// Buffers are only reallocated when the data outgrows them, never shrunk.
//
// Parameters:
//   - capacity: the current allocation in bytes (0 when no buffer exists)
//   - required: the number of bytes to upload
//
// Returns:
//   - uint64: the capacity to allocate when growing, otherwise the current capacity
//   - bool: true if a new buffer must be created
func planCapacity(capacity, required uint64) (uint64, bool) {
	aligned := common.AlignUp(required, copyAlignment)
	if aligned <= capacity && capacity > 0 {
		return capacity, false
	}
	return max(aligned, copyAlignment), true
}

// padToCopyAlignment returns data extended with zero bytes to a multiple of copyAlignment.
// uint16 index data with an odd index count is the common case that needs it.
//
// Parameters:
//   - data: the bytes to upload
//
// Returns:
//   - []byte: data itself when already aligned, otherwise a padded copy
func padToCopyAlignment(data []byte) []byte {
	aligned := common.AlignUp(uint64(len(data)), copyAlignment)
	if aligned == uint64(len(data)) {
		return data
	}
	padded := make([]byte, aligned)
	copy(padded, data)
	return padded
}

// chooseSurfaceFormat prefers a BGRA8 unorm swapchain, falling back to the adapter's first format.
//
// Parameters:
//   - formats: the formats the surface supports, in adapter preference order
//
// Returns:
//   - wgpu.TextureFormat: the chosen format
func chooseSurfaceFormat(formats []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, f := range formats {
		if f == wgpu.TextureFormatBGRA8Unorm {
			return f
		}
	}
	if len(formats) == 0 {
		return wgpu.TextureFormatBGRA8Unorm
	}
	return formats[0]
}
