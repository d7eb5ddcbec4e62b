package native

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/batch2d/gfx"
)

// Shader implements gfx.Shader.
type Shader struct {
	dev *Device
	raw hal.ShaderModule
}

// Destroy releases the shader module.
func (s *Shader) Destroy() {
	if s.raw == nil {
		return
	}
	s.dev.raw.DestroyShaderModule(s.raw)
	s.raw = nil
}

// CreateShader creates a shader module from WGSL, translated to SPIR-V
// first when the device was created with WithSPIRV.
func (d *Device) CreateShader(desc *gfx.ShaderDescriptor) (gfx.Shader, error) {
	src := hal.ShaderSource{WGSL: desc.WGSL}
	if d.spirv {
		code, err := compileSPIRV(desc.WGSL)
		if err != nil {
			return nil, fmt.Errorf("native: shader %q: %w", desc.Label, err)
		}
		src = hal.ShaderSource{SPIRV: code}
	}
	raw, err := d.raw.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: src,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create shader module %q: %w", desc.Label, err)
	}
	return &Shader{dev: d, raw: raw}, nil
}

// compileSPIRV compiles WGSL to little-endian SPIR-V words.
func compileSPIRV(wgsl string) ([]uint32, error) {
	spirv, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compile WGSL: %w", err)
	}
	if len(spirv)%4 != 0 {
		return nil, fmt.Errorf("compile WGSL: SPIR-V size %d is not a multiple of 4", len(spirv))
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirv[i*4:])
	}
	return words, nil
}
