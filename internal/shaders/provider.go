// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package shaders serves the WGSL programs used by the effects.
//
// Each embedded file is a group; entry points are looked up by name and
// stage. Modules are compiled once per group and shared by every pipeline
// that uses the group.
package shaders

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/screenfx/internal/cache"
	"github.com/gogpu/screenfx/internal/logging"
)

//go:embed wgsl/*.wgsl
var sources embed.FS

// Groups shipped with the module.
const (
	GroupDebugVisualizer = "debug_visualizer"
	GroupClouds          = "clouds"
	GroupCloudsUpsample  = "clouds_upsample"
	GroupFog             = "fog"
	GroupOIT             = "oit"
	GroupSky             = "sky"
)

// ErrShaderNotFound is returned for an unknown group or entry point.
var ErrShaderNotFound = errors.New("shaders: not found")

// Format selects how sources reach the device.
type Format int

const (
	// FormatSPIRV compiles WGSL to SPIR-V with naga.
	FormatSPIRV Format = iota
	// FormatWGSL hands the WGSL source to the backend as-is.
	FormatWGSL
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatSPIRV:
		return "spirv"
	case FormatWGSL:
		return "wgsl"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Stage is a shader pipeline stage.
type Stage int

// Stages recognized in sources.
const (
	StageVertex Stage = iota
	StageFragment
	StageCompute
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// Shader is a compiled module plus the entry point to run.
type Shader struct {
	Module hal.ShaderModule
	Entry  string
}

var entryRe = regexp.MustCompile(`@(vertex|fragment|compute)(?:\s+@workgroup_size\([^)]*\))?\s+fn\s+(\w+)`)

// Source returns the WGSL text of a group.
func Source(group string) (string, error) {
	b, err := sources.ReadFile(path.Join("wgsl", group+".wgsl"))
	if err != nil {
		return "", fmt.Errorf("%w: group %q", ErrShaderNotFound, group)
	}
	return string(b), nil
}

// Groups lists every embedded group name.
func Groups() []string {
	entries, _ := sources.ReadDir("wgsl")
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".wgsl"))
	}
	sort.Strings(out)
	return out
}

// EntryPoints parses the entry points declared in src.
func EntryPoints(src string) map[string]Stage {
	out := make(map[string]Stage)
	for _, m := range entryRe.FindAllStringSubmatch(src, -1) {
		switch m[1] {
		case "vertex":
			out[m[2]] = StageVertex
		case "fragment":
			out[m[2]] = StageFragment
		case "compute":
			out[m[2]] = StageCompute
		}
	}
	return out
}

type module struct {
	handle  hal.ShaderModule
	entries map[string]Stage
}

// Provider compiles and caches shader modules for one device.
type Provider struct {
	device  hal.Device
	format  Format
	modules *cache.Cache[string, *module]
}

// NewProvider creates a provider that uploads modules in the given format.
func NewProvider(device hal.Device, format Format) *Provider {
	return &Provider{
		device:  device,
		format:  format,
		modules: cache.New[string, *module](),
	}
}

// Format reports the upload format.
func (p *Provider) Format() Format { return p.format }

// VertexShader returns the vertex entry point of a group.
func (p *Provider) VertexShader(group, entry string) (Shader, error) {
	return p.lookup(group, entry, StageVertex)
}

// PixelShader returns the fragment entry point of a group.
func (p *Provider) PixelShader(group, entry string) (Shader, error) {
	return p.lookup(group, entry, StageFragment)
}

// ComputeShader returns the single compute entry point of a group.
func (p *Provider) ComputeShader(group string) (Shader, error) {
	m, err := p.module(group)
	if err != nil {
		return Shader{}, err
	}
	for name, st := range m.entries {
		if st == StageCompute {
			return Shader{Module: m.handle, Entry: name}, nil
		}
	}
	return Shader{}, fmt.Errorf("%w: no compute entry in %q", ErrShaderNotFound, group)
}

func (p *Provider) lookup(group, entry string, stage Stage) (Shader, error) {
	m, err := p.module(group)
	if err != nil {
		return Shader{}, err
	}
	st, ok := m.entries[entry]
	if !ok || st != stage {
		return Shader{}, fmt.Errorf("%w: %s entry %q in %q", ErrShaderNotFound, stage, entry, group)
	}
	return Shader{Module: m.handle, Entry: entry}, nil
}

func (p *Provider) module(group string) (*module, error) {
	return p.modules.GetOrCreate(group, func() (*module, error) {
		src, err := Source(group)
		if err != nil {
			return nil, err
		}
		desc := &hal.ShaderModuleDescriptor{Label: "screenfx_" + group}
		switch p.format {
		case FormatSPIRV:
			spirv, err := compileSPIRV(src)
			if err != nil {
				return nil, fmt.Errorf("shaders: compile %s: %w", group, err)
			}
			desc.Source.SPIRV = spirv
		default:
			desc.Source.WGSL = src
		}
		handle, err := p.device.CreateShaderModule(desc)
		if err != nil {
			return nil, fmt.Errorf("shaders: create module %s: %w", group, err)
		}
		logging.Logger().Debug("shaders: module created", "group", group, "format", p.format)
		return &module{handle: handle, entries: EntryPoints(src)}, nil
	})
}

// compileSPIRV runs naga and repacks the little-endian words.
func compileSPIRV(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, err
	}
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code, nil
}

// Destroy releases every compiled module.
func (p *Provider) Destroy() {
	p.modules.Clear(func(m *module) {
		p.device.DestroyShaderModule(m.handle)
	})
}
