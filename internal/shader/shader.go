// Package shader holds the WGSL source of the basic program and translates
// it to GLSL for the GL device.
package shader

import (
	_ "embed"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/drape/gpu"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
)

//go:embed basic.wgsl
var basicWGSL string

// ErrTranslate is returned when the WGSL source cannot be translated.
var ErrTranslate = errors.New("shader: translation failed")

// Entry points of the basic program.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

// UniformSize is the std140 size of the Uniforms block in bytes.
const UniformSize = 144

// GL binding points. Uniform blocks and texture units are separate
// namespaces, so both start at zero.
const (
	UniformBinding = 0
	TextureUnit    = 0
)

var bindings = map[glsl.BindingMapKey]uint8{
	{Group: 0, Binding: 0}: UniformBinding,
	{Group: 0, Binding: 1}: TextureUnit,
	{Group: 0, Binding: 2}: TextureUnit,
}

// BasicWGSL returns the WGSL source of the basic program.
func BasicWGSL() string { return basicWGSL }

// Program is a translated vertex and fragment shader pair.
type Program struct {
	Vertex   string
	Fragment string
}

// Basic translates the basic program to GLSL 4.30.
func Basic() (Program, error) {
	vs, err := translate(basicWGSL, VertexEntry)
	if err != nil {
		return Program{}, err
	}
	fs, err := translate(basicWGSL, FragmentEntry)
	if err != nil {
		return Program{}, err
	}
	return Program{Vertex: vs, Fragment: fs}, nil
}

func translate(source, entry string) (string, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranslate, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return "", fmt.Errorf("%w: lower: %w", ErrTranslate, err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return "", fmt.Errorf("%w: validate: %w", ErrTranslate, err)
	}
	if len(verrs) > 0 {
		return "", fmt.Errorf("%w: %s: %s", ErrTranslate, entry, verrs[0].Message)
	}

	code, _, err := glsl.Compile(module, glsl.Options{
		LangVersion: glsl.Version430,
		EntryPoint:  entry,
		BindingMap:  bindings,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrTranslate, entry, err)
	}
	return code, nil
}

// Pack lays out u in std140 order for upload to the uniform block.
func Pack(u *gpu.Uniforms) [UniformSize / 4]float32 {
	var out [UniformSize / 4]float32
	copy(out[0:16], u.MVP[:])
	copy(out[16:20], u.Color[:])
	// mat3 columns are padded to vec4.
	for col := 0; col < 3; col++ {
		copy(out[20+4*col:23+4*col], u.TexCoordMatrix[3*col:3*col+3])
	}
	out[32] = boolBits(u.EnableTexture)
	out[33] = boolBits(u.EnablePickMode)
	return out
}

func boolBits(b bool) float32 {
	if b {
		return math.Float32frombits(1)
	}
	return 0
}
