package geom

import "math"

// Matrix is a 2D affine transform applied to texture coordinates.
// It is stored as the top two rows of a 3x3 matrix in row-major order:
//
//	| a  b  c |
//	| d  e  f |
//
// which maps
//
//	s' = a*s + b*t + c
//	t' = d*s + e*t + f
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{
		A: 1, B: 0, C: 0,
		D: 0, E: 1, F: 0,
	}
}

// Translate returns a translation.
func Translate(s, t float64) Matrix {
	return Matrix{
		A: 1, B: 0, C: s,
		D: 0, E: 1, F: t,
	}
}

// Scale returns a scale.
func Scale(s, t float64) Matrix {
	return Matrix{
		A: s, B: 0, C: 0,
		D: 0, E: t, F: 0,
	}
}

// VerticalFlip maps t to 1-t, leaving s unchanged.
func VerticalFlip() Matrix {
	return Matrix{
		A: 1, B: 0, C: 0,
		D: 0, E: -1, F: 1,
	}
}

// Multiply returns m * other; other is applied first.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// Apply transforms the texture coordinate (s, t).
func (m Matrix) Apply(s, t float64) (float64, float64) {
	return m.A*s + m.B*t + m.C, m.D*s + m.E*t + m.F
}

// Invert returns the inverse transform, or the identity when m is singular.
func (m Matrix) Invert() Matrix {
	det := m.A*m.E - m.B*m.D
	if math.Abs(det) < 1e-10 {
		return Identity()
	}

	inv := 1.0 / det
	return Matrix{
		A: m.E * inv,
		B: -m.B * inv,
		C: (m.B*m.F - m.C*m.E) * inv,
		D: -m.D * inv,
		E: m.A * inv,
		F: (m.C*m.D - m.A*m.F) * inv,
	}
}

// IsIdentity reports whether m is the identity transform.
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}

// Columns returns m as a column-major 3x3 matrix, the layout GPU programs
// expect for a mat3 uniform.
func (m Matrix) Columns() [9]float32 {
	return [9]float32{
		float32(m.A), float32(m.D), 0,
		float32(m.B), float32(m.E), 0,
		float32(m.C), float32(m.F), 1,
	}
}
