package graphics

import (
	"math"

	"github.com/gogpu/gg"
)

// Matrix is a 3x3 projective transform in row-major order:
//
//	| ScaleX SkewX  TransX |
//	| SkewY  ScaleY TransY |
//	| Persp0 Persp1 Persp2 |
//
// The bottom row is (0, 0, 1) for affine transforms.
type Matrix struct {
	ScaleX, SkewX, TransX float64
	SkewY, ScaleY, TransY float64
	Persp0, Persp1, Persp2 float64
}

// defaultCameraDistance matches the conventional 8-inch camera at 72 dpi.
const defaultCameraDistance = 576.0

// IdentityMatrix returns the identity transform.
func IdentityMatrix() Matrix {
	return Matrix{ScaleX: 1, ScaleY: 1, Persp2: 1}
}

// TranslateMatrix returns a translation.
func TranslateMatrix(dx, dy float64) Matrix {
	m := IdentityMatrix()
	m.TransX = dx
	m.TransY = dy
	return m
}

// ScaleMatrix returns a scale about the origin.
func ScaleMatrix(sx, sy float64) Matrix {
	m := IdentityMatrix()
	m.ScaleX = sx
	m.ScaleY = sy
	return m
}

// RotateMatrix returns a rotation about the origin, in degrees.
func RotateMatrix(degrees float64) Matrix {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	return Matrix{
		ScaleX: cos, SkewX: -sin,
		SkewY: sin, ScaleY: cos,
		Persp2: 1,
	}
}

// SkewMatrix returns a shear with the given tangent factors.
func SkewMatrix(kx, ky float64) Matrix {
	m := IdentityMatrix()
	m.SkewX = kx
	m.SkewY = ky
	return m
}

// PerspectiveMatrix returns a transform with the two perspective terms set.
func PerspectiveMatrix(p0, p1 float64) Matrix {
	m := IdentityMatrix()
	m.Persp0 = p0
	m.Persp1 = p1
	return m
}

// CameraMatrix projects a plane rotated by the given angles (degrees, applied
// X then Y then Z) through a pinhole camera placed defaultCameraDistance
// pixels in front of it.
func CameraMatrix(rotX, rotY, rotZ float64) Matrix {
	if rotX == 0 && rotY == 0 && rotZ == 0 {
		return IdentityMatrix()
	}
	sx, cx := math.Sincos(rotX * math.Pi / 180)
	sy, cy := math.Sincos(rotY * math.Pi / 180)
	sz, cz := math.Sincos(rotZ * math.Pi / 180)

	// R = Rz * Ry * Rx; only the first two columns matter for z=0 input.
	r00 := cz*cy
	r01 := cz*sy*sx - sz*cx
	r10 := sz*cy
	r11 := sz*sy*sx + cz*cx
	r20 := -sy
	r21 := cy*sx

	d := defaultCameraDistance
	return Matrix{
		ScaleX: r00, SkewX: r01,
		SkewY: r10, ScaleY: r11,
		Persp0: -r20 / d, Persp1: -r21 / d, Persp2: 1,
	}
}

// Multiply returns m * other: other is applied first, then m.
func (m Matrix) Multiply(other Matrix) Matrix {
	a := [9]float64{m.ScaleX, m.SkewX, m.TransX, m.SkewY, m.ScaleY, m.TransY, m.Persp0, m.Persp1, m.Persp2}
	b := [9]float64{other.ScaleX, other.SkewX, other.TransX, other.SkewY, other.ScaleY, other.TransY, other.Persp0, other.Persp1, other.Persp2}
	var r [9]float64
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			r[row*3+col] = a[row*3]*b[col] + a[row*3+1]*b[3+col] + a[row*3+2]*b[6+col]
		}
	}
	return Matrix{
		ScaleX: r[0], SkewX: r[1], TransX: r[2],
		SkewY: r[3], ScaleY: r[4], TransY: r[5],
		Persp0: r[6], Persp1: r[7], Persp2: r[8],
	}
}

// Invert returns the inverse transform. ok is false when m is singular.
func (m Matrix) Invert() (inv Matrix, ok bool) {
	a, b, c := m.ScaleX, m.SkewX, m.TransX
	d, e, f := m.SkewY, m.ScaleY, m.TransY
	g, h, i := m.Persp0, m.Persp1, m.Persp2

	A := e*i - f*h
	B := -(d*i - f*g)
	C := d*h - e*g
	det := a*A + b*B + c*C
	if math.Abs(det) < 1e-12 || !IsFinite(det) {
		return Matrix{}, false
	}
	inv = Matrix{
		ScaleX: A / det, SkewX: -(b*i - c*h) / det, TransX: (b*f - c*e) / det,
		SkewY: B / det, ScaleY: (a*i - c*g) / det, TransY: -(a*f - c*d) / det,
		Persp0: C / det, Persp1: -(a*h - b*g) / det, Persp2: (a*e - b*d) / det,
	}
	return inv, true
}

// MapPoint transforms p. ok is false when the point maps to infinity.
func (m Matrix) MapPoint(p Offset) (Offset, bool) {
	x := m.ScaleX*p.X + m.SkewX*p.Y + m.TransX
	y := m.SkewY*p.X + m.ScaleY*p.Y + m.TransY
	w := m.Persp0*p.X + m.Persp1*p.Y + m.Persp2
	if math.Abs(w) < 1e-12 {
		return Offset{}, false
	}
	return Offset{X: x / w, Y: y / w}, true
}

// MapRect returns the bounding box of the four transformed corners.
func (m Matrix) MapRect(r Rect) Rect {
	if m.IsIdentity() {
		return r
	}
	corners := [4]Offset{
		{X: r.Left, Y: r.Top},
		{X: r.Right, Y: r.Top},
		{X: r.Right, Y: r.Bottom},
		{X: r.Left, Y: r.Bottom},
	}
	out := Rect{Left: math.Inf(1), Top: math.Inf(1), Right: math.Inf(-1), Bottom: math.Inf(-1)}
	for _, c := range corners {
		p, ok := m.MapPoint(c)
		if !ok {
			return Rect{}
		}
		out.Left = math.Min(out.Left, p.X)
		out.Top = math.Min(out.Top, p.Y)
		out.Right = math.Max(out.Right, p.X)
		out.Bottom = math.Max(out.Bottom, p.Y)
	}
	return out
}

// IsIdentity reports whether m leaves every point unchanged.
func (m Matrix) IsIdentity() bool {
	return floatEqual(m.ScaleX, 1) && floatEqual(m.ScaleY, 1) &&
		floatEqual(m.SkewX, 0) && floatEqual(m.SkewY, 0) &&
		floatEqual(m.TransX, 0) && floatEqual(m.TransY, 0) &&
		!m.HasPerspective()
}

// HasPerspective reports whether the bottom row differs from (0, 0, 1).
func (m Matrix) HasPerspective() bool {
	return !floatEqual(m.Persp0, 0) || !floatEqual(m.Persp1, 0) || !floatEqual(m.Persp2, 1)
}

// Affine returns the affine part of m for raster backends that cannot
// express perspective. The bottom row is dropped after normalizing by Persp2.
func (m Matrix) Affine() gg.Matrix {
	w := m.Persp2
	if w == 0 {
		w = 1
	}
	return gg.Matrix{
		A: m.ScaleX / w, B: m.SkewX / w, C: m.TransX / w,
		D: m.SkewY / w, E: m.ScaleY / w, F: m.TransY / w,
	}
}
