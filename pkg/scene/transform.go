package scene

import "github.com/go-drift/drawn/pkg/graphics"

// computeTransform builds the node's matrix around its pivot:
// T(pivot) * T(translation) * R * S * K * P * C * T(-pivot).
// Translation is in logical units.
func (n *Node) computeTransform(scale float64) graphics.Matrix {
	tx := n.TranslationX.Get() * scale
	ty := n.TranslationY.Get() * scale
	sx, sy := n.ScaleX.Get(), n.ScaleY.Get()
	rot := n.Rotation.Get()
	kx, ky := n.SkewX.Get(), n.SkewY.Get()
	p1, p2 := n.Perspective1.Get(), n.Perspective2.Get()
	rx, ry, rz := n.RotationX.Get(), n.RotationY.Get(), n.RotationZ.Get()

	if tx == 0 && ty == 0 && sx == 1 && sy == 1 && rot == 0 && kx == 0 && ky == 0 &&
		p1 == 0 && p2 == 0 && rx == 0 && ry == 0 && rz == 0 {
		return graphics.IdentityMatrix()
	}

	r := n.drawingRect
	px := r.Left + r.Width()*n.PivotX.Get()
	py := r.Top + r.Height()*n.PivotY.Get()

	m := graphics.TranslateMatrix(px+tx, py+ty)
	if rot != 0 {
		m = m.Multiply(graphics.RotateMatrix(rot))
	}
	if sx != 1 || sy != 1 {
		m = m.Multiply(graphics.ScaleMatrix(sx, sy))
	}
	if kx != 0 || ky != 0 {
		m = m.Multiply(graphics.SkewMatrix(kx, ky))
	}
	if p1 != 0 || p2 != 0 {
		m = m.Multiply(graphics.PerspectiveMatrix(p1, p2))
	}
	if rx != 0 || ry != 0 || rz != 0 {
		m = m.Multiply(graphics.CameraMatrix(rx, ry, rz))
	}
	return m.Multiply(graphics.TranslateMatrix(-px, -py))
}
