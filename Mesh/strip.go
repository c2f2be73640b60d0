package Mesh

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// StripOptions 条带生成参数
type StripOptions struct {
	Width      float64 // 条带宽度
	MiterLimit float64 // 斜接放大倍数上限，<=0 表示不限制
	Extrusion  float64 // 路面相对形状点的抬升高度
}

// DefaultStripOptions 默认条带参数
func DefaultStripOptions() StripOptions {
	return StripOptions{Width: 1, MiterLimit: 1}
}

// BuildStrip 根据有序点序列生成条带网格。
// 每个形状点 i 生成右、左两个顶点（索引 2i、2i+1），横边中点恰好落在点 i 上；
// 相邻两点之间生成一个逆时针四边形 [R_i, R_i+1, L_i+1, L_i]。
func BuildStrip(name string, points []r3.Vector, opts StripOptions) (*Mesh, error) {
	pts := DistinctPoints(points)
	if len(pts) < 2 {
		return nil, fmt.Errorf("%w: %s has %d distinct points", ErrDegenerate, name, len(pts))
	}
	if opts.Width <= 0 {
		return nil, fmt.Errorf("%w: %s width %.3f", ErrDegenerate, name, opts.Width)
	}
	half := opts.Width / 2

	m := New(name)
	for i, p := range pts {
		n, scale := crossSection(pts, i)
		if opts.MiterLimit > 0 && scale > opts.MiterLimit {
			scale = opts.MiterLimit
		}
		off := n.Mul(half * scale)
		z := p.Z + opts.Extrusion
		m.AddVertex(r3.Vector{X: p.X - off.X, Y: p.Y - off.Y, Z: z})
		m.AddVertex(r3.Vector{X: p.X + off.X, Y: p.Y + off.Y, Z: z})
	}
	for i := 0; i < len(pts)-1; i++ {
		m.AddFace(2*i, 2*i+2, 2*i+3, 2*i+1)
	}
	return m, nil
}

// crossSection 返回点 i 处指向左侧的单位法向量及斜接放大倍数
func crossSection(pts []r3.Vector, i int) (r2.Point, float64) {
	var tPrev, tNext r2.Point
	if i > 0 {
		tPrev = horizontal(pts[i].Sub(pts[i-1])).Normalize()
	}
	if i < len(pts)-1 {
		tNext = horizontal(pts[i+1].Sub(pts[i])).Normalize()
	}
	switch {
	case i == 0:
		return tNext.Ortho(), 1
	case i == len(pts)-1:
		return tPrev.Ortho(), 1
	}
	bisector := tPrev.Add(tNext)
	if bisector.Norm() < geomEpsilon {
		// 原路折返
		return tPrev.Ortho(), 1
	}
	n := bisector.Normalize().Ortho()
	cos := n.Dot(tPrev.Ortho())
	if cos < geomEpsilon {
		return n, 1
	}
	return n, 1 / cos
}

func horizontal(v r3.Vector) r2.Point {
	return r2.Point{X: v.X, Y: v.Y}
}

// DistinctPoints 去掉水平方向上与前一点重合的点
func DistinctPoints(points []r3.Vector) []r3.Vector {
	out := make([]r3.Vector, 0, len(points))
	for _, p := range points {
		if len(out) > 0 {
			last := out[len(out)-1]
			if math.Hypot(p.X-last.X, p.Y-last.Y) < geomEpsilon {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}
