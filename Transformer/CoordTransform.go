package Transformer

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// LocalFrame 以某个经纬度为原点的局部平面坐标系，单位为米。
// 先投影到 Web 墨卡托，再按原点纬度的比例系数缩放回地面距离。
type LocalFrame struct {
	Origin   orb.Point
	mercator orb.Point
	scale    float64
}

// NewLocalFrame 创建局部坐标系
func NewLocalFrame(origin orb.Point) *LocalFrame {
	return &LocalFrame{
		Origin:   origin,
		mercator: project.Point(origin, project.WGS84.ToMercator),
		scale:    math.Cos(origin.Lat() * math.Pi / 180),
	}
}

// FrameForBound 以范围中心为原点
func FrameForBound(b orb.Bound) *LocalFrame {
	return NewLocalFrame(b.Center())
}

// ToLocal WGS84 经纬度转局部平面坐标
func (f *LocalFrame) ToLocal(ll orb.Point) r2.Point {
	m := project.Point(ll, project.WGS84.ToMercator)
	return r2.Point{X: (m[0] - f.mercator[0]) * f.scale, Y: (m[1] - f.mercator[1]) * f.scale}
}

// ToWGS84 局部平面坐标转回经纬度
func (f *LocalFrame) ToWGS84(p r2.Point) orb.Point {
	m := orb.Point{p.X/f.scale + f.mercator[0], p.Y/f.scale + f.mercator[1]}
	return project.Point(m, project.Mercator.ToWGS84)
}

// LineToLocal 转换整条线，frame 为 nil 时坐标原样使用
func LineToLocal(ls orb.LineString, frame *LocalFrame) []r2.Point {
	out := make([]r2.Point, len(ls))
	for i, p := range ls {
		if frame == nil {
			out[i] = r2.Point{X: p[0], Y: p[1]}
			continue
		}
		out[i] = frame.ToLocal(p)
	}
	return out
}
