package Road

import (
	"fmt"
	"log"
	"math"

	"github.com/GrainArc/RoadMesh/Geometry"
	"github.com/GrainArc/RoadMesh/Mesh"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
)

// SamePointDistance 两个点视为同一点的默认距离
const SamePointDistance = 0.5

// Affine 平面仿射变换 x' = A*x + B*y + C, y' = D*x + E*y + F，Height 为路面高度
type Affine struct {
	A, B, C float64
	D, E, F float64
	Height  float64
}

// Identity 单位变换
func Identity() Affine {
	return Affine{A: 1, E: 1}
}

// Apply 变换平面点
func (t Affine) Apply(p r2.Point) r3.Vector {
	return r3.Vector{
		X: t.A*p.X + t.B*p.Y + t.C,
		Y: t.D*p.X + t.E*p.Y + t.F,
		Z: t.Height,
	}
}

// Style 路面样式
type Style struct {
	Width      float64 `json:"width" yaml:"width" xml:"width"`
	MiterLimit float64 `json:"miterLimit" yaml:"miterLimit" xml:"miterLimit"`
	Extrusion  float64 `json:"extrusion" yaml:"extrusion" xml:"extrusion"`
}

// DefaultStyle 宽度1、斜接上限1
func DefaultStyle() Style {
	return Style{Width: 1, MiterLimit: 1}
}

// Strip 转换为条带参数
func (s Style) Strip() Mesh.StripOptions {
	return Mesh.StripOptions{Width: s.Width, MiterLimit: s.MiterLimit, Extrusion: s.Extrusion}
}

// Segment 一条道路（或道路片段）。点被清空后即失效。
type Segment struct {
	ID        uuid.UUID
	Name      string
	Points    []r3.Vector
	Transform Affine
	Style     Style
	Tolerance float64
	Builder   *Geometry.MeshBuilder
}

// NewSegment 由平面点和变换创建道路
func NewSegment(name string, points []r2.Point, transform Affine, style Style) *Segment {
	pts := make([]r3.Vector, len(points))
	for i, p := range points {
		pts[i] = transform.Apply(p)
	}
	s := NewSegmentFromPoints(name, pts, style)
	s.Transform = transform
	return s
}

// NewSegmentFromPoints 由已变换的三维点创建道路
func NewSegmentFromPoints(name string, points []r3.Vector, style Style) *Segment {
	return &Segment{
		ID:        uuid.New(),
		Name:      name,
		Points:    append([]r3.Vector(nil), points...),
		Transform: Identity(),
		Style:     style,
		Tolerance: SamePointDistance,
	}
}

func (s *Segment) String() string {
	return fmt.Sprintf("%s(%d)", s.Name, len(s.Points))
}

// IsValid 至少两个点才有效
func (s *Segment) IsValid() bool {
	return s != nil && len(s.Points) >= 2
}

// Invalidate 清空点，标记为失效
func (s *Segment) Invalidate() {
	s.Points = s.Points[:0]
}

func (s *Segment) first() r3.Vector { return s.Points[0] }
func (s *Segment) last() r3.Vector  { return s.Points[len(s.Points)-1] }

// horizontalDistance 水平面距离，不计高度
func horizontalDistance(a, b r3.Vector) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func (s *Segment) isSamePoint(a, b r3.Vector) bool {
	return horizontalDistance(a, b) < s.Tolerance
}

// CanJoinWith other 的起点接在本路终点，或 other 的终点接在本路起点
func (s *Segment) CanJoinWith(other *Segment) bool {
	if s == other || !s.IsValid() || !other.IsValid() {
		return false
	}
	return s.isSamePoint(other.first(), s.last()) || s.isSamePoint(other.last(), s.first())
}

// Join 吸收 other 的点，other 随后失效
func (s *Segment) Join(other *Segment) bool {
	if !s.CanJoinWith(other) {
		return false
	}
	switch {
	case s.isSamePoint(other.first(), s.last()):
		s.Points = append(s.Points[:len(s.Points)-1], other.Points...)
	case s.isSamePoint(other.last(), s.first()):
		pts := make([]r3.Vector, 0, len(s.Points)+len(other.Points)-1)
		pts = append(pts, other.Points...)
		s.Points = append(pts, s.Points[1:]...)
	default:
		return false
	}
	other.Invalidate()
	return true
}

// ConnectionMode 多个点都与对方端点重合时的取舍方式
type ConnectionMode int

const (
	// FirstMatch 按点序取第一个
	FirstMatch ConnectionMode = iota
	// NearestMatch 取距离最近的
	NearestMatch
)

// ParseConnectionMode 解析配置里的连接方式，未知值按 first 处理
func ParseConnectionMode(s string) ConnectionMode {
	if s == "nearest" {
		return NearestMatch
	}
	return FirstMatch
}

func (m ConnectionMode) String() string {
	if m == NearestMatch {
		return "nearest"
	}
	return "first"
}

// IsConnectedWith 检查本路（主路）某个点是否与 other（次路）的起点或终点重合
func (s *Segment) IsConnectedWith(other *Segment, mode ConnectionMode) (ConnectionPoint, bool) {
	if s == other || !s.IsValid() || !other.IsValid() {
		return ConnectionPoint{}, false
	}
	ends := [2]int{0, len(other.Points) - 1}

	best, found := ConnectionPoint{}, false
	bestDist := s.Tolerance
	for i, p := range s.Points {
		for _, j := range ends {
			d := horizontalDistance(p, other.Points[j])
			if d >= s.Tolerance {
				continue
			}
			cp := ConnectionPoint{
				Location:   r2.Point{X: p.X, Y: p.Y},
				Main:       s,
				MainIndex:  i,
				Minor:      other,
				MinorIndex: j,
			}
			if mode == FirstMatch {
				return cp, true
			}
			if !found || d < bestDist {
				best, bestDist, found = cp, d, true
			}
		}
	}
	return best, found
}

// DirectionAt 道路在第 index 个点处的走向（水平面单位向量）
func (s *Segment) DirectionAt(index int) r2.Point {
	n := len(s.Points)
	if n < 2 || index < 0 || index >= n {
		return r2.Point{}
	}
	var d r3.Vector
	if index == n-1 {
		d = s.Points[index].Sub(s.Points[index-1])
	} else {
		d = s.Points[index+1].Sub(s.Points[index])
	}
	h := r2.Point{X: d.X, Y: d.Y}
	if h.Norm() == 0 {
		return h
	}
	return h.Normalize()
}

// Build 生成条带网格
func (s *Segment) Build(opts Geometry.Options) error {
	if !s.IsValid() {
		return fmt.Errorf("%s: %w", s.Name, ErrInvalidSegment)
	}
	b := Geometry.NewMeshBuilder(s.Name, opts)
	if err := b.Build(s.Points, s.Style.Strip()); err != nil {
		log.Printf("道路 %s 生成网格失败: %v", s.Name, err)
		return err
	}
	s.Builder = b
	return nil
}

// IsBuilt 是否已有网格
func (s *Segment) IsBuilt() bool {
	return s != nil && s.Builder != nil && s.Builder.IsBuilt()
}
