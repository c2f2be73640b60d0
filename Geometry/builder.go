package Geometry

import (
	"errors"
	"fmt"
	"log"

	"github.com/GrainArc/RoadMesh/Mesh"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// ErrNotBuilt 网格还没有生成
var ErrNotBuilt = errors.New("mesh is not built yet")

// MeshBuilder 持有一条道路的条带网格及其边、面索引
type MeshBuilder struct {
	name    string
	opts    Options
	shaping []r2.Point

	mesh  *Mesh.Mesh
	edges *EdgeIndex
	faces *FaceIndex

	start, end Mesh.Edge
}

// NewMeshBuilder 创建构建器
func NewMeshBuilder(name string, opts Options) *MeshBuilder {
	return &MeshBuilder{name: name, opts: opts}
}

// Build 生成条带网格并建立索引
func (b *MeshBuilder) Build(points []r3.Vector, strip Mesh.StripOptions) error {
	pts := Mesh.DistinctPoints(points)
	m, err := Mesh.BuildStrip(b.name, pts, strip)
	if err != nil {
		return newError("build", r2.Point{}, ErrInvalidGeometry, err)
	}

	b.shaping = make([]r2.Point, len(pts))
	for i, p := range pts {
		b.shaping[i] = r2.Point{X: p.X, Y: p.Y}
	}
	last := len(pts) - 1
	b.start = Mesh.Edge{A: 0, B: 1}
	b.end = Mesh.Edge{A: 2 * last, B: 2*last + 1}

	b.mesh = m
	b.edges = NewEdgeIndex(m, b.shaping, b.opts)
	b.edges.SetTerminal(b.start, 0)
	b.edges.SetTerminal(b.end, last)
	b.faces = NewFaceIndex(m, b.opts)

	if err := b.edges.CheckInvariant(); err != nil {
		log.Printf("内部边校验失败: %v", err)
	}
	return nil
}

// Name 道路名
func (b *MeshBuilder) Name() string { return b.name }

// IsBuilt 是否已生成网格
func (b *MeshBuilder) IsBuilt() bool { return b.mesh != nil }

// Mesh 当前网格
func (b *MeshBuilder) Mesh() *Mesh.Mesh { return b.mesh }

// Edges 边索引
func (b *MeshBuilder) Edges() *EdgeIndex { return b.edges }

// Faces 面索引
func (b *MeshBuilder) Faces() *FaceIndex { return b.faces }

// ShapingPoints 生成网格所用的形状点
func (b *MeshBuilder) ShapingPoints() []r2.Point {
	return append([]r2.Point(nil), b.shaping...)
}

// UpdateMesh 网格变动后级联刷新边、面索引
func (b *MeshBuilder) UpdateMesh() {
	if b.mesh == nil {
		return
	}
	b.edges.Refresh()
	b.faces.Refresh()
}

func (b *MeshBuilder) built(op string) error {
	if b.mesh == nil {
		return newError(op, r2.Point{}, ErrInvalidGeometry, fmt.Errorf("%s: %w", b.name, ErrNotBuilt))
	}
	return nil
}

// BevelAt 在点 p 处倒角
func (b *MeshBuilder) BevelAt(p r2.Point) (*Mesh.Face, error) {
	if err := b.built("bevel"); err != nil {
		return nil, err
	}
	f, err := b.edges.BevelAt(p)
	if err != nil {
		return nil, err
	}
	b.UpdateMesh()
	return f, nil
}

// MergeFacesAt 合并 p 附近最近的两个面
func (b *MeshBuilder) MergeFacesAt(p r2.Point) (*Mesh.Face, error) {
	if err := b.built("merge"); err != nil {
		return nil, err
	}
	f, err := b.faces.MergeClosestTwo(p)
	if err != nil {
		return nil, err
	}
	b.UpdateMesh()
	return f, nil
}

// MoveBackClosestFace 让出路口空间，返回移动后最近面的中心
func (b *MeshBuilder) MoveBackClosestFace(p r2.Point) (r2.Point, error) {
	if err := b.built("move back"); err != nil {
		return p, err
	}
	c, err := b.faces.MoveBackClosestFace(p)
	if err != nil {
		return p, err
	}
	b.UpdateMesh()
	if err := b.edges.CheckInvariant(); err != nil {
		log.Printf("移动面后内部边校验失败: %v", err)
	}
	return c, nil
}

// TerminalEdge 起点或终点的端头边
func (b *MeshBuilder) TerminalEdge(atStart bool) (EdgeRecord, error) {
	if err := b.built("terminal"); err != nil {
		return EdgeRecord{Index: -1}, err
	}
	e := b.end
	if atStart {
		e = b.start
	}
	rec, ok := b.edges.Record(e)
	if !ok {
		return rec, newError("terminal", r2.Point{}, ErrNotFound, fmt.Errorf("%s: terminal edge %v", b.name, e))
	}
	return rec, nil
}

// AdjustEndPosition 把端头边沿道路走向朝目标边平移，平移量为两边中点距离
func (b *MeshBuilder) AdjustEndPosition(terminal, target EdgeRecord) (EdgeRecord, error) {
	if err := b.built("adjust"); err != nil {
		return terminal, err
	}
	dir, err := b.edges.CalculateDirectionFromEdge(terminal)
	if err != nil {
		return terminal, err
	}
	delta := target.Center.Sub(terminal.Center)
	if delta.Dot(dir) < 0 {
		dir = dir.Mul(-1)
	}
	offset := dir.Mul(delta.Norm())
	Mesh.TranslateVertices(b.mesh, []int{terminal.Edge.A, terminal.Edge.B}, r3.Vector{X: offset.X, Y: offset.Y})
	b.UpdateMesh()

	rec, ok := b.edges.Record(terminal.Edge)
	if !ok {
		return terminal, newError("adjust", terminal.Center, ErrNotFound, fmt.Errorf("%s: edge %v vanished", b.name, terminal.Edge))
	}
	return rec, nil
}

// ResizeEdge 过窄的接缝边加宽
func (b *MeshBuilder) ResizeEdge(r EdgeRecord) (EdgeRecord, bool, error) {
	if err := b.built("resize"); err != nil {
		return r, false, err
	}
	rec, resized, err := b.edges.ResizeEdge(r)
	if err != nil {
		return r, false, err
	}
	if resized {
		b.faces.Refresh()
	}
	return rec, resized, nil
}

// SnapEdgeTo 把自身边的两个顶点放到目标网格上目标边两个顶点的位置。
// 吸附后自身边与目标边同向，方向点积为正。
func (b *MeshBuilder) SnapEdgeTo(own, target EdgeRecord, targetMesh *Mesh.Mesh) (EdgeRecord, error) {
	if err := b.built("snap"); err != nil {
		return own, err
	}
	if targetMesh == nil {
		return own, newError("snap", target.Center, ErrInvalidGeometry, fmt.Errorf("nil target mesh"))
	}
	// 记录方向为 A-B，A 放到目标 A、B 放到目标 B 即与目标同向
	posA, posB := targetMesh.Positions[target.Edge.A], targetMesh.Positions[target.Edge.B]
	Mesh.SetPosition(b.mesh, own.Edge.A, posA)
	Mesh.SetPosition(b.mesh, own.Edge.B, posB)
	b.UpdateMesh()

	rec, ok := b.edges.Record(own.Edge)
	if !ok {
		return own, newError("snap", own.Center, ErrNotFound, fmt.Errorf("%s: edge %v vanished", b.name, own.Edge))
	}
	return rec, nil
}

// Adopt 接管合并后的网格
func (b *MeshBuilder) Adopt(m *Mesh.Mesh) {
	b.mesh = m
	b.edges.SetMesh(m)
	b.faces.SetMesh(m)
}

// Release 释放网格（道路已被合并进其他道路）
func (b *MeshBuilder) Release() {
	b.mesh = nil
	if b.edges != nil {
		b.edges.SetMesh(nil)
	}
	if b.faces != nil {
		b.faces.SetMesh(nil)
	}
}

// Buffers 渲染缓冲
func (b *MeshBuilder) Buffers(uvScale float64) (Mesh.Buffers, error) {
	if err := b.built("buffers"); err != nil {
		return Mesh.Buffers{}, err
	}
	return Mesh.ToBuffers(b.mesh, uvScale), nil
}
