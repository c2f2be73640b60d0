package Geometry

import (
	"fmt"
	"sort"

	"github.com/GrainArc/RoadMesh/Mesh"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// FaceRecord 面及其中心（各边中点的平均）
type FaceRecord struct {
	Face   *Mesh.Face
	Center r2.Point
}

// FaceIndex 网格面的索引，与 EdgeIndex 一样在网格变动后整体重算
type FaceIndex struct {
	mesh    *Mesh.Mesh
	opts    Options
	records []FaceRecord
}

// NewFaceIndex 创建面索引
func NewFaceIndex(m *Mesh.Mesh, opts Options) *FaceIndex {
	fx := &FaceIndex{mesh: m, opts: opts}
	fx.Refresh()
	return fx
}

// SetMesh 替换网格并重算
func (fx *FaceIndex) SetMesh(m *Mesh.Mesh) {
	fx.mesh = m
	fx.Refresh()
}

// Refresh 重算所有面中心
func (fx *FaceIndex) Refresh() {
	fx.records = fx.records[:0]
	if fx.mesh == nil {
		return
	}
	for _, f := range fx.mesh.Faces {
		c := fx.mesh.FaceCenter(f)
		fx.records = append(fx.records, FaceRecord{Face: f, Center: r2.Point{X: c.X, Y: c.Y}})
	}
}

// Records 当前面快照的副本
func (fx *FaceIndex) Records() []FaceRecord {
	return append([]FaceRecord(nil), fx.records...)
}

// FacesOrderedByDistance 按面中心到 p 的距离升序返回所有面；少于两个面时失败
func (fx *FaceIndex) FacesOrderedByDistance(p r2.Point) ([]FaceRecord, error) {
	if len(fx.records) < 2 {
		return nil, newError("faces", p, ErrInvalidGeometry, fmt.Errorf("%d faces", len(fx.records)))
	}
	ordered := fx.Records()
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Center.Sub(p).Norm() < ordered[j].Center.Sub(p).Norm()
	})
	return ordered, nil
}

// MergeClosestTwo 合并离 p 最近的两个面
func (fx *FaceIndex) MergeClosestTwo(p r2.Point) (*Mesh.Face, error) {
	ordered, err := fx.FacesOrderedByDistance(p)
	if err != nil {
		return nil, err
	}
	f, err := Mesh.MergeFaces(fx.mesh, ordered[0].Face, ordered[1].Face)
	if err != nil {
		return nil, newError("merge", p, ErrMutationRejected, err)
	}
	fx.Refresh()
	return f, nil
}

// MoveBackClosestFace 把最近的面沿两个最近面中心连线方向平移一半距离；
// 两个面中心过近时一起平移，两面共享的顶点反向回推，返回移动后最近面的中心。
func (fx *FaceIndex) MoveBackClosestFace(p r2.Point) (r2.Point, error) {
	ordered, err := fx.FacesOrderedByDistance(p)
	if err != nil {
		return p, err
	}
	f0, f1 := ordered[0], ordered[1]
	offset := f1.Center.Sub(f0.Center)
	if offset.Norm() == 0 {
		return p, newError("move back", p, ErrInvalidGeometry, fmt.Errorf("coincident face centers"))
	}
	shift := offset.Mul(0.5)

	move := append([]int(nil), f0.Face.Indexes...)
	if offset.Norm() < fx.opts.FaceMergeDistance {
		move = append(move, f1.Face.Indexes...)
	}
	var shared []int
	for _, v := range f0.Face.Indexes {
		if f1.Face.Contains(v) {
			shared = append(shared, v)
		}
	}

	Mesh.TranslateVertices(fx.mesh, move, r3.Vector{X: shift.X, Y: shift.Y})
	Mesh.TranslateVertices(fx.mesh, shared, r3.Vector{X: -shift.X, Y: -shift.Y})
	fx.Refresh()

	c := fx.mesh.FaceCenter(f0.Face)
	return r2.Point{X: c.X, Y: c.Y}, nil
}
