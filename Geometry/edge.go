package Geometry

import (
	"fmt"

	"github.com/GrainArc/RoadMesh/Mesh"
	"github.com/golang/geo/r2"
)

// EdgeKind 边查询类型
type EdgeKind int

const (
	KindAny EdgeKind = iota
	KindInternal
	KindExternal
	KindCap
)

func (k EdgeKind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindInternal:
		return "internal"
	case KindExternal:
		return "external"
	case KindCap:
		return "cap"
	}
	return fmt.Sprintf("EdgeKind(%d)", int(k))
}

// EdgeRecord 某一时刻网格边的派生快照，网格变动后整体重算
type EdgeRecord struct {
	Edge     Mesh.Edge
	PosA     r2.Point
	PosB     r2.Point
	Center   r2.Point
	Dir      r2.Point // (PosA-PosB) 归一化
	Length   float64
	Internal bool
	Index    int // 形状点序号，-1 表示未设置
	Valid    bool
}

// NewEdgeRecord 根据网格当前顶点位置计算边快照
func NewEdgeRecord(m *Mesh.Mesh, e Mesh.Edge) EdgeRecord {
	a, b := m.Position2(e.A), m.Position2(e.B)
	d := a.Sub(b)
	length := d.Norm()
	return EdgeRecord{
		Edge:   e,
		PosA:   a,
		PosB:   b,
		Center: a.Add(b).Mul(0.5),
		Dir:    d.Normalize(),
		Length: length,
		Index:  -1,
		Valid:  e.IsValid() && length > 0,
	}
}

// IsCap 非内部且位于路径端点
func (r EdgeRecord) IsCap() bool {
	return !r.Internal && r.Index >= 0
}

// Kind 边的分类
func (r EdgeRecord) Kind() EdgeKind {
	switch {
	case r.Internal:
		return KindInternal
	case r.IsCap():
		return KindCap
	}
	return KindExternal
}

// Matches 判断是否满足查询类型；External 包含端头边
func (r EdgeRecord) Matches(kind EdgeKind) bool {
	switch kind {
	case KindAny:
		return true
	case KindInternal:
		return r.Internal
	case KindExternal:
		return !r.Internal
	case KindCap:
		return r.IsCap()
	}
	return false
}

// CloserEndpoint 返回离 p 更近的端点
func (r EdgeRecord) CloserEndpoint(p r2.Point) r2.Point {
	if r.PosA.Sub(p).Norm() < r.PosB.Sub(p).Norm() {
		return r.PosA
	}
	return r.PosB
}

func (r EdgeRecord) String() string {
	return fmt.Sprintf("edge[%d-%d %s c=(%.3f,%.3f) len=%.3f idx=%d]",
		r.Edge.A, r.Edge.B, r.Kind(), r.Center.X, r.Center.Y, r.Length, r.Index)
}
