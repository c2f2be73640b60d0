package Geometry

import (
	"fmt"
	"log"
	"math"

	"github.com/GrainArc/RoadMesh/Mesh"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/peterstace/simplefeatures/rtree"
)

const (
	atPointEpsilon = 1e-6
	tieEpsilon     = 1e-9
)

type bevelRecord struct {
	faceID int
	dir    r2.Point
	index  int
}

// EdgeIndex 网格边快照的索引。任何网格变动之后都必须 Refresh 才能继续查询。
type EdgeIndex struct {
	mesh      *Mesh.Mesh
	points    []r2.Point
	terminals map[Mesh.Edge]int
	opts      Options

	records []EdgeRecord
	byEdge  map[Mesh.Edge]int
	tree    *rtree.RTree

	bevels  []bevelRecord
	beveled map[r2.Point]int
}

// NewEdgeIndex 创建边索引并立即计算一次
func NewEdgeIndex(m *Mesh.Mesh, points []r2.Point, opts Options) *EdgeIndex {
	ix := &EdgeIndex{
		mesh:      m,
		points:    append([]r2.Point(nil), points...),
		terminals: make(map[Mesh.Edge]int),
		opts:      opts,
		beveled:   make(map[r2.Point]int),
	}
	ix.Refresh()
	return ix
}

// SetTerminal 登记端头边（按顶点标识），平移之后仍按端头处理
func (ix *EdgeIndex) SetTerminal(e Mesh.Edge, pointIndex int) {
	ix.terminals[e.Key()] = pointIndex
	ix.Refresh()
}

// SetMesh 替换网格（合并之后），并重算
func (ix *EdgeIndex) SetMesh(m *Mesh.Mesh) {
	ix.mesh = m
	ix.Refresh()
}

// Refresh 从当前网格拓扑整体重算所有边快照及分类
func (ix *EdgeIndex) Refresh() {
	ix.records = ix.records[:0]
	ix.byEdge = make(map[Mesh.Edge]int)
	if ix.mesh == nil {
		ix.tree = rtree.BulkLoad(nil)
		return
	}

	last := len(ix.points) - 1
	for _, e := range ix.mesh.UniqueEdges() {
		rec := NewEdgeRecord(ix.mesh, e)
		if idx, ok := ix.shapingIndex(rec.Center); ok {
			rec.Index = idx
			rec.Internal = idx > 0 && idx < last
		}
		if idx, ok := ix.terminals[e.Key()]; ok && !rec.Internal {
			rec.Index = idx
		}
		ix.byEdge[e.Key()] = len(ix.records)
		ix.records = append(ix.records, rec)
	}

	// 倒角面上与原边平行的两条侧边
	for _, b := range ix.bevels {
		f := ix.mesh.FaceByID(b.faceID)
		if f == nil {
			continue
		}
		for _, e := range ix.mesh.FaceEdges(f) {
			i, ok := ix.byEdge[e.Key()]
			if !ok {
				continue
			}
			if math.Abs(ix.records[i].Dir.Dot(b.dir)) > ix.opts.BevelSideDot {
				ix.records[i].Internal = true
				ix.records[i].Index = b.index
			}
		}
	}

	items := make([]rtree.BulkItem, 0, len(ix.records))
	for i, rec := range ix.records {
		if !rec.Valid {
			continue
		}
		items = append(items, rtree.BulkItem{
			Box:      rtree.Box{MinX: rec.Center.X, MinY: rec.Center.Y, MaxX: rec.Center.X, MaxY: rec.Center.Y},
			RecordID: i,
		})
	}
	ix.tree = rtree.BulkLoad(items)
}

func (ix *EdgeIndex) shapingIndex(c r2.Point) (int, bool) {
	for i, p := range ix.points {
		if p.Sub(c).Norm() < ix.opts.InternalMargin {
			return i, true
		}
	}
	return -1, false
}

// Records 当前快照的副本
func (ix *EdgeIndex) Records() []EdgeRecord {
	return append([]EdgeRecord(nil), ix.records...)
}

// Len 快照中的边数
func (ix *EdgeIndex) Len() int {
	return len(ix.records)
}

// Record 按边（与方向无关）查找当前快照
func (ix *EdgeIndex) Record(e Mesh.Edge) (EdgeRecord, bool) {
	i, ok := ix.byEdge[e.Key()]
	if !ok {
		return EdgeRecord{Edge: e, Index: -1}, false
	}
	return ix.records[i], true
}

// Query 返回中点离 p 最近的指定类型的边。
// excludeAtPoint 为 true 时忽略中点与 p 重合的边；无效边永远不会返回。
func (ix *EdgeIndex) Query(p r2.Point, kind EdgeKind, excludeAtPoint bool) (EdgeRecord, bool) {
	return ix.QueryFunc(p, func(r EdgeRecord) bool { return r.Matches(kind) }, excludeAtPoint)
}

// QueryFunc 与 Query 相同，但由调用方给出筛选条件。距离相同时取先出现的边。
func (ix *EdgeIndex) QueryFunc(p r2.Point, accept func(EdgeRecord) bool, excludeAtPoint bool) (EdgeRecord, bool) {
	best, bestDist := -1, math.Inf(1)
	box := rtree.Box{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
	_ = ix.tree.PrioritySearch(box, func(id int) error {
		rec := ix.records[id]
		d := rec.Center.Sub(p).Norm()
		if best >= 0 && d > bestDist+tieEpsilon {
			return rtree.Stop
		}
		if !rec.Valid || !accept(rec) {
			return nil
		}
		if excludeAtPoint && d < atPointEpsilon {
			return nil
		}
		if best < 0 || id < best {
			best, bestDist = id, d
		}
		return nil
	})
	if best < 0 {
		return EdgeRecord{Index: -1}, false
	}
	return ix.records[best], true
}

// IsBeveled 该点是否已经倒角
func (ix *EdgeIndex) IsBeveled(p r2.Point) bool {
	_, ok := ix.beveled[p]
	return ok
}

// BevelAt 在离 p 最近的内部边（找不到时退回端头边）上倒角，返回新面。
// 同一个点重复调用返回缓存的面，网格只修改一次。
func (ix *EdgeIndex) BevelAt(p r2.Point) (*Mesh.Face, error) {
	if id, ok := ix.beveled[p]; ok {
		if f := ix.mesh.FaceByID(id); f != nil {
			log.Printf("点 [%.3f, %.3f] 已倒角: %s", p.X, p.Y, ix.mesh.Name)
			return f, nil
		}
		delete(ix.beveled, p)
	}

	target, ok := ix.Query(p, KindInternal, false)
	if !ok {
		target, ok = ix.Query(p, KindCap, false)
	}
	if !ok {
		return nil, newError("bevel", p, ErrNotFound, fmt.Errorf("no internal or cap edge in %s", ix.mesh.Name))
	}

	face, err := Mesh.BevelEdge(ix.mesh, target.Edge, target.Length/2)
	if err != nil {
		return nil, newError("bevel", p, ErrMutationRejected, err)
	}
	ix.bevels = append(ix.bevels, bevelRecord{faceID: face.ID, dir: target.Dir, index: target.Index})
	ix.beveled[p] = face.ID
	ix.Refresh()
	return face, nil
}

// ResizeEdge 边长小于最小宽度时把两个端点沿边方向各向外推一半差值。
// 返回调整后的快照以及是否发生了调整。
func (ix *EdgeIndex) ResizeEdge(r EdgeRecord) (EdgeRecord, bool, error) {
	if !r.Valid {
		return r, false, newError("resize", r.Center, ErrInvalidGeometry, fmt.Errorf("%v", r))
	}
	if r.Length >= ix.opts.MinEdgeWidth-tieEpsilon {
		return r, false, nil
	}
	half := r.Dir.Mul((ix.opts.MinEdgeWidth - r.Length) / 2)
	Mesh.TranslateVertices(ix.mesh, []int{r.Edge.A}, r3.Vector{X: half.X, Y: half.Y})
	Mesh.TranslateVertices(ix.mesh, []int{r.Edge.B}, r3.Vector{X: -half.X, Y: -half.Y})
	ix.Refresh()

	resized, ok := ix.Record(r.Edge)
	if !ok {
		return r, false, newError("resize", r.Center, ErrNotFound, fmt.Errorf("edge %v vanished", r.Edge))
	}
	return resized, true, nil
}

// CalculateDirectionFromEdge 从给定边出发找最近的内部/端头边，再找它最近的相邻内部/端头边，
// 按形状点序号从小到大给出道路走向。
func (ix *EdgeIndex) CalculateDirectionFromEdge(r EdgeRecord) (r2.Point, error) {
	shaping := func(rec EdgeRecord) bool { return rec.Index >= 0 }

	first, ok := ix.QueryFunc(r.Center, shaping, false)
	if !ok {
		return r2.Point{}, newError("direction", r.Center, ErrNotFound, fmt.Errorf("first edge"))
	}
	second, ok := ix.QueryFunc(first.Center, shaping, true)
	if !ok {
		return r2.Point{}, newError("direction", r.Center, ErrNotFound, fmt.Errorf("second edge"))
	}

	var dir r2.Point
	if first.Index > second.Index {
		dir = first.Center.Sub(second.Center)
	} else {
		dir = second.Center.Sub(first.Center)
	}
	if dir.Norm() == 0 {
		return r2.Point{}, newError("direction", r.Center, ErrInvalidGeometry, fmt.Errorf("coincident edges"))
	}
	return dir.Normalize(), nil
}

// FaceEdges 面上所有边的快照
func (ix *EdgeIndex) FaceEdges(f *Mesh.Face) []EdgeRecord {
	var out []EdgeRecord
	for _, e := range ix.mesh.FaceEdges(f) {
		if rec, ok := ix.Record(e); ok {
			out = append(out, rec)
		}
	}
	return out
}

// FaceBorderEdges 面上没有相邻面的边
func (ix *EdgeIndex) FaceBorderEdges(f *Mesh.Face) []EdgeRecord {
	var out []EdgeRecord
	for _, e := range ix.mesh.FaceEdges(f) {
		if !ix.mesh.IsBorder(e) {
			continue
		}
		if rec, ok := ix.Record(e); ok {
			out = append(out, rec)
		}
	}
	return out
}

// CheckInvariant 内部边覆盖的形状点序号数必须等于 N 减去端点数
func (ix *EdgeIndex) CheckInvariant() error {
	n := len(ix.points)
	terminals := n
	if terminals > 2 {
		terminals = 2
	}
	expected := n - terminals

	covered := make(map[int]bool)
	internal := 0
	for _, rec := range ix.records {
		if !rec.Internal {
			continue
		}
		internal++
		if rec.Index > 0 && rec.Index < n-1 {
			covered[rec.Index] = true
		}
	}
	if len(ix.bevels) == 0 && internal != expected {
		return newError("invariant", r2.Point{}, ErrInvariantViolation,
			fmt.Errorf("%s: %d internal edges, expected %d", ix.mesh.Name, internal, expected))
	}
	if len(covered) != expected {
		return newError("invariant", r2.Point{}, ErrInvariantViolation,
			fmt.Errorf("%s: %d shaping points covered, expected %d", ix.mesh.Name, len(covered), expected))
	}
	return nil
}
