package Mesh

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Face 多边形面，Indexes 为按逆时针排列的顶点索引环
type Face struct {
	ID      int
	Indexes []int
}

// Contains 判断面是否引用了顶点
func (f *Face) Contains(v int) bool {
	return f.position(v) >= 0
}

func (f *Face) position(v int) int {
	for i, idx := range f.Indexes {
		if idx == v {
			return i
		}
	}
	return -1
}

// next 返回环上 v 之后的顶点
func (f *Face) next(v int) int {
	i := f.position(v)
	return f.Indexes[(i+1)%len(f.Indexes)]
}

// prev 返回环上 v 之前的顶点
func (f *Face) prev(v int) int {
	i := f.position(v)
	return f.Indexes[(i-1+len(f.Indexes))%len(f.Indexes)]
}

// hasDirected 判断面环中是否存在有向边 a->b
func (f *Face) hasDirected(a, b int) bool {
	i := f.position(a)
	if i < 0 {
		return false
	}
	return f.Indexes[(i+1)%len(f.Indexes)] == b
}

func (f *Face) replace(old, new int) {
	for i, idx := range f.Indexes {
		if idx == old {
			f.Indexes[i] = new
		}
	}
}

// Edge 由两个顶点索引组成的边
type Edge struct {
	A, B int
}

// Key 返回与方向无关的边键
func (e Edge) Key() Edge {
	if e.A > e.B {
		return Edge{A: e.B, B: e.A}
	}
	return e
}

// IsValid 两端点不同才是有效边
func (e Edge) IsValid() bool {
	return e.A != e.B
}

// Mesh 共享顶点的多边形网格
type Mesh struct {
	Name      string
	Positions []r3.Vector
	Faces     []*Face
	nextID    int
}

// New 创建空网格
func New(name string) *Mesh {
	return &Mesh{Name: name}
}

// AddVertex 添加顶点并返回索引
func (m *Mesh) AddVertex(p r3.Vector) int {
	m.Positions = append(m.Positions, p)
	return len(m.Positions) - 1
}

// AddFace 按给定顶点环添加面
func (m *Mesh) AddFace(indexes ...int) *Face {
	f := &Face{ID: m.nextID, Indexes: append([]int(nil), indexes...)}
	m.nextID++
	m.Faces = append(m.Faces, f)
	return f
}

// FaceCount 面数量
func (m *Mesh) FaceCount() int {
	return len(m.Faces)
}

// FaceByID 根据ID查找面
func (m *Mesh) FaceByID(id int) *Face {
	for _, f := range m.Faces {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// Position2 顶点的水平投影
func (m *Mesh) Position2(v int) r2.Point {
	p := m.Positions[v]
	return r2.Point{X: p.X, Y: p.Y}
}

// FaceEdges 面环上的有向边
func (m *Mesh) FaceEdges(f *Face) []Edge {
	edges := make([]Edge, 0, len(f.Indexes))
	for i, a := range f.Indexes {
		edges = append(edges, Edge{A: a, B: f.Indexes[(i+1)%len(f.Indexes)]})
	}
	return edges
}

// UniqueEdges 网格中所有不重复的边，按面和环的顺序给出，保留首次出现的方向
func (m *Mesh) UniqueEdges() []Edge {
	seen := make(map[Edge]bool)
	var edges []Edge
	for _, f := range m.Faces {
		for _, e := range m.FaceEdges(f) {
			if seen[e.Key()] {
				continue
			}
			seen[e.Key()] = true
			edges = append(edges, e)
		}
	}
	return edges
}

// EdgeFaces 使用该边（任一方向）的所有面
func (m *Mesh) EdgeFaces(e Edge) []*Face {
	var faces []*Face
	for _, f := range m.Faces {
		if f.hasDirected(e.A, e.B) || f.hasDirected(e.B, e.A) {
			faces = append(faces, f)
		}
	}
	return faces
}

// IsBorder 只被一个面使用的边为边界边
func (m *Mesh) IsBorder(e Edge) bool {
	return len(m.EdgeFaces(e)) == 1
}

// FaceCenter 面中心：各边中点的平均值
func (m *Mesh) FaceCenter(f *Face) r3.Vector {
	var sum r3.Vector
	edges := m.FaceEdges(f)
	if len(edges) == 0 {
		return sum
	}
	for _, e := range edges {
		sum = sum.Add(m.Positions[e.A].Add(m.Positions[e.B]).Mul(0.5))
	}
	return sum.Mul(1 / float64(len(edges)))
}

// Clone 深拷贝网格
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Name:      m.Name,
		Positions: append([]r3.Vector(nil), m.Positions...),
		nextID:    m.nextID,
	}
	for _, f := range m.Faces {
		c.Faces = append(c.Faces, &Face{ID: f.ID, Indexes: append([]int(nil), f.Indexes...)})
	}
	return c
}

// UsedVertices 被面引用的顶点索引（升序）
func (m *Mesh) UsedVertices() []int {
	used := make([]bool, len(m.Positions))
	for _, f := range m.Faces {
		for _, idx := range f.Indexes {
			used[idx] = true
		}
	}
	var out []int
	for i, ok := range used {
		if ok {
			out = append(out, i)
		}
	}
	return out
}
