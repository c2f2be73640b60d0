package Mesh

import (
	"fmt"

	"github.com/golang/geo/r3"
)

const geomEpsilon = 1e-9

// TranslateVertices 平移一组顶点，重复索引只平移一次
func TranslateVertices(m *Mesh, indexes []int, offset r3.Vector) {
	done := make(map[int]bool, len(indexes))
	for _, idx := range indexes {
		if done[idx] || idx < 0 || idx >= len(m.Positions) {
			continue
		}
		done[idx] = true
		m.Positions[idx] = m.Positions[idx].Add(offset)
	}
}

// SetPosition 直接设置顶点位置
func SetPosition(m *Mesh, v int, p r3.Vector) {
	m.Positions[v] = p
}

// BevelEdge 在边上倒角：沿相邻面各回退 amount，在原边位置插入一个新的四边形面。
// 只有一个相邻面（端头边）时原顶点保留为新面的一侧。
func BevelEdge(m *Mesh, e Edge, amount float64) (*Face, error) {
	if !e.IsValid() {
		return nil, fmt.Errorf("%w: invalid edge %v", ErrBevelRejected, e)
	}
	if amount <= geomEpsilon {
		return nil, fmt.Errorf("%w: non-positive amount %.4f", ErrBevelRejected, amount)
	}
	faces := m.EdgeFaces(e)
	switch len(faces) {
	case 0:
		return nil, fmt.Errorf("%w: %v", ErrEdgeNotFound, e)
	case 1, 2:
	default:
		return nil, fmt.Errorf("%w: edge %v shared by %d faces", ErrBevelRejected, e, len(faces))
	}

	// f1 中含有向边 u->v，f2（若存在）含 v->u
	f1 := faces[0]
	u, v := e.A, e.B
	if !f1.hasDirected(u, v) {
		u, v = v, u
	}
	var f2 *Face
	if len(faces) == 2 {
		f2 = faces[1]
		if !f2.hasDirected(v, u) {
			return nil, fmt.Errorf("%w: inconsistent winding around %v", ErrBevelRejected, e)
		}
	}

	u1, err := pulled(m, u, f1.prev(u), amount)
	if err != nil {
		return nil, err
	}
	v1, err := pulled(m, v, f1.next(v), amount)
	if err != nil {
		return nil, err
	}
	u2, v2 := m.Positions[u], m.Positions[v]
	if f2 != nil {
		if u2, err = pulled(m, u, f2.next(u), amount); err != nil {
			return nil, err
		}
		if v2, err = pulled(m, v, f2.prev(v), amount); err != nil {
			return nil, err
		}
	}

	// 校验全部通过后再修改网格
	iu1, iv1 := m.AddVertex(u1), m.AddVertex(v1)
	f1.replace(u, iu1)
	f1.replace(v, iv1)
	iu2, iv2 := u, v
	if f2 != nil {
		iu2, iv2 = m.AddVertex(u2), m.AddVertex(v2)
		f2.replace(u, iu2)
		f2.replace(v, iv2)
	}
	return m.AddFace(iu1, iu2, iv2, iv1), nil
}

// pulled 计算顶点 from 沿到 toward 的方向移动 amount 后的位置
func pulled(m *Mesh, from, toward int, amount float64) (r3.Vector, error) {
	d := m.Positions[toward].Sub(m.Positions[from])
	d.Z = 0
	length := d.Norm()
	if length <= amount+geomEpsilon {
		return r3.Vector{}, fmt.Errorf("%w: side %d-%d length %.4f <= %.4f", ErrBevelRejected, from, toward, length, amount)
	}
	return m.Positions[from].Add(d.Mul(amount / length)), nil
}

// MergeFaces 合并两个只共享一条边的相邻面，返回新面（沿用 a 的ID）
func MergeFaces(m *Mesh, a, b *Face) (*Face, error) {
	if a == nil || b == nil || a == b {
		return nil, fmt.Errorf("%w: need two distinct faces", ErrMergeRejected)
	}
	var shared []Edge
	for _, e := range m.FaceEdges(a) {
		if b.hasDirected(e.B, e.A) {
			shared = append(shared, e)
		}
	}
	if len(shared) != 1 {
		return nil, fmt.Errorf("%w: faces %d and %d share %d edges", ErrMergeRejected, a.ID, b.ID, len(shared))
	}
	x, y := shared[0].A, shared[0].B

	// a 中从 y 走到 x，再接 b 中 x 之后到 y 之前的部分
	var loop []int
	for i, v := a.position(y), 0; v < len(a.Indexes); v++ {
		idx := a.Indexes[(i+v)%len(a.Indexes)]
		loop = append(loop, idx)
		if idx == x {
			break
		}
	}
	for idx := b.next(x); idx != y; idx = b.next(idx) {
		loop = append(loop, idx)
	}

	a.Indexes = loop
	DeleteFace(m, b)
	return a, nil
}

// DeleteFace 从网格中删除面
func DeleteFace(m *Mesh, f *Face) {
	for i, face := range m.Faces {
		if face == f {
			m.Faces = append(m.Faces[:i], m.Faces[i+1:]...)
			return
		}
	}
}

// CombineMeshes 把多个网格拼接为一个，顶点索引按偏移重排。
// 第一个网格的面ID保持不变，其余网格的面重新编号。
func CombineMeshes(meshes ...*Mesh) *Mesh {
	out := New("")
	first := true
	for _, src := range meshes {
		if src == nil {
			continue
		}
		offset := len(out.Positions)
		out.Positions = append(out.Positions, src.Positions...)
		for _, f := range src.Faces {
			indexes := make([]int, len(f.Indexes))
			for j, idx := range f.Indexes {
				indexes[j] = idx + offset
			}
			if first {
				out.Faces = append(out.Faces, &Face{ID: f.ID, Indexes: indexes})
				continue
			}
			out.AddFace(indexes...)
		}
		if first {
			out.Name = src.Name
			out.nextID = src.nextID
			first = false
		}
	}
	return out
}
