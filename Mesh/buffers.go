package Mesh

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Buffers 渲染用的顶点/UV/子网格三角形索引缓冲
type Buffers struct {
	Vertices  []r3.Vector
	UVs       []r2.Point
	Submeshes [][]int
}

// ToBuffers 把网格压缩并按扇形三角化为渲染缓冲，UV 取水平面坐标除以 uvScale
func ToBuffers(m *Mesh, uvScale float64) Buffers {
	if uvScale <= 0 {
		uvScale = 1
	}
	var buf Buffers
	remap := make(map[int]int)
	for _, v := range m.UsedVertices() {
		remap[v] = len(buf.Vertices)
		p := m.Positions[v]
		buf.Vertices = append(buf.Vertices, p)
		buf.UVs = append(buf.UVs, r2.Point{X: p.X / uvScale, Y: p.Y / uvScale})
	}
	var tris []int
	for _, f := range m.Faces {
		for i := 1; i+1 < len(f.Indexes); i++ {
			tris = append(tris, remap[f.Indexes[0]], remap[f.Indexes[i]], remap[f.Indexes[i+1]])
		}
	}
	buf.Submeshes = [][]int{tris}
	return buf
}
