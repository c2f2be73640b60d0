package Mesh

import (
	"github.com/peterstace/simplefeatures/rtree"
)

// WeldVertices 合并距离小于 tolerance 的顶点，返回被合并掉的顶点数。
// 合并后退化（少于3个不同顶点）的面会被删除。
func WeldVertices(m *Mesh, tolerance float64) int {
	used := m.UsedVertices()
	if len(used) == 0 || tolerance <= 0 {
		return 0
	}

	items := make([]rtree.BulkItem, 0, len(used))
	for _, v := range used {
		p := m.Positions[v]
		items = append(items, rtree.BulkItem{
			Box:      rtree.Box{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y},
			RecordID: v,
		})
	}
	tree := rtree.BulkLoad(items)

	remap := make(map[int]int)
	for _, v := range used {
		if _, ok := remap[v]; ok {
			continue
		}
		remap[v] = v
		p := m.Positions[v]
		box := rtree.Box{MinX: p.X - tolerance, MinY: p.Y - tolerance, MaxX: p.X + tolerance, MaxY: p.Y + tolerance}
		_ = tree.RangeSearch(box, func(other int) error {
			if _, ok := remap[other]; ok {
				return nil
			}
			if m.Positions[other].Distance(p) <= tolerance {
				remap[other] = v
			}
			return nil
		})
	}

	merged := 0
	for from, to := range remap {
		if from != to {
			merged++
		}
	}
	if merged == 0 {
		return 0
	}

	kept := m.Faces[:0]
	for _, f := range m.Faces {
		loop := make([]int, 0, len(f.Indexes))
		for _, idx := range f.Indexes {
			idx = remap[idx]
			if len(loop) > 0 && loop[len(loop)-1] == idx {
				continue
			}
			loop = append(loop, idx)
		}
		for len(loop) > 1 && loop[0] == loop[len(loop)-1] {
			loop = loop[:len(loop)-1]
		}
		if len(loop) < 3 {
			continue
		}
		f.Indexes = loop
		kept = append(kept, f)
	}
	m.Faces = kept
	return merged
}
