package Intersection

import (
	"github.com/GrainArc/RoadMesh/Road"
	"github.com/golang/geo/r2"
)

// Group 同一条主路同一个点上的所有次路
type Group struct {
	Point       r2.Point
	Main        *Road.Segment
	MainIndex   int
	Connections []Road.ConnectionPoint
}

// Minors 组内次路名称
func (g Group) Minors() []string {
	out := make([]string, 0, len(g.Connections))
	for _, cp := range g.Connections {
		out = append(out, segmentName(cp.Minor))
	}
	return out
}

type groupKey struct {
	main  *Road.Segment
	index int
}

// GroupConnections 按 (主路, 点序号) 分组，保持首次出现的顺序
func GroupConnections(cps []Road.ConnectionPoint) []Group {
	var groups []Group
	pos := make(map[groupKey]int)
	for _, cp := range cps {
		k := groupKey{cp.Main, cp.MainIndex}
		i, ok := pos[k]
		if !ok {
			i = len(groups)
			pos[k] = i
			groups = append(groups, Group{Point: cp.Location, Main: cp.Main, MainIndex: cp.MainIndex})
		}
		groups[i].Connections = append(groups[i].Connections, cp)
	}
	return groups
}

// ResolveGroups 按组的顺序依次处理各连接，同一组的连接相邻处理。
// 同一点的倒角面由 BevelAt 的点缓存共用，这里不单独倒角。
func (r *Resolver) ResolveGroups(groups []Group) Report {
	var cps []Road.ConnectionPoint
	for _, g := range groups {
		cps = append(cps, g.Connections...)
	}
	return r.ResolveAll(cps)
}
