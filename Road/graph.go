package Road

import (
	"log"
	"sort"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// Options 片段合并与路口检测参数
type Options struct {
	Tolerance         float64        // 端点重合距离
	JoinAcrossNames   bool           // 最后再不分名字合并一次
	SimplifyTolerance float64        // 合并前的抽稀阈值，0 表示不抽稀
	Mode              ConnectionMode // 路口点的取舍方式
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{Tolerance: SamePointDistance, Mode: FirstMatch}
}

// Stats 合并统计
type Stats struct {
	Fragments     int `json:"fragments"`
	Joins         int `json:"joins"`
	SimilarGroups int `json:"similarGroups"`
	Roads         int `json:"roads"`
	Connections   int `json:"connections"`
}

// GraphBuilder 把片段合并为道路并找出路口
type GraphBuilder struct {
	opts  Options
	stats Stats
}

// NewGraphBuilder 创建
func NewGraphBuilder(opts Options) *GraphBuilder {
	if opts.Tolerance <= 0 {
		opts.Tolerance = SamePointDistance
	}
	return &GraphBuilder{opts: opts}
}

// Stats 最近一次处理的统计
func (g *GraphBuilder) Stats() Stats {
	return g.stats
}

// JoinFragments 同名片段反复合并直到不动点，再按相似名字合并一轮，返回按名字排序的有效道路
func (g *GraphBuilder) JoinFragments(fragments []*Segment) []*Segment {
	g.stats = Stats{Fragments: len(fragments)}

	var roads []*Segment
	for _, s := range fragments {
		if s == nil {
			continue
		}
		s.Tolerance = g.opts.Tolerance
		if g.opts.SimplifyTolerance > 0 {
			simplifySegment(s, g.opts.SimplifyTolerance)
		}
		roads = append(roads, s)
	}

	roads = g.joinBySameName(roads)
	roads = g.joinBySimilarName(roads)
	if g.opts.JoinAcrossNames {
		g.stats.Joins += joinGroup(roads)
		roads = validSorted(roads)
	}

	g.stats.Roads = len(roads)
	log.Printf("片段合并: %d -> %d", g.stats.Fragments, g.stats.Roads)
	return roads
}

func (g *GraphBuilder) joinBySameName(roads []*Segment) []*Segment {
	for {
		var names []string
		groups := make(map[string][]*Segment)
		for _, s := range roads {
			if _, ok := groups[s.Name]; !ok {
				names = append(names, s.Name)
			}
			groups[s.Name] = append(groups[s.Name], s)
		}
		joined := 0
		for _, name := range names {
			joined += joinGroup(groups[name])
		}
		g.stats.Joins += joined
		if joined == 0 {
			break
		}
	}
	roads = validSorted(roads)
	log.Printf("同名合并后有效道路: %d/%d", len(roads), g.stats.Fragments)
	return roads
}

// joinBySimilarName 每条道路收集排在它后面、名字只差一个记号且尚未被收集的道路，组内按端点合并
func (g *GraphBuilder) joinBySimilarName(roads []*Segment) []*Segment {
	processed := make(map[*Segment]bool)
	for i, base := range roads {
		if processed[base] {
			continue
		}
		group := []*Segment{base}
		for j := len(roads) - 1; j > i; j-- {
			other := roads[j]
			if processed[other] || !IsSimilarName(base.Name, other.Name) {
				continue
			}
			group = append(group, other)
			processed[other] = true
		}
		if len(group) == 1 {
			continue
		}
		g.stats.SimilarGroups++
		names := make([]string, 0, len(group)-1)
		for _, s := range group[1:] {
			names = append(names, s.Name)
		}
		log.Printf("道路 [%s] 找到相似名称 %d 条: %s", base.Name, len(names), strings.Join(names, ","))
		g.stats.Joins += joinGroup(group)
	}
	return validSorted(roads)
}

// joinGroup 组内两两尝试首尾相接，直到一轮没有任何合并，返回合并次数
func joinGroup(group []*Segment) int {
	total := 0
	for {
		joined := 0
		for _, s := range group {
			if !s.IsValid() {
				continue
			}
			for _, other := range group {
				if s.Join(other) {
					joined++
				}
			}
		}
		total += joined
		if joined == 0 {
			return total
		}
	}
}

func validSorted(roads []*Segment) []*Segment {
	var out []*Segment
	for _, s := range roads {
		if s.IsValid() {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FindConnections 对所有有序道路对检测路口，每对最多一个
func (g *GraphBuilder) FindConnections(roads []*Segment) []ConnectionPoint {
	var out []ConnectionPoint
	for _, main := range roads {
		for _, minor := range roads {
			if main == minor {
				continue
			}
			if cp, ok := main.IsConnectedWith(minor, g.opts.Mode); ok {
				out = append(out, cp)
			}
		}
	}
	g.stats.Connections = len(out)
	log.Printf("找到路口 %d 个", len(out))
	return out
}

// simplifySegment 用 Douglas-Peucker 抽稀水平投影，保留原始点（含高度）
func simplifySegment(s *Segment, tolerance float64) {
	if len(s.Points) < 3 {
		return
	}
	ls := make(orb.LineString, len(s.Points))
	for i, p := range s.Points {
		ls[i] = orb.Point{p.X, p.Y}
	}
	kept, ok := simplify.DouglasPeucker(tolerance).Simplify(ls).(orb.LineString)
	if !ok || len(kept) < 2 || len(kept) == len(s.Points) {
		return
	}
	pts := make([]r3.Vector, 0, len(kept))
	k := 0
	for _, p := range s.Points {
		if k < len(kept) && p.X == kept[k][0] && p.Y == kept[k][1] {
			pts = append(pts, p)
			k++
		}
	}
	s.Points = pts
}
