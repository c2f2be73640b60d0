package Geometry

import (
	"fmt"
	"math"
	"sort"
)

// Scoring 候选边的评分方式
type Scoring int

const (
	// ByDistance 在方向达标的候选中取中点最近的
	ByDistance Scoring = iota
	// ByCombined 取 alignment + (1 - distance) 最大的
	ByCombined
)

// ProximityOptions 方向阈值阶梯
type ProximityOptions struct {
	Start   float64
	Step    float64
	Floor   float64
	Scoring Scoring
}

// DefaultProximityOptions 默认阈值 0.65，每次放宽 0.05，低于 0.2 失败
func DefaultProximityOptions() ProximityOptions {
	return ProximityOptions{Start: 0.65, Step: 0.05, Floor: 0.2, Scoring: ByDistance}
}

type proximity struct {
	edge      EdgeRecord
	distance  float64
	alignment float64
}

// ProximitySelector 在多个几何上都说得通的候选边中挑选与目标边最匹配的一条
type ProximitySelector struct {
	candidates []EdgeRecord
	opts       ProximityOptions
}

// NewProximitySelector 创建选择器
func NewProximitySelector(candidates []EdgeRecord, opts ProximityOptions) *ProximitySelector {
	return &ProximitySelector{
		candidates: append([]EdgeRecord(nil), candidates...),
		opts:       opts,
	}
}

// SelectBest 先按 |dot| 过滤，过滤后为空就逐级放宽阈值，直到低于下限
func (s *ProximitySelector) SelectBest(target EdgeRecord) (EdgeRecord, error) {
	var all []proximity
	for _, c := range s.candidates {
		if !c.Valid {
			continue
		}
		all = append(all, proximity{
			edge:      c,
			distance:  c.Center.Sub(target.Center).Norm(),
			alignment: math.Abs(c.Dir.Dot(target.Dir)),
		})
	}
	if len(all) == 0 {
		return EdgeRecord{Index: -1}, newError("proximity", target.Center, ErrNotFound, fmt.Errorf("no valid candidates"))
	}

	step := s.opts.Step
	if step <= 0 {
		step = 0.05
	}
	for threshold := s.opts.Start; threshold >= s.opts.Floor-tieEpsilon; threshold -= step {
		var passing []proximity
		for _, p := range all {
			if p.alignment > threshold {
				passing = append(passing, p)
			}
		}
		if len(passing) == 0 {
			continue
		}
		switch s.opts.Scoring {
		case ByCombined:
			sort.SliceStable(passing, func(i, j int) bool {
				return passing[i].alignment+(1-passing[i].distance) > passing[j].alignment+(1-passing[j].distance)
			})
		default:
			sort.SliceStable(passing, func(i, j int) bool {
				return passing[i].distance < passing[j].distance
			})
		}
		return passing[0].edge, nil
	}
	return EdgeRecord{Index: -1}, newError("proximity", target.Center, ErrNotFound,
		fmt.Errorf("no candidate aligned above %.2f", s.opts.Floor))
}
