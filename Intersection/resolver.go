package Intersection

import (
	"errors"
	"fmt"
	"log"

	"github.com/GrainArc/RoadMesh/Geometry"
	"github.com/GrainArc/RoadMesh/Mesh"
	"github.com/GrainArc/RoadMesh/Road"
	"github.com/golang/geo/r2"
)

// Options 路口处理参数
type Options struct {
	Combine       bool    // 处理完成后把次路网格并入主路
	WeldTolerance float64 // 合并后焊接顶点的距离
	Proximity     Geometry.ProximityOptions
}

// DefaultOptions 默认不合并，焊接距离 0.2
func DefaultOptions() Options {
	return Options{WeldTolerance: 0.2, Proximity: Geometry.DefaultProximityOptions()}
}

// Outcome 一个路口成功处理后的结果
type Outcome struct {
	Point      r2.Point            `json:"point"`
	MainRoad   string              `json:"mainRoad"`
	MinorRoad  string              `json:"minorRoad"`
	BevelFace  *Mesh.Face          `json:"-"`
	TargetEdge Geometry.EdgeRecord `json:"-"`
	MinorEdge  Geometry.EdgeRecord `json:"-"`
	Resized    bool                `json:"resized"`
	Combined   bool                `json:"combined"`
	Welded     int                 `json:"welded"`
}

// Report 一批路口的处理结果
type Report struct {
	Outcomes []Outcome
	Failures []*JunctionError
}

// Resolver 逐个处理路口：主路倒角、次路让位并延伸、对齐吸附，可选合并
type Resolver struct {
	opts Options
	// OnResult 每个路口处理完成后回调，err 为 *JunctionError 或 nil
	OnResult func(Outcome, error)
}

// NewResolver 创建
func NewResolver(opts Options) *Resolver {
	return &Resolver{opts: opts}
}

// ResolveAll 按顺序处理全部路口，失败的记录下来继续下一个
func (r *Resolver) ResolveAll(cps []Road.ConnectionPoint) Report {
	var rep Report
	for _, cp := range cps {
		out, err := r.Resolve(cp)
		if err != nil {
			var jerr *JunctionError
			if errors.As(err, &jerr) {
				rep.Failures = append(rep.Failures, jerr)
			}
			continue
		}
		rep.Outcomes = append(rep.Outcomes, out)
	}
	log.Printf("路口处理完成: 成功 %d, 失败 %d", len(rep.Outcomes), len(rep.Failures))
	return rep
}

// Resolve 处理一个路口。任何一步失败都直接返回，已做的修改不回滚
func (r *Resolver) Resolve(cp Road.ConnectionPoint) (out Outcome, err error) {
	out = Outcome{Point: cp.Location, MainRoad: segmentName(cp.Main), MinorRoad: segmentName(cp.Minor)}
	defer func() {
		if r.OnResult != nil {
			r.OnResult(out, err)
		}
	}()

	if !cp.Main.IsBuilt() || !cp.Minor.IsBuilt() {
		return out, r.fail(cp, StepPrepare, Geometry.ErrInvalidGeometry, fmt.Errorf("road mesh is not built"))
	}
	main, minor := cp.Main.Builder, cp.Minor.Builder
	p := cp.Location

	// 1. 主路倒角，失败时退回合并最近的两个面
	face, err := main.BevelAt(p)
	if err != nil {
		log.Printf("主路 %s 在 [%.3f, %.3f] 倒角失败: %v", out.MainRoad, p.X, p.Y, err)
		if _, mergeErr := main.MergeFacesAt(p); mergeErr != nil {
			return out, r.fail(cp, StepPrepare, Geometry.KindOf(err), errors.Join(err, mergeErr))
		}
	}
	out.BevelFace = face

	// 2. 次路最近的面后退让出空间
	working, err := minor.MoveBackClosestFace(p)
	if err != nil {
		if Geometry.KindOf(err) != Geometry.ErrInvalidGeometry {
			return out, r.fail(cp, StepClear, Geometry.KindOf(err), err)
		}
		log.Printf("次路 %s 无法后退: %v", out.MinorRoad, err)
		working = p
	}

	// 3. 主路上离工作点最近的外边
	target, ok := main.Edges().Query(working, Geometry.KindExternal, false)
	if !ok {
		return out, r.fail(cp, StepLocate, Geometry.ErrNotFound, fmt.Errorf("no external edge near (%.3f, %.3f)", working.X, working.Y))
	}

	// 4. 次路端头沿走向延伸到目标边
	terminal, err := minor.TerminalEdge(cp.MinorAtStart())
	if err != nil {
		return out, r.fail(cp, StepExtend, Geometry.KindOf(err), err)
	}
	minorEdge, err := minor.AdjustEndPosition(terminal, target)
	if err != nil {
		return out, r.fail(cp, StepExtend, Geometry.KindOf(err), err)
	}

	// 5. 在倒角面的边界边中挑方向最贴合的
	if face != nil {
		candidates := main.Edges().FaceBorderEdges(face)
		best, err := Geometry.NewProximitySelector(candidates, r.opts.Proximity).SelectBest(minorEdge)
		if err != nil {
			log.Printf("路口 %s 方向筛选失败，沿用最近边: %v", cp, err)
		} else {
			target = best
		}
	}

	// 6.
	if !target.Valid || !minorEdge.Valid {
		return out, r.fail(cp, StepValidate, Geometry.ErrInvalidGeometry, fmt.Errorf("target %v, minor %v", target, minorEdge))
	}

	// 7. 接缝过窄时加宽
	target, out.Resized, err = main.ResizeEdge(target)
	if err != nil {
		return out, r.fail(cp, StepResize, Geometry.KindOf(err), err)
	}

	// 8. 次路端头顶点吸附到目标边
	minorEdge, err = minor.SnapEdgeTo(minorEdge, target, main.Mesh())
	if err != nil {
		return out, r.fail(cp, StepSnap, Geometry.KindOf(err), err)
	}
	out.TargetEdge, out.MinorEdge = target, minorEdge

	// 9.
	if r.opts.Combine {
		combined := Mesh.CombineMeshes(main.Mesh(), minor.Mesh())
		out.Welded = Mesh.WeldVertices(combined, r.opts.WeldTolerance)
		main.Adopt(combined)
		minor.Release()
		cp.Minor.Invalidate()
		out.Combined = true
		log.Printf("次路 %s 已并入 %s，焊接顶点 %d", out.MinorRoad, out.MainRoad, out.Welded)
	}
	return out, nil
}

func (r *Resolver) fail(cp Road.ConnectionPoint, step Step, kind, err error) *JunctionError {
	jerr := &JunctionError{
		Step:  step,
		Kind:  kind,
		Main:  segmentName(cp.Main),
		Minor: segmentName(cp.Minor),
		Point: cp.Location,
		Err:   err,
	}
	log.Printf("路口处理失败: %v", jerr)
	return jerr
}

func segmentName(s *Road.Segment) string {
	if s == nil {
		return ""
	}
	return s.Name
}
