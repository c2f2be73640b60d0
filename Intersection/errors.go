package Intersection

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// Step 路口处理的步骤
type Step int

const (
	StepPrepare Step = iota + 1
	StepClear
	StepLocate
	StepExtend
	StepRefine
	StepValidate
	StepResize
	StepSnap
	StepCombine
)

var stepNames = map[Step]string{
	StepPrepare:  "prepare",
	StepClear:    "clear",
	StepLocate:   "locate",
	StepExtend:   "extend",
	StepRefine:   "refine",
	StepValidate: "validate",
	StepResize:   "resize",
	StepSnap:     "snap",
	StepCombine:  "combine",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// JunctionError 某个路口在某一步失败。Kind 是 Geometry 包里的错误分类
type JunctionError struct {
	Step  Step
	Kind  error
	Main  string
	Minor string
	Point r2.Point
	Err   error
}

func (e *JunctionError) Error() string {
	return fmt.Sprintf("junction %s <- %s at (%.3f, %.3f): %s: %v", e.Main, e.Minor, e.Point.X, e.Point.Y, e.Step, e.Err)
}

func (e *JunctionError) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Err}
	}
	return []error{e.Kind, e.Err}
}
