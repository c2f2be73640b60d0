package Road

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r2"
)

// ErrInvalidSegment 道路点数不足或已被合并
var ErrInvalidSegment = errors.New("invalid road segment")

// ConnectionPoint 次路端点落在主路某个点上
type ConnectionPoint struct {
	Location   r2.Point
	Main       *Segment
	MainIndex  int
	Minor      *Segment
	MinorIndex int
}

// MinorAtStart 次路是否以起点接入
func (c ConnectionPoint) MinorAtStart() bool {
	return c.MinorIndex == 0
}

// MinorDirection 次路离开路口的方向
func (c ConnectionPoint) MinorDirection() r2.Point {
	if c.Minor == nil {
		return r2.Point{}
	}
	d := c.Minor.DirectionAt(c.MinorIndex)
	if !c.MinorAtStart() {
		d = d.Mul(-1)
	}
	return d
}

func (c ConnectionPoint) String() string {
	name := func(s *Segment) string {
		if s == nil {
			return "<nil>"
		}
		return s.Name
	}
	return fmt.Sprintf("[%s#%d <- %s#%d @ (%.3f, %.3f)]",
		name(c.Main), c.MainIndex, name(c.Minor), c.MinorIndex, c.Location.X, c.Location.Y)
}
