package Geometry

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r2"
)

// 错误分类
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidGeometry    = errors.New("invalid geometry")
	ErrMutationRejected   = errors.New("mutation rejected")
	ErrInvariantViolation = errors.New("invariant violation")
)

// GeometryError 带操作名和位置的几何错误，Kind 为上面的分类之一
type GeometryError struct {
	Op    string
	Point r2.Point
	Kind  error
	Err   error
}

func (e *GeometryError) Error() string {
	msg := fmt.Sprintf("%s at (%.3f, %.3f): %v", e.Op, e.Point.X, e.Point.Y, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GeometryError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op string, p r2.Point, kind, err error) *GeometryError {
	return &GeometryError{Op: op, Point: p, Kind: kind, Err: err}
}

// KindOf 返回错误所属分类，无法识别时返回 nil
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrInvalidGeometry, ErrMutationRejected, ErrInvariantViolation} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
