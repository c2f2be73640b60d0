package Mesh

import "errors"

var (
	// ErrDegenerate 点数不足或全部重合，无法生成条带
	ErrDegenerate = errors.New("mesh: degenerate polyline")
	// ErrEdgeNotFound 网格中不存在该边
	ErrEdgeNotFound = errors.New("mesh: edge not found")
	// ErrBevelRejected 倒角被拒绝（边过短或拓扑不支持）
	ErrBevelRejected = errors.New("mesh: bevel rejected")
	// ErrMergeRejected 两个面无法合并
	ErrMergeRejected = errors.New("mesh: merge rejected")
)
