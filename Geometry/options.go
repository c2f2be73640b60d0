package Geometry

// Options 几何引擎的调参常量
type Options struct {
	InternalMargin    float64 // 边中点到形状点的判定距离
	BevelSideDot      float64 // 倒角侧边与原边方向的点积阈值
	MinEdgeWidth      float64 // 接缝边的最小宽度
	FaceMergeDistance float64 // 两个最近面中心的“过近”距离
	Proximity         ProximityOptions
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		InternalMargin:    0.02,
		BevelSideDot:      0.9,
		MinEdgeWidth:      0.9,
		FaceMergeDistance: 0.5,
		Proximity:         DefaultProximityOptions(),
	}
}
