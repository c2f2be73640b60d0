package models

import (
	"encoding/json"

	"github.com/GrainArc/RoadMesh/Intersection"
	"gorm.io/datatypes"
)

// JunctionRecord 路口处理日志
type JunctionRecord struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Region    string         `gorm:"index;not null" json:"region"`
	MainRoad  string         `json:"main_road"`
	MinorRoad string         `json:"minor_road"`
	X         float64        `json:"x"`
	Y         float64        `json:"y"`
	Status    string         `gorm:"index" json:"status"` // ok / failed
	Step      string         `json:"step,omitempty"`
	Error     string         `json:"error,omitempty"`
	Detail    datatypes.JSON `json:"detail"`

	CreatedAt int64 `gorm:"autoCreateTime" json:"created_at"`
}

func (JunctionRecord) TableName() string {
	return "junctions"
}

// JunctionFromOutcome 成功的路口
func JunctionFromOutcome(region string, o Intersection.Outcome) JunctionRecord {
	detail, _ := json.Marshal(o)
	return JunctionRecord{
		Region:    region,
		MainRoad:  o.MainRoad,
		MinorRoad: o.MinorRoad,
		X:         o.Point.X,
		Y:         o.Point.Y,
		Status:    "ok",
		Detail:    datatypes.JSON(detail),
	}
}

// JunctionFromFailure 失败的路口
func JunctionFromFailure(region string, e *Intersection.JunctionError) JunctionRecord {
	kind := ""
	if e.Kind != nil {
		kind = e.Kind.Error()
	}
	detail, _ := json.Marshal(map[string]string{"kind": kind})
	return JunctionRecord{
		Region:    region,
		MainRoad:  e.Main,
		MinorRoad: e.Minor,
		X:         e.Point.X,
		Y:         e.Point.Y,
		Status:    "failed",
		Step:      e.Step.String(),
		Error:     e.Error(),
		Detail:    datatypes.JSON(detail),
	}
}
