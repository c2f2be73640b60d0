package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GrainArc/RoadMesh/Geometry"
	"github.com/GrainArc/RoadMesh/Intersection"
	"github.com/GrainArc/RoadMesh/Road"
	"gopkg.in/yaml.v3"
)

// MainConfig 当前生效的配置
var MainConfig = Default()

type Config struct {
	XMLName    xml.Name `xml:"config" yaml:"-"`
	MainRouter string   `xml:"MainRouter" yaml:"mainRouter"`
	Database   Database `xml:"database" yaml:"database"`
	DataDir    string   `xml:"dataDir" yaml:"dataDir"`     // GeoJSON 道路文件目录
	TileDir    string   `xml:"tileDir" yaml:"tileDir"`     // {z}/{x}/{y}.mvt 瓦片目录
	RoadLayer  string   `xml:"roadLayer" yaml:"roadLayer"` // 瓦片中的道路图层
	Workers    int      `xml:"workers" yaml:"workers"`
	Tuning     Tuning   `xml:"tuning" yaml:"tuning"`
}

// Database 数据库连接，Driver 为 sqlite 或 postgres
type Database struct {
	Driver   string `xml:"driver" yaml:"driver"`
	Path     string `xml:"path" yaml:"path"`
	Host     string `xml:"host" yaml:"host"`
	Port     string `xml:"port" yaml:"port"`
	Username string `xml:"user" yaml:"user"`
	Password string `xml:"password" yaml:"password"`
	Dbname   string `xml:"dbname" yaml:"dbname"`
}

// DSN postgres 连接串
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC", d.Host, d.Username, d.Password, d.Dbname, d.Port)
}

// Tuning 几何调参
type Tuning struct {
	InternalMargin    float64    `xml:"internalMargin" yaml:"internalMargin"`
	BevelSideDot      float64    `xml:"bevelSideDot" yaml:"bevelSideDot"`
	MinEdgeWidth      float64    `xml:"minEdgeWidth" yaml:"minEdgeWidth"`
	SamePointDistance float64    `xml:"samePointDistance" yaml:"samePointDistance"`
	ProximityStart    float64    `xml:"proximityStart" yaml:"proximityStart"`
	ProximityStep     float64    `xml:"proximityStep" yaml:"proximityStep"`
	ProximityFloor    float64    `xml:"proximityFloor" yaml:"proximityFloor"`
	FaceMergeDistance float64    `xml:"faceMergeDistance" yaml:"faceMergeDistance"`
	WeldTolerance     float64    `xml:"weldTolerance" yaml:"weldTolerance"`
	SimplifyTolerance float64    `xml:"simplifyTolerance" yaml:"simplifyTolerance"`
	ConnectionMode    string     `xml:"connectionMode" yaml:"connectionMode"`
	Combine           bool       `xml:"combine" yaml:"combine"`
	JoinAcrossNames   bool       `xml:"joinAcrossNames" yaml:"joinAcrossNames"`
	Style             Road.Style `xml:"style" yaml:"style"`
}

// Default 默认配置
func Default() Config {
	g := Geometry.DefaultOptions()
	return Config{
		MainRouter: ":8426",
		Database:   Database{Driver: "sqlite", Path: "roadmesh.db"},
		RoadLayer:  "roads",
		Workers:    4,
		Tuning: Tuning{
			InternalMargin:    g.InternalMargin,
			BevelSideDot:      g.BevelSideDot,
			MinEdgeWidth:      g.MinEdgeWidth,
			SamePointDistance: Road.SamePointDistance,
			ProximityStart:    g.Proximity.Start,
			ProximityStep:     g.Proximity.Step,
			ProximityFloor:    g.Proximity.Floor,
			FaceMergeDistance: g.FaceMergeDistance,
			WeldTolerance:     Intersection.DefaultOptions().WeldTolerance,
			ConnectionMode:    Road.FirstMatch.String(),
			Style:             Road.DefaultStyle(),
		},
	}
}

// Load 读取配置文件，.yaml/.yml 按 YAML 解析，其余按 XML；文件中没有的字段保留默认值
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = xml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("解析配置 %s 失败: %w", path, err)
	}
	return cfg, nil
}

// GeometryOptions 几何引擎参数
func (t Tuning) GeometryOptions() Geometry.Options {
	return Geometry.Options{
		InternalMargin:    t.InternalMargin,
		BevelSideDot:      t.BevelSideDot,
		MinEdgeWidth:      t.MinEdgeWidth,
		FaceMergeDistance: t.FaceMergeDistance,
		Proximity:         t.ProximityOptions(),
	}
}

// ProximityOptions 方向筛选参数
func (t Tuning) ProximityOptions() Geometry.ProximityOptions {
	p := Geometry.DefaultProximityOptions()
	p.Start, p.Step, p.Floor = t.ProximityStart, t.ProximityStep, t.ProximityFloor
	return p
}

// RoadOptions 片段合并参数
func (t Tuning) RoadOptions() Road.Options {
	return Road.Options{
		Tolerance:         t.SamePointDistance,
		JoinAcrossNames:   t.JoinAcrossNames,
		SimplifyTolerance: t.SimplifyTolerance,
		Mode:              Road.ParseConnectionMode(t.ConnectionMode),
	}
}

// ResolverOptions 路口处理参数
func (t Tuning) ResolverOptions() Intersection.Options {
	return Intersection.Options{
		Combine:       t.Combine,
		WeldTolerance: t.WeldTolerance,
		Proximity:     t.ProximityOptions(),
	}
}
