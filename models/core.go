package models

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/GrainArc/RoadMesh/Intersection"
	"github.com/GrainArc/RoadMesh/Road"
	"github.com/GrainArc/RoadMesh/Transformer"
	"github.com/GrainArc/RoadMesh/config"
	"github.com/paulmach/orb"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB 按配置连接 sqlite 或 postgres 并迁移表结构
func InitDB(cfg config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite", "":
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				log.Printf("创建存储目录失败: %v", err)
				return nil, err
			}
		}
		log.Printf("数据库路径: %s", cfg.Path)
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Printf("连接数据库失败: %v", err)
		return nil, err
	}
	if err := db.AutoMigrate(&RoadRecord{}, &JunctionRecord{}); err != nil {
		log.Printf("数据库迁移失败: %v", err)
		return nil, err
	}
	log.Println("数据库初始化成功")
	return db, nil
}

// SaveRoads 覆盖保存某个区域的道路
func SaveRoads(db *gorm.DB, region string, roads []*Road.Segment, frame *Transformer.LocalFrame) error {
	records := make([]RoadRecord, 0, len(roads))
	for _, s := range roads {
		rec, err := NewRoadRecord(region, s, frame)
		if err != nil {
			log.Printf("跳过道路 %v: %v", s, err)
			continue
		}
		records = append(records, rec)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("region = ?", region).Delete(&RoadRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 200).Error
	})
}

// LoadRoads 读取某个区域的道路
func LoadRoads(db *gorm.DB, region string, frame *Transformer.LocalFrame) ([]*Road.Segment, error) {
	var records []RoadRecord
	if err := db.Where("region = ?", region).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]*Road.Segment, 0, len(records))
	for _, rec := range records {
		s, err := rec.Segment(frame)
		if err != nil {
			log.Printf("道路记录 %d 无法解析: %v", rec.ID, err)
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// RegionFrame 按已存道路的范围重建局部坐标系，平面区域返回 nil
func RegionFrame(db *gorm.DB, region string) (*Transformer.LocalFrame, error) {
	var records []RoadRecord
	if err := db.Where("region = ? AND geographic = ?", region, true).Find(&records).Error; err != nil {
		return nil, err
	}
	var bound orb.Bound
	found := false
	for _, rec := range records {
		b, err := rec.Bound()
		if err != nil {
			continue
		}
		if !found {
			bound, found = b, true
			continue
		}
		bound = bound.Union(b)
	}
	if !found {
		return nil, nil
	}
	return Transformer.FrameForBound(bound), nil
}

// SaveJunctions 覆盖保存某个区域的路口处理日志
func SaveJunctions(db *gorm.DB, region string, rep Intersection.Report) error {
	records := make([]JunctionRecord, 0, len(rep.Outcomes)+len(rep.Failures))
	for _, o := range rep.Outcomes {
		records = append(records, JunctionFromOutcome(region, o))
	}
	for _, e := range rep.Failures {
		records = append(records, JunctionFromFailure(region, e))
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("region = ?", region).Delete(&JunctionRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 200).Error
	})
}

// ListJunctions 某个区域的路口日志，status 为空时返回全部
func ListJunctions(db *gorm.DB, region, status string) ([]JunctionRecord, error) {
	q := db.Where("region = ?", region)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var records []JunctionRecord
	err := q.Order("id").Find(&records).Error
	return records, err
}
