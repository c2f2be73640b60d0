package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/GrainArc/RoadMesh/config"
	"github.com/GrainArc/RoadMesh/models"
	"github.com/GrainArc/RoadMesh/routers"
	"github.com/GrainArc/RoadMesh/services"
	"github.com/GrainArc/RoadMesh/tile_proxy"
)

func main() {
	configPath := flag.String("config", "config.xml", "配置文件路径 (.xml / .yaml)")
	geographic := flag.Bool("geographic", true, "数据目录中的 GeoJSON 是否为经纬度")
	flag.Parse()

	if _, err := os.Stat(*configPath); err == nil {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("读取配置失败: %v", err)
		}
		config.MainConfig = cfg
	} else {
		log.Printf("未找到配置文件 %s，使用默认配置", *configPath)
	}
	cfg := config.MainConfig

	db, err := models.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}
	models.DB = db

	var loader *tile_proxy.Loader
	if cfg.TileDir != "" {
		cache := tile_proxy.NewFeatureCache(1024, 30*time.Minute, 5*time.Minute)
		defer cache.Close()
		loader = tile_proxy.NewLoader(tile_proxy.NewDirSource(cfg.TileDir), cache, cfg.RoadLayer, cfg.Workers)
		log.Printf("瓦片目录: %s, 图层: %s", cfg.TileDir, cfg.RoadLayer)
	}

	svc := services.NewRegionService(cfg, db, loader)
	if cfg.DataDir != "" {
		results, err := svc.ProcessDir(context.Background(), cfg.DataDir, *geographic)
		if err != nil {
			log.Printf("数据目录处理失败: %v", err)
		}
		log.Printf("预处理区域 %d 个", len(results))
	}

	r := routers.NewEngine(svc)
	log.Printf("服务启动: %s", cfg.MainRouter)
	if err := r.Run(cfg.MainRouter); err != nil {
		log.Fatalf("服务退出: %v", err)
	}
}
