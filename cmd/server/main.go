package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/habitloop/internal/config"
	"github.com/habitloop/internal/db"
	"github.com/habitloop/internal/handler"
	"github.com/habitloop/internal/middleware"
	"github.com/habitloop/internal/router"
	"github.com/joho/godotenv"
)

func main() {
	// 加载环境变量，.env 不存在时沿用进程环境
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}

	// 按配置创建引导用户，便于首次部署后直接登录
	if err := db.EnsureUser(cfg.BootstrapUsername, cfg.BootstrapEmail, cfg.BootstrapPassword); err != nil {
		log.Fatalf("创建引导用户失败: %v", err)
	}

	middleware.InitPrometheus()

	api := handler.NewAPI(db.DB, cfg)
	r := router.SetupRouter(api, cfg.SessionSecret)

	// 头像等上传文件以静态资源方式对外提供
	r.Static(cfg.UploadURLPath, cfg.UploadDir)

	log.Printf("服务启动，监听 %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("服务启动失败: %v", err)
	}
}
