package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr          string
	Port                string
	DatabasePath        string
	SessionSecret       string
	GinMode             string
	UploadDir           string
	UploadURLPath       string
	LeaveDeletesEntries bool
	BootstrapUsername   string
	BootstrapEmail      string
	BootstrapPassword   string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "habitloop.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "habitloop-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	uploadDir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if uploadDir == "" {
		uploadDir = "data/uploads"
	}

	uploadURLPath := strings.TrimSpace(os.Getenv("UPLOAD_URL_PATH"))
	if uploadURLPath == "" {
		uploadURLPath = "/static/uploads"
	}

	// 退出挑战时是否连带删除该挑战下的打卡记录，默认保留历史
	leaveDeletesEntries := false
	if raw := strings.TrimSpace(os.Getenv("LEAVE_DELETES_ENTRIES")); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			leaveDeletesEntries = parsed
		}
	}

	bootstrapUsername := strings.TrimSpace(os.Getenv("BOOTSTRAP_USER_NAME"))
	bootstrapEmail := strings.TrimSpace(os.Getenv("BOOTSTRAP_USER_EMAIL"))
	bootstrapPassword := strings.TrimSpace(os.Getenv("BOOTSTRAP_USER_PASSWORD"))

	return AppConfig{
		ListenAddr:          listenAddr,
		Port:                port,
		DatabasePath:        databasePath,
		SessionSecret:       sessionSecret,
		GinMode:             ginMode,
		UploadDir:           uploadDir,
		UploadURLPath:       uploadURLPath,
		LeaveDeletesEntries: leaveDeletesEntries,
		BootstrapUsername:   bootstrapUsername,
		BootstrapEmail:      bootstrapEmail,
		BootstrapPassword:   bootstrapPassword,
	}
}
