package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/poshpearl/poshpearl/internal/app"
	"github.com/poshpearl/poshpearl/internal/config"
	"github.com/poshpearl/poshpearl/internal/logger"
	"github.com/poshpearl/poshpearl/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiCyan  = "\033[36m"
	ansiBlue  = "\033[34m"
)

func main() {
	printStartupBanner()

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if cfg.Server.Mode == "release" {
		if isWeakSecret(cfg.UserJWT.SecretKey) {
			stdLog.Fatalf("JWT secret is weak or still the default, set a strong random key in production")
		}
	} else if isWeakSecret(cfg.UserJWT.SecretKey) {
		stdLog.Printf("warning: JWT secret is weak or still the default, replace it before going to production")
	}

	// 初始化数据库
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("database init failed: %v", err)
	}

	// 自动迁移数据库表
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("database migration failed: %v", err)
	}

	// 初始化默认员工账号
	defaultStaffEmail := os.Getenv("PP_DEFAULT_STAFF_EMAIL")
	defaultStaffPass := os.Getenv("PP_DEFAULT_STAFF_PASSWORD")
	if cfg.Server.Mode == "release" && defaultStaffPass == "" {
		stdLog.Printf("warning: PP_DEFAULT_STAFF_PASSWORD not set, skipped default staff bootstrap")
	} else if err := models.InitDefaultStaff(defaultStaffEmail, defaultStaffPass); err != nil {
		stdLog.Printf("warning: default staff bootstrap failed: %v", err)
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "run mode: all (default), api, worker")
	flag.Parse()

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("service run failed: %v", err)
	}
}

func printStartupBanner() {
	fmt.Println(ansiCyan + "██████╗  ██████╗ ███████╗██╗  ██╗██████╗ ███████╗ █████╗ ██████╗ ██╗     " + ansiReset)
	fmt.Println(ansiCyan + "██╔══██╗██╔═══██╗██╔════╝██║  ██║██╔══██╗██╔════╝██╔══██╗██╔══██╗██║     " + ansiReset)
	fmt.Println(ansiCyan + "██████╔╝██║   ██║███████╗███████║██████╔╝█████╗  ███████║██████╔╝██║     " + ansiReset)
	fmt.Println(ansiCyan + "██╔═══╝ ██║   ██║╚════██║██╔══██║██╔═══╝ ██╔══╝  ██╔══██║██╔══██╗██║     " + ansiReset)
	fmt.Println(ansiCyan + "██║     ╚██████╔╝███████║██║  ██║██║     ███████╗██║  ██║██║  ██║███████╗" + ansiReset)
	fmt.Println(ansiCyan + "╚═╝      ╚═════╝ ╚══════╝╚═╝  ╚═╝╚═╝     ╚══════╝╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝" + ansiReset)
	fmt.Println(ansiBold + "PoshPearl storefront API" + ansiReset)
	fmt.Println(ansiBlue + "• https://github.com/poshpearl/poshpearl" + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	if strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key") {
		return true
	}
	return false
}
