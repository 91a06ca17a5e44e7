package main

import (
	"storyteller-be/internal/api/http"
	"storyteller-be/internal/catalog"
	"storyteller-be/internal/config"
	"storyteller-be/internal/logger"
	"storyteller-be/internal/service"
	"storyteller-be/internal/state"

	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel, cfg.LogEncoding)
	defer zap.L().Sync()

	// 加载角色总表，失败时无法提供任何服务
	roles, err := catalog.LoadCatalogFile(cfg.CatalogPath)
	if err != nil {
		zap.L().Fatal("加载角色总表失败", zap.String("path", cfg.CatalogPath), zap.Error(err))
	}

	zap.S().Infof("角色总表加载完成，共 %d 个角色", roles.Len())

	var defaultScript []string
	if cfg.DefaultScriptPath != "" {
		defaultScript, err = catalog.ParseScriptFile(cfg.DefaultScriptPath)
		if err != nil {
			zap.L().Fatal("加载默认剧本失败", zap.String("path", cfg.DefaultScriptPath), zap.Error(err))
		}
	}

	tableSvc := service.NewTableService(roles, defaultScript, service.TableOptions{
		ShowAll:     cfg.ShowAllAtNight,
		DecoyCount:  cfg.DecoyCount,
		IdleTimeout: cfg.TableIdleTimeout,
	})
	defer tableSvc.Close()

	// 组装应用状态
	appState := state.NewAppState(cfg, tableSvc)

	// 启动服务器
	http.RunServer(appState)
}
