package http

import (
	"storyteller-be/internal/api/http/websocket"
	"storyteller-be/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

func RunServer(appState *state.AppState) {
	app := newApp(appState)

	addr := appState.Cfg.Addr()

	zap.S().Infof("服务监听于 %s", addr)

	if err := app.Listen(addr); err != nil {
		zap.L().Error("服务退出", zap.Error(err))
	}
}

func newApp(appState *state.AppState) *iris.Application {
	app := iris.Default()

	api := app.Party("/api/v1")

	api.Get("/catalog", GetCatalog(appState))
	api.Get("/quotas", GetQuotas(appState))

	api.Post("/tables/create", CreateTable(appState))
	api.Get("/tables", ListTables(appState))
	api.Get("/tables/{id:string}", GetTable(appState))
	api.Delete("/tables/{id:string}", CloseTable(appState))

	api.Get("/ws/join", websocket.JoinGame(appState))

	return app
}
