package http

import (
	"errors"

	"storyteller-be/internal/catalog"
	"storyteller-be/internal/service"
	"storyteller-be/internal/service/dto"
	"storyteller-be/internal/service/game"
	"storyteller-be/internal/state"

	"github.com/kataras/iris/v12"
)

func CreateTable(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.CreateTableRequest

		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StatusCode(iris.StatusBadRequest)
			ctx.JSON(iris.Map{
				"error": "请求参数无效",
			})
			return
		}

		resp, err := appState.TableSvc.CreateTable(req)
		if err != nil {
			ctx.StatusCode(iris.StatusBadRequest)
			ctx.JSON(iris.Map{
				"error": err.Error(),
			})
			return
		}

		ctx.JSON(resp)
	}
}

func ListTables(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		ctx.JSON(iris.Map{
			"tables": appState.TableSvc.ListTables(),
		})
	}
}

func GetTable(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		info, err := appState.TableSvc.GetTable(ctx.Params().Get("id"))
		if err != nil {
			ctx.StatusCode(statusOf(err))
			ctx.JSON(iris.Map{
				"error": err.Error(),
			})
			return
		}

		ctx.JSON(info)
	}
}

func CloseTable(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		if err := appState.TableSvc.CloseTable(ctx.Params().Get("id")); err != nil {
			ctx.StatusCode(statusOf(err))
			ctx.JSON(iris.Map{
				"error": err.Error(),
			})
			return
		}

		ctx.StatusCode(iris.StatusNoContent)
	}
}

func GetCatalog(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		ctx.JSON(dto.CatalogResponse{
			Categories:   catalog.AllCategories(),
			Roles:        appState.TableSvc.Catalog().Roles(),
			MessageKinds: game.MessageKinds(),
		})
	}
}

func GetQuotas(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		ctx.JSON(dto.NewQuotasResponse(appState.TableSvc.Quotas()))
	}
}

func statusOf(err error) int {
	if errors.Is(err, service.ErrTableNotFound) {
		return iris.StatusNotFound
	}

	return iris.StatusBadRequest
}
