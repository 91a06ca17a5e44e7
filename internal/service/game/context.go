package game

import (
	"storyteller-be/internal/catalog"

	"go.uber.org/zap"
)

// Conn 是一个接入桌面的客户端（说书人面板或公共展示屏）
type Conn struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	RespCh chan ResponseWrapper `json:"-"`
}

type GameContext struct {
	TableID   string
	TableName string
	GameStage string

	Game    *Game
	Night   *Night
	ShowAll bool

	// 加载新剧本时需要总表
	Catalog *catalog.Catalog

	Conns map[string]*Conn
}

func (gc *GameContext) State() TableState {
	return TableState{
		TableID:   gc.TableID,
		TableName: gc.TableName,
		Stage:     gc.GameStage,
		ShowAll:   gc.ShowAll,
		Night:     gc.Night.State(),
		Game:      gc.Game.Snapshot(),
	}
}

// Render 向所有连接广播最新的桌面状态
func (gc *GameContext) Render() {
	gc.BroadcastResp(WrapResponse(RESP_GAME_STATE, gc.State()))
}

func (gc *GameContext) BroadcastResp(resp ResponseWrapper) {
	for _, c := range gc.Conns {
		select {
		case c.RespCh <- resp:
			zap.L().Debug(
				"成功发送广播响应",
				zap.String("conn_id", c.ID),
				zap.String("response_type", resp.RespType),
			)
		default:
			zap.L().Warn(
				"发送广播响应失败：连接响应通道已满",
				zap.String("conn_id", c.ID),
			)
		}
	}
}

func (gc *GameContext) UnicastResp(connID string, resp ResponseWrapper) {
	conn, ok := gc.Conns[connID]
	if !ok {
		zap.L().Warn(
			"无法找到连接进行单播响应",
			zap.String("conn_id", connID),
		)
		return
	}

	select {
	case conn.RespCh <- resp:
		zap.L().Debug(
			"发送单播响应成功",
			zap.String("conn_id", connID),
			zap.String("response_type", resp.RespType),
		)
	default:
		zap.L().Warn(
			"发送单播响应失败：连接响应通道已满",
			zap.String("conn_id", connID),
		)
	}
}
