package game

import (
	"sync/atomic"
	"time"

	"storyteller-be/internal/catalog"

	"go.uber.org/zap"
)

// GameMachine 是桌面的状态机。所有对 Game 的修改都在这个事件循环里串行执行，
// 因此 Game 本身不需要加锁。
type GameMachine struct {
	ctx     *GameContext
	handler StageHandler
	// 这是所有连接的请求汇总的通道
	reqCh chan RequestWrapper
	// 结束通道，用于通知状态机退出事件循环
	doneCh chan struct{}

	createdAt  time.Time
	lastActive atomic.Int64
	finished   atomic.Bool
}

type MachineConfig struct {
	TableID   string
	TableName string
	ShowAll   bool
	Catalog   *catalog.Catalog
}

func NewGameMachine(cfg MachineConfig, g *Game, doneCh chan struct{}) *GameMachine {
	ctx := &GameContext{
		TableID:   cfg.TableID,
		TableName: cfg.TableName,
		Game:      g,
		Night:     NewNight(g),
		ShowAll:   cfg.ShowAll,
		Catalog:   cfg.Catalog,
		Conns:     make(map[string]*Conn),
	}

	g.SetRenderer(ctx.Render)

	gm := &GameMachine{
		ctx:       ctx,
		handler:   NewDayStageHandler(),
		reqCh:     make(chan RequestWrapper, 64),
		doneCh:    doneCh,
		createdAt: time.Now(),
	}
	gm.touch()

	gm.handler.SetOnSwitch(gm.onSwitch)

	return gm
}

func (gm *GameMachine) onSwitch(nextStage string) {
	gm.ctx.GameStage = nextStage
}

func (gm *GameMachine) GetReqCh() chan RequestWrapper {
	return gm.reqCh
}

func (gm *GameMachine) Start() {
	defer gm.finished.Store(true)

	// 执行初始 handler 的 OnEnter
	gm.handler.OnEnter(gm.ctx)

	for {
		var req RequestWrapper

		select {
		case req = <-gm.reqCh:
			zap.L().Debug(
				"接收到客户端请求",
				zap.String("table_id", gm.ctx.TableID),
				zap.String("request_type", req.ReqType),
			)
		case <-gm.doneCh:
			zap.L().Info(
				"收到退出信号，结束桌面状态机",
				zap.String("table_id", gm.ctx.TableID),
			)
			gm.ctx.GameStage = STAGE_CLOSED
			gm.switchStage()
			gm.handler.OnEnter(gm.ctx)
			return
		}

		gm.touch()

		if err := gm.handler.OnHandle(gm.ctx, req); err != nil {
			zap.L().Debug(
				"处理请求失败",
				zap.Error(err),
				zap.String("stage", gm.handler.Stage()),
				zap.String("request_type", req.ReqType),
			)

			if req.ConnID != "" {
				gm.ctx.UnicastResp(req.ConnID, WrapErrResponse(err.Error()))
			}
		}

		// 检查阶段是否发生变化
		if gm.ctx.GameStage != gm.handler.Stage() {
			gm.switchStage()

			gm.handler.OnEnter(gm.ctx)

			if gm.ctx.GameStage == STAGE_CLOSED {
				break
			}
		}
	}

	zap.L().Info(
		"桌面状态机已结束",
		zap.String("table_id", gm.ctx.TableID),
	)
}

func (gm *GameMachine) switchStage() {
	gm.handler.OnExit(gm.ctx)

	var newHandler StageHandler

	switch gm.ctx.GameStage {
	case STAGE_DAY:
		newHandler = NewDayStageHandler()
	case STAGE_NIGHT:
		newHandler = NewNightStageHandler()
	case STAGE_CLOSED:
		newHandler = NewClosedStageHandler()
	default:
		zap.L().Error(
			"未知的桌面阶段",
			zap.String("stage", gm.ctx.GameStage),
		)
		return
	}

	newHandler.SetOnSwitch(gm.onSwitch)

	gm.handler = newHandler
}

func (gm *GameMachine) touch() {
	gm.lastActive.Store(time.Now().UnixNano())
}

func (gm *GameMachine) IsFinished() bool {
	return gm.finished.Load()
}

func (gm *GameMachine) CreatedAt() time.Time {
	return gm.createdAt
}

func (gm *GameMachine) LastActive() time.Time {
	return time.Unix(0, gm.lastActive.Load())
}
