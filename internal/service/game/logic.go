package game

import (
	"errors"
	"time"

	"storyteller-be/internal/catalog"

	"go.uber.org/zap"
)

// 一张桌面分为 3 个阶段：
// 1. 白天（Day）：说书人管理座位、分配角色、切换效果，并可以开始夜晚
// 2. 夜晚（Night）：按行动顺序逐个唤醒座位，等待说书人的决定
// 3. 关闭（Closed）：桌面被关闭，事件循环退出
const (
	STAGE_DAY    = "Day"
	STAGE_NIGHT  = "Night"
	STAGE_CLOSED = "Closed"
)

type StageHandler interface {
	Stage() string

	OnEnter(ctx *GameContext)
	OnHandle(ctx *GameContext, req RequestWrapper) error
	OnExit(ctx *GameContext)

	SetOnSwitch(func(nextStage string))
}

// 白天阶段，也是桌面创建后的初始阶段
type dayStageHandler struct {
	onSwitch func(string)
}

func NewDayStageHandler() *dayStageHandler {
	return &dayStageHandler{}
}

func (dsh *dayStageHandler) Stage() string {
	return STAGE_DAY
}

func (dsh *dayStageHandler) OnEnter(ctx *GameContext) {
	ctx.GameStage = STAGE_DAY
	ctx.Render()
}

func (dsh *dayStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if handled, err := handleCommon(ctx, req, dsh.onSwitch); handled {
		return err
	}

	switch req.ReqType {
	case REQ_ADD_SEAT:
		data, err := unwrap[AddSeatRequest](req)
		if err != nil {
			return err
		}
		_, err = ctx.Game.AddSeat(data.Name, data.RoleID)
		return err

	case REQ_EDIT_SEAT:
		data, err := unwrap[EditSeatRequest](req)
		if err != nil {
			return err
		}
		return ctx.Game.EditSeat(data.SeatIndex, data.Name, data.RoleID, catalog.Category(data.Category))

	case REQ_REMOVE_SEAT:
		data, err := unwrap[RemoveSeatRequest](req)
		if err != nil {
			return err
		}
		return ctx.Game.RemoveSeat(data.SeatIndex)

	case REQ_ASSIGN_RANDOM:
		return ctx.Game.AssignRandom()

	case REQ_REASSIGN_ALL:
		data, err := unwrap[ReassignAllRequest](req)
		if err != nil {
			return err
		}
		return ctx.Game.ReassignByID(data.RoleIDs)

	case REQ_GENERATE:
		data, err := unwrap[GenerateRequest](req)
		if err != nil {
			return err
		}
		return ctx.Game.Generate(data.PlayerCount)

	case REQ_ADVANCE_DAY:
		ctx.Game.AdvanceDay()
		return nil

	case REQ_SET_DECOYS:
		data, err := unwrap[SetDecoysRequest](req)
		if err != nil {
			return err
		}
		return ctx.Game.SetDecoys(data.RoleIDs)

	case REQ_REGENERATE_DECOYS:
		ctx.Game.RegenerateDecoys()
		return nil

	case REQ_LOAD_SCRIPT:
		data, err := unwrap[LoadScriptRequest](req)
		if err != nil {
			return err
		}
		return ctx.Game.LoadScript(catalog.DeriveScript(ctx.Catalog, data.RoleIDs))

	case REQ_SHOW_MESSAGE:
		data, err := unwrap[ShowMessageRequest](req)
		if err != nil {
			return err
		}
		card, err := ctx.Game.ComposeMessage(data.Kind, data.RoleID)
		if err != nil {
			return err
		}
		ctx.BroadcastResp(WrapResponse(RESP_MESSAGE, card))
		return nil

	case REQ_SET_SHOW_ALL:
		data, err := unwrap[SetShowAllRequest](req)
		if err != nil {
			return err
		}
		ctx.ShowAll = data.ShowAll
		ctx.Render()
		return nil

	case REQ_START_NIGHT:
		prompt, err := ctx.Night.Start(ctx.ShowAll)
		if err != nil {
			return err
		}

		if prompt == nil {
			ctx.BroadcastResp(WrapResponse(
				RESP_NIGHT_EMPTY,
				NightEmptyResponse{
					FirstNight: ctx.Game.FirstNight,
					Message:    "没有需要在夜晚行动的座位",
				},
			))
			return nil
		}

		dsh.onSwitch(STAGE_NIGHT)
		return nil
	}

	return errors.New("白天阶段不支持该请求类型")
}

func (dsh *dayStageHandler) OnExit(ctx *GameContext) {
}

func (dsh *dayStageHandler) SetOnSwitch(onSwitch func(string)) {
	dsh.onSwitch = onSwitch
}

// 夜晚阶段处理器，每一步都等待说书人的决定，没有超时
type nightStageHandler struct {
	onSwitch func(string)

	startedAt time.Time
}

func NewNightStageHandler() *nightStageHandler {
	return &nightStageHandler{}
}

func (nsh *nightStageHandler) Stage() string {
	return STAGE_NIGHT
}

func (nsh *nightStageHandler) OnEnter(ctx *GameContext) {
	ctx.GameStage = STAGE_NIGHT
	nsh.startedAt = time.Now()

	ctx.Render()
	ctx.BroadcastResp(WrapResponse(RESP_NIGHT_STEP, ctx.Night.Current()))
}

func (nsh *nightStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if handled, err := handleCommon(ctx, req, nsh.onSwitch); handled {
		return err
	}

	switch req.ReqType {
	case REQ_NIGHT_DECISION:
		data, err := unwrap[NightDecisionRequest](req)
		if err != nil {
			return err
		}

		next, err := ctx.Night.Decide(*data)
		if err != nil {
			return err
		}

		if next == nil {
			nsh.finish(ctx, false)
			return nil
		}

		ctx.BroadcastResp(WrapResponse(RESP_NIGHT_STEP, next))
		return nil

	case REQ_NIGHT_CANCEL:
		if err := ctx.Night.Cancel(); err != nil {
			return err
		}

		nsh.finish(ctx, true)
		return nil
	}

	return errors.New("夜晚阶段只接受 NightDecision、NightCancel 和 ToggleEffect 请求")
}

func (nsh *nightStageHandler) finish(ctx *GameContext, cancelled bool) {
	zap.L().Info(
		"夜晚结束",
		zap.String("table_id", ctx.TableID),
		zap.Bool("cancelled", cancelled),
		zap.Duration("elapsed", time.Since(nsh.startedAt)),
	)

	ctx.BroadcastResp(WrapResponse(
		RESP_NIGHT_END,
		NightEndResponse{
			Cancelled: cancelled,
			Day:       ctx.Game.Day,
		},
	))

	nsh.onSwitch(STAGE_DAY)
}

func (nsh *nightStageHandler) OnExit(ctx *GameContext) {
	// 桌面在夜晚中被关闭时也要完成收尾
	if ctx.Night.State() == NIGHT_RUNNING {
		_ = ctx.Night.Cancel()
	}
}

func (nsh *nightStageHandler) SetOnSwitch(onSwitch func(string)) {
	nsh.onSwitch = onSwitch
}

// 关闭阶段，通知所有连接后不再处理请求
type closedStageHandler struct {
	onSwitch func(string)
}

func NewClosedStageHandler() *closedStageHandler {
	return &closedStageHandler{}
}

func (csh *closedStageHandler) Stage() string {
	return STAGE_CLOSED
}

func (csh *closedStageHandler) OnEnter(ctx *GameContext) {
	ctx.GameStage = STAGE_CLOSED
	ctx.BroadcastResp(WrapResponse(RESP_CLOSED, ctx.State()))

	// 关闭所有响应通道，让写协程退出
	for id, c := range ctx.Conns {
		close(c.RespCh)
		delete(ctx.Conns, id)
	}
}

func (csh *closedStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	return errors.New("桌面已关闭")
}

func (csh *closedStageHandler) OnExit(ctx *GameContext) {
}

func (csh *closedStageHandler) SetOnSwitch(onSwitch func(string)) {
	csh.onSwitch = onSwitch
}

// handleCommon 处理任何阶段都允许的请求：加入、退出、快照、关闭与效果切换
func handleCommon(ctx *GameContext, req RequestWrapper, onSwitch func(string)) (bool, error) {
	if jreq := TryUnwrapJoinGameRequest(req); jreq != nil {
		onConnJoin(ctx, jreq)
		return true, nil
	}

	if ereq := TryUnwrapExitGameRequest(req); ereq != nil {
		onConnExit(ctx, ereq)
		return true, nil
	}

	switch req.ReqType {
	case REQ_SNAPSHOT:
		ctx.UnicastResp(req.ConnID, WrapResponse(RESP_GAME_STATE, ctx.State()))
		return true, nil

	case REQ_CLOSE:
		onSwitch(STAGE_CLOSED)
		return true, nil

	case REQ_TOGGLE_EFFECT:
		data, err := unwrap[ToggleEffectRequest](req)
		if err != nil {
			return true, err
		}
		return true, ctx.Game.ToggleEffect(data.SeatIndex, data.Effect)
	}

	return false, nil
}

func onConnJoin(ctx *GameContext, req *JoinGameRequest) {
	conn := &Conn{
		ID:     ShortID(),
		Name:   req.Name,
		RespCh: req.RespCh,
	}

	ctx.Conns[conn.ID] = conn

	zap.L().Info(
		"连接加入桌面",
		zap.String("table_id", ctx.TableID),
		zap.String("conn_id", conn.ID),
		zap.String("name", conn.Name),
	)

	ctx.UnicastResp(conn.ID, WrapResponse(
		RESP_JOIN_GAME,
		JoinGameResponse{
			ConnID: conn.ID,
			Table:  ctx.State(),
		},
	))

	// 夜晚中途加入时补发当前步骤
	if ctx.GameStage == STAGE_NIGHT {
		ctx.UnicastResp(conn.ID, WrapResponse(RESP_NIGHT_STEP, ctx.Night.Current()))
	}
}

func onConnExit(ctx *GameContext, req *ExitGameRequest) {
	conn, ok := ctx.Conns[req.ConnID]
	if !ok {
		zap.L().Warn(
			"连接不存在，无法退出",
			zap.String("table_id", ctx.TableID),
			zap.String("conn_id", req.ConnID),
		)
		return
	}

	select {
	case conn.RespCh <- WrapResponse(RESP_EXIT_GAME, nil):
	default:
		zap.L().Warn(
			"发送退出确认响应失败：响应通道已满",
			zap.String("conn_id", conn.ID),
		)
	}

	close(conn.RespCh)
	delete(ctx.Conns, req.ConnID)

	zap.L().Info(
		"连接退出桌面",
		zap.String("table_id", ctx.TableID),
		zap.String("conn_id", req.ConnID),
	)
}
