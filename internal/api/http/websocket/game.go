package websocket

import (
	"encoding/json"
	"time"

	"storyteller-be/internal/service/game"
	"storyteller-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// JoinGame 把一个 WebSocket 连接接入桌面。
// 桌面由查询参数 table_id 指定，客户端的首个消息必须是 JoinGame 请求。
func JoinGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		tableID := ctx.URLParam("table_id")

		// 升级前先确认桌面存在，方便客户端区分错误
		if _, err := appState.TableSvc.GetTable(tableID); err != nil {
			ctx.StatusCode(iris.StatusNotFound)
			ctx.JSON(iris.Map{
				"error": err.Error(),
			})
			return
		}

		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			return
		}

		defer conn.Close()

		conn.SetReadLimit(MAX_MESSAGE_SIZE)
		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		conn.SetPongHandler(heartbeatHandler(conn))

		clientIP := ctx.RemoteAddr()

		// 带缓冲，读取加入确认时不会阻塞状态机
		respCh := make(chan game.ResponseWrapper, 64)

		// 读取首次请求，获取必要的参数
		_, msg, err := conn.ReadMessage()
		if err != nil {
			zap.L().Error(
				"读取首次请求失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			return
		}

		var wrapper game.RequestWrapper

		if err := json.Unmarshal(msg, &wrapper); err != nil {
			zap.L().Error(
				"解析首次请求失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			conn.WriteJSON(game.WrapErrResponse("无效的请求格式"))
			return
		}

		req, err := game.DecodeJoinGameRequest(wrapper)
		if err != nil {
			zap.L().Error(
				"首次请求不是JoinGame类型",
				zap.String("client_ip", clientIP),
				zap.String("request_type", wrapper.ReqType),
			)
			conn.WriteJSON(game.WrapErrResponse(err.Error()))
			return
		}

		// 先接入桌面，获取状态机的请求通道
		reqCh, err := appState.TableSvc.Attach(tableID, req.Name, respCh)
		if err != nil {
			zap.L().Error(
				"接入桌面失败",
				zap.String("client_ip", clientIP),
				zap.String("table_id", tableID),
				zap.Error(err),
			)
			conn.WriteJSON(game.WrapErrResponse(err.Error()))
			return
		}

		// 等待加入确认，获取连接 ID
		joinResp, connID, ok := awaitJoin(respCh)
		if !ok {
			zap.L().Error(
				"未能获取连接ID",
				zap.String("client_ip", clientIP),
				zap.String("table_id", tableID),
			)
			return
		}

		// 加入确认必须先于通道中已排队的响应（例如夜晚中途加入时的当前步骤）发出
		conn.SetWriteDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		if err := conn.WriteJSON(joinResp); err != nil {
			zap.L().Error(
				"发送加入确认失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
		}

		zap.L().Info(
			"连接成功加入桌面",
			zap.String("client_ip", clientIP),
			zap.String("table_id", tableID),
			zap.String("conn_id", connID),
			zap.String("name", req.Name),
		)

		// 写协程的退出信号
		writeDoneCh := make(chan struct{})
		defer close(writeDoneCh)

		go writePump(conn, respCh, writeDoneCh, clientIP)

		// 读取协程（主协程）
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(
					err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					zap.L().Error(
						"读取消息失败",
						zap.String("client_ip", clientIP),
						zap.Error(err),
					)
				}

				break
			}

			var wrapper game.RequestWrapper

			if err := json.Unmarshal(msg, &wrapper); err != nil {
				zap.L().Warn(
					"解析消息失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)

				trySend(respCh, game.WrapErrResponse("无效的请求格式"))

				continue
			}

			// 加入与退出只能由服务端构造
			if wrapper.ReqType == game.REQ_JOIN_GAME || wrapper.ReqType == game.REQ_EXIT_GAME {
				trySend(respCh, game.WrapErrResponse("不支持重复加入或主动退出，请直接断开连接"))
				continue
			}

			wrapper.ConnID = connID

			// 将解析后的请求发送到桌面状态机
			select {
			case reqCh <- wrapper:
				zap.L().Debug(
					"发送请求到桌面状态机",
					zap.String("conn_id", connID),
					zap.String("request_type", wrapper.ReqType),
				)
			default:
				zap.L().Error(
					"发送请求到桌面状态机失败：请求通道已满",
					zap.String("conn_id", connID),
				)

				trySend(respCh, game.WrapErrResponse("桌面繁忙，请稍后再试"))
			}
		}

		// 读循环退出，表示客户端断开连接
		zap.L().Info(
			"客户端连接断开，发送退出请求",
			zap.String("client_ip", clientIP),
			zap.String("conn_id", connID),
		)

		exitWrapper := game.RequestWrapper{
			ReqType: game.REQ_EXIT_GAME,
			ConnID:  connID,
			NativeData: &game.ExitGameRequest{
				ConnID: connID,
				RespCh: respCh,
			},
		}

		select {
		case reqCh <- exitWrapper:
			zap.L().Debug(
				"发送退出请求成功",
				zap.String("conn_id", connID),
			)
		case <-time.After(3 * time.Second):
			// 桌面可能已经关闭，不再等待确认
			zap.L().Warn(
				"发送退出请求超时",
				zap.String("conn_id", connID),
			)
		}

		zap.L().Info(
			"WebSocket连接处理完成",
			zap.String("client_ip", clientIP),
			zap.String("conn_id", connID),
		)
	}
}

// awaitJoin 取出加入确认及其中的连接 ID，确认由调用方直接写给客户端
func awaitJoin(respCh chan game.ResponseWrapper) (game.ResponseWrapper, string, bool) {
	select {
	case joinResp, ok := <-respCh:
		if !ok || joinResp.RespType != game.RESP_JOIN_GAME {
			return game.ResponseWrapper{}, "", false
		}

		data, ok := joinResp.Data.(game.JoinGameResponse)
		if !ok || data.ConnID == "" {
			return game.ResponseWrapper{}, "", false
		}

		return joinResp, data.ConnID, true

	case <-time.After(3 * time.Second):
		zap.L().Error("等待加入响应超时")
		return game.ResponseWrapper{}, "", false
	}
}

func writePump(
	conn *websocket.Conn,
	respCh chan game.ResponseWrapper,
	doneCh chan struct{},
	clientIP string,
) {
	ticker := time.NewTicker(HEARTBEAT_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-doneCh:
			zap.L().Info(
				"WebSocket写入协程退出",
				zap.String("client_ip", clientIP),
			)
			return

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))

			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				zap.L().Error(
					"发送心跳失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
				return
			}

		case resp, ok := <-respCh:
			// 状态机关闭了通道：连接已退出或桌面已关闭
			if !ok {
				zap.L().Info(
					"响应通道已关闭，退出写协程",
					zap.String("client_ip", clientIP),
				)
				conn.WriteMessage(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				)
				return
			}

			conn.SetWriteDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))

			if err := conn.WriteJSON(resp); err != nil {
				zap.L().Error(
					"发送消息失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
				return
			}

			zap.L().Debug(
				"发送消息",
				zap.String("client_ip", clientIP),
				zap.String("response_type", resp.RespType),
			)
		}
	}
}

// trySend 只用于读协程回写错误，通道可能已被状态机关闭
func trySend(respCh chan game.ResponseWrapper, resp game.ResponseWrapper) {
	defer func() {
		if recover() != nil {
			zap.L().Debug("响应通道已关闭，丢弃响应", zap.String("response_type", resp.RespType))
		}
	}()

	select {
	case respCh <- resp:
	default:
		zap.L().Warn("响应通道已满，丢弃响应", zap.String("response_type", resp.RespType))
	}
}
