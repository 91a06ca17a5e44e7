package game

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// 请求类型
const (
	REQ_JOIN_GAME = "JoinGame"
	REQ_EXIT_GAME = "ExitGame"
	REQ_SNAPSHOT  = "Snapshot"
	REQ_CLOSE     = "CloseTable"

	REQ_ADD_SEAT          = "AddSeat"
	REQ_EDIT_SEAT         = "EditSeat"
	REQ_REMOVE_SEAT       = "RemoveSeat"
	REQ_ASSIGN_RANDOM     = "AssignRandom"
	REQ_REASSIGN_ALL      = "ReassignAll"
	REQ_GENERATE          = "Generate"
	REQ_ADVANCE_DAY       = "AdvanceDay"
	REQ_TOGGLE_EFFECT     = "ToggleEffect"
	REQ_SET_DECOYS        = "SetDecoys"
	REQ_REGENERATE_DECOYS = "RegenerateDecoys"
	REQ_LOAD_SCRIPT       = "LoadScript"
	REQ_SHOW_MESSAGE      = "ShowMessage"
	REQ_SET_SHOW_ALL      = "SetShowAll"
	REQ_START_NIGHT       = "StartNight"

	REQ_NIGHT_DECISION = "NightDecision"
	REQ_NIGHT_CANCEL   = "NightCancel"
)

type RequestWrapper struct {
	ReqType string          `json:"request_type"`
	Data    json.RawMessage `json:"data"`

	// 由服务端填写：发起请求的连接，以及无法序列化的原生数据（如响应通道）
	ConnID     string `json:"-"`
	NativeData any    `json:"-"`
}

var errBadPayload = errors.New("请求数据格式错误")

// unwrap 解析请求数据，请求不带数据时返回零值
func unwrap[T any](wrapper RequestWrapper) (*T, error) {
	var data T

	if len(wrapper.Data) == 0 || string(wrapper.Data) == "null" {
		return &data, nil
	}

	if err := json.Unmarshal(wrapper.Data, &data); err != nil {
		zap.L().Debug(
			"无法解析请求数据",
			zap.String("request_type", wrapper.ReqType),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s", errBadPayload, wrapper.ReqType)
	}

	return &data, nil
}

func TryUnwrapJoinGameRequest(wrapper RequestWrapper) *JoinGameRequest {
	if wrapper.ReqType != REQ_JOIN_GAME {
		return nil
	}

	req, _ := wrapper.NativeData.(*JoinGameRequest)

	return req
}

// DecodeJoinGameRequest 解析客户端发来的首个 JoinGame 请求，响应通道由调用方补充
func DecodeJoinGameRequest(wrapper RequestWrapper) (*JoinGameRequest, error) {
	if wrapper.ReqType != REQ_JOIN_GAME {
		return nil, fmt.Errorf("%w: 首个请求必须是 %s", errBadPayload, REQ_JOIN_GAME)
	}

	return unwrap[JoinGameRequest](wrapper)
}

func TryUnwrapExitGameRequest(wrapper RequestWrapper) *ExitGameRequest {
	if wrapper.ReqType != REQ_EXIT_GAME {
		return nil
	}

	req, _ := wrapper.NativeData.(*ExitGameRequest)

	return req
}

// 响应类型
const (
	RESP_ERROR = "Error"

	RESP_JOIN_GAME   = "JoinGame"
	RESP_EXIT_GAME   = "ExitGame"
	RESP_GAME_STATE  = "GameState"
	RESP_MESSAGE     = "Message"
	RESP_NIGHT_EMPTY = "NightEmpty"
	RESP_NIGHT_STEP  = "NightStep"
	RESP_NIGHT_END   = "NightEnd"
	RESP_CLOSED      = "TableClosed"
)

type ResponseWrapper struct {
	RespType string `json:"response_type"`
	Data     any    `json:"data"`
	ErrMsg   string `json:"error_message,omitempty"`
}

func WrapResponse(respType string, data any) ResponseWrapper {
	return ResponseWrapper{
		RespType: respType,
		Data:     data,
	}
}

func WrapErrResponse(errMsg string) ResponseWrapper {
	return ResponseWrapper{
		RespType: RESP_ERROR,
		ErrMsg:   errMsg,
	}
}
