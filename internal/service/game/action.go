package game

// 连接加入与退出由服务端构造，不经过 JSON
type JoinGameRequest struct {
	Name   string               `json:"name"`
	RespCh chan ResponseWrapper `json:"-"`
}

type JoinGameResponse struct {
	ConnID string     `json:"conn_id"`
	Table  TableState `json:"table"`
}

type ExitGameRequest struct {
	ConnID string               `json:"conn_id"`
	RespCh chan ResponseWrapper `json:"-"`
}

type AddSeatRequest struct {
	Name   string `json:"name"`
	RoleID string `json:"role_id"`
}

type EditSeatRequest struct {
	SeatIndex int    `json:"seat_index"`
	Name      string `json:"name"`
	RoleID    string `json:"role_id"`
	// 可选，覆盖座位阵营
	Category string `json:"category,omitempty"`
}

type RemoveSeatRequest struct {
	SeatIndex int `json:"seat_index"`
}

type ReassignAllRequest struct {
	RoleIDs []string `json:"role_ids"`
}

type GenerateRequest struct {
	PlayerCount int `json:"player_count"`
}

type ToggleEffectRequest struct {
	SeatIndex int    `json:"seat_index"`
	Effect    string `json:"effect"`
}

type SetDecoysRequest struct {
	RoleIDs []string `json:"role_ids"`
}

type LoadScriptRequest struct {
	RoleIDs []string `json:"role_ids"`
}

type ShowMessageRequest struct {
	Kind   string `json:"kind"`
	RoleID string `json:"role_id"`
}

type SetShowAllRequest struct {
	ShowAll bool `json:"show_all"`
}

type NightDecisionRequest = NightDecision

type TableState struct {
	TableID   string       `json:"table_id"`
	TableName string       `json:"table_name"`
	Stage     string       `json:"stage"`
	ShowAll   bool         `json:"show_all"`
	Night     NightState   `json:"night"`
	Game      GameSnapshot `json:"game"`
}

type NightEmptyResponse struct {
	FirstNight bool   `json:"first_night"`
	Message    string `json:"message"`
}

type NightEndResponse struct {
	Cancelled bool `json:"cancelled"`
	Day       int  `json:"day"`
}
