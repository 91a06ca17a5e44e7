package game

import "errors"

var (
	ErrEmptySeatName         = errors.New("座位名称不能为空")
	ErrEmptyEffect           = errors.New("效果名称不能为空")
	ErrSeatNotFound          = errors.New("座位不存在")
	ErrUnknownRole           = errors.New("角色不在当前剧本中")
	ErrDuplicateRole         = errors.New("该角色已被其他座位使用")
	ErrInsufficientSelection = errors.New("选择的角色少于座位数")
	ErrInvalidDecoys         = errors.New("伪装角色选择无效")
	ErrUnknownMessageKind    = errors.New("未知的消息类型")
	ErrEmptyScript           = errors.New("剧本中没有任何可用角色")

	ErrNightRunning   = errors.New("夜晚流程已在进行中")
	ErrNoNightRunning = errors.New("当前没有进行中的夜晚流程")
	ErrInvalidTarget  = errors.New("无效的目标座位")
)
