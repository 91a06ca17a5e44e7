package dto

import "time"

type TableInfo struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ModeratorName string    `json:"moderator_name"`
	ScriptIDs     []string  `json:"script_ids"`
	ShowAll       bool      `json:"show_all"`
	CreatedAt     time.Time `json:"created_at"`
}

// Script 为空时使用服务端配置的默认剧本
type CreateTableRequest struct {
	TableName     string   `json:"table_name"`
	ModeratorName string   `json:"moderator_name"`
	Script        []string `json:"script,omitempty"`
	// 不填时使用服务端配置
	ShowAll     *bool `json:"show_all,omitempty"`
	UniqueRoles bool  `json:"unique_roles"`
}

type CreateTableResponse struct {
	Table TableInfo `json:"table"`
	// 剧本中在总表里找不到的角色
	SkippedRoleIDs []string `json:"skipped_role_ids,omitempty"`
}
