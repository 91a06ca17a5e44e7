package dto

import (
	"storyteller-be/internal/assign"
	"storyteller-be/internal/catalog"
)

type CatalogResponse struct {
	Categories []catalog.Category       `json:"categories"`
	Roles      []catalog.RoleDefinition `json:"roles"`
	// 说书人可以展示给玩家的消息卡片类型
	MessageKinds []string `json:"message_kinds"`
}

type QuotaEntry struct {
	PlayerCount  int                  `json:"player_count"`
	Requirements []assign.Requirement `json:"requirements"`
}

type QuotasResponse struct {
	Quotas []QuotaEntry `json:"quotas"`
}

func NewQuotasResponse(table assign.QuotaTable) QuotasResponse {
	entries := make([]QuotaEntry, 0, len(table))
	for _, n := range table.Counts() {
		entries = append(entries, QuotaEntry{
			PlayerCount:  n,
			Requirements: table[n],
		})
	}

	return QuotasResponse{Quotas: entries}
}
