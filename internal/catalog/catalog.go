package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// CatalogError 表示角色总表或剧本文件无法解析，
// 调用方自行决定保留旧总表还是展示空表
type CatalogError struct {
	// 出错记录的下标，-1 表示整个文件
	Index  int
	Reason string
	Err    error
}

func (e *CatalogError) Error() string {
	msg := "角色总表无效"
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s: 第 %d 条记录", msg, e.Index)
	}

	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

// Catalog 加载后只读，可以在多个桌面之间共享
type Catalog struct {
	roles map[string]RoleDefinition
	order []string
}

type roleRecord struct {
	ID      *string `json:"id"`
	Name    *string `json:"name"`
	Team    *string `json:"team"`
	Ability *string `json:"ability"`

	FirstNightOrder *int `json:"first_night_order"`
	OtherNightOrder *int `json:"other_night_order"`

	FirstNightReminder string   `json:"firstNightReminder"`
	OtherNightReminder string   `json:"otherNightReminder"`
	Reminders          []string `json:"reminders"`
}

func LoadCatalog(r io.Reader) (*Catalog, error) {
	var raw []json.RawMessage

	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &CatalogError{Index: -1, Reason: "无法解析 JSON 数组", Err: err}
	}

	c := &Catalog{
		roles: make(map[string]RoleDefinition, len(raw)),
		order: make([]string, 0, len(raw)),
	}

	for i, msg := range raw {
		role, err := decodeRole(i, msg)
		if err != nil {
			return nil, err
		}

		if _, exists := c.roles[role.ID]; exists {
			return nil, &CatalogError{Index: i, Reason: fmt.Sprintf("角色 ID %q 重复", role.ID)}
		}

		c.roles[role.ID] = role
		c.order = append(c.order, role.ID)
	}

	return c, nil
}

func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开角色总表失败: %w", err)
	}
	defer f.Close()

	return LoadCatalog(f)
}

func decodeRole(index int, msg json.RawMessage) (RoleDefinition, error) {
	var rec roleRecord

	if err := json.Unmarshal(msg, &rec); err != nil {
		return RoleDefinition{}, &CatalogError{Index: index, Reason: "记录格式错误", Err: err}
	}

	switch {
	case rec.ID == nil || *rec.ID == "":
		return RoleDefinition{}, &CatalogError{Index: index, Reason: "缺少 id"}
	case rec.Name == nil:
		return RoleDefinition{}, &CatalogError{Index: index, Reason: fmt.Sprintf("角色 %q 缺少 name", *rec.ID)}
	case rec.Team == nil || *rec.Team == "":
		return RoleDefinition{}, &CatalogError{Index: index, Reason: fmt.Sprintf("角色 %q 缺少 team", *rec.ID)}
	case rec.Ability == nil:
		return RoleDefinition{}, &CatalogError{Index: index, Reason: fmt.Sprintf("角色 %q 缺少 ability", *rec.ID)}
	}

	return RoleDefinition{
		ID:                 *rec.ID,
		Name:               *rec.Name,
		Category:           Category(*rec.Team),
		Ability:            *rec.Ability,
		FirstNightOrder:    rec.FirstNightOrder,
		OtherNightOrder:    rec.OtherNightOrder,
		FirstNightReminder: rec.FirstNightReminder,
		OtherNightReminder: rec.OtherNightReminder,
		Reminders:          dedupe(rec.Reminders),
	}, nil
}

func (c *Catalog) Get(id string) (RoleDefinition, bool) {
	role, ok := c.roles[id]
	return role, ok
}

func (c *Catalog) Len() int {
	return len(c.order)
}

// Roles 按加载顺序返回全部角色的副本
func (c *Catalog) Roles() []RoleDefinition {
	roles := make([]RoleDefinition, 0, len(c.order))
	for _, id := range c.order {
		roles = append(roles, c.roles[id])
	}

	return roles
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))

	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}
