package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
)

// Script 是本局允许出现的角色子集，以及这些角色可能施加的效果名
type Script struct {
	roles   []RoleDefinition
	effects []string
}

type scriptRecord struct {
	ID string `json:"id"`
}

// ParseScript 读取剧本文件中的角色 ID 列表。
// 每条记录是 {"id": "..."}，也接受直接写成字符串的 ID。
func ParseScript(r io.Reader) ([]string, error) {
	var raw []json.RawMessage

	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &CatalogError{Index: -1, Reason: "无法解析剧本", Err: err}
	}

	ids := make([]string, 0, len(raw))

	for i, msg := range raw {
		var id string
		if err := json.Unmarshal(msg, &id); err == nil {
			ids = append(ids, id)
			continue
		}

		var rec scriptRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, &CatalogError{Index: i, Reason: "剧本记录格式错误", Err: err}
		}

		ids = append(ids, rec.ID)
	}

	return ids, nil
}

func ParseScriptFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开剧本失败: %w", err)
	}
	defer f.Close()

	return ParseScript(f)
}

// DeriveScript 按给定顺序从总表中挑出角色。
// 不在总表中的 ID（包括 _meta 之类的元信息）与重复 ID 会被直接忽略。
func DeriveScript(c *Catalog, ids []string) *Script {
	s := &Script{
		roles: make([]RoleDefinition, 0, len(ids)),
	}

	seen := make(map[string]struct{}, len(ids))

	for _, id := range ids {
		role, ok := c.Get(id)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		s.roles = append(s.roles, role)
	}

	s.effects = collectEffects(s.roles)

	return s
}

// FullScript 在没有指定剧本时使用整张总表
func FullScript(c *Catalog) *Script {
	return DeriveScript(c, c.order)
}

func collectEffects(roles []RoleDefinition) []string {
	set := make(map[string]struct{})
	for _, r := range roles {
		for _, e := range r.Reminders {
			set[e] = struct{}{}
		}
	}

	effects := make([]string, 0, len(set))
	for e := range set {
		effects = append(effects, e)
	}

	slices.Sort(effects)

	return effects
}

func (s *Script) Roles() []RoleDefinition {
	return slices.Clone(s.roles)
}

func (s *Script) Len() int {
	return len(s.roles)
}

func (s *Script) Effects() []string {
	return slices.Clone(s.effects)
}

func (s *Script) IDs() []string {
	ids := make([]string, 0, len(s.roles))
	for _, r := range s.roles {
		ids = append(ids, r.ID)
	}

	return ids
}

func (s *Script) Find(id string) (RoleDefinition, bool) {
	for _, r := range s.roles {
		if r.ID == id {
			return r, true
		}
	}

	return RoleDefinition{}, false
}

// DefaultEffects 返回全部效果均为 false 的新 map，每次调用都是新副本
func (s *Script) DefaultEffects() map[string]bool {
	effects := make(map[string]bool, len(s.effects))
	for _, e := range s.effects {
		effects[e] = false
	}

	return effects
}
