package game

import (
	"slices"
	"strings"

	"storyteller-be/internal/catalog"
)

// 存活状态不放在效果表里，但可以通过同一个切换入口修改
const EffectDead = "Dead"

type Seat struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// 与角色阵营保持同步，编辑座位时可被说书人覆盖
	Category catalog.Category       `json:"category"`
	Role     catalog.RoleDefinition `json:"role"`
	Alive    bool                   `json:"alive"`
	Effects  map[string]bool        `json:"effects"`
}

func newSeat(name string, role catalog.RoleDefinition, effects map[string]bool) *Seat {
	return &Seat{
		ID:       ShortID(),
		Name:     name,
		Category: role.Category,
		Role:     role,
		Alive:    true,
		Effects:  effects,
	}
}

// Status 与说书人面板上的状态一致，例如 "Dead / Poisoned"
func (s *Seat) Status() string {
	flags := make([]string, 0)
	if !s.Alive {
		flags = append(flags, EffectDead)
	}

	active := make([]string, 0)
	for name, on := range s.Effects {
		if on {
			active = append(active, name)
		}
	}
	slices.Sort(active)

	flags = append(flags, active...)
	if len(flags) == 0 {
		return "Healthy"
	}

	return strings.Join(flags, " / ")
}

// 说书人私下展示给玩家的消息卡片
const (
	MSG_YOU_ARE_NOW      = "You are now"
	MSG_YOU_WERE_CHOSEN  = "You were chosen by"
	MSG_YOU_WERE_SEEN_AS = "You were seen as"
	MSG_YOU_LEARN_THAT   = "You learn that"
	MSG_YOU_FEEL_LIKE    = "You feel like"
)

var messageKinds = []string{
	MSG_YOU_ARE_NOW,
	MSG_YOU_WERE_CHOSEN,
	MSG_YOU_WERE_SEEN_AS,
	MSG_YOU_LEARN_THAT,
	MSG_YOU_FEEL_LIKE,
}

func MessageKinds() []string {
	return slices.Clone(messageKinds)
}

type MessageCard struct {
	Kind     string `json:"kind"`
	RoleID   string `json:"role_id"`
	RoleName string `json:"role_name"`
	Text     string `json:"text"`
}

type SeatView struct {
	Index    int              `json:"index"`
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Category catalog.Category `json:"category"`
	RoleID   string           `json:"role_id"`
	RoleName string           `json:"role_name"`
	Alive    bool             `json:"alive"`
	Effects  map[string]bool  `json:"effects"`
	Status   string           `json:"status"`
}

type GameSnapshot struct {
	Day        int                      `json:"day"`
	FirstNight bool                     `json:"first_night"`
	Seats      []SeatView               `json:"seats"`
	Decoys     []catalog.RoleDefinition `json:"decoys"`
	Effects    []string                 `json:"effects"`
	Script     []catalog.RoleDefinition `json:"script"`
}
