package game

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"storyteller-be/internal/catalog"

	"go.uber.org/zap"
)

// NoPriority 是没有行动顺序的角色的排序值，排在所有有顺序的角色之后
const NoPriority = math.MaxInt

const noNightAction = "(No night action)"

type NightState string

const (
	NIGHT_IDLE    NightState = "Idle"
	NIGHT_RUNNING NightState = "Running"
)

// Night 逐个唤醒座位：每一步等待说书人给出决定，应用到 Game 之后再前进。
// 取消任意一步都会终止剩余流程，收尾方式与正常结束相同。
type Night struct {
	game  *Game
	state NightState

	firstNight bool
	order      []int
	pos        int
}

type NightTarget struct {
	SeatIndex int    `json:"seat_index"`
	Name      string `json:"name"`
	RoleName  string `json:"role_name"`
}

type NightPrompt struct {
	Position   int              `json:"position"`
	Total      int              `json:"total"`
	FirstNight bool             `json:"first_night"`
	SeatIndex  int              `json:"seat_index"`
	SeatName   string           `json:"seat_name"`
	RoleID     string           `json:"role_id"`
	RoleName   string           `json:"role_name"`
	Category   catalog.Category `json:"category"`
	Status     string           `json:"status"`
	Prompt     string           `json:"prompt"`
	Ability    string           `json:"ability"`
	Targets    []NightTarget    `json:"targets"`
	Effects    []string         `json:"effects"`
}

// NightDecision 中 Effect 为空表示不施加效果
type NightDecision struct {
	Effect  string `json:"effect,omitempty"`
	Targets []int  `json:"targets,omitempty"`
}

func NewNight(g *Game) *Night {
	return &Night{
		game:  g,
		state: NIGHT_IDLE,
	}
}

func (n *Night) State() NightState {
	return n.state
}

// Order 返回本夜的唤醒顺序（座位下标）
func (n *Night) Order() []int {
	return slices.Clone(n.order)
}

// Start 构建本夜需要唤醒的座位顺序。
// 没有任何座位需要唤醒时返回 nil, nil，状态保持 Idle。
func (n *Night) Start(showAll bool) (*NightPrompt, error) {
	if n.state == NIGHT_RUNNING {
		return nil, ErrNightRunning
	}

	first := n.game.FirstNight
	order := nightOrder(n.game.Seats, first, showAll)

	if len(order) == 0 {
		zap.L().Debug("本夜没有需要唤醒的座位", zap.Bool("first_night", first))
		return nil, nil
	}

	n.state = NIGHT_RUNNING
	n.firstNight = first
	n.order = order
	n.pos = 0

	zap.L().Debug(
		"夜晚开始",
		zap.Bool("first_night", first),
		zap.Bool("show_all", showAll),
		zap.Ints("order", order),
	)

	n.game.render()

	return n.Current(), nil
}

func nightOrder(seats []*Seat, firstNight bool, showAll bool) []int {
	order := make([]int, 0, len(seats))
	for i, s := range seats {
		if showAll || s.Role.PromptFor(firstNight) != "" {
			order = append(order, i)
		}
	}

	priority := func(i int) int {
		p, ok := seats[i].Role.PriorityFor(firstNight)
		if !ok {
			return NoPriority
		}
		return p
	}

	// 稳定排序，同优先级保持座次顺序
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(priority(a), priority(b))
	})

	return order
}

// Current 返回当前需要处理的座位，不在夜晚中时返回 nil
func (n *Night) Current() *NightPrompt {
	if n.state != NIGHT_RUNNING {
		return nil
	}

	index := n.order[n.pos]
	seat := n.mustSeat(index)

	prompt := seat.Role.PromptFor(n.firstNight)
	if prompt == "" {
		prompt = noNightAction
	}

	targets := make([]NightTarget, 0, len(n.game.Seats)-1)
	for i, other := range n.game.Seats {
		if i == index {
			continue
		}
		targets = append(targets, NightTarget{
			SeatIndex: i,
			Name:      other.Name,
			RoleName:  other.Role.Name,
		})
	}

	return &NightPrompt{
		Position:   n.pos + 1,
		Total:      len(n.order),
		FirstNight: n.firstNight,
		SeatIndex:  index,
		SeatName:   seat.Name,
		RoleID:     seat.Role.ID,
		RoleName:   seat.Role.Name,
		Category:   seat.Category,
		Status:     seat.Status(),
		Prompt:     prompt,
		Ability:    seat.Role.Ability,
		Targets:    targets,
		Effects:    n.game.script.Effects(),
	}
}

// Decide 应用当前座位的决定并前进到下一个座位。
// 每个目标的效果被设为 true 而不是翻转。流程结束时返回 nil。
func (n *Night) Decide(d NightDecision) (*NightPrompt, error) {
	if n.state != NIGHT_RUNNING {
		return nil, ErrNoNightRunning
	}

	self := n.order[n.pos]

	// 先校验全部目标，任何一个无效都不做修改
	if d.Effect != "" {
		for _, t := range d.Targets {
			if t == self || t < 0 || t >= len(n.game.Seats) {
				return nil, fmt.Errorf("%w: %d", ErrInvalidTarget, t)
			}
		}

		for _, t := range d.Targets {
			setEffect(n.mustSeat(t), d.Effect, true)
		}
	}

	zap.L().Debug(
		"夜晚行动完成",
		zap.Int("seat_index", self),
		zap.String("effect", d.Effect),
		zap.Ints("targets", d.Targets),
	)

	n.pos++
	if n.pos >= len(n.order) {
		n.finish()
		return nil, nil
	}

	n.game.render()

	return n.Current(), nil
}

// Cancel 终止剩余的唤醒流程，并像正常结束一样完成收尾
func (n *Night) Cancel() error {
	if n.state != NIGHT_RUNNING {
		return ErrNoNightRunning
	}

	zap.L().Debug(
		"夜晚流程被取消",
		zap.Int("position", n.pos),
		zap.Int("total", len(n.order)),
	)

	n.finish()

	return nil
}

func (n *Night) finish() {
	n.state = NIGHT_IDLE
	n.order = nil
	n.pos = 0

	n.game.EndNight()
}

// 座位下标只会来自本夜顺序或当前座位列表，越界说明程序有误
func (n *Night) mustSeat(index int) *Seat {
	if index < 0 || index >= len(n.game.Seats) {
		panic(fmt.Sprintf("night sequencer: seat index %d out of range (%d seats)", index, len(n.game.Seats)))
	}

	return n.game.Seats[index]
}
