package game

import (
	"fmt"
	"strings"

	"storyteller-be/internal/assign"
	"storyteller-be/internal/catalog"

	"go.uber.org/zap"
)

// Game 是一局游戏的可变状态：天数、是否首夜、按座次排列的座位以及伪装角色。
// 它本身不加锁，所有修改都应在所属桌面的 GameMachine 事件循环中进行。
type Game struct {
	Day        int
	FirstNight bool
	Seats      []*Seat
	Decoys     []catalog.RoleDefinition

	script *catalog.Script
	engine *assign.Engine

	uniqueRoles bool
	decoyCount  int

	// 每次修改提交之后调用
	onRender func()
}

type Option func(*Game)

// WithUniqueRoles 要求手动添加座位时角色不可重复
func WithUniqueRoles() Option {
	return func(g *Game) {
		g.uniqueRoles = true
	}
}

func WithDecoyCount(n int) Option {
	return func(g *Game) {
		if n > 0 {
			g.decoyCount = n
		}
	}
}

func WithRenderer(fn func()) Option {
	return func(g *Game) {
		g.onRender = fn
	}
}

func NewGame(script *catalog.Script, engine *assign.Engine, opts ...Option) *Game {
	g := &Game{
		Day:        1,
		FirstNight: true,
		Seats:      make([]*Seat, 0),
		Decoys:     make([]catalog.RoleDefinition, 0),
		script:     script,
		engine:     engine,
		decoyCount: assign.DefaultDecoyCount,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

func (g *Game) Script() *catalog.Script {
	return g.script
}

func (g *Game) SetRenderer(fn func()) {
	g.onRender = fn
}

func (g *Game) render() {
	if g.onRender != nil {
		g.onRender()
	}
}

func (g *Game) seat(index int) (*Seat, error) {
	if index < 0 || index >= len(g.Seats) {
		return nil, fmt.Errorf("%w: %d", ErrSeatNotFound, index)
	}

	return g.Seats[index], nil
}

func (g *Game) resolveRole(id string) (catalog.RoleDefinition, error) {
	role, ok := g.script.Find(id)
	if !ok {
		return catalog.RoleDefinition{}, fmt.Errorf("%w: %q", ErrUnknownRole, id)
	}

	return role, nil
}

// 存活状态单独记录，剧本中的 Dead 标记不进入效果表
func (g *Game) defaultEffects() map[string]bool {
	effects := g.script.DefaultEffects()
	delete(effects, EffectDead)

	return effects
}

func (g *Game) assignedIDs() []string {
	ids := make([]string, 0, len(g.Seats))
	for _, s := range g.Seats {
		ids = append(ids, s.Role.ID)
	}

	return ids
}

// checkUnique 在要求角色唯一时检查其它座位是否已持有该角色，skip 为正在编辑的座位
func (g *Game) checkUnique(role catalog.RoleDefinition, skip int) error {
	if !g.uniqueRoles {
		return nil
	}

	for i, s := range g.Seats {
		if i != skip && s.Role.ID == role.ID {
			return fmt.Errorf("%w: %s 已分配给 %s", ErrDuplicateRole, role.Name, s.Name)
		}
	}

	return nil
}

// 座位角色变化后伪装角色必须避开已分配的角色
func (g *Game) refreshDecoys() {
	g.Decoys = g.engine.DeriveDecoys(g.script, g.assignedIDs(), g.decoyCount)
}

func (g *Game) AddSeat(name string, roleID string) (*Seat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptySeatName
	}

	role, err := g.resolveRole(roleID)
	if err != nil {
		return nil, err
	}

	if err := g.checkUnique(role, -1); err != nil {
		return nil, err
	}

	seat := newSeat(name, role, g.defaultEffects())
	g.Seats = append(g.Seats, seat)
	g.refreshDecoys()

	zap.L().Debug(
		"添加座位",
		zap.String("seat_id", seat.ID),
		zap.String("name", name),
		zap.String("role", role.ID),
	)

	g.render()

	return seat, nil
}

// EditSeat 修改座位名称与角色，category 非空时覆盖座位阵营（例如被转化的玩家）。
// 效果与存活状态保持不变，角色变化时重新生成伪装角色。
func (g *Game) EditSeat(index int, name string, roleID string, category catalog.Category) error {
	seat, err := g.seat(index)
	if err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptySeatName
	}

	role, err := g.resolveRole(roleID)
	if err != nil {
		return err
	}

	if err := g.checkUnique(role, index); err != nil {
		return err
	}

	roleChanged := seat.Role.ID != role.ID

	seat.Name = name
	seat.Role = role
	seat.Category = role.Category
	if category != "" {
		seat.Category = category
	}

	if roleChanged {
		g.refreshDecoys()
	}

	g.render()

	return nil
}

func (g *Game) RemoveSeat(index int) error {
	if _, err := g.seat(index); err != nil {
		return err
	}

	g.Seats = append(g.Seats[:index], g.Seats[index+1:]...)

	g.render()

	return nil
}

// ReassignAll 将 roles 打乱后按座次依次分配，并重置所有座位的效果与存活状态
func (g *Game) ReassignAll(roles []catalog.RoleDefinition) error {
	if err := g.reassign(roles); err != nil {
		return err
	}

	g.render()

	return nil
}

func (g *Game) reassign(roles []catalog.RoleDefinition) error {
	if len(roles) < len(g.Seats) {
		return fmt.Errorf(
			"%w：需要至少 %d 个，实际 %d 个",
			ErrInsufficientSelection,
			len(g.Seats),
			len(roles),
		)
	}

	shuffled := make([]catalog.RoleDefinition, len(roles))
	copy(shuffled, roles)
	g.engine.Shuffle(shuffled)

	for i, seat := range g.Seats {
		seat.Role = shuffled[i]
		seat.Category = shuffled[i].Category
		seat.Alive = true
		seat.Effects = g.defaultEffects()
	}

	g.refreshDecoys()

	zap.L().Debug(
		"重新分配全部角色",
		zap.Int("seats", len(g.Seats)),
		zap.Int("candidates", len(roles)),
	)

	return nil
}

// ReassignByID 是 ReassignAll 的手动选择入口，角色必须都在剧本中
func (g *Game) ReassignByID(roleIDs []string) error {
	roles := make([]catalog.RoleDefinition, 0, len(roleIDs))
	for _, id := range roleIDs {
		role, err := g.resolveRole(id)
		if err != nil {
			return err
		}
		roles = append(roles, role)
	}

	return g.ReassignAll(roles)
}

// AssignRandom 按配额为现有座位随机分配角色，并把对局重置到第一天
func (g *Game) AssignRandom() error {
	roles, err := g.engine.Assign(g.script, len(g.Seats))
	if err != nil {
		return err
	}

	if err := g.reassign(roles); err != nil {
		return err
	}

	g.Day = 1
	g.FirstNight = true

	g.render()

	return nil
}

// Generate 丢弃现有座位，新建 n 个座位并按配额分配角色
func (g *Game) Generate(n int) error {
	roles, err := g.engine.Assign(g.script, n)
	if err != nil {
		return err
	}

	seats := make([]*Seat, 0, n)
	for i, role := range roles {
		seats = append(seats, newSeat(fmt.Sprintf("Player %d", i+1), role, g.defaultEffects()))
	}

	g.Seats = seats
	g.Day = 1
	g.FirstNight = true
	g.refreshDecoys()

	zap.L().Debug("生成新对局", zap.Int("player_count", n))

	g.render()

	return nil
}

func (g *Game) AdvanceDay() {
	g.Day++
	g.FirstNight = false

	g.render()
}

// EndNight 结束当前夜晚，首夜标记永久关闭，可重复调用
func (g *Game) EndNight() {
	g.FirstNight = false

	g.render()
}

// ToggleEffect 翻转座位上的某个效果，效果名不限于剧本中的提醒标记。
// Dead 会翻转存活状态。
func (g *Game) ToggleEffect(index int, name string) error {
	seat, err := g.seat(index)
	if err != nil {
		return err
	}

	if name == "" {
		return ErrEmptyEffect
	}

	if name == EffectDead {
		seat.Alive = !seat.Alive
	} else {
		seat.Effects[name] = !seat.Effects[name]
	}

	g.render()

	return nil
}

// SetEffect 直接设置效果的值，重复设置同一个值不会产生变化
func (g *Game) SetEffect(index int, name string, value bool) error {
	seat, err := g.seat(index)
	if err != nil {
		return err
	}

	if name == "" {
		return ErrEmptyEffect
	}

	setEffect(seat, name, value)

	g.render()

	return nil
}

func setEffect(seat *Seat, name string, value bool) {
	if name == EffectDead {
		seat.Alive = !value
		return
	}

	seat.Effects[name] = value
}

// SetDecoys 由说书人手动指定伪装角色。
// 只能从善良阵营中选择，数量必须等于 min(伪装数量, 候选数量)。
func (g *Game) SetDecoys(roleIDs []string) error {
	pool := assign.DecoyPool(g.script)

	eligible := make(map[string]catalog.RoleDefinition, len(pool))
	for _, r := range pool {
		eligible[r.ID] = r
	}

	want := min(g.decoyCount, len(pool))
	if len(roleIDs) != want {
		return fmt.Errorf("%w：需要选择 %d 个，实际 %d 个", ErrInvalidDecoys, want, len(roleIDs))
	}

	decoys := make([]catalog.RoleDefinition, 0, len(roleIDs))
	seen := make(map[string]struct{}, len(roleIDs))

	for _, id := range roleIDs {
		role, ok := eligible[id]
		if !ok {
			return fmt.Errorf("%w：%q 不是可用的善良角色", ErrInvalidDecoys, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w：%q 重复", ErrInvalidDecoys, id)
		}
		seen[id] = struct{}{}

		decoys = append(decoys, role)
	}

	g.Decoys = decoys

	g.render()

	return nil
}

func (g *Game) RegenerateDecoys() {
	g.refreshDecoys()

	g.render()
}

// LoadScript 替换当前剧本，已有座位保持不变
func (g *Game) LoadScript(script *catalog.Script) error {
	if script.Len() == 0 {
		return ErrEmptyScript
	}

	g.script = script

	zap.L().Debug(
		"加载新剧本",
		zap.Int("roles", script.Len()),
		zap.Int("effects", len(script.Effects())),
	)

	g.render()

	return nil
}

func (g *Game) ComposeMessage(kind string, roleID string) (MessageCard, error) {
	known := false
	for _, k := range messageKinds {
		if k == kind {
			known = true
			break
		}
	}
	if !known {
		return MessageCard{}, fmt.Errorf("%w: %q", ErrUnknownMessageKind, kind)
	}

	role, err := g.resolveRole(roleID)
	if err != nil {
		return MessageCard{}, err
	}

	return MessageCard{
		Kind:     kind,
		RoleID:   role.ID,
		RoleName: role.Name,
		Text:     kind + " " + role.Name,
	}, nil
}

func (g *Game) Snapshot() GameSnapshot {
	seats := make([]SeatView, 0, len(g.Seats))
	for i, s := range g.Seats {
		effects := make(map[string]bool, len(s.Effects))
		for k, v := range s.Effects {
			effects[k] = v
		}

		seats = append(seats, SeatView{
			Index:    i,
			ID:       s.ID,
			Name:     s.Name,
			Category: s.Category,
			RoleID:   s.Role.ID,
			RoleName: s.Role.Name,
			Alive:    s.Alive,
			Effects:  effects,
			Status:   s.Status(),
		})
	}

	decoys := make([]catalog.RoleDefinition, len(g.Decoys))
	copy(decoys, g.Decoys)

	return GameSnapshot{
		Day:        g.Day,
		FirstNight: g.FirstNight,
		Seats:      seats,
		Decoys:     decoys,
		Effects:    g.script.Effects(),
		Script:     g.script.Roles(),
	}
}
