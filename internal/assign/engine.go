package assign

import (
	"storyteller-be/internal/catalog"

	"go.uber.org/zap"
)

// DefaultDecoyCount 是展示给邪恶阵营的伪装角色数量
const DefaultDecoyCount = 3

// Engine 负责按配额随机分配角色。
// 它不持有任何对局状态，结果由调用方写回座位。
type Engine struct {
	quotas QuotaTable
	rnd    Rand
}

func NewEngine(quotas QuotaTable, rnd Rand) *Engine {
	if quotas == nil {
		quotas = DefaultQuotas()
	}
	if rnd == nil {
		rnd = NewRand()
	}

	return &Engine{
		quotas: quotas,
		rnd:    rnd,
	}
}

func (e *Engine) Quotas() QuotaTable {
	return e.quotas
}

// Assign 为 playerCount 名玩家抽取角色，返回顺序即座位获得角色的顺序。
// 所有前置检查都在第一次随机抽取之前完成，失败时没有任何副作用。
func (e *Engine) Assign(script *catalog.Script, playerCount int) ([]catalog.RoleDefinition, error) {
	q, err := e.quotas.Lookup(playerCount)
	if err != nil {
		return nil, err
	}

	pools := partition(script.Roles())

	for _, req := range q {
		if have := len(pools[req.Category]); have < req.Count {
			return nil, &InsufficientRolesError{
				Category: req.Category,
				Need:     req.Count,
				Have:     have,
			}
		}
	}

	selected := make([]catalog.RoleDefinition, 0, playerCount)
	for _, req := range q {
		if req.Count == 0 {
			continue
		}
		selected = append(selected, sample(e.rnd, pools[req.Category], req.Count)...)
	}

	// 整体再洗一次，避免座位顺序与阵营相关
	shuffle(e.rnd, selected)

	zap.L().Debug(
		"完成角色抽取",
		zap.Int("player_count", playerCount),
		zap.Int("script_size", script.Len()),
	)

	return selected, nil
}

// Shuffle 原地打乱给定角色
func (e *Engine) Shuffle(roles []catalog.RoleDefinition) {
	shuffle(e.rnd, roles)
}

// DeriveDecoys 从未被分配的善良角色中抽取至多 size 个伪装角色。
// 候选不足时返回全部候选，不会报错。
func (e *Engine) DeriveDecoys(script *catalog.Script, excludedIDs []string, size int) []catalog.RoleDefinition {
	excluded := make(map[string]struct{}, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = struct{}{}
	}

	pool := make([]catalog.RoleDefinition, 0)
	for _, r := range DecoyPool(script) {
		if _, skip := excluded[r.ID]; skip {
			continue
		}
		pool = append(pool, r)
	}

	k := min(size, len(pool))
	if k <= 0 {
		return []catalog.RoleDefinition{}
	}

	return sample(e.rnd, pool, k)
}

// DecoyPool 返回剧本中可作为伪装的角色，手动指定伪装时也用它校验
func DecoyPool(script *catalog.Script) []catalog.RoleDefinition {
	pool := make([]catalog.RoleDefinition, 0)
	for _, r := range script.Roles() {
		if r.Category.IsGood() {
			pool = append(pool, r)
		}
	}

	return pool
}

func partition(roles []catalog.RoleDefinition) map[catalog.Category][]catalog.RoleDefinition {
	pools := make(map[catalog.Category][]catalog.RoleDefinition)
	for _, r := range roles {
		pools[r.Category] = append(pools[r.Category], r)
	}

	return pools
}
