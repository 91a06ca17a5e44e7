package assign

import (
	"fmt"
	"slices"

	"storyteller-be/internal/catalog"
)

// Requirement 是某一阵营需要的角色数
type Requirement struct {
	Category catalog.Category `json:"category"`
	Count    int              `json:"count"`
}

// Quota 中的顺序即抽取时遍历阵营的顺序
type Quota []Requirement

func (q Quota) Total() int {
	total := 0
	for _, r := range q {
		total += r.Count
	}

	return total
}

func (q Quota) CountOf(c catalog.Category) int {
	for _, r := range q {
		if r.Category == c {
			return r.Count
		}
	}

	return 0
}

// QuotaTable 按玩家人数给出各阵营配额，只支持表内人数
type QuotaTable map[int]Quota

func quota(townsfolk, outsider, minion, demon int) Quota {
	return Quota{
		{Category: catalog.CategoryTownsfolk, Count: townsfolk},
		{Category: catalog.CategoryOutsider, Count: outsider},
		{Category: catalog.CategoryMinion, Count: minion},
		{Category: catalog.CategoryDemon, Count: demon},
	}
}

// DefaultQuotas 是 5 到 15 人的标准配置
func DefaultQuotas() QuotaTable {
	return QuotaTable{
		5:  quota(3, 0, 1, 1),
		6:  quota(3, 1, 1, 1),
		7:  quota(5, 0, 1, 1),
		8:  quota(5, 1, 1, 1),
		9:  quota(5, 2, 1, 1),
		10: quota(7, 0, 2, 1),
		11: quota(7, 1, 2, 1),
		12: quota(7, 2, 2, 1),
		13: quota(9, 0, 3, 1),
		14: quota(9, 1, 3, 1),
		15: quota(9, 2, 3, 1),
	}
}

func (t QuotaTable) Lookup(playerCount int) (Quota, error) {
	q, ok := t[playerCount]
	if !ok {
		return nil, &UnsupportedPlayerCountError{Count: playerCount, Supported: t.Counts()}
	}

	return q, nil
}

// Counts 返回表内支持的人数，升序
func (t QuotaTable) Counts() []int {
	counts := make([]int, 0, len(t))
	for n := range t {
		counts = append(counts, n)
	}

	slices.Sort(counts)

	return counts
}

// Validate 检查每一项的配额之和恰好等于人数
func (t QuotaTable) Validate() error {
	for _, n := range t.Counts() {
		q := t[n]

		seen := make(map[catalog.Category]struct{}, len(q))
		for _, r := range q {
			if r.Count < 0 {
				return fmt.Errorf("%d 人配置中 %s 数量为负", n, r.Category)
			}
			if _, dup := seen[r.Category]; dup {
				return fmt.Errorf("%d 人配置中 %s 重复出现", n, r.Category)
			}
			seen[r.Category] = struct{}{}
		}

		if q.Total() != n {
			return fmt.Errorf("%d 人配置合计为 %d", n, q.Total())
		}
	}

	return nil
}
