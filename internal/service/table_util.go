package service

import (
	"slices"
	"strings"
	"sync"
	"time"

	"storyteller-be/internal/catalog"
	"storyteller-be/internal/service/dto"
	"storyteller-be/internal/service/game"
)

type tableEntry struct {
	info    dto.TableInfo
	machine *game.GameMachine
	doneCh  chan struct{}

	closeOnce sync.Once
}

// shutdown 通知状态机退出，可重复调用
func (e *tableEntry) shutdown() {
	e.closeOnce.Do(func() {
		close(e.doneCh)
	})
}

func isTableValid(entry *tableEntry, now time.Time, idleTimeout time.Duration) bool {
	if entry == nil || entry.machine.IsFinished() {
		return false
	}

	if idleTimeout > 0 && now.Sub(entry.machine.LastActive()) > idleTimeout {
		return false
	}

	return true
}

func skippedRoleIDs(c *catalog.Catalog, ids []string) []string {
	skipped := make([]string, 0)
	for _, id := range ids {
		if _, ok := c.Get(id); !ok {
			skipped = append(skipped, id)
		}
	}

	return skipped
}

func sortTables(tables []dto.TableInfo) {
	slices.SortFunc(tables, func(a, b dto.TableInfo) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
