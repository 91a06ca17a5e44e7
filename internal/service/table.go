package service

import (
	"errors"
	"sync"
	"time"

	"storyteller-be/internal/assign"
	"storyteller-be/internal/catalog"
	"storyteller-be/internal/service/dto"
	"storyteller-be/internal/service/game"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyTableName     = errors.New("桌面名称不能为空")
	ErrEmptyModeratorName = errors.New("说书人名称不能为空")
	ErrEmptyTableID       = errors.New("桌面 ID 不能为空")
	ErrTableNotFound      = errors.New("桌面不存在")
	ErrTableBusy          = errors.New("桌面繁忙，请稍后再试")
)

type TableOptions struct {
	ShowAll     bool
	DecoyCount  int
	IdleTimeout time.Duration
	// 清理循环的间隔，为 0 时使用一分钟
	CleanupInterval time.Duration
}

type TableService struct {
	catalog       *catalog.Catalog
	defaultScript []string
	quotas        assign.QuotaTable
	opts          TableOptions

	state *tableServiceState
}

type tableServiceState struct {
	mu sync.RWMutex

	// 均为从 ID 到实体的映射
	tables map[string]*tableEntry

	cleanUpDone chan struct{}
	closeOnce   sync.Once
}

func NewTableService(
	c *catalog.Catalog,
	defaultScript []string,
	opts TableOptions,
) *TableService {
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Minute
	}

	// 没有默认剧本时使用整张总表
	if len(defaultScript) == 0 {
		defaultScript = catalog.FullScript(c).IDs()
	}

	ts := &TableService{
		catalog:       c,
		defaultScript: defaultScript,
		quotas:        assign.DefaultQuotas(),
		opts:          opts,
		state: &tableServiceState{
			tables:      make(map[string]*tableEntry),
			cleanUpDone: make(chan struct{}),
		},
	}

	// 启动一个 goroutine 定期清理失效的桌面
	go ts.startCleanupLoop()

	return ts
}

func (ts *TableService) Catalog() *catalog.Catalog {
	return ts.catalog
}

func (ts *TableService) Quotas() assign.QuotaTable {
	return ts.quotas
}

func (ts *TableService) startCleanupLoop() {
	ticker := time.NewTicker(ts.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ts.state.cleanUpDone:
			return

		case now := <-ticker.C:
			ts.sweep(now)
		}
	}
}

// sweep 移除已经结束或长时间无操作的桌面，返回被移除的数量
func (ts *TableService) sweep(now time.Time) int {
	ts.state.mu.Lock()
	defer ts.state.mu.Unlock()

	removed := 0
	for tableID, entry := range ts.state.tables {
		if isTableValid(entry, now, ts.opts.IdleTimeout) {
			continue
		}

		zap.S().Infof("桌面 %s 状态失效，开始清理", tableID)

		entry.shutdown()
		delete(ts.state.tables, tableID)
		removed++
	}

	return removed
}

// Close 停止清理循环并关闭所有桌面
func (ts *TableService) Close() {
	ts.state.closeOnce.Do(func() {
		close(ts.state.cleanUpDone)
	})

	ts.state.mu.Lock()
	defer ts.state.mu.Unlock()

	for tableID, entry := range ts.state.tables {
		entry.shutdown()
		delete(ts.state.tables, tableID)
	}
}

func (ts *TableService) CreateTable(req dto.CreateTableRequest) (dto.CreateTableResponse, error) {
	if req.TableName == "" {
		return dto.CreateTableResponse{}, ErrEmptyTableName
	}
	if req.ModeratorName == "" {
		return dto.CreateTableResponse{}, ErrEmptyModeratorName
	}

	ids := req.Script
	if len(ids) == 0 {
		ids = ts.defaultScript
	}

	script := catalog.DeriveScript(ts.catalog, ids)
	if script.Len() == 0 {
		return dto.CreateTableResponse{}, game.ErrEmptyScript
	}

	showAll := ts.opts.ShowAll
	if req.ShowAll != nil {
		showAll = *req.ShowAll
	}

	gameOpts := []game.Option{game.WithDecoyCount(ts.opts.DecoyCount)}
	if req.UniqueRoles {
		gameOpts = append(gameOpts, game.WithUniqueRoles())
	}

	// 每张桌面拥有独立的随机源
	g := game.NewGame(script, assign.NewEngine(ts.quotas, nil), gameOpts...)

	tableID := uuid.New().String()[:8]

	info := dto.TableInfo{
		ID:            tableID,
		Name:          req.TableName,
		ModeratorName: req.ModeratorName,
		ScriptIDs:     script.IDs(),
		ShowAll:       showAll,
		CreatedAt:     time.Now(),
	}

	doneCh := make(chan struct{})
	machine := game.NewGameMachine(game.MachineConfig{
		TableID:   tableID,
		TableName: req.TableName,
		ShowAll:   showAll,
		Catalog:   ts.catalog,
	}, g, doneCh)

	ts.state.mu.Lock()
	ts.state.tables[tableID] = &tableEntry{
		info:    info,
		machine: machine,
		doneCh:  doneCh,
	}
	ts.state.mu.Unlock()

	// 创建对应的独立 goroutine 来运行这张桌面的状态机
	go machine.Start()

	zap.S().Infof("桌面 %s 由 %s 创建，剧本共 %d 个角色", tableID, req.ModeratorName, script.Len())

	return dto.CreateTableResponse{
		Table:          info,
		SkippedRoleIDs: skippedRoleIDs(ts.catalog, ids),
	}, nil
}

func (ts *TableService) GetTable(tableID string) (dto.TableInfo, error) {
	if tableID == "" {
		return dto.TableInfo{}, ErrEmptyTableID
	}

	ts.state.mu.RLock()
	defer ts.state.mu.RUnlock()

	entry, ok := ts.state.tables[tableID]
	if !ok {
		return dto.TableInfo{}, ErrTableNotFound
	}

	return entry.info, nil
}

func (ts *TableService) ListTables() []dto.TableInfo {
	ts.state.mu.RLock()
	defer ts.state.mu.RUnlock()

	tables := make([]dto.TableInfo, 0, len(ts.state.tables))
	for _, entry := range ts.state.tables {
		tables = append(tables, entry.info)
	}

	sortTables(tables)

	return tables
}

// Attach 把一个连接接入桌面，返回状态机的请求通道。
// 加入确认会通过 respCh 送达，其中带有分配的连接 ID。
func (ts *TableService) Attach(
	tableID string,
	name string,
	respCh chan game.ResponseWrapper,
) (chan game.RequestWrapper, error) {
	if tableID == "" {
		return nil, ErrEmptyTableID
	}

	ts.state.mu.RLock()
	entry, ok := ts.state.tables[tableID]
	ts.state.mu.RUnlock()

	if !ok || entry.machine.IsFinished() {
		return nil, ErrTableNotFound
	}

	reqCh := entry.machine.GetReqCh()

	joinReq := game.RequestWrapper{
		ReqType: game.REQ_JOIN_GAME,
		NativeData: &game.JoinGameRequest{
			Name:   name,
			RespCh: respCh,
		},
	}

	zap.S().Debugf("桌面 %s 收到加入请求：%s", tableID, name)

	reqTimer := time.NewTimer(5 * time.Second)
	defer reqTimer.Stop()

	select {
	case reqCh <- joinReq:
		return reqCh, nil

	case <-entry.doneCh:
		return nil, ErrTableNotFound

	case <-reqTimer.C:
		zap.S().Warnf("桌面 %s 无法及时处理加入请求，%s 发送失败", tableID, name)
		return nil, ErrTableBusy
	}
}

func (ts *TableService) CloseTable(tableID string) error {
	if tableID == "" {
		return ErrEmptyTableID
	}

	ts.state.mu.Lock()
	defer ts.state.mu.Unlock()

	entry, ok := ts.state.tables[tableID]
	if !ok {
		return ErrTableNotFound
	}

	entry.shutdown()
	delete(ts.state.tables, tableID)

	zap.S().Infof("桌面 %s 已关闭", tableID)

	return nil
}
