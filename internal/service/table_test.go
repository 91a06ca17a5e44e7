package service

import (
	"strings"
	"testing"
	"time"

	"storyteller-be/internal/catalog"
	"storyteller-be/internal/service/dto"
	"storyteller-be/internal/service/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRoles = `[
  {"id": "imp", "name": "Imp", "team": "demon", "ability": "kill", "other_night_order": 24,
   "otherNightReminder": "The Imp points to a player."},
  {"id": "poisoner", "name": "Poisoner", "team": "minion", "ability": "poison", "first_night_order": 17,
   "firstNightReminder": "The Poisoner points.", "reminders": ["Poisoned"]},
  {"id": "saint", "name": "Saint", "team": "outsider", "ability": "execution loses"},
  {"id": "chef", "name": "Chef", "team": "townsfolk", "ability": "pairs", "first_night_order": 36,
   "firstNightReminder": "Show the Chef a number."},
  {"id": "empath", "name": "Empath", "team": "townsfolk", "ability": "neighbours", "first_night_order": 37,
   "firstNightReminder": "Show the Empath a number."}
]`

func newTestService(t *testing.T, opts TableOptions) *TableService {
	t.Helper()

	c, err := catalog.LoadCatalog(strings.NewReader(testRoles))
	require.NoError(t, err)

	if opts.CleanupInterval == 0 {
		opts.CleanupInterval = time.Hour
	}
	if opts.DecoyCount == 0 {
		opts.DecoyCount = 3
	}

	ts := NewTableService(c, []string{"imp", "poisoner", "chef"}, opts)
	t.Cleanup(ts.Close)

	return ts
}

func createTable(t *testing.T, ts *TableService, script ...string) dto.TableInfo {
	t.Helper()

	resp, err := ts.CreateTable(dto.CreateTableRequest{
		TableName:     "friday",
		ModeratorName: "st",
		Script:        script,
	})
	require.NoError(t, err)

	return resp.Table
}

func waitFor(t *testing.T, respCh chan game.ResponseWrapper, respType string) game.ResponseWrapper {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case resp, ok := <-respCh:
			require.True(t, ok, "response channel closed while waiting for %s", respType)
			if resp.RespType == respType {
				return resp
			}
		case <-timeout:
			require.FailNow(t, "timed out waiting for "+respType)
		}
	}
}

func TestCreateTable_Validation(t *testing.T) {
	ts := newTestService(t, TableOptions{})

	_, err := ts.CreateTable(dto.CreateTableRequest{ModeratorName: "st"})
	assert.ErrorIs(t, err, ErrEmptyTableName)

	_, err = ts.CreateTable(dto.CreateTableRequest{TableName: "t"})
	assert.ErrorIs(t, err, ErrEmptyModeratorName)

	_, err = ts.CreateTable(dto.CreateTableRequest{
		TableName:     "t",
		ModeratorName: "st",
		Script:        []string{"nobody"},
	})
	assert.ErrorIs(t, err, game.ErrEmptyScript)

	assert.Empty(t, ts.ListTables())
}

func TestCreateTable_Scripts(t *testing.T) {
	ts := newTestService(t, TableOptions{ShowAll: true})

	info := createTable(t, ts)
	assert.Equal(t, []string{"imp", "poisoner", "chef"}, info.ScriptIDs)
	assert.True(t, info.ShowAll)

	showAll := false
	resp, err := ts.CreateTable(dto.CreateTableRequest{
		TableName:     "saturday",
		ModeratorName: "st",
		Script:        []string{"saint", "ghost", "empath"},
		ShowAll:       &showAll,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"saint", "empath"}, resp.Table.ScriptIDs)
	assert.Equal(t, []string{"ghost"}, resp.SkippedRoleIDs)
	assert.False(t, resp.Table.ShowAll)

	got, err := ts.GetTable(resp.Table.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Table, got)

	assert.Len(t, ts.ListTables(), 2)
}

func TestAttach_JoinsAndForwardsRequests(t *testing.T) {
	ts := newTestService(t, TableOptions{})
	info := createTable(t, ts)

	respCh := make(chan game.ResponseWrapper, 64)
	reqCh, err := ts.Attach(info.ID, "grimoire", respCh)
	require.NoError(t, err)

	joined := waitFor(t, respCh, game.RESP_JOIN_GAME).Data.(game.JoinGameResponse)
	assert.Equal(t, info.ID, joined.Table.TableID)
	assert.Equal(t, game.STAGE_DAY, joined.Table.Stage)

	reqCh <- game.RequestWrapper{
		ReqType: game.REQ_ADD_SEAT,
		Data:    []byte(`{"name": "Alice", "role_id": "chef"}`),
		ConnID:  joined.ConnID,
	}

	state := waitFor(t, respCh, game.RESP_GAME_STATE).Data.(game.TableState)
	require.Len(t, state.Game.Seats, 1)
	assert.Equal(t, "chef", state.Game.Seats[0].RoleID)

	_, err = ts.Attach("missing", "x", respCh)
	assert.ErrorIs(t, err, ErrTableNotFound)

	_, err = ts.Attach("", "x", respCh)
	assert.ErrorIs(t, err, ErrEmptyTableID)
}

func TestCloseTable(t *testing.T) {
	ts := newTestService(t, TableOptions{})
	info := createTable(t, ts)

	respCh := make(chan game.ResponseWrapper, 64)
	_, err := ts.Attach(info.ID, "grimoire", respCh)
	require.NoError(t, err)
	waitFor(t, respCh, game.RESP_JOIN_GAME)

	require.NoError(t, ts.CloseTable(info.ID))
	waitFor(t, respCh, game.RESP_CLOSED)

	_, err = ts.GetTable(info.ID)
	assert.ErrorIs(t, err, ErrTableNotFound)
	assert.ErrorIs(t, ts.CloseTable(info.ID), ErrTableNotFound)
}

func TestSweep_RemovesIdleAndFinishedTables(t *testing.T) {
	ts := newTestService(t, TableOptions{IdleTimeout: time.Hour})

	idle := createTable(t, ts)
	closed := createTable(t, ts)

	respCh := make(chan game.ResponseWrapper, 64)
	reqCh, err := ts.Attach(closed.ID, "grimoire", respCh)
	require.NoError(t, err)
	waitFor(t, respCh, game.RESP_JOIN_GAME)

	reqCh <- game.RequestWrapper{ReqType: game.REQ_CLOSE}
	waitFor(t, respCh, game.RESP_CLOSED)

	assert.Eventually(t, func() bool {
		return ts.sweep(time.Now()) == 1
	}, time.Second, 10*time.Millisecond)

	_, err = ts.GetTable(closed.ID)
	assert.ErrorIs(t, err, ErrTableNotFound)

	_, err = ts.GetTable(idle.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, ts.sweep(time.Now().Add(2*time.Hour)))
	assert.Empty(t, ts.ListTables())
}

func TestCreateTable_FullCatalogWithoutDefaultScript(t *testing.T) {
	c, err := catalog.LoadCatalog(strings.NewReader(testRoles))
	require.NoError(t, err)

	ts := NewTableService(c, nil, TableOptions{CleanupInterval: time.Hour})
	t.Cleanup(ts.Close)

	info := createTable(t, ts)
	assert.Equal(t, []string{"imp", "poisoner", "saint", "chef", "empath"}, info.ScriptIDs)
}
