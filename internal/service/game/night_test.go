package game

import (
	"strings"
	"testing"

	"storyteller-be/internal/assign"
	"storyteller-be/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gameFromJSON(t *testing.T, raw string, quotas assign.QuotaTable) *Game {
	t.Helper()

	c, err := catalog.LoadCatalog(strings.NewReader(raw))
	require.NoError(t, err)

	engine := testEngine(7)
	if quotas != nil {
		engine = assign.NewEngine(quotas, nil)
	}

	return NewGame(catalog.FullScript(c), engine)
}

func visited(t *testing.T, n *Night, showAll bool) []string {
	t.Helper()

	prompt, err := n.Start(showAll)
	require.NoError(t, err)

	names := make([]string, 0)
	for prompt != nil {
		names = append(names, prompt.SeatName)
		prompt, err = n.Decide(NightDecision{})
		require.NoError(t, err)
	}

	return names
}

const priorityCatalog = `[
  {"id": "five", "name": "Five", "team": "townsfolk", "ability": "", "first_night_order": 5, "firstNightReminder": "five"},
  {"id": "one", "name": "One", "team": "townsfolk", "ability": "", "first_night_order": 1, "firstNightReminder": "one"},
  {"id": "none", "name": "None", "team": "townsfolk", "ability": "", "firstNightReminder": "none"},
  {"id": "three", "name": "Three", "team": "minion", "ability": "", "first_night_order": 3, "firstNightReminder": "three",
   "other_night_order": 1, "otherNightReminder": "three again"},
  {"id": "silent", "name": "Silent", "team": "outsider", "ability": "", "first_night_order": 2}
]`

func TestNight_OrdersByPriorityWithMissingLast(t *testing.T) {
	g := gameFromJSON(t, priorityCatalog, nil)
	for _, id := range []string{"five", "one", "none", "three"} {
		_, err := g.AddSeat(id, id)
		require.NoError(t, err)
	}

	n := NewNight(g)
	assert.Equal(t, []string{"one", "three", "five", "none"}, visited(t, n, false))
	assert.False(t, g.FirstNight, "completed night ends the first night")
}

func TestNight_ExcludesSeatsWithoutPromptUnlessShowAll(t *testing.T) {
	g := gameFromJSON(t, priorityCatalog, nil)
	for _, id := range []string{"silent", "five", "one"} {
		_, err := g.AddSeat(id, id)
		require.NoError(t, err)
	}

	n := NewNight(g)
	prompt, err := n.Start(true)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1}, n.Order())
	assert.Equal(t, "one", prompt.SeatName)

	require.NoError(t, n.Cancel())
	g.FirstNight = true

	assert.Equal(t, []string{"one", "five"}, visited(t, n, false))
}

func TestNight_ShowAllGivesPlaceholderPrompt(t *testing.T) {
	g := gameFromJSON(t, priorityCatalog, nil)
	_, err := g.AddSeat("silent", "silent")
	require.NoError(t, err)

	n := NewNight(g)
	prompt, err := n.Start(true)
	require.NoError(t, err)
	require.NotNil(t, prompt)
	assert.Equal(t, noNightAction, prompt.Prompt)
	assert.Empty(t, prompt.Targets)
}

func TestNight_OtherNightUsesRecurringPhase(t *testing.T) {
	g := gameFromJSON(t, priorityCatalog, nil)
	for _, id := range []string{"one", "three", "five"} {
		_, err := g.AddSeat(id, id)
		require.NoError(t, err)
	}
	g.AdvanceDay()

	n := NewNight(g)
	prompt, err := n.Start(false)
	require.NoError(t, err)
	require.NotNil(t, prompt)
	assert.Equal(t, "three again", prompt.Prompt)
	assert.False(t, prompt.FirstNight)

	next, err := n.Decide(NightDecision{})
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestNight_TiesKeepSeatOrder(t *testing.T) {
	raw := `[
	  {"id": "a", "name": "A", "team": "townsfolk", "ability": "", "first_night_order": 4, "firstNightReminder": "x"},
	  {"id": "b", "name": "B", "team": "townsfolk", "ability": "", "first_night_order": 4, "firstNightReminder": "x"},
	  {"id": "c", "name": "C", "team": "townsfolk", "ability": "", "first_night_order": 4, "firstNightReminder": "x"}
	]`
	g := gameFromJSON(t, raw, nil)
	for _, id := range []string{"c", "a", "b", "a"} {
		_, err := g.AddSeat("seat-"+id, id)
		require.NoError(t, err)
	}

	n := NewNight(g)
	assert.Equal(t, []string{"seat-c", "seat-a", "seat-b", "seat-a"}, visited(t, n, false))
}

func TestNight_EmptyStaysIdle(t *testing.T) {
	g := gameFromJSON(t, priorityCatalog, nil)
	_, err := g.AddSeat("silent", "silent")
	require.NoError(t, err)

	n := NewNight(g)
	prompt, err := n.Start(false)
	require.NoError(t, err)
	assert.Nil(t, prompt)
	assert.Equal(t, NIGHT_IDLE, n.State())
	assert.True(t, g.FirstNight)
	assert.Nil(t, n.Current())
}

func TestNight_DecisionSetsEffectOnTargets(t *testing.T) {
	g := newTestGame(t)
	addSeats(t, g, "poisoner", "chef", "empath", "imp")

	require.NoError(t, g.ToggleEffect(2, "Poisoned"))

	n := NewNight(g)
	prompt, err := n.Start(false)
	require.NoError(t, err)
	require.Equal(t, "poisoner", prompt.RoleID)
	assert.Equal(t, "The Poisoner points.", prompt.Prompt)
	assert.Equal(t, g.Script().Effects(), prompt.Effects)

	targets := make([]int, 0)
	for _, tgt := range prompt.Targets {
		targets = append(targets, tgt.SeatIndex)
	}
	assert.Equal(t, []int{1, 2, 3}, targets, "self is not selectable")

	// 同一目标出现两次、已经为 true 的目标都不会被翻转
	_, err = n.Decide(NightDecision{Effect: "Poisoned", Targets: []int{1, 1, 2}})
	require.NoError(t, err)

	assert.True(t, g.Seats[1].Effects["Poisoned"])
	assert.True(t, g.Seats[2].Effects["Poisoned"])
	assert.False(t, g.Seats[3].Effects["Poisoned"])
}

func TestNight_NoEffectIgnoresTargets(t *testing.T) {
	g := newTestGame(t)
	addSeats(t, g, "poisoner", "chef")

	n := NewNight(g)
	_, err := n.Start(false)
	require.NoError(t, err)

	_, err = n.Decide(NightDecision{Targets: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, g.defaultEffects(), g.Seats[1].Effects)
}

func TestNight_DeadEffectKillsTarget(t *testing.T) {
	g := newTestGame(t)
	addSeats(t, g, "imp", "chef")
	g.AdvanceDay()

	n := NewNight(g)
	prompt, err := n.Start(false)
	require.NoError(t, err)
	require.Equal(t, "imp", prompt.RoleID)

	_, err = n.Decide(NightDecision{Effect: EffectDead, Targets: []int{1}})
	require.NoError(t, err)
	assert.False(t, g.Seats[1].Alive)
}

func TestNight_InvalidTargetChangesNothing(t *testing.T) {
	g := newTestGame(t)
	addSeats(t, g, "poisoner", "chef")

	n := NewNight(g)
	_, err := n.Start(false)
	require.NoError(t, err)

	for _, bad := range [][]int{{0}, {1, 9}, {-1}} {
		_, err = n.Decide(NightDecision{Effect: "Poisoned", Targets: bad})
		assert.ErrorIs(t, err, ErrInvalidTarget)
	}

	assert.False(t, g.Seats[1].Effects["Poisoned"])
	assert.Equal(t, NIGHT_RUNNING, n.State())
	assert.Equal(t, "poisoner", n.Current().RoleID)
}

func TestNight_CancelFinalizesLikeCompletion(t *testing.T) {
	g := newTestGame(t)
	addSeats(t, g, "poisoner", "chef", "empath")

	n := NewNight(g)
	_, err := n.Start(false)
	require.NoError(t, err)

	_, err = n.Start(false)
	assert.ErrorIs(t, err, ErrNightRunning)

	require.NoError(t, n.Cancel())
	assert.Equal(t, NIGHT_IDLE, n.State())
	assert.False(t, g.FirstNight)
	assert.Nil(t, n.Current())

	assert.ErrorIs(t, n.Cancel(), ErrNoNightRunning)
	_, err = n.Decide(NightDecision{})
	assert.ErrorIs(t, err, ErrNoNightRunning)
}

func TestNight_EndNightIsIdempotent(t *testing.T) {
	g := newTestGame(t)

	g.EndNight()
	g.EndNight()

	assert.False(t, g.FirstNight)
	assert.Equal(t, 1, g.Day)
}

func TestNight_OutOfRangeSeatPanics(t *testing.T) {
	g := newTestGame(t)
	addSeats(t, g, "chef", "empath")

	n := NewNight(g)
	_, err := n.Start(false)
	require.NoError(t, err)

	// 夜晚进行中座位被绕过状态机删除，属于程序错误
	g.Seats = g.Seats[:0]

	assert.Panics(t, func() { n.Current() })
}

func TestNight_EndToEndScenario(t *testing.T) {
	raw := `[
	  {"id": "A", "name": "A", "team": "x", "ability": "", "first_night_order": 1, "firstNightReminder": "wake A"},
	  {"id": "B", "name": "B", "team": "x", "ability": ""},
	  {"id": "C", "name": "C", "team": "y", "ability": "", "first_night_order": 2, "firstNightReminder": "wake C"}
	]`
	quotas := assign.QuotaTable{3: assign.Quota{{Category: "x", Count: 2}, {Category: "y", Count: 1}}}
	g := gameFromJSON(t, raw, quotas)

	require.NoError(t, g.Generate(3))

	counts := make(map[catalog.Category]int)
	for _, s := range g.Seats {
		counts[s.Category]++
	}
	assert.Equal(t, 2, counts["x"])
	assert.Equal(t, 1, counts["y"])

	n := NewNight(g)
	prompt, err := n.Start(false)
	require.NoError(t, err)

	roles := make([]string, 0)
	for prompt != nil {
		roles = append(roles, prompt.RoleID)
		prompt, err = n.Decide(NightDecision{})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"A", "C"}, roles)
	assert.False(t, g.FirstNight)
}
