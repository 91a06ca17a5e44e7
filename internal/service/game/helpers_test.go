package game

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"storyteller-be/internal/assign"
	"storyteller-be/internal/catalog"

	"github.com/stretchr/testify/require"
)

// 一个足以支持 5–15 人的小型总表
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	records := []string{
		`{"id": "imp", "name": "Imp", "team": "demon", "ability": "kill",
		  "first_night_order": 40, "other_night_order": 24,
		  "otherNightReminder": "The Imp points to a player.", "reminders": ["Dead"]}`,
		`{"id": "poisoner", "name": "Poisoner", "team": "minion", "ability": "poison",
		  "first_night_order": 17, "other_night_order": 7,
		  "firstNightReminder": "The Poisoner points.", "otherNightReminder": "The Poisoner points.",
		  "reminders": ["Poisoned"]}`,
		`{"id": "spy", "name": "Spy", "team": "minion", "ability": "grimoire",
		  "first_night_order": 48, "other_night_order": 68,
		  "firstNightReminder": "Show the Grimoire.", "otherNightReminder": "Show the Grimoire."}`,
		`{"id": "baron", "name": "Baron", "team": "minion", "ability": "+2 outsiders"}`,
		`{"id": "drunk", "name": "Drunk", "team": "outsider", "ability": "drunk", "reminders": ["Drunk"]}`,
		`{"id": "saint", "name": "Saint", "team": "outsider", "ability": "execution loses"}`,
		`{"id": "recluse", "name": "Recluse", "team": "outsider", "ability": "register evil"}`,
		`{"id": "lunatic", "name": "Lunatic", "team": "evil townsfolk", "ability": "thinks demon"}`,
	}

	townsfolk := []string{"washerwoman", "librarian", "investigator", "chef", "empath",
		"fortuneteller", "undertaker", "monk", "ravenkeeper", "virgin", "slayer"}
	for i, id := range townsfolk {
		records = append(records, fmt.Sprintf(
			`{"id": %q, "name": %q, "team": "townsfolk", "ability": "info",
			  "first_night_order": %d, "firstNightReminder": "Wake the %s.", "reminders": ["Wrong"]}`,
			id, strings.ToUpper(id[:1])+id[1:], 20+i, id,
		))
	}

	c, err := catalog.LoadCatalog(strings.NewReader("[" + strings.Join(records, ",") + "]"))
	require.NoError(t, err)

	return c
}

func testEngine(seed uint64) *assign.Engine {
	return assign.NewEngine(assign.DefaultQuotas(), rand.New(rand.NewPCG(seed, seed^0x9e3779b9)))
}

func newTestGame(t *testing.T, opts ...Option) *Game {
	t.Helper()

	script := catalog.FullScript(testCatalog(t))

	return NewGame(script, testEngine(42), opts...)
}

func addSeats(t *testing.T, g *Game, roleIDs ...string) {
	t.Helper()

	for i, id := range roleIDs {
		_, err := g.AddSeat(fmt.Sprintf("P%d", i+1), id)
		require.NoError(t, err)
	}
}
