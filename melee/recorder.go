package melee

import (
	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/datarecording"
)

const gameTable = "melee_games"

type gameEntry struct {
	Game     int
	Mode     string
	Map      string
	Player1  string
	Player2  string
	Start    string
	Duration float64
}

// A ResultRecorder writes one row per finished game into a DataRecorder.
type ResultRecorder struct {
	recorder datarecording.DataRecorder
}

// NewResultRecorder creates a ResultRecorder. The table is created right
// away.
func NewResultRecorder(recorder datarecording.DataRecorder) *ResultRecorder {
	recorder.CreateTable(gameTable, gameEntry{})

	return &ResultRecorder{recorder: recorder}
}

// Func records the game if the hook is invoked at the end of a game.
func (r *ResultRecorder) Func(ctx actor.HookCtx) {
	if ctx.Pos != HookPosGameEnd {
		return
	}

	rec, ok := ctx.Item.(GameRecord)
	if !ok {
		return
	}

	r.recorder.InsertData(gameTable, gameEntry{
		Game:     rec.Game,
		Mode:     string(rec.Mode),
		Map:      rec.Settings.Map,
		Player1:  rec.Players[0].String(),
		Player2:  rec.Players[1].String(),
		Start:    rec.Start.UTC().Format("2006-01-02T15:04:05.000Z"),
		Duration: rec.End.Sub(rec.Start).Seconds(),
	})
	r.recorder.Flush()
}
