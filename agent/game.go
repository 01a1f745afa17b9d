package agent

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/sc2melee/action"
	"github.com/sarchlab/sc2melee/client"
	"github.com/sarchlab/sc2melee/game"
	"github.com/sarchlab/sc2melee/wire"
)

func (a *Agent) createGame(m game.CreateGame) {
	a.state = creatingState{}

	eff := a.Effector()
	rc := a.requests

	eff.Logger().WithField("map", m.Settings.Map).Info("creating game")

	eff.Spawn(func(ctx context.Context) {
		rsp, err := rc.Request(ctx, wire.NewCreateGame(m.Settings, m.Players))
		if err == nil {
			err = wire.CreateGameError(rsp)
		}

		eff.SendSelf(gameCreated{err: err})
	})
}

func (a *Agent) startGame(m game.GameReady) {
	a.state = playingState{}

	eff := a.Effector()
	g := &gameLoop{
		player:   a.player,
		requests: a.requests,
		actions:  action.NewClient(eff, a.batcher),
		control:  action.NewControlClient(eff, a.batcher),
		realtime: a.settings.Realtime,
		stepSize: a.stepSize,
		logger:   eff.Logger(),
	}

	eff.Spawn(func(ctx context.Context) {
		eff.SendSelf(gameFinished{err: g.run(ctx, m)})
	})
}

// gameLoop joins a game and steps the player until the game ends.
type gameLoop struct {
	player   Player
	requests action.RequestClient
	actions  action.Client
	control  action.ControlClient
	realtime bool
	stepSize uint32
	logger   *logrus.Entry
}

func (g *gameLoop) run(ctx context.Context, ready game.GameReady) error {
	rsp, err := g.requests.Request(ctx, wire.NewJoinGame(ready.Setup, ready.Ports))
	if err != nil {
		return errors.Wrap(err, "joining game")
	}

	playerID, err := wire.JoinGameResult(rsp)
	if err != nil {
		return errors.Wrap(err, "joining game")
	}

	g.logger.WithField("player", playerID).Info("joined game")

	if err := g.start(ctx, playerID); err != nil {
		return err
	}

	for {
		obs, err := g.requests.Request(ctx, wire.NewObservation())
		if err != nil {
			return errors.Wrap(err, "observing")
		}

		if obs.Status == wire.StatusEnded || obs.Status == wire.StatusQuit {
			return g.end(ctx, obs)
		}

		if err := g.step(ctx, obs); err != nil {
			return err
		}
	}
}

func (g *gameLoop) start(ctx context.Context, playerID uint32) error {
	starter, ok := g.player.(GameStarter)
	if !ok {
		return nil
	}

	info, err := g.requests.Request(ctx, wire.NewGameInfo())
	if err != nil {
		return errors.Wrap(err, "requesting game info")
	}

	err = starter.OnGameStart(ctx, GameStart{PlayerID: playerID, GameInfo: info})

	return errors.Wrap(err, "starting player")
}

func (g *gameLoop) step(ctx context.Context, obs *wire.Response) error {
	loop, err := wire.ObservationGameLoop(obs)
	if err != nil {
		return errors.Wrap(err, "reading observation")
	}

	err = g.player.OnStep(ctx, Step{
		GameLoop:    loop,
		Observation: obs,
		Actions:     g.actions,
		Requests:    g.requests,
	})
	if err != nil {
		return errors.Wrapf(err, "player step at game loop %d", loop)
	}

	if err := g.control.Step(ctx); err != nil {
		return errors.Wrapf(err, "sending commands at game loop %d", loop)
	}

	if g.realtime {
		return nil
	}

	_, err = g.requests.Request(ctx, wire.NewStep(g.stepSize))

	return errors.Wrapf(err, "stepping game loop %d", loop)
}

func (g *gameLoop) end(ctx context.Context, obs *wire.Response) error {
	results, err := wire.ObservationResults(obs)
	if err != nil {
		return errors.Wrap(err, "reading results")
	}

	for _, r := range results {
		g.logger.WithField("player", r.PlayerID).
			WithField("result", r.Result.String()).
			Info("game ended")
	}

	if ender, ok := g.player.(GameEnder); ok {
		if err := ender.OnGameEnd(ctx, results); err != nil {
			return errors.Wrap(err, "ending player")
		}
	}

	_, err = g.requests.Request(ctx, wire.NewLeaveGame())

	var gameErr *client.GameError
	if errors.As(err, &gameErr) {
		g.logger.WithError(err).Debug("leaving an ended game")
		return nil
	}

	return errors.Wrap(err, "leaving game")
}
