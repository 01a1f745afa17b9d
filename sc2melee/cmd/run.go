package cmd

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/agent"
	"github.com/sarchlab/sc2melee/datarecording"
	"github.com/sarchlab/sc2melee/game"
	"github.com/sarchlab/sc2melee/launcher"
	"github.com/sarchlab/sc2melee/melee"
	"github.com/sarchlab/sc2melee/monitoring"
	"github.com/sarchlab/sc2melee/tracing"
)

type runOptions struct {
	mapPath     string
	dir         string
	wine        bool
	port        int32
	realtime    bool
	vsComputer  bool
	difficulty  int32
	race        string
	repeat      int
	endless     bool
	monitor     bool
	monitorPort int
	openMonitor bool
	record      string
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play games between two idle bots or a bot and the built-in AI.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		runOpts.override(cmd)

		return runMelee(cmd.Context())
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runOpts.mapPath, "map", "", "Map to play on")
	f.StringVar(&runOpts.dir, "dir", "", "Game installation directory")
	f.BoolVar(&runOpts.wine, "wine", false, "Run the game through Wine")
	f.Int32Var(&runOpts.port, "port", launcher.DefaultBasePort,
		"First port handed out to the game instances")
	f.BoolVar(&runOpts.realtime, "realtime", false, "Play in real time")
	f.BoolVar(&runOpts.vsComputer, "vs-computer", false,
		"Play against the built-in AI")
	f.Int32Var(&runOpts.difficulty, "difficulty", int32(game.Medium),
		"Difficulty of the built-in AI, from 1 to 10")
	f.StringVar(&runOpts.race, "race", "Random", "Race of the bots")
	f.IntVar(&runOpts.repeat, "repeat", 1, "Number of games to play")
	f.BoolVar(&runOpts.endless, "endless", false,
		"Play until interrupted")
	f.BoolVar(&runOpts.monitor, "monitor", false, "Start the web monitor")
	f.IntVar(&runOpts.monitorPort, "monitor-port", 0,
		"Port of the web monitor, random if 0")
	f.BoolVar(&runOpts.openMonitor, "open-monitor", false,
		"Open the web monitor in a browser")
	f.StringVar(&runOpts.record, "record", "",
		"Record results and step traces into this SQLite database")

	runCmd.MarkFlagsMutuallyExclusive("repeat", "endless")

	rootCmd.AddCommand(runCmd)
}

// override applies the flags that were set on top of the configuration.
func (o *runOptions) override(cmd *cobra.Command) {
	flags := cmd.Flags()

	if flags.Changed("map") {
		cfg.Map = o.mapPath
	}

	if flags.Changed("dir") {
		cfg.Dir = o.dir
	}

	if flags.Changed("wine") {
		cfg.UseWine = o.wine
	}

	if flags.Changed("port") {
		cfg.BasePort = o.port
	}

	if flags.Changed("realtime") {
		cfg.Realtime = o.realtime
	}

	if flags.Changed("monitor") || o.openMonitor {
		cfg.Monitor = o.monitor || o.openMonitor
	}

	if flags.Changed("monitor-port") {
		cfg.MonitorPort = o.monitorPort
	}

	if flags.Changed("record") {
		cfg.Record = o.record
	}
}

func (o *runOptions) suite(settings game.Settings) (melee.Suite, error) {
	switch {
	case o.endless:
		return melee.EndlessRepeat(settings), nil
	case o.repeat < 1:
		return melee.Suite{}, errors.Errorf("--repeat must be at least 1, got %d", o.repeat)
	case o.repeat == 1:
		return melee.OneAndDone(settings), nil
	}

	return melee.Repeat(settings, o.repeat), nil
}

func (o *runOptions) participants(b agent.Builder) ([]melee.Participant, error) {
	race, err := game.ParseRace(o.race)
	if err != nil {
		return nil, err
	}

	join := func(p agent.Player) melee.Participant {
		return melee.ParticipantFunc(func(net *actor.Network, name string) actor.ID {
			_, id := b.WithPlayer(p).Join(net, name)
			return id
		})
	}

	bot := join(agent.Idle{Race: race, Name: "Idle"})

	if !o.vsComputer {
		return []melee.Participant{bot, join(agent.Idle{Race: race, Name: "Idle"})}, nil
	}

	difficulty := game.Difficulty(o.difficulty)
	if !difficulty.Valid() {
		return nil, errors.Errorf("invalid difficulty %d", o.difficulty)
	}

	return []melee.Participant{
		bot,
		join(agent.Computer{Race: game.Random, Difficulty: difficulty}),
	}, nil
}

func runMelee(ctx context.Context) error {
	if cfg.Map == "" {
		return errors.New("no map given, use --map or SC2_MAP")
	}

	suite, err := runOpts.suite(cfg.Game())
	if err != nil {
		return err
	}

	l, err := launcher.MakeBuilder().WithSettings(cfg.Launcher()).Build()
	if err != nil {
		return err
	}

	stepTimes := tracing.NewAverageTimeTracer(tracing.WallClock{}, nil)
	agents := agent.MakeBuilder().WithTracer(stepTimes)

	builder := melee.MakeBuilder().
		WithLauncher(l).
		WithSuite(suite).
		WithInterruptBreaker()

	var recorder datarecording.DataRecorder
	if cfg.Record != "" {
		recorder = datarecording.New(cfg.Record)
		agents = agents.WithTracer(tracing.NewDBTracer(tracing.WallClock{}, recorder))
		builder = builder.WithDataRecorder(recorder)
	}

	players, err := runOpts.participants(agents)
	if err != nil {
		return err
	}

	builder = builder.WithPlayers(players...)

	var monitor *monitoring.Monitor
	if cfg.Monitor {
		monitor = monitoring.NewMonitor().
			WithPortNumber(cfg.MonitorPort).
			WithBrowser(runOpts.openMonitor)
		builder = builder.WithMonitor(monitor)
	}

	net, m, err := builder.Build()
	if err != nil {
		return err
	}

	if monitor != nil {
		if err := monitor.StartServer(); err != nil {
			return err
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			_ = monitor.StopServer(shutdownCtx)
		}()
	}

	runErr := net.Run(ctx)

	logrus.WithField("games", m.Played()).
		WithField("steps", stepTimes.TotalCount()).
		WithField("average_step", stepTimes.AverageTime().String()).
		Info("melee finished")

	if recorder != nil {
		if err := recorder.Close(); err != nil && runErr == nil {
			runErr = err
		}
	}

	return runErr
}
