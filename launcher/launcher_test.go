package launcher

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/game"
)

// requester sends its requests on Start and stops the network once it
// received the expected number of replies.
type requester struct {
	*actor.Base

	launcher actor.ID
	requests []interface{}
	expected int
	received []interface{}
}

func newRequester(requests ...interface{}) *requester {
	return &requester{
		Base: actor.NewBase(actor.PortSpec{
			Outputs: []actor.Constraint{actor.RequireOne(game.RoleLauncher)},
		}),
		requests: requests,
	}
}

func (r *requester) Update(evt actor.Event) error {
	if r.Intercept(evt) {
		return nil
	}

	switch e := evt.(type) {
	case actor.Start:
		r.Effector().SendInOrder(r.launcher, r.requests...)
	case actor.Message:
		r.received = append(r.received, e.Payload)
		if len(r.received) == r.expected {
			r.Effector().Stop()
		}
	}

	return nil
}

var _ = Describe("Launcher", func() {
	var (
		mockCtrl *gomock.Controller
		starter  *MockStarter
		network  *actor.Network
		launcher *Launcher
		ctx      context.Context
		cancel   context.CancelFunc
	)

	install := Install{Exe: "/sc2/Versions/Base75689/SC2_x64", Support: "/sc2/Support64"}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		starter = NewMockStarter(mockCtrl)
		network = actor.NewNetwork("test")
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)

		var err error
		launcher, err = MakeBuilder().
			WithInstall(install).
			WithStarter(starter).
			Build()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cancel()
		mockCtrl.Finish()
	})

	run := func(r *requester) error {
		launcherID := network.Add("Launcher", launcher)
		requesterID := network.Add("Requester", r)
		network.Connect(requesterID, launcherID, game.RoleLauncher)
		r.launcher = launcherID

		return network.Run(ctx)
	}

	expectLaunches := func(n int) {
		for i := 0; i < n; i++ {
			proc := NewMockProcess(mockCtrl)
			proc.EXPECT().Pid().Return(1000 + i).AnyTimes()
			proc.EXPECT().Kill().Return(nil)

			starter.EXPECT().Start(gomock.Any()).Return(proc, nil)
		}
	}

	It("should report empty pools", func() {
		r := newRequester(game.GetInstancePool{}, game.GetPortsPool{})
		r.expected = 2

		Expect(run(r)).To(Succeed())

		Expect(r.received).To(HaveLen(2))
		Expect(r.received[0].(game.InstancePool).Instances).To(BeEmpty())
		Expect(r.received[1].(game.PortsPool).Ports).To(BeEmpty())
	})

	It("should hand out ports in blocks of three", func() {
		expectLaunches(3)

		r := newRequester(
			game.LaunchInstance{}, game.LaunchInstance{}, game.LaunchInstance{})
		r.expected = 6

		Expect(run(r)).To(Succeed())

		instances := r.received[4].(game.InstancePool).Instances
		Expect(instances).To(HaveLen(3))
		Expect(instances[0].URL).To(Equal("ws://127.0.0.1:9168/sc2api"))
		Expect(instances[0].Ports).To(Equal(game.PortSet{GamePort: 9169, BasePort: 9170}))
		Expect(instances[1].URL).To(Equal("ws://127.0.0.1:9174/sc2api"))
		Expect(instances[1].Ports).To(Equal(game.PortSet{GamePort: 9175, BasePort: 9176}))
		Expect(instances[2].URL).To(Equal("ws://127.0.0.1:9177/sc2api"))

		ports := r.received[5].(game.PortsPool).Ports
		Expect(ports).To(Equal([]game.Ports{
			{SharedPort: 9171, ServerPorts: game.PortSet{GamePort: 9172, BasePort: 9173}},
			{SharedPort: 9180, ServerPorts: game.PortSet{GamePort: 9181, BasePort: 9182}},
		}))
	})

	It("should publish the pools after each launch", func() {
		expectLaunches(1)

		r := newRequester(game.LaunchInstance{})
		r.expected = 2

		Expect(run(r)).To(Succeed())

		Expect(r.received[0]).To(BeAssignableToTypeOf(game.InstancePool{}))
		Expect(r.received[0].(game.InstancePool).Instances).To(HaveLen(1))
		Expect(r.received[1].(game.PortsPool).Ports).To(HaveLen(1))
		Expect(launcher.Instances()).To(HaveLen(1))
	})

	It("should start the executable with its listen port", func() {
		proc := NewMockProcess(mockCtrl)
		proc.EXPECT().Pid().Return(1000).AnyTimes()
		proc.EXPECT().Kill().Return(nil)

		var cmd Command
		starter.EXPECT().Start(gomock.Any()).DoAndReturn(func(c Command) (Process, error) {
			cmd = c
			return proc, nil
		})

		r := newRequester(game.LaunchInstance{})
		r.expected = 2

		Expect(run(r)).To(Succeed())
		Expect(cmd.Path).To(Equal(install.Exe))
		Expect(cmd.Dir).To(Equal(install.Support))
		Expect(cmd.Args).To(ContainElements("-listen", "127.0.0.1", "-port", "9168"))
	})

	It("should fail when an instance cannot start", func() {
		starter.EXPECT().Start(gomock.Any()).Return(nil, errors.New("no such file"))

		r := newRequester(game.LaunchInstance{})

		err := run(r)

		Expect(err).To(MatchError(ContainSubstring("launching instance")))
	})

	It("should only serve its requesters", func() {
		launcherID := network.Add("Launcher", launcher)
		network.Send(launcherID, game.GetInstancePool{})

		Expect(network.Run(ctx)).NotTo(Succeed())
	})

	It("should reject an invalid base port", func() {
		s := DefaultSettings()
		s.BasePort = 0

		_, err := MakeBuilder().WithSettings(s).WithInstall(install).Build()

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("instanceCommand", func() {
	It("should run through wine", func() {
		s := DefaultSettings()
		s.UseWine = true

		cmd := instanceCommand(Install{Exe: "/sc2/SC2.exe"}, s, 9168)

		Expect(cmd.Path).To(Equal("wine"))
		Expect(cmd.Args[0]).To(Equal("/sc2/SC2.exe"))
		Expect(cmd.Args).To(ContainElements("-windowWidth", "1024"))
	})
})
