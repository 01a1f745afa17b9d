package actor

import (
	"context"
	"fmt"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"go.uber.org/mock/gomock"
)

const (
	roleUpstream Role = "Upstream"
	roleSide     Role = "Side"
)

type scripted struct {
	*Base

	name      string
	journal   *[]string
	onStart   func(eff *Effector) error
	onMessage func(eff *Effector, msg Message) error
}

func newScripted(name string, journal *[]string, ports PortSpec) *scripted {
	return &scripted{
		Base:    NewBase(ports),
		name:    name,
		journal: journal,
	}
}

func (p *scripted) Update(evt Event) error {
	if p.Intercept(evt) {
		p.record("init")
		return nil
	}

	switch e := evt.(type) {
	case Start:
		p.record("start")
		if p.onStart != nil {
			return p.onStart(p.Effector())
		}
	case Message:
		p.record(fmt.Sprintf("msg %v", e.Payload))
		if p.onMessage != nil {
			return p.onMessage(p.Effector(), e)
		}
	case Stop:
		p.record("stop")
	}

	return nil
}

func (p *scripted) record(s string) {
	*p.journal = append(*p.journal, p.name+" "+s)
}

var _ = Describe("Network", func() {
	var (
		mockCtrl *gomock.Controller
		network  *Network
		journal  []string
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		network = NewNetwork("test")
		journal = nil
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should reject a graph that violates a constraint before any event", func() {
		a := NewMockActor(mockCtrl)
		b := NewMockActor(mockCtrl)
		a.EXPECT().Ports().Return(PortSpec{
			Outputs: []Constraint{RequireExactly(roleUpstream, 2)},
		}).AnyTimes()
		b.EXPECT().Ports().Return(PortSpec{
			Inputs: []Constraint{RequireOne(roleUpstream)},
		}).AnyTimes()

		aID := network.Add("A", a)
		bID := network.Add("B", b)
		network.Connect(aID, bID, roleUpstream)

		err := network.Run(context.Background())

		var constraintErr *ConstraintError
		Expect(errors.As(err, &constraintErr)).To(BeTrue())
		Expect(constraintErr.Actor).To(Equal("A"))
		Expect(constraintErr.Direction).To(Equal(Output))
		Expect(constraintErr.Got).To(Equal(1))
	})

	It("should reject connections of undeclared roles", func() {
		a := newScripted("A", &journal, PortSpec{})
		b := newScripted("B", &journal, PortSpec{
			Inputs: []Constraint{Variadic(roleUpstream)},
		})
		aID := network.Add("A", a)
		bID := network.Add("B", b)
		network.Connect(aID, bID, roleUpstream)

		err := network.Run(context.Background())

		var constraintErr *ConstraintError
		Expect(errors.As(err, &constraintErr)).To(BeTrue())
		Expect(constraintErr.Undeclared).To(BeTrue())
		Expect(journal).To(BeEmpty())
	})

	It("should init all, then start all, then deliver messages", func() {
		a := newScripted("A", &journal, PortSpec{
			Outputs: []Constraint{RequireOne(roleUpstream)},
		})
		b := newScripted("B", &journal, PortSpec{
			Inputs: []Constraint{RequireOne(roleUpstream)},
		})
		aID := network.Add("A", a)
		bID := network.Add("B", b)
		network.Connect(aID, bID, roleUpstream)

		a.onStart = func(eff *Effector) error {
			return eff.SendReqOutput(roleUpstream, "hello")
		}
		b.onMessage = func(eff *Effector, msg Message) error {
			Expect(msg.Src).To(Equal(aID))
			Expect(eff.ReqInput(roleUpstream)).To(Equal(aID))
			eff.Stop()
			return nil
		}

		Expect(network.Run(context.Background())).To(Succeed())
		Expect(journal).To(Equal([]string{
			"A init", "B init",
			"A start", "B start",
			"B msg hello",
			"A stop", "B stop",
		}))
	})

	It("should keep the order of messages between two actors", func() {
		received := make([]int, 0)
		a := newScripted("A", &journal, PortSpec{})
		b := newScripted("B", &journal, PortSpec{})
		network.Add("A", a)
		bID := network.Add("B", b)

		a.onStart = func(eff *Effector) error {
			for i := 0; i < 100; i++ {
				eff.Send(bID, i)
			}
			eff.Send(bID, "done")
			return nil
		}
		b.onMessage = func(eff *Effector, msg Message) error {
			if n, ok := msg.Payload.(int); ok {
				received = append(received, n)
				return nil
			}
			eff.Stop()
			return nil
		}

		Expect(network.Run(context.Background())).To(Succeed())
		Expect(received).To(HaveLen(100))
		for i, n := range received {
			Expect(n).To(Equal(i))
		}
	})

	It("should terminate the network when a handler fails", func() {
		sentinel := errors.New("boom")
		a := newScripted("A", &journal, PortSpec{})
		b := newScripted("B", &journal, PortSpec{})
		network.Add("A", a)
		network.Add("B", b)

		a.onStart = func(eff *Effector) error {
			eff.SendSelf("fail")
			return nil
		}
		a.onMessage = func(eff *Effector, msg Message) error {
			return sentinel
		}

		err := network.Run(context.Background())

		Expect(errors.Cause(err)).To(Equal(sentinel))
		Expect(err.Error()).To(ContainSubstring("actor A"))
		Expect(journal).To(ContainElements("A stop", "B stop"))
	})

	It("should drop messages sent to unknown actors", func() {
		a := newScripted("A", &journal, PortSpec{})
		network.Add("A", a)

		a.onStart = func(eff *Effector) error {
			eff.Send(ID("nobody"), "lost")
			eff.SendSelf("found")
			return nil
		}
		a.onMessage = func(eff *Effector, msg Message) error {
			eff.Stop()
			return nil
		}

		Expect(network.Run(context.Background())).To(Succeed())
		Expect(journal).To(ContainElement("A msg found"))
		Expect(journal).NotTo(ContainElement("A msg lost"))
	})

	It("should terminate with the error reported by a task", func() {
		sentinel := errors.New("task failed")
		a := newScripted("A", &journal, PortSpec{})
		network.Add("A", a)

		a.onStart = func(eff *Effector) error {
			eff.Spawn(func(ctx context.Context) {
				eff.Fail(sentinel)
			})
			return nil
		}

		err := network.Run(context.Background())

		Expect(errors.Cause(err)).To(Equal(sentinel))
	})

	It("should deliver delayed messages back to the actor", func() {
		a := newScripted("A", &journal, PortSpec{})
		network.Add("A", a)

		a.onStart = func(eff *Effector) error {
			eff.After(5*time.Millisecond, "tick")
			return nil
		}
		a.onMessage = func(eff *Effector, msg Message) error {
			Expect(msg.Src).To(Equal(eff.Self()))
			eff.Stop()
			return nil
		}

		Expect(network.Run(context.Background())).To(Succeed())
		Expect(journal).To(ContainElement("A msg tick"))
	})

	It("should stop when the context is cancelled", func() {
		a := newScripted("A", &journal, PortSpec{})
		network.Add("A", a)

		taskDone := make(chan struct{})
		a.onStart = func(eff *Effector) error {
			eff.Spawn(func(ctx context.Context) {
				<-ctx.Done()
				close(taskDone)
			})
			return nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(10*time.Millisecond, cancel)

		err := network.Run(ctx)

		Expect(err).To(MatchError(context.Canceled))
		Expect(taskDone).To(BeClosed())
		Expect(journal).To(ContainElement("A stop"))
	})

	It("should accept messages injected from outside", func() {
		a := newScripted("A", &journal, PortSpec{})
		aID := network.Add("A", a)

		a.onMessage = func(eff *Effector, msg Message) error {
			Expect(msg.Src).To(Equal(External))
			eff.Stop()
			return nil
		}

		Expect(network.Send(aID, "outside")).To(BeTrue())
		Expect(network.Run(context.Background())).To(Succeed())
		Expect(network.Send(aID, "late")).To(BeFalse())
	})

	It("should inspect actors only between deliveries", func() {
		a := newScripted("A", &journal, PortSpec{})
		aID := network.Add("A", a)

		handling := make(chan struct{})
		release := make(chan struct{})
		a.onMessage = func(eff *Effector, msg Message) error {
			close(handling)
			<-release
			eff.Stop()
			return nil
		}

		network.Send(aID, "slow")

		done := make(chan error)
		go func() { done <- network.Run(context.Background()) }()
		<-handling

		inspected := make(chan struct{})
		go network.Inspect(func() { close(inspected) })

		Consistently(inspected, 20*time.Millisecond).ShouldNot(BeClosed())
		close(release)
		Eventually(inspected).Should(BeClosed())
		Eventually(done).Should(Receive(BeNil()))
	})

	It("should inspect a paused network", func() {
		network.Add("A", newScripted("A", &journal, PortSpec{}))
		network.Pause()
		defer network.Continue()

		inspected := false
		network.Inspect(func() { inspected = true })

		Expect(inspected).To(BeTrue())
		Expect(network.IsPaused()).To(BeTrue())
	})

	It("should report missing and ambiguous peers", func() {
		a := newScripted("A", &journal, PortSpec{
			Outputs: []Constraint{Variadic(roleSide)},
		})
		b := newScripted("B", &journal, PortSpec{
			Inputs: []Constraint{Variadic(roleSide)},
		})
		c := newScripted("C", &journal, PortSpec{
			Inputs: []Constraint{Variadic(roleSide)},
		})
		aID := network.Add("A", a)
		bID := network.Add("B", b)
		cID := network.Add("C", c)
		network.Connect(aID, bID, roleSide)
		network.Connect(aID, cID, roleSide)

		a.onStart = func(eff *Effector) error {
			Expect(eff.VarOutputs(roleSide)).To(Equal([]ID{bID, cID}))
			_, err := eff.ReqOutput(roleSide)
			Expect(err).To(HaveOccurred())
			_, err = eff.ReqInput(roleSide)
			Expect(err).To(HaveOccurred())
			eff.Stop()
			return nil
		}

		Expect(network.Run(context.Background())).To(Succeed())
	})

	It("should invoke hooks around every delivery", func() {
		hook := NewMockHook(mockCtrl)
		network.AcceptHook(hook)

		a := newScripted("A", &journal, PortSpec{})
		network.Add("A", a)
		a.onStart = func(eff *Effector) error {
			eff.Stop()
			return nil
		}

		hook.EXPECT().Func(gomock.Any()).Times(6)

		Expect(network.Run(context.Background())).To(Succeed())
	})

	It("should panic on duplicated names", func() {
		network.Add("A", newScripted("A", &journal, PortSpec{}))

		Expect(func() {
			network.Add("A", newScripted("A", &journal, PortSpec{}))
		}).To(Panic())
	})

	It("should not run twice", func() {
		a := newScripted("A", &journal, PortSpec{})
		network.Add("A", a)
		a.onStart = func(eff *Effector) error {
			eff.Stop()
			return nil
		}

		Expect(network.Run(context.Background())).To(Succeed())
		Expect(network.Run(context.Background())).NotTo(Succeed())
	})
})

var _ = Describe("InterruptBreaker", func() {
	It("should stop the network on interrupt", func() {
		network := NewNetwork("test")
		signals := make(chan os.Signal, 1)
		breaker := NewInterruptBreaker()
		breaker.subscribe = func() (<-chan os.Signal, func()) {
			return signals, func() {}
		}
		network.Add("Breaker", breaker)

		signals <- os.Interrupt

		Expect(network.Run(context.Background())).To(Succeed())
	})
})
