package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sc2melee/actor"
)

type sampleStruct struct {
	field1 int
	field2 string
	field3 *sampleStruct
	field4 []sampleStruct
}

type sampleActor struct {
	*actor.Base

	state   string
	inbox   actor.Buffer
	outbox  actor.Buffer
	ignored actor.Buffer
}

func (a *sampleActor) Update(evt actor.Event) error {
	a.Intercept(evt)
	return nil
}

func (a *sampleActor) State() string {
	return a.state
}

func newSampleActor(name string) *sampleActor {
	return &sampleActor{
		Base:   actor.NewBase(actor.PortSpec{}),
		state:  "Waiting",
		inbox:  actor.NewBuffer(name+".Inbox", 4),
		outbox: actor.NewBuffer(name+".Outbox", 2),
	}
}

// countingActor changes its state on every message it sends itself.
type countingActor struct {
	*actor.Base

	state string
	count int
	limit int
}

func (a *countingActor) Update(evt actor.Event) error {
	if a.Intercept(evt) {
		return nil
	}

	switch evt.(type) {
	case actor.Start:
		a.Effector().SendSelf("next")
	case actor.Message:
		a.count++
		a.state = fmt.Sprintf("Counted%d", a.count)

		if a.count >= a.limit {
			a.Effector().Stop()
			return nil
		}

		a.Effector().SendSelf("next")
	}

	return nil
}

func (a *countingActor) State() string {
	return a.state
}

func get(h http.Handler, url string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	return rec
}

var _ = Describe("Monitor", func() {
	var (
		m       *Monitor
		network *actor.Network
		a, b    *sampleActor
	)

	BeforeEach(func() {
		network = actor.NewNetwork("Net")
		a = newSampleActor("A")
		b = newSampleActor("B")
		network.Add("A", a)
		network.Add("B", b)

		m = NewMonitor()
		m.RegisterNetwork(network)
	})

	It("should register actors and their buffers", func() {
		Expect(m.actors).To(HaveLen(2))
		Expect(m.collectBuffers()).To(HaveLen(4))
	})

	It("should find buffers created after registration", func() {
		a.ignored = actor.NewBuffer("A.Late", 8)
		a.ignored.Push(1)

		rec := get(m.Router(), "/api/buffers?sort=level&limit=1")

		var rsp []bufferRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(Equal([]bufferRsp{
			{Buffer: "A.Late", Level: 1, Cap: 8},
		}))
	})

	It("should list actors with their states", func() {
		rec := get(m.Router(), "/api/list_actors")

		var rsp []actorRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(2))
		Expect(rsp[0].Name).To(Equal("A"))
		Expect(rsp[0].State).To(Equal("Waiting"))
		Expect(rsp[1].Name).To(Equal("B"))
	})

	It("should answer 404 for unknown actors", func() {
		rec := get(m.Router(), "/api/actor/C")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should report the network status", func() {
		network.Send(actor.ID("nobody"), "hello")

		rec := get(m.Router(), "/api/status")

		var rsp statusRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Network).To(Equal("Net"))
		Expect(rsp.Pending).To(Equal(1))
	})

	It("should sort buffers by percent", func() {
		a.outbox.Push(1)
		b.inbox.Push(1)
		b.inbox.Push(2)

		rec := get(m.Router(), "/api/buffers?limit=2")

		var rsp []bufferRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(Equal([]bufferRsp{
			{Buffer: "B.Inbox", Level: 2, Cap: 4},
			{Buffer: "A.Outbox", Level: 1, Cap: 2},
		}))
	})

	It("should sort buffers by level", func() {
		a.outbox.Push(1)
		b.inbox.Push(1)
		b.inbox.Push(2)

		rec := get(m.Router(), "/api/buffers?sort=level&offset=1")

		var rsp []bufferRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(3))
		Expect(rsp[0].Buffer).To(Equal("A.Outbox"))
	})

	It("should reject unknown sort methods", func() {
		rec := get(m.Router(), "/api/buffers?sort=name")

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should list progress bars", func() {
		bar := m.CreateProgressBar("Games", 3)
		bar.IncrementInProgress(1)
		bar.MoveInProgressToFinished(1)
		m.CreateProgressBar("Other", 0)

		rec := get(m.Router(), "/api/progress")

		var rsp []ProgressBarSnapshot
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(2))
		Expect(rsp[0].Name).To(Equal("Games"))
		Expect(rsp[0].Finished).To(Equal(uint64(1)))
		Expect(rsp[0].InProgress).To(BeZero())

		m.CompleteProgressBar(bar)
		Expect(m.progressBars).To(HaveLen(1))
	})

	It("should pause and continue the network", func() {
		Expect(get(m.Router(), "/api/pause").Code).To(Equal(http.StatusOK))
		Expect(network.IsPaused()).To(BeTrue())
		Expect(get(m.Router(), "/api/continue").Code).To(Equal(http.StatusOK))
		Expect(network.IsPaused()).To(BeFalse())
	})

	It("should walk int fields", func() {
		s := &sampleStruct{field1: 1}

		elem, err := walkFields(s, "field1")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Int))
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk string fields", func() {
		s := &sampleStruct{field2: "abc"}

		elem, err := walkFields(s, "field2")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.String))
		Expect(elem.String()).To(Equal("abc"))
	})

	It("should walk struct", func() {
		s := &sampleStruct{field3: &sampleStruct{}}

		elem, err := walkFields(s, "field3")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Struct))
		Expect(elem.Type().Name()).To(Equal("sampleStruct"))
	})

	It("should walk slice recursively", func() {
		s := &sampleStruct{
			field4: []sampleStruct{{
				field4: []sampleStruct{{field1: 1}},
			}, {}},
		}

		elem, err := walkFields(s, "field4.0.field4.0.field1")

		Expect(err).To(BeNil())
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should report fields that do not exist", func() {
		s := &sampleStruct{field4: []sampleStruct{{}}}

		_, err := walkFields(s, "field4.3")
		Expect(err).To(MatchError(fieldFormatError{field: "3"}))

		_, err = walkFields(s, "field9")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Field API", func() {
	It("should reject paths that do not exist", func() {
		network := actor.NewNetwork("Net")
		network.Add("A", newSampleActor("A"))

		m := NewMonitor()
		m.RegisterNetwork(network)

		rec := get(m.Router(),
			"/api/field/"+url.PathEscape(`{"actor_name":"A","field_name":"missing"}`))

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})
})

var _ = Describe("Monitor on a running network", func() {
	It("should read actor state while the network runs", func() {
		network := actor.NewNetwork("Net")
		counter := &countingActor{
			Base:  actor.NewBase(actor.PortSpec{}),
			state: "Idle",
			limit: 2000,
		}
		network.Add("Counter", counter)

		m := NewMonitor()
		m.RegisterNetwork(network)
		router := m.Router()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		done := make(chan error)
		go func() { done <- network.Run(ctx) }()

		polls := 0
		for running := true; running; polls++ {
			select {
			case err := <-done:
				Expect(err).To(Succeed())
				running = false
			default:
			}

			rec := get(router, "/api/list_actors")
			Expect(rec.Code).To(Equal(http.StatusOK))

			detail := get(router, "/api/actor/Counter")
			Expect(detail.Code).To(Equal(http.StatusOK))

			field := get(router,
				"/api/field/"+url.PathEscape(`{"actor_name":"Counter","field_name":"count"}`))
			Expect(field.Code).To(Equal(http.StatusOK))
		}

		var rsp []actorRsp
		rec := get(router, "/api/list_actors")
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(1))
		Expect(rsp[0].Name).To(Equal("Counter"))
		Expect(rsp[0].State).To(Equal("Counted2000"))
		Expect(polls).To(BeNumerically(">", 0))
	})
})
