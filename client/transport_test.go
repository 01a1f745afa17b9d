package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/coder/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sc2melee/wire"
)

var _ = Describe("WebsocketDialer", func() {
	var (
		server *httptest.Server
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)

		server = httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				c, err := websocket.Accept(w, r, nil)
				if err != nil {
					return
				}

				_, data, err := c.Read(r.Context())
				if err != nil {
					return
				}

				req, err := wire.UnmarshalRequest(data)
				if err != nil {
					c.Close(websocket.StatusProtocolError, "bad request")
					return
				}

				rsp := &wire.Response{Kind: req.Kind, Status: wire.StatusLaunched}
				b, _ := rsp.Marshal()
				_ = c.Write(r.Context(), websocket.MessageBinary, b)
				c.Close(websocket.StatusNormalClosure, "bye")
			}))
	})

	AfterEach(func() {
		cancel()
		server.Close()
	})

	It("should exchange binary frames and report normal closure", func() {
		url := "ws" + strings.TrimPrefix(server.URL, "http") + "/sc2api"

		t, err := WebsocketDialer{}.Dial(ctx, url)
		Expect(err).NotTo(HaveOccurred())
		defer t.Close()

		req, err := wire.NewPing().Marshal()
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Write(ctx, req)).To(Succeed())

		frame, err := t.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(frame.Type).To(Equal(Binary))

		rsp, err := wire.UnmarshalResponse(frame.Data)
		Expect(err).NotTo(HaveOccurred())
		Expect(rsp.Kind).To(Equal(wire.Ping))
		Expect(rsp.Status).To(Equal(wire.StatusLaunched))

		_, err = t.Read(ctx)
		Expect(err).To(MatchError(ErrTransportClosed))
	})

	It("should fail to dial a closed port", func() {
		_, err := WebsocketDialer{}.Dial(ctx, InstanceURL("127.0.0.1", 1))

		Expect(err).To(HaveOccurred())
	})

	It("should format instance urls", func() {
		Expect(InstanceURL("127.0.0.1", 9168)).To(Equal("ws://127.0.0.1:9168/sc2api"))
	})
})
