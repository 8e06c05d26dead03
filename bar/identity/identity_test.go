package identity

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/fabriclab/tlpbridge/bridge"
	"github.com/fabriclab/tlpbridge/sim"
)

var _ = Describe("Identity Handler", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *MockEngine
		topPort  *MockPort
		h        *Comp
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEngine(mockCtrl)
		engine.EXPECT().CurrentTime().Return(sim.VTimeInSec(0)).AnyTimes()

		topPort = NewMockPort(mockCtrl)
		topPort.EXPECT().
			AsRemote().
			Return(sim.RemotePort("Identity.Top")).
			AnyTimes()

		h = MakeBuilder().
			WithEngine(engine).
			WithFreq(1 * sim.GHz).
			WithLatency(2).
			Build("Identity")
		h.topPort = topPort
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should schedule a response for a read request", func() {
		req := bridge.BarReadReqMsgBuilder{}.
			WithDst("Identity.Top").
			WithAddress(0x1004).
			Build()

		var scheduled sim.Event
		topPort.EXPECT().RetrieveIncoming().Return(req)
		engine.EXPECT().
			Schedule(gomock.Any()).
			Do(func(e sim.Event) { scheduled = e })

		madeProgress := h.Tick()

		Expect(madeProgress).To(BeTrue())
		Expect(scheduled).To(BeAssignableToTypeOf(&respondEvent{}))
		Expect(float64(scheduled.Time())).
			To(BeNumerically("~", 2e-9, 1e-12))
	})

	It("should echo the read address as the data", func() {
		req := bridge.BarReadReqMsgBuilder{}.
			WithSrc("Dispatch.Bar[1]").
			WithDst("Identity.Top").
			WithAddress(0x1004).
			Build()
		e := newRespondEvent(sim.VTimeInSec(2e-9), h, req)

		var rsp *bridge.BarReadRspMsg
		topPort.EXPECT().
			Send(gomock.Any()).
			Do(func(msg sim.Msg) {
				rsp = msg.(*bridge.BarReadRspMsg)
			}).
			Return(nil)
		engine.EXPECT().Schedule(gomock.Any())

		Expect(h.Handle(e)).To(Succeed())

		Expect(rsp.Data).To(Equal(uint32(0x1004)))
		Expect(rsp.RspTo).To(Equal(req.Meta().ID))
		Expect(rsp.Meta().Dst).To(Equal(
			sim.RemotePort("Dispatch.Bar[1]")))
	})

	It("should retry the response when the port rejects it", func() {
		req := bridge.BarReadReqMsgBuilder{}.
			WithDst("Identity.Top").
			WithAddress(0x1004).
			Build()
		e := newRespondEvent(sim.VTimeInSec(2e-9), h, req)

		var retry sim.Event
		topPort.EXPECT().Send(gomock.Any()).Return(&sim.SendError{})
		engine.EXPECT().
			Schedule(gomock.Any()).
			Do(func(e sim.Event) { retry = e })

		Expect(h.Handle(e)).To(Succeed())

		Expect(retry).To(BeAssignableToTypeOf(&respondEvent{}))
		Expect(retry.Time()).To(BeNumerically(">", e.Time()))
	})

	It("should discard writes", func() {
		req := bridge.BarWriteMsgBuilder{}.
			WithDst("Identity.Top").
			WithAddress(0x1004).
			WithByteEnable(0xf).
			WithData(0xdeadbeef).
			Build()

		topPort.EXPECT().RetrieveIncoming().Return(req)

		madeProgress := h.Tick()

		Expect(madeProgress).To(BeTrue())
	})
})
