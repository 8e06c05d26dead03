// Package agent provides a traffic agent that feeds TLP beats into a
// bridge and collects the completions that come back. It drives the demo
// and benchmark commands as well as the acceptance tests.
package agent

import (
	"log"
	"reflect"

	"github.com/fabriclab/tlpbridge/bridge"
	"github.com/fabriclab/tlpbridge/sim"
	"github.com/fabriclab/tlpbridge/tlp"
)

// A Completion is a fully collected read result.
type Completion struct {
	Tag    uint8
	Header tlp.CplHeader
	Data   []uint32
}

// A Comp is a component that generates TLP traffic. One beat is sent per
// cycle. Read requests must use distinct tags while they are outstanding.
type Comp struct {
	*sim.TickingComponent

	ReqID tlp.DeviceID

	txPort sim.Port
	rxPort sim.Port

	bridgeDst sim.RemotePort

	sendQueue []tlp.Beat

	curTag         uint8
	expectedDwords map[uint8]int
	inProgress     map[uint8]*Completion

	// Completions holds the finished reads in arrival order.
	Completions []Completion
}

// NewComp creates a traffic agent.
func NewComp(name string, engine sim.Engine, freq sim.Freq) *Comp {
	a := &Comp{
		expectedDwords: make(map[uint8]int),
		inProgress:     make(map[uint8]*Completion),
	}

	a.TickingComponent = sim.NewTickingComponent(name, engine, freq, a)

	a.txPort = sim.NewPort(a, 1, 4, name+".Tx")
	a.AddPort("Tx", a.txPort)
	a.rxPort = sim.NewPort(a, 16, 1, name+".Rx")
	a.AddPort("Rx", a.rxPort)

	return a
}

// TxPort returns the port that sends beats to the bridge.
func (a *Comp) TxPort() sim.Port {
	return a.txPort
}

// RxPort returns the port that receives completion beats.
func (a *Comp) RxPort() sim.Port {
	return a.rxPort
}

// SetBridgeDst sets the remote port that accepts the generated beats.
func (a *Comp) SetBridgeDst(dst sim.RemotePort) {
	a.bridgeDst = dst
}

// EnqueueWrite queues a memory write TLP.
func (a *Comp) EnqueueWrite(
	barIndex int,
	addr uint64,
	data []uint32,
	firstBE, lastBE uint8,
) {
	dwords := tlp.BuildMemWrite(a.ReqID, addr, data, firstBE, lastBE)
	a.sendQueue = append(a.sendQueue, tlp.SegmentDwords(dwords, barIndex)...)
	a.TickLater()
}

// EnqueueRead queues a memory read TLP. The tag must not collide with an
// outstanding read.
func (a *Comp) EnqueueRead(barIndex int, tag uint8, addr uint64, dwords int) {
	stream := tlp.BuildMemRead(a.ReqID, tag, addr, dwords)
	a.sendQueue = append(a.sendQueue, tlp.SegmentDwords(stream, barIndex)...)
	a.expectedDwords[tag] = dwords
	a.TickLater()
}

// PendingReads returns the number of reads that have not fully completed.
func (a *Comp) PendingReads() int {
	return len(a.expectedDwords)
}

// Tick updates the state of the agent.
func (a *Comp) Tick() bool {
	madeProgress := false

	madeProgress = a.collectCompletions() || madeProgress
	madeProgress = a.sendBeat() || madeProgress

	return madeProgress
}

func (a *Comp) collectCompletions() bool {
	msg := a.rxPort.RetrieveIncoming()
	if msg == nil {
		return false
	}

	cplMsg, ok := msg.(*bridge.CplBeatMsg)
	if !ok {
		log.Panicf("cannot process message of type %s", reflect.TypeOf(msg))
	}

	beat := cplMsg.Beat

	// The header rides only on the first beat of each completion. Later
	// beats of the same completion arrive contiguously.
	if beat.HasHeader {
		a.curTag = beat.Header.Tag
	}
	tag := a.curTag

	c, started := a.inProgress[tag]
	if !started {
		c = &Completion{Tag: tag, Header: beat.Header}
		a.inProgress[tag] = c
	}

	for lane := 0; lane < beat.NumKept(); lane++ {
		c.Data = append(c.Data, beat.Data[lane])
	}

	if len(c.Data) >= a.expectedDwords[tag] {
		a.Completions = append(a.Completions, *c)
		delete(a.inProgress, tag)
		delete(a.expectedDwords, tag)
	}

	return true
}

func (a *Comp) sendBeat() bool {
	if len(a.sendQueue) == 0 {
		return false
	}

	if !a.txPort.CanSend() {
		return false
	}

	msg := bridge.BeatMsgBuilder{}.
		WithSrc(a.txPort.AsRemote()).
		WithDst(a.bridgeDst).
		WithBeat(a.sendQueue[0]).
		Build()

	err := a.txPort.Send(msg)
	if err != nil {
		return false
	}

	a.sendQueue = a.sendQueue[1:]

	return true
}
