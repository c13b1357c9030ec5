package lobby

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"blackjack-lite/blackjack"
)

var ErrLobbyClosed = errors.New("lobby closed")

// OutboundFunc receives every queue drained after a dispatch or drop, keyed by
// recipient. It runs on the actor goroutine and must not block.
type OutboundFunc func(map[blackjack.PlayerID][]blackjack.ClientEvent)

// Event types for the actor message queue
type EventType int

const (
	EventAdmit EventType = iota
	EventDrop
	EventDispatch
	EventDrain
	EventSnapshot
	EventSetOutbound
)

// Event represents a message to the lobby actor
type Event struct {
	Type     EventType
	PlayerID blackjack.PlayerID
	Action   blackjack.Action
	Outbound OutboundFunc
	Response chan Result
}

// Result is the actor's answer to one Event.
type Result struct {
	PlayerID blackjack.PlayerID
	Events   []blackjack.ClientEvent
	Outbound map[blackjack.PlayerID][]blackjack.ClientEvent
	Snapshot Snapshot
	Err      error
}

// Lobby serializes all coordinator access through one goroutine.
type Lobby struct {
	coord *Coordinator
	sink  OutboundFunc

	events   chan Event
	done     chan struct{}
	stopOnce sync.Once
}

// New starts a lobby actor.
func New(cfg Config) *Lobby {
	l := &Lobby{
		coord:  NewCoordinator(cfg),
		events: make(chan Event, 256),
		done:   make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Lobby) run() {
	for {
		select {
		case e := <-l.events:
			res := l.handleEvent(e)
			if e.Response != nil {
				e.Response <- res
			}
		case <-l.done:
			log.Printf("[Lobby] Actor stopped")
			return
		}
	}
}

func (l *Lobby) handleEvent(e Event) Result {
	switch e.Type {
	case EventAdmit:
		return Result{PlayerID: l.coord.Admit()}
	case EventDrop:
		l.coord.Drop(e.PlayerID)
		l.flush(e.PlayerID, nil)
		return Result{}
	case EventDispatch:
		events, err := l.coord.Dispatch(e.PlayerID, e.Action)
		if err != nil {
			return Result{Err: err}
		}
		l.flush(e.PlayerID, events)
		return Result{Events: events}
	case EventDrain:
		return Result{Outbound: l.coord.DrainOutbound()}
	case EventSnapshot:
		return Result{Snapshot: l.coord.Snapshot()}
	case EventSetOutbound:
		l.sink = e.Outbound
		return Result{}
	default:
		return Result{Err: fmt.Errorf("unknown event type: %d", e.Type)}
	}
}

// flush pushes pending queues to the sink. The acting player's own events go
// out in the same batch so every recipient sees one ordered stream.
func (l *Lobby) flush(player blackjack.PlayerID, own []blackjack.ClientEvent) {
	if l.sink == nil {
		return
	}
	out := l.coord.DrainOutbound()
	if len(own) > 0 {
		out[player] = append(append([]blackjack.ClientEvent(nil), own...), out[player]...)
	}
	if len(out) == 0 {
		return
	}
	l.sink(out)
}

// SubmitEvent sends an event to the actor and waits for its result.
func (l *Lobby) SubmitEvent(e Event) Result {
	if e.Response == nil {
		e.Response = make(chan Result, 1)
	}

	select {
	case <-l.done:
		return Result{Err: ErrLobbyClosed}
	default:
	}

	select {
	case l.events <- e:
	case <-l.done:
		return Result{Err: ErrLobbyClosed}
	}

	select {
	case res := <-e.Response:
		return res
	case <-l.done:
		return Result{Err: ErrLobbyClosed}
	}
}

func (l *Lobby) Admit() (blackjack.PlayerID, error) {
	res := l.SubmitEvent(Event{Type: EventAdmit})
	return res.PlayerID, res.Err
}

func (l *Lobby) Drop(player blackjack.PlayerID) error {
	return l.SubmitEvent(Event{Type: EventDrop, PlayerID: player}).Err
}

func (l *Lobby) Dispatch(player blackjack.PlayerID, action blackjack.Action) ([]blackjack.ClientEvent, error) {
	res := l.SubmitEvent(Event{Type: EventDispatch, PlayerID: player, Action: action})
	return res.Events, res.Err
}

// DrainOutbound is only useful without a sink; with one, queues are already
// empty.
func (l *Lobby) DrainOutbound() (map[blackjack.PlayerID][]blackjack.ClientEvent, error) {
	res := l.SubmitEvent(Event{Type: EventDrain})
	return res.Outbound, res.Err
}

func (l *Lobby) Snapshot() (Snapshot, error) {
	res := l.SubmitEvent(Event{Type: EventSnapshot})
	return res.Snapshot, res.Err
}

// SetOutbound installs the delivery sink. Pass nil to go back to queueing.
func (l *Lobby) SetOutbound(fn OutboundFunc) error {
	return l.SubmitEvent(Event{Type: EventSetOutbound, Outbound: fn}).Err
}

// Close stops the actor. Pending and later requests fail with ErrLobbyClosed.
func (l *Lobby) Close() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}
