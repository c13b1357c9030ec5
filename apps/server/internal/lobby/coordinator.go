package lobby

import (
	"errors"
	"fmt"
	"log"

	"blackjack-lite/blackjack"
	"blackjack-lite/card"
)

var ErrPlayerNotFound = errors.New("player not seated at any table")

// RoundSettledInfo is emitted after a table finishes a round.
type RoundSettledInfo struct {
	TableID    string
	Settlement *blackjack.SettlementResult
}

// RoundSettledHook is a post-settlement callback. Hooks run on their own
// goroutine and must not call back into the lobby synchronously.
type RoundSettledHook func(info RoundSettledInfo)

// Config controls how tables are built.
type Config struct {
	// Shoe supplies a freshly shuffled pile for a new table and for refills.
	// Nil means a six-deck shoe seeded from the clock.
	Shoe func() card.CardList

	OnRoundSettled RoundSettledHook
}

// Coordinator holds the waiting room, active tables and pending outbound
// events. It is not safe for concurrent use; Lobby owns one.
type Coordinator struct {
	cfg Config

	waiting  []blackjack.PlayerID
	tables   map[string]*blackjack.Table
	seats    map[blackjack.PlayerID]string
	outbound map[blackjack.PlayerID][]blackjack.ClientEvent
	nextID   uint64
}

func NewCoordinator(cfg Config) *Coordinator {
	if cfg.Shoe == nil {
		cfg.Shoe = card.NewShoe(6, 0).Next
	}
	return &Coordinator{
		cfg:      cfg,
		waiting:  make([]blackjack.PlayerID, 0, blackjack.MaxSeats),
		tables:   make(map[string]*blackjack.Table),
		seats:    make(map[blackjack.PlayerID]string),
		outbound: make(map[blackjack.PlayerID][]blackjack.ClientEvent),
	}
}

// Admit registers a new connection and returns its identifier. The fourth
// waiting player triggers table creation.
func (c *Coordinator) Admit() blackjack.PlayerID {
	id := blackjack.NewPlayerID()
	c.waiting = append(c.waiting, id)
	log.Printf("[Lobby] Admit: player %s waiting (%d/%d)", id, len(c.waiting), blackjack.MaxSeats)

	if len(c.waiting) == blackjack.MaxSeats {
		c.createTable()
	}
	return id
}

func (c *Coordinator) createTable() {
	c.nextID++
	tableID := fmt.Sprintf("table_%d", c.nextID)

	players := append([]blackjack.PlayerID(nil), c.waiting...)
	t := blackjack.NewTable(players, blackjack.Config{Shoe: c.cfg.Shoe})
	t.CreateHands()
	t.LoadDeck(c.cfg.Shoe()...)

	c.tables[tableID] = t
	for _, id := range players {
		c.seats[id] = tableID
	}
	c.waiting = c.waiting[:0]

	log.Printf("[Lobby] Created %s with %d players", tableID, len(players))
}

// Drop removes a player from the waiting room or from their table. Events the
// removal produces are queued for the remaining seats. Unknown players are
// ignored.
func (c *Coordinator) Drop(player blackjack.PlayerID) {
	for i, id := range c.waiting {
		if id == player {
			c.waiting = append(c.waiting[:i], c.waiting[i+1:]...)
			log.Printf("[Lobby] Drop: player %s left the waiting room", player)
			return
		}
	}

	tableID, ok := c.seats[player]
	if !ok {
		return
	}
	t := c.tables[tableID]
	delete(c.seats, player)
	delete(c.outbound, player)

	events, err := t.RemovePlayer(player)
	if err != nil {
		log.Printf("[Lobby] Drop: %s remove %s: %v", tableID, player, err)
	}
	c.fanOut(t, player, events)
	c.notifySettled(tableID, t, events)

	if len(t.Players()) == 0 {
		delete(c.tables, tableID)
		log.Printf("[Lobby] Retired %s", tableID)
		return
	}
	log.Printf("[Lobby] Drop: player %s left %s", player, tableID)
}

// Dispatch routes an action to the player's table and queues the resulting
// events for every other seat at that table.
func (c *Coordinator) Dispatch(player blackjack.PlayerID, action blackjack.Action) ([]blackjack.ClientEvent, error) {
	tableID, ok := c.seats[player]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	t := c.tables[tableID]

	events, err := t.Act(action, player)
	if err != nil {
		return nil, fmt.Errorf("%s: %s by %s: %w", tableID, action.Type, player, err)
	}
	c.fanOut(t, player, events)
	c.notifySettled(tableID, t, events)
	return events, nil
}

// DrainOutbound hands over every pending queue and starts fresh ones.
func (c *Coordinator) DrainOutbound() map[blackjack.PlayerID][]blackjack.ClientEvent {
	out := c.outbound
	c.outbound = make(map[blackjack.PlayerID][]blackjack.ClientEvent)
	return out
}

func (c *Coordinator) fanOut(t *blackjack.Table, from blackjack.PlayerID, events []blackjack.ClientEvent) {
	if len(events) == 0 {
		return
	}
	for _, id := range t.Players() {
		if id == from {
			continue
		}
		c.outbound[id] = append(c.outbound[id], events...)
	}
}

func (c *Coordinator) notifySettled(tableID string, t *blackjack.Table, events []blackjack.ClientEvent) {
	hook := c.cfg.OnRoundSettled
	if hook == nil || !blackjack.IsRoundOver(events) {
		return
	}
	settlement := t.LastSettlement()
	if settlement == nil {
		// Voided round, nothing was paid out.
		return
	}
	info := RoundSettledInfo{TableID: tableID, Settlement: settlement}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Lobby] %s round settled hook panic: %v", tableID, r)
			}
		}()
		hook(info)
	}()
}

// TableOf returns the table a player is seated at.
func (c *Coordinator) TableOf(player blackjack.PlayerID) (string, bool) {
	id, ok := c.seats[player]
	return id, ok
}

func (c *Coordinator) Table(tableID string) *blackjack.Table {
	return c.tables[tableID]
}

// Snapshot describes the whole coordinator for inspection.
type Snapshot struct {
	Waiting []blackjack.PlayerID
	Tables  map[string]blackjack.Snapshot
	Pending map[blackjack.PlayerID]int
}

func (c *Coordinator) Snapshot() Snapshot {
	s := Snapshot{
		Waiting: append([]blackjack.PlayerID(nil), c.waiting...),
		Tables:  make(map[string]blackjack.Snapshot, len(c.tables)),
		Pending: make(map[blackjack.PlayerID]int, len(c.outbound)),
	}
	for id, t := range c.tables {
		s.Tables[id] = t.Snapshot()
	}
	for id, q := range c.outbound {
		s.Pending[id] = len(q)
	}
	return s
}
