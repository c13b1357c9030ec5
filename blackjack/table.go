package blackjack

import (
	"sync"

	"blackjack-lite/card"
)

// Table runs the rounds of one seated group. Seats are fixed at creation;
// players can only leave, never join.
type Table struct {
	cfg Config

	mu sync.Mutex

	round      uint32
	phase      Phase
	current    PlayerID
	hasCurrent bool

	players  []PlayerID
	hands    map[PlayerID]Hand
	money    map[PlayerID]Chips
	bets     map[PlayerID]Chips
	finished []PlayerID

	dealerHand Hand
	deck       card.CardList

	lastSettlement *SettlementResult
}

func NewTable(players []PlayerID, cfg Config) *Table {
	return &Table{
		cfg:     cfg,
		phase:   PhaseWaitingForBets,
		players: append([]PlayerID{}, players...),
		hands:   make(map[PlayerID]Hand, len(players)),
		money:   make(map[PlayerID]Chips, len(players)),
		bets:    make(map[PlayerID]Chips, len(players)),
	}
}

// CreateHands gives every seat an empty hand and a zero balance. Must run once
// before the first action.
func (t *Table) CreateHands() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range t.players {
		t.hands[id] = Hand{}
		t.money[id] = 0
	}
}

// LoadDeck appends cards to the bottom of the remaining deck.
func (t *Table) LoadDeck(cards ...card.Card) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deck.Add(cards...)
}

// Act applies one player action and returns the events it produced, in order.
func (t *Table) Act(action Action, player PlayerID) ([]ClientEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.isSeatedLocked(player) {
		return nil, ErrMissingPlayerID
	}

	switch action.Type {
	case ActionTypeHit:
		if !t.isCurrentLocked(player) {
			return nil, ErrInvalidAction
		}
		return t.hitLocked(player)
	case ActionTypeStand:
		if !t.isCurrentLocked(player) {
			return nil, ErrInvalidAction
		}
		return t.standLocked(player)
	case ActionTypeDouble:
		if !t.isCurrentLocked(player) {
			return nil, ErrInvalidAction
		}
		return t.doubleLocked(player)
	case ActionTypeAddMoney:
		if action.Amount <= 0 {
			return nil, ErrInvalidAction
		}
		t.money[player] += action.Amount
		return []ClientEvent{BettingEvent(player, action.Amount)}, nil
	case ActionTypeStartingBet:
		return t.startingBetLocked(player, action.Amount)
	default:
		return nil, ErrInvalidAction
	}
}

// RemovePlayer drops a seat for good. If the leaver held the turn, play moves
// on as if they had stood; if everyone left has already bet, dealing starts.
func (t *Table) RemovePlayer(player PlayerID) ([]ClientEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.isSeatedLocked(player) {
		return nil, nil
	}

	wasCurrent := t.isCurrentLocked(player)
	next, hasNext := t.nextUnfinishedAfterLocked(player)

	t.players = removeID(t.players, player)
	t.finished = removeID(t.finished, player)
	delete(t.hands, player)
	delete(t.money, player)
	delete(t.bets, player)

	if len(t.players) == 0 {
		t.hasCurrent = false
		return nil, nil
	}

	switch {
	case wasCurrent && hasNext:
		t.setCurrentLocked(next)
		return nil, nil
	case wasCurrent:
		return t.dealerTurnLocked()
	case t.phase == PhaseWaitingForBets && len(t.bets) > 0 && len(t.bets) == len(t.players):
		if err := t.ensureDeckLocked(t.dealSizeLocked()); err != nil {
			t.refundBetsLocked()
			return nil, err
		}
		return t.dealLocked()
	}
	return nil, nil
}

func (t *Table) hitLocked(player PlayerID) ([]ClientEvent, error) {
	c, err := t.drawLocked()
	if err != nil {
		return nil, err
	}
	t.hands[player] = append(t.hands[player], c)
	events := []ClientEvent{CardRevealedEvent(PlayerOrigin(player), c)}

	if t.hands[player].IsBust() {
		more, err := t.standLocked(player)
		events = append(events, more...)
		if err != nil {
			return events, err
		}
	}
	return events, nil
}

func (t *Table) standLocked(player PlayerID) ([]ClientEvent, error) {
	t.finished = append(t.finished, player)
	events := []ClientEvent{PlayerRoundOverEvent()}

	if next, ok := t.nextUnfinishedAfterLocked(player); ok {
		t.setCurrentLocked(next)
		return events, nil
	}

	more, err := t.dealerTurnLocked()
	return append(events, more...), err
}

// doubleLocked: unmet hand or balance conditions leave the table untouched.
func (t *Table) doubleLocked(player PlayerID) ([]ClientEvent, error) {
	hand := t.hands[player]
	if len(hand) != 2 {
		return nil, nil
	}
	switch hand.Value() {
	case 9, 10, 11:
	default:
		return nil, nil
	}
	bet, ok := t.bets[player]
	if !ok || bet > t.money[player] {
		return nil, nil
	}
	if err := t.ensureDeckLocked(1); err != nil {
		return nil, err
	}

	t.money[player] -= bet
	t.bets[player] = bet * 2

	events, err := t.hitLocked(player)
	if err != nil {
		return events, err
	}
	// A busting hit has already stood for the player.
	if t.isFinishedLocked(player) {
		return events, nil
	}
	more, err := t.standLocked(player)
	return append(events, more...), err
}

func (t *Table) startingBetLocked(player PlayerID, amount Chips) ([]ClientEvent, error) {
	if amount <= 0 || amount > t.money[player] {
		return nil, ErrInvalidAction
	}
	if t.phase == PhaseRoundOver {
		t.resetRoundLocked()
	}
	if t.phase != PhaseWaitingForBets {
		return nil, ErrInvalidAction
	}
	if _, ok := t.bets[player]; ok {
		return nil, ErrInvalidAction
	}
	lastBet := len(t.bets)+1 == len(t.players)
	if lastBet {
		if err := t.ensureDeckLocked(t.dealSizeLocked()); err != nil {
			return nil, err
		}
	}

	t.money[player] -= amount
	t.bets[player] = amount
	events := []ClientEvent{BettingEvent(player, amount)}

	if lastBet {
		more, err := t.dealLocked()
		events = append(events, more...)
		if err != nil {
			return events, err
		}
	}
	return events, nil
}

func (t *Table) dealSizeLocked() int {
	return 2 * (len(t.players) + 1)
}

// dealLocked deals two cards per seat in seat order with one dealer card after
// each pass. Only the dealer's first card is shown. Callers make sure the deck
// holds dealSizeLocked cards.
func (t *Table) dealLocked() ([]ClientEvent, error) {
	dealt, ok := t.deck.PopCards(t.dealSizeLocked())
	if !ok {
		return nil, ErrDeckExhausted
	}

	t.phase = PhaseDealing
	t.round++
	events := make([]ClientEvent, 0, 2*len(t.players)+1+len(t.players))

	for pass := 0; pass < 2; pass++ {
		for _, id := range t.players {
			c := dealt[0]
			dealt = dealt[1:]
			t.hands[id] = append(t.hands[id], c)
			events = append(events, CardRevealedEvent(PlayerOrigin(id), c))
		}
		c := dealt[0]
		dealt = dealt[1:]
		t.dealerHand = append(t.dealerHand, c)
		if pass == 0 {
			events = append(events, CardRevealedEvent(DealerOrigin(), c))
		}
	}

	for _, id := range t.players {
		if t.hands[id].IsNatural() {
			t.finished = append(t.finished, id)
			events = append(events, PlayerRoundOverEvent())
		}
	}

	t.phase = PhasePlayerTurns
	for _, id := range t.players {
		if !t.isFinishedLocked(id) {
			t.setCurrentLocked(id)
			return events, nil
		}
	}

	more, err := t.dealerTurnLocked()
	return append(events, more...), err
}

func (t *Table) dealerTurnLocked() ([]ClientEvent, error) {
	t.phase = PhaseDealerTurn
	t.hasCurrent = false
	var events []ClientEvent

	if len(t.dealerHand) > 1 {
		events = append(events, CardRevealedEvent(DealerOrigin(), t.dealerHand[1]))
	}
	for t.dealerHand.Value() < dealerStandValue {
		c, err := t.drawLocked()
		if err != nil {
			// No cards left to finish the dealer hand: the round is void.
			t.refundBetsLocked()
			t.lastSettlement = nil
			t.phase = PhaseRoundOver
			return append(events, RoundOverEvent()), nil
		}
		t.dealerHand = append(t.dealerHand, c)
		events = append(events, CardRevealedEvent(DealerOrigin(), c))
	}

	t.phase = PhaseSettlement
	t.lastSettlement = t.settleLocked()
	t.phase = PhaseRoundOver

	return append(events, RoundOverEvent()), nil
}

func (t *Table) resetRoundLocked() {
	for _, id := range t.players {
		t.hands[id] = Hand{}
	}
	t.finished = nil
	t.dealerHand = nil
	t.hasCurrent = false
	t.phase = PhaseWaitingForBets
}

func (t *Table) drawLocked() (card.Card, error) {
	if err := t.ensureDeckLocked(1); err != nil {
		return card.CardInvalid, err
	}
	c, _ := t.deck.Draw()
	return c, nil
}

// ensureDeckLocked tops the deck up from the shoe until it holds n cards.
func (t *Table) ensureDeckLocked(n int) error {
	for t.deck.Count() < n {
		if t.cfg.Shoe == nil {
			return ErrDeckExhausted
		}
		more := t.cfg.Shoe()
		if more.Count() == 0 {
			return ErrDeckExhausted
		}
		t.deck.Add(more...)
	}
	return nil
}

// refundBetsLocked hands every outstanding bet back untouched.
func (t *Table) refundBetsLocked() {
	for id, bet := range t.bets {
		t.money[id] += bet
		delete(t.bets, id)
	}
}

// nextUnfinishedAfterLocked walks forward from player's seat and never wraps.
func (t *Table) nextUnfinishedAfterLocked(player PlayerID) (PlayerID, bool) {
	idx := indexOf(t.players, player)
	if idx < 0 {
		return PlayerID{}, false
	}
	for _, id := range t.players[idx+1:] {
		if !t.isFinishedLocked(id) {
			return id, true
		}
	}
	return PlayerID{}, false
}

func (t *Table) setCurrentLocked(player PlayerID) {
	t.current = player
	t.hasCurrent = true
}

func (t *Table) isCurrentLocked(player PlayerID) bool {
	return t.hasCurrent && t.current == player
}

func (t *Table) isSeatedLocked(player PlayerID) bool {
	return indexOf(t.players, player) >= 0
}

func (t *Table) isFinishedLocked(player PlayerID) bool {
	return indexOf(t.finished, player) >= 0
}

func (t *Table) Round() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.round
}

func (t *Table) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// CurrentPlayer returns the seat holding the turn, if any.
func (t *Table) CurrentPlayer() (PlayerID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.hasCurrent
}

func (t *Table) Players() []PlayerID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]PlayerID{}, t.players...)
}

func (t *Table) IsSeated(player PlayerID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isSeatedLocked(player)
}

func (t *Table) Hand(player PlayerID) (Hand, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.hands[player]
	if !ok {
		return nil, ErrMissingPlayerID
	}
	return h.clone(), nil
}

func (t *Table) Balance(player PlayerID) (Chips, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.money[player]
	if !ok {
		return 0, ErrMissingPlayerID
	}
	return m, nil
}

// Bet fails with ErrMissingPlayerID when the player has no open bet.
func (t *Table) Bet(player PlayerID) (Chips, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.bets[player]
	if !ok {
		return 0, ErrMissingPlayerID
	}
	return b, nil
}

func (t *Table) Finished() []PlayerID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]PlayerID{}, t.finished...)
}

func (t *Table) DealerHand() Hand {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dealerHand.clone()
}

func (t *Table) Deck() card.CardList {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deck.Clone()
}

// LastSettlement is the result of the most recent completed round, or nil.
func (t *Table) LastSettlement() *SettlementResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSettlement
}
