package blackjack

import (
	"github.com/google/uuid"

	"blackjack-lite/card"
)

// PlayerID is minted once per connection and never reused.
type PlayerID = uuid.UUID

// NewPlayerID returns a fresh random identifier.
func NewPlayerID() PlayerID { return uuid.New() }

// Chips is a signed balance or wager. Natural payouts are fractional (2.5x).
type Chips float64

const (
	// MaxSeats is the number of players a table is formed with.
	MaxSeats = 4

	dealerStandValue = 17
	blackjackValue   = 21
)

// Phase 回合阶段
type Phase byte

const (
	PhaseWaitingForBets Phase = 0
	PhaseDealing        Phase = 1
	PhasePlayerTurns    Phase = 2
	PhaseDealerTurn     Phase = 3
	PhaseSettlement     Phase = 4
	PhaseRoundOver      Phase = 5
)

var PhaseDictionary = map[Phase]string{
	PhaseWaitingForBets: "waiting_for_bets",
	PhaseDealing:        "dealing",
	PhasePlayerTurns:    "player_turns",
	PhaseDealerTurn:     "dealer_turn",
	PhaseSettlement:     "settlement",
	PhaseRoundOver:      "round_over",
}

func (p Phase) String() string {
	if name, ok := PhaseDictionary[p]; ok {
		return name
	}
	return "unknown"
}

// ActionType 动作类型：1-HIT 2-STAND 3-DOUBLE 4-ADD_MONEY 5-STARTING_BET
type ActionType byte

const (
	ActionTypeNone        ActionType = 0
	ActionTypeHit         ActionType = 1
	ActionTypeStand       ActionType = 2
	ActionTypeDouble      ActionType = 3
	ActionTypeAddMoney    ActionType = 4
	ActionTypeStartingBet ActionType = 5
)

var ActionTypeDictionary = map[ActionType]string{
	ActionTypeNone:        "NONE",
	ActionTypeHit:         "HIT",
	ActionTypeStand:       "STAND",
	ActionTypeDouble:      "DOUBLE",
	ActionTypeAddMoney:    "ADD_MONEY",
	ActionTypeStartingBet: "STARTING_BET",
}

func (a ActionType) String() string {
	if name, ok := ActionTypeDictionary[a]; ok {
		return name
	}
	return "UNKNOWN"
}

// Action is one inbound player request. Amount is used by AddMoney and StartingBet only.
type Action struct {
	Type   ActionType
	Amount Chips
}

func Hit() Action { return Action{Type: ActionTypeHit} }
func Stand() Action { return Action{Type: ActionTypeStand} }
func Double() Action { return Action{Type: ActionTypeDouble} }
func AddMoney(amount Chips) Action { return Action{Type: ActionTypeAddMoney, Amount: amount} }
func StartingBet(amount Chips) Action { return Action{Type: ActionTypeStartingBet, Amount: amount} }

// EventType 客户端事件类型
type EventType byte

const (
	EventPlayerRoundOver EventType = 1
	EventRoundOver       EventType = 2
	EventCardRevealed    EventType = 3
	EventBetting         EventType = 4
)

var EventTypeDictionary = map[EventType]string{
	EventPlayerRoundOver: "PlayerRoundOver",
	EventRoundOver:       "RoundOver",
	EventCardRevealed:    "CardRevealed",
	EventBetting:         "Betting",
}

func (e EventType) String() string {
	if name, ok := EventTypeDictionary[e]; ok {
		return name
	}
	return "Unknown"
}

// Origin says whose hand a revealed card landed in.
type Origin struct {
	Dealer bool
	Player PlayerID
}

func DealerOrigin() Origin { return Origin{Dealer: true} }
func PlayerOrigin(id PlayerID) Origin { return Origin{Player: id} }

// ClientEvent is an immutable notification streamed to clients.
//
// Field use per type:
//   - CardRevealed: Origin, Card
//   - Betting: Player, Amount
//   - PlayerRoundOver, RoundOver: none
type ClientEvent struct {
	Type   EventType
	Origin Origin
	Card   card.Card
	Player PlayerID
	Amount Chips
}

func PlayerRoundOverEvent() ClientEvent { return ClientEvent{Type: EventPlayerRoundOver} }
func RoundOverEvent() ClientEvent { return ClientEvent{Type: EventRoundOver} }

func CardRevealedEvent(origin Origin, c card.Card) ClientEvent {
	return ClientEvent{Type: EventCardRevealed, Origin: origin, Card: c}
}

func BettingEvent(player PlayerID, amount Chips) ClientEvent {
	return ClientEvent{Type: EventBetting, Player: player, Amount: amount}
}

// IsRoundOver reports whether events close a round.
func IsRoundOver(events []ClientEvent) bool {
	for _, e := range events {
		if e.Type == EventRoundOver {
			return true
		}
	}
	return false
}
