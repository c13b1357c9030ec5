package blackjack

import "blackjack-lite/card"

// Outcome 结算结果
type Outcome byte

const (
	OutcomeLoss    Outcome = 1
	OutcomeWin     Outcome = 2 // includes an exact push
	OutcomeNatural Outcome = 3
)

var OutcomeDictionary = map[Outcome]string{
	OutcomeLoss:    "loss",
	OutcomeWin:     "win",
	OutcomeNatural: "natural",
}

func (o Outcome) String() string {
	if name, ok := OutcomeDictionary[o]; ok {
		return name
	}
	return "unknown"
}

type PlayerResult struct {
	Player  PlayerID
	Hand    []card.Card
	Value   int
	Bet     Chips
	Payout  Chips
	Outcome Outcome
}

type SettlementResult struct {
	Round       uint32
	DealerHand  []card.Card
	DealerValue int
	Players     []PlayerResult
}

// settleBet maps a (dealer, player) pair to a payout multiplier of the bet.
// A push pays 2x, the same as a win.
func settleBet(dealerValue int, hand Hand) (Outcome, Chips) {
	playerValue := hand.Value()
	switch {
	case (dealerValue <= blackjackValue && playerValue < dealerValue) || playerValue > blackjackValue:
		return OutcomeLoss, 0
	case hand.IsNatural():
		return OutcomeNatural, 2.5
	default:
		return OutcomeWin, 2
	}
}

// settleLocked pays every open bet in seat order and clears all bets.
func (t *Table) settleLocked() *SettlementResult {
	dealerValue := t.dealerHand.Value()
	out := &SettlementResult{
		Round:       t.round,
		DealerHand:  t.dealerHand.clone(),
		DealerValue: dealerValue,
		Players:     make([]PlayerResult, 0, len(t.bets)),
	}

	for _, id := range t.players {
		bet, ok := t.bets[id]
		if !ok {
			continue
		}
		hand := t.hands[id]
		outcome, mult := settleBet(dealerValue, hand)
		payout := bet * mult
		t.money[id] += payout
		out.Players = append(out.Players, PlayerResult{
			Player:  id,
			Hand:    hand.clone(),
			Value:   hand.Value(),
			Bet:     bet,
			Payout:  payout,
			Outcome: outcome,
		})
	}

	clear(t.bets)
	return out
}
