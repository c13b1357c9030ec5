// Package codec maps actions and events to binary WebSocket frames. A frame is
// one protobuf-encoded google.protobuf.Value; enum variants are externally
// tagged: unit variants are strings, data variants single-key structs.
package codec

import (
	"errors"
	"fmt"
	"math"

	"blackjack-lite/blackjack"
	"blackjack-lite/card"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var ErrMalformed = errors.New("malformed frame")

const (
	tagHit             = "Hit"
	tagStand           = "Stand"
	tagDouble          = "Double"
	tagAddMoney        = "AddMoney"
	tagStartingBet     = "StartingBet"
	tagPlayerRoundOver = "PlayerRoundOver"
	tagRoundOver       = "RoundOver"
	tagCardRevealed    = "CardRevealed"
	tagBetting         = "Betting"
	tagDealer          = "Dealer"
	tagPlayer          = "Player"
	fieldSuit          = "suit"
	fieldRank          = "rank"
)

var unitActions = map[string]blackjack.ActionType{
	tagHit:    blackjack.ActionTypeHit,
	tagStand:  blackjack.ActionTypeStand,
	tagDouble: blackjack.ActionTypeDouble,
}

var amountActions = map[string]blackjack.ActionType{
	tagAddMoney:    blackjack.ActionTypeAddMoney,
	tagStartingBet: blackjack.ActionTypeStartingBet,
}

// EncodeAction serializes one inbound action.
func EncodeAction(a blackjack.Action) ([]byte, error) {
	v, err := ActionToValue(a)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(v)
}

// DecodeAction parses one inbound frame.
func DecodeAction(data []byte) (blackjack.Action, error) {
	v := &structpb.Value{}
	if err := proto.Unmarshal(data, v); err != nil {
		return blackjack.Action{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return ValueToAction(v)
}

// EncodeEvents serializes an outbound frame: the list of events in order.
func EncodeEvents(events []blackjack.ClientEvent) ([]byte, error) {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(events))}
	for _, e := range events {
		v, err := EventToValue(e)
		if err != nil {
			return nil, err
		}
		list.Values = append(list.Values, v)
	}
	return proto.Marshal(structpb.NewListValue(list))
}

// DecodeEvents parses an outbound frame.
func DecodeEvents(data []byte) ([]blackjack.ClientEvent, error) {
	v := &structpb.Value{}
	if err := proto.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	list, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, fmt.Errorf("%w: event frame is not a list", ErrMalformed)
	}
	events := make([]blackjack.ClientEvent, 0, len(list.ListValue.GetValues()))
	for _, item := range list.ListValue.GetValues() {
		e, err := ValueToEvent(item)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func ActionToValue(a blackjack.Action) (*structpb.Value, error) {
	switch a.Type {
	case blackjack.ActionTypeHit:
		return structpb.NewStringValue(tagHit), nil
	case blackjack.ActionTypeStand:
		return structpb.NewStringValue(tagStand), nil
	case blackjack.ActionTypeDouble:
		return structpb.NewStringValue(tagDouble), nil
	case blackjack.ActionTypeAddMoney:
		return tagged(tagAddMoney, structpb.NewNumberValue(float64(a.Amount))), nil
	case blackjack.ActionTypeStartingBet:
		return tagged(tagStartingBet, structpb.NewNumberValue(float64(a.Amount))), nil
	default:
		return nil, fmt.Errorf("unknown action type: %d", a.Type)
	}
}

func ValueToAction(v *structpb.Value) (blackjack.Action, error) {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		t, ok := unitActions[kind.StringValue]
		if !ok {
			return blackjack.Action{}, fmt.Errorf("%w: unknown action %q", ErrMalformed, kind.StringValue)
		}
		return blackjack.Action{Type: t}, nil
	case *structpb.Value_StructValue:
		tag, inner, err := untag(kind.StructValue)
		if err != nil {
			return blackjack.Action{}, err
		}
		t, ok := amountActions[tag]
		if !ok {
			return blackjack.Action{}, fmt.Errorf("%w: unknown action %q", ErrMalformed, tag)
		}
		amount, err := number(inner)
		if err != nil {
			return blackjack.Action{}, err
		}
		return blackjack.Action{Type: t, Amount: blackjack.Chips(amount)}, nil
	default:
		return blackjack.Action{}, fmt.Errorf("%w: action must be a string or struct", ErrMalformed)
	}
}

func EventToValue(e blackjack.ClientEvent) (*structpb.Value, error) {
	switch e.Type {
	case blackjack.EventPlayerRoundOver:
		return structpb.NewStringValue(tagPlayerRoundOver), nil
	case blackjack.EventRoundOver:
		return structpb.NewStringValue(tagRoundOver), nil
	case blackjack.EventCardRevealed:
		cv, err := cardToValue(e.Card)
		if err != nil {
			return nil, err
		}
		return tagged(tagCardRevealed, pair(originToValue(e.Origin), cv)), nil
	case blackjack.EventBetting:
		return tagged(tagBetting, pair(
			structpb.NewStringValue(e.Player.String()),
			structpb.NewNumberValue(float64(e.Amount)),
		)), nil
	default:
		return nil, fmt.Errorf("unknown event type: %d", e.Type)
	}
}

func ValueToEvent(v *structpb.Value) (blackjack.ClientEvent, error) {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		switch kind.StringValue {
		case tagPlayerRoundOver:
			return blackjack.PlayerRoundOverEvent(), nil
		case tagRoundOver:
			return blackjack.RoundOverEvent(), nil
		}
		return blackjack.ClientEvent{}, fmt.Errorf("%w: unknown event %q", ErrMalformed, kind.StringValue)
	case *structpb.Value_StructValue:
		tag, inner, err := untag(kind.StructValue)
		if err != nil {
			return blackjack.ClientEvent{}, err
		}
		first, second, err := unpair(inner)
		if err != nil {
			return blackjack.ClientEvent{}, err
		}
		switch tag {
		case tagCardRevealed:
			origin, err := valueToOrigin(first)
			if err != nil {
				return blackjack.ClientEvent{}, err
			}
			c, err := valueToCard(second)
			if err != nil {
				return blackjack.ClientEvent{}, err
			}
			return blackjack.CardRevealedEvent(origin, c), nil
		case tagBetting:
			id, err := playerID(first)
			if err != nil {
				return blackjack.ClientEvent{}, err
			}
			amount, err := number(second)
			if err != nil {
				return blackjack.ClientEvent{}, err
			}
			return blackjack.BettingEvent(id, blackjack.Chips(amount)), nil
		}
		return blackjack.ClientEvent{}, fmt.Errorf("%w: unknown event %q", ErrMalformed, tag)
	default:
		return blackjack.ClientEvent{}, fmt.Errorf("%w: event must be a string or struct", ErrMalformed)
	}
}

func originToValue(o blackjack.Origin) *structpb.Value {
	if o.Dealer {
		return structpb.NewStringValue(tagDealer)
	}
	return tagged(tagPlayer, structpb.NewStringValue(o.Player.String()))
}

func valueToOrigin(v *structpb.Value) (blackjack.Origin, error) {
	if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
		if s.StringValue == tagDealer {
			return blackjack.DealerOrigin(), nil
		}
		return blackjack.Origin{}, fmt.Errorf("%w: unknown origin %q", ErrMalformed, s.StringValue)
	}
	st, ok := v.GetKind().(*structpb.Value_StructValue)
	if !ok {
		return blackjack.Origin{}, fmt.Errorf("%w: origin must be a string or struct", ErrMalformed)
	}
	tag, inner, err := untag(st.StructValue)
	if err != nil {
		return blackjack.Origin{}, err
	}
	if tag != tagPlayer {
		return blackjack.Origin{}, fmt.Errorf("%w: unknown origin %q", ErrMalformed, tag)
	}
	id, err := playerID(inner)
	if err != nil {
		return blackjack.Origin{}, err
	}
	return blackjack.PlayerOrigin(id), nil
}

func cardToValue(c card.Card) (*structpb.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid card: %#x", byte(c))
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		fieldSuit: structpb.NewStringValue(c.Suit().Name()),
		fieldRank: structpb.NewStringValue(c.Rank().String()),
	}}), nil
}

func valueToCard(v *structpb.Value) (card.Card, error) {
	st, ok := v.GetKind().(*structpb.Value_StructValue)
	if !ok {
		return card.CardInvalid, fmt.Errorf("%w: card must be a struct", ErrMalformed)
	}
	fields := st.StructValue.GetFields()
	suitName := fields[fieldSuit].GetStringValue()
	rankName := fields[fieldRank].GetStringValue()

	suit, ok := lookup(card.SuitDictionary, suitName)
	if !ok {
		return card.CardInvalid, fmt.Errorf("%w: unknown suit %q", ErrMalformed, suitName)
	}
	rank, ok := lookup(card.RankDictionary, rankName)
	if !ok {
		return card.CardInvalid, fmt.Errorf("%w: unknown rank %q", ErrMalformed, rankName)
	}
	return card.New(suit, rank), nil
}

func lookup[K comparable](dict map[K]string, name string) (K, bool) {
	for k, v := range dict {
		if v == name {
			return k, true
		}
	}
	var zero K
	return zero, false
}

func tagged(tag string, inner *structpb.Value) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{tag: inner}})
}

func untag(s *structpb.Struct) (string, *structpb.Value, error) {
	if len(s.GetFields()) != 1 {
		return "", nil, fmt.Errorf("%w: tagged value needs exactly one key, got %d", ErrMalformed, len(s.GetFields()))
	}
	for tag, inner := range s.GetFields() {
		return tag, inner, nil
	}
	return "", nil, ErrMalformed
}

func pair(a, b *structpb.Value) *structpb.Value {
	return structpb.NewListValue(&structpb.ListValue{Values: []*structpb.Value{a, b}})
}

func unpair(v *structpb.Value) (*structpb.Value, *structpb.Value, error) {
	list, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok || len(list.ListValue.GetValues()) != 2 {
		return nil, nil, fmt.Errorf("%w: expected a two-element list", ErrMalformed)
	}
	values := list.ListValue.GetValues()
	return values[0], values[1], nil
}

func number(v *structpb.Value) (float64, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || math.IsNaN(n.NumberValue) || math.IsInf(n.NumberValue, 0) {
		return 0, fmt.Errorf("%w: expected a finite number", ErrMalformed)
	}
	return n.NumberValue, nil
}

func playerID(v *structpb.Value) (blackjack.PlayerID, error) {
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return blackjack.PlayerID{}, fmt.Errorf("%w: player id must be a string", ErrMalformed)
	}
	id, err := uuid.Parse(s.StringValue)
	if err != nil {
		return blackjack.PlayerID{}, fmt.Errorf("%w: player id: %v", ErrMalformed, err)
	}
	return id, nil
}
