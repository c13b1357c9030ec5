package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"blackjack-lite/blackjack"
	"blackjack-lite/card"
)

func TestActionRoundTrip(t *testing.T) {
	actions := []blackjack.Action{
		blackjack.Hit(),
		blackjack.Stand(),
		blackjack.Double(),
		blackjack.AddMoney(100),
		blackjack.StartingBet(12.5),
		blackjack.AddMoney(-3),
	}
	for _, a := range actions {
		data, err := EncodeAction(a)
		require.NoError(t, err)
		got, err := DecodeAction(data)
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
}

func TestActionWireShape(t *testing.T) {
	cases := []struct {
		action blackjack.Action
		want   any
	}{
		{blackjack.Hit(), "Hit"},
		{blackjack.Double(), "Double"},
		{blackjack.StartingBet(50), map[string]any{"StartingBet": 50.0}},
	}
	for _, tc := range cases {
		data, err := EncodeAction(tc.action)
		require.NoError(t, err)

		v := &structpb.Value{}
		require.NoError(t, proto.Unmarshal(data, v))
		assert.Equal(t, tc.want, v.AsInterface())
	}
}

func TestEventsRoundTrip(t *testing.T) {
	p := blackjack.NewPlayerID()
	events := []blackjack.ClientEvent{
		blackjack.BettingEvent(p, 100),
		blackjack.CardRevealedEvent(blackjack.PlayerOrigin(p), card.MustParse("As")),
		blackjack.CardRevealedEvent(blackjack.DealerOrigin(), card.MustParse("Td")),
		blackjack.PlayerRoundOverEvent(),
		blackjack.RoundOverEvent(),
	}

	data, err := EncodeEvents(events)
	require.NoError(t, err)
	got, err := DecodeEvents(data)
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestEventWireShape(t *testing.T) {
	p := blackjack.NewPlayerID()
	data, err := EncodeEvents([]blackjack.ClientEvent{
		blackjack.CardRevealedEvent(blackjack.PlayerOrigin(p), card.MustParse("Kh")),
		blackjack.CardRevealedEvent(blackjack.DealerOrigin(), card.MustParse("2c")),
		blackjack.BettingEvent(p, 2.5),
		blackjack.RoundOverEvent(),
	})
	require.NoError(t, err)

	v := &structpb.Value{}
	require.NoError(t, proto.Unmarshal(data, v))
	assert.Equal(t, []any{
		map[string]any{"CardRevealed": []any{
			map[string]any{"Player": p.String()},
			map[string]any{"suit": "Hearts", "rank": "King"},
		}},
		map[string]any{"CardRevealed": []any{
			"Dealer",
			map[string]any{"suit": "Clubs", "rank": "Two"},
		}},
		map[string]any{"Betting": []any{p.String(), 2.5}},
		"RoundOver",
	}, v.AsInterface())
}

func TestEmptyEventFrame(t *testing.T) {
	data, err := EncodeEvents(nil)
	require.NoError(t, err)
	got, err := DecodeEvents(data)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	pv, err := structpb.NewValue(v)
	require.NoError(t, err)
	data, err := proto.Marshal(pv)
	require.NoError(t, err)
	return data
}

func TestDecodeActionRejectsMalformed(t *testing.T) {
	frames := map[string][]byte{
		"garbage":        {0xff, 0xff, 0xff},
		"empty":          {},
		"unknown unit":   mustMarshal(t, "Split"),
		"unknown struct": mustMarshal(t, map[string]any{"Surrender": 1.0}),
		"two keys":       mustMarshal(t, map[string]any{"AddMoney": 1.0, "StartingBet": 1.0}),
		"amount type":    mustMarshal(t, map[string]any{"AddMoney": "ten"}),
		"number":         mustMarshal(t, 4.0),
		"list":           mustMarshal(t, []any{"Hit"}),
	}
	for name, data := range frames {
		_, err := DecodeAction(data)
		assert.ErrorIs(t, err, ErrMalformed, name)
	}
}

func TestDecodeEventsRejectsMalformed(t *testing.T) {
	frames := map[string][]byte{
		"not a list":   mustMarshal(t, "RoundOver"),
		"bad unit":     mustMarshal(t, []any{"Bust"}),
		"bad origin":   mustMarshal(t, []any{map[string]any{"CardRevealed": []any{"House", map[string]any{"suit": "Spades", "rank": "Ace"}}}}),
		"bad suit":     mustMarshal(t, []any{map[string]any{"CardRevealed": []any{"Dealer", map[string]any{"suit": "Stars", "rank": "Ace"}}}}),
		"bad rank":     mustMarshal(t, []any{map[string]any{"CardRevealed": []any{"Dealer", map[string]any{"suit": "Spades", "rank": "Joker"}}}}),
		"bad uuid":     mustMarshal(t, []any{map[string]any{"Betting": []any{"nobody", 1.0}}}),
		"short tuple":  mustMarshal(t, []any{map[string]any{"Betting": []any{"nobody"}}}),
		"tuple object": mustMarshal(t, []any{map[string]any{"Betting": map[string]any{"a": 1.0}}}),
	}
	for name, data := range frames {
		_, err := DecodeEvents(data)
		assert.ErrorIs(t, err, ErrMalformed, name)
	}
}

func TestEncodeRejectsUnknown(t *testing.T) {
	_, err := EncodeAction(blackjack.Action{})
	assert.Error(t, err)
	_, err = EncodeEvents([]blackjack.ClientEvent{{}})
	assert.Error(t, err)
	_, err = EncodeEvents([]blackjack.ClientEvent{blackjack.CardRevealedEvent(blackjack.DealerOrigin(), card.CardInvalid)})
	assert.Error(t, err)
}
