package gateway

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackjack-lite/apps/server/internal/codec"
	"blackjack-lite/apps/server/internal/lobby"
	"blackjack-lite/blackjack"
	"blackjack-lite/card"
)

func nines() card.CardList {
	pile := make(card.CardList, 0, 20)
	for i := 0; i < 20; i++ {
		pile.Add(card.New(card.Heart, card.Nine))
	}
	return pile
}

type harness struct {
	lobby *lobby.Lobby
	gw    *Gateway
	srv   *httptest.Server
	errs  chan error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	lby := lobby.New(lobby.Config{Shoe: nines})
	errs := make(chan error, 16)
	gw, err := New("127.0.0.1:0", lby, errs)
	require.NoError(t, err)
	srv := httptest.NewServer(gw.Router())

	t.Cleanup(func() {
		srv.Close()
		gw.listener.Close()
		lby.Close()
	})
	return &harness{lobby: lby, gw: gw, srv: srv, errs: errs}
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	want := h.gw.ConnectionCount() + 1
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return h.gw.ConnectionCount() >= want
	}, time.Second, 5*time.Millisecond)
	return conn
}

func send(t *testing.T, conn *websocket.Conn, a blackjack.Action) {
	t.Helper()
	data, err := codec.EncodeAction(a)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, data))
}

func readEvents(t *testing.T, conn *websocket.Conn) []blackjack.ClientEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	messageType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, messageType)
	events, err := codec.DecodeEvents(data)
	require.NoError(t, err)
	return events
}

func nextError(t *testing.T, errs <-chan error) *ServerError {
	t.Helper()
	select {
	case err := <-errs:
		var serr *ServerError
		require.True(t, errors.As(err, &serr), "unexpected error type %T", err)
		return serr
	case <-time.After(2 * time.Second):
		require.FailNow(t, "no error reported")
		return nil
	}
}

func TestFullRoundOverWebSocket(t *testing.T) {
	h := newHarness(t)

	conns := make([]*websocket.Conn, 4)
	for i := range conns {
		conns[i] = h.dial(t)
	}

	// Each AddMoney is echoed to the whole table, which tells every client
	// who sent it.
	ids := make(map[blackjack.PlayerID]*websocket.Conn)
	for i, conn := range conns {
		amount := blackjack.Chips(100 + i)
		send(t, conn, blackjack.AddMoney(amount))
		var frame []blackjack.ClientEvent
		for _, c := range conns {
			got := readEvents(t, c)
			if frame != nil {
				assert.Equal(t, frame, got)
			}
			frame = got
		}
		require.Len(t, frame, 1)
		assert.Equal(t, blackjack.EventBetting, frame[0].Type)
		assert.Equal(t, amount, frame[0].Amount)
		ids[frame[0].Player] = conn
	}
	require.Len(t, ids, 4)

	var last []blackjack.ClientEvent
	for _, conn := range conns {
		send(t, conn, blackjack.StartingBet(10))
		for _, c := range conns {
			last = readEvents(t, c)
		}
	}
	// Betting plus eight player cards, one dealer card.
	assert.Len(t, last, 10)

	snap, err := h.lobby.Snapshot()
	require.NoError(t, err)
	table, ok := snap.Tables["table_1"]
	require.True(t, ok)

	for _, p := range table.Players {
		send(t, ids[p.ID], blackjack.Stand())
		for _, c := range conns {
			last = readEvents(t, c)
		}
	}
	assert.True(t, blackjack.IsRoundOver(last))
	assert.Equal(t, []blackjack.ClientEvent{
		blackjack.PlayerRoundOverEvent(),
		blackjack.CardRevealedEvent(blackjack.DealerOrigin(), card.New(card.Heart, card.Nine)),
		blackjack.RoundOverEvent(),
	}, last)

	snap, err = h.lobby.Snapshot()
	require.NoError(t, err)
	for _, p := range snap.Tables["table_1"].Players {
		// 18 against 18 pays double.
		assert.InDelta(t, float64(100+indexOf(conns, ids[p.ID])-10+20), float64(p.Balance), 0.001)
	}
}

func indexOf(conns []*websocket.Conn, conn *websocket.Conn) int {
	for i, c := range conns {
		if c == conn {
			return i
		}
	}
	return -1
}

func TestRejectedActionKeepsConnection(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)

	// Not seated yet: the lobby rejects it and nothing is sent back.
	send(t, conn, blackjack.Hit())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	serr := nextError(t, h.errs)
	assert.Equal(t, KindBadMessageType, serr.Kind)
	assert.ErrorIs(t, serr, ErrBadMessageType)

	snap, err := h.lobby.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap.Waiting, 1)
	assert.Equal(t, 1, h.gw.ConnectionCount())
}

func TestEmptyFrameIsIgnored(t *testing.T) {
	h := newHarness(t)
	conns := []*websocket.Conn{h.dial(t), h.dial(t), h.dial(t), h.dial(t)}

	require.NoError(t, conns[0].WriteMessage(websocket.BinaryMessage, []byte{}))

	// A later action still goes through on the same connection.
	send(t, conns[0], blackjack.AddMoney(7))
	for _, c := range conns {
		events := readEvents(t, c)
		require.Len(t, events, 1)
		assert.Equal(t, blackjack.Chips(7), events[0].Amount)
	}
	assert.Equal(t, 4, h.gw.ConnectionCount())

	select {
	case err := <-h.errs:
		t.Fatalf("empty frame must not be reported: %v", err)
	default:
	}
}

func TestFullErrorChannelCountsDrops(t *testing.T) {
	lby := lobby.New(lobby.Config{Shoe: nines})
	errs := make(chan error, 1)
	gw, err := New("127.0.0.1:0", lby, errs)
	require.NoError(t, err)
	srv := httptest.NewServer(gw.Router())
	t.Cleanup(func() {
		srv.Close()
		gw.listener.Close()
		lby.Close()
	})
	h := &harness{lobby: lby, gw: gw, srv: srv, errs: errs}
	conn := h.dial(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	}

	require.Eventually(t, func() bool {
		return gw.DroppedErrors() == 2
	}, time.Second, 5*time.Millisecond)
	serr := nextError(t, errs)
	assert.Equal(t, KindBadMessageType, serr.Kind)
	assert.Equal(t, 1, gw.ConnectionCount())
}

func TestMalformedFrameIsolatesConnection(t *testing.T) {
	h := newHarness(t)
	bad := h.dial(t)
	good := h.dial(t)

	require.NoError(t, bad.WriteMessage(websocket.BinaryMessage, []byte{0xff, 0xff, 0xff}))
	serr := nextError(t, h.errs)
	assert.Equal(t, KindDecode, serr.Kind)
	assert.ErrorIs(t, serr, codec.ErrMalformed)

	require.Eventually(t, func() bool {
		return h.gw.ConnectionCount() == 1
	}, time.Second, 5*time.Millisecond)

	snap, err := h.lobby.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap.Waiting, 1)

	// The surviving connection still works once a table forms.
	others := []*websocket.Conn{good, h.dial(t), h.dial(t), h.dial(t)}
	send(t, good, blackjack.AddMoney(5))
	for _, c := range others {
		events := readEvents(t, c)
		require.Len(t, events, 1)
		assert.Equal(t, blackjack.Chips(5), events[0].Amount)
	}
}

func TestDisconnectLeavesTable(t *testing.T) {
	h := newHarness(t)
	conns := []*websocket.Conn{h.dial(t), h.dial(t), h.dial(t), h.dial(t)}

	require.NoError(t, conns[0].WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

	require.Eventually(t, func() bool {
		snap, err := h.lobby.Snapshot()
		return err == nil && len(snap.Tables["table_1"].Players) == 3
	}, time.Second, 5*time.Millisecond)

	select {
	case err := <-h.errs:
		t.Fatalf("clean close must not be reported: %v", err)
	default:
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	lby := lobby.New(lobby.Config{Shoe: nines})
	defer lby.Close()
	gw, err := New("127.0.0.1:0", lby, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gw.Run(ctx) }()

	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		conn, _, err = websocket.DefaultDialer.Dial("ws://"+gw.Addr().String()+"/ws", nil)
		return err == nil
	}, time.Second, 10*time.Millisecond)
	defer conn.Close()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
