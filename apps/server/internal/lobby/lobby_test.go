package lobby

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackjack-lite/blackjack"
)

func admitN(t *testing.T, l *Lobby, n int) []blackjack.PlayerID {
	t.Helper()
	ids := make([]blackjack.PlayerID, n)
	for i := range ids {
		id, err := l.Admit()
		require.NoError(t, err)
		ids[i] = id
	}
	return ids
}

func TestLobbyConcurrentDispatchAcrossTables(t *testing.T) {
	l := New(Config{Shoe: nines})
	defer l.Close()

	ids := admitN(t, l, 8)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id blackjack.PlayerID) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				_, err := l.Dispatch(id, blackjack.AddMoney(10))
				assert.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	snap, err := l.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Tables, 2)
	for _, table := range snap.Tables {
		require.Len(t, table.Players, 4)
		for _, p := range table.Players {
			assert.Equal(t, blackjack.Chips(100), p.Balance)
			// Three table-mates each sent ten AddMoney.
			assert.Equal(t, 30, snap.Pending[p.ID])
		}
	}

	out, err := l.DrainOutbound()
	require.NoError(t, err)
	assert.Len(t, out, 8)
}

func TestLobbyOutboundSink(t *testing.T) {
	l := New(Config{Shoe: nines})
	defer l.Close()

	var (
		mu        sync.Mutex
		delivered = make(map[blackjack.PlayerID][]blackjack.ClientEvent)
	)
	require.NoError(t, l.SetOutbound(func(out map[blackjack.PlayerID][]blackjack.ClientEvent) {
		mu.Lock()
		defer mu.Unlock()
		for id, events := range out {
			delivered[id] = append(delivered[id], events...)
		}
	}))

	ids := admitN(t, l, 4)
	events, err := l.Dispatch(ids[0], blackjack.AddMoney(50))
	require.NoError(t, err)

	mu.Lock()
	for _, id := range ids {
		assert.Equal(t, events, delivered[id])
	}
	mu.Unlock()

	// Rejected actions produce nothing on the sink.
	_, err = l.Dispatch(ids[1], blackjack.StartingBet(500))
	require.ErrorIs(t, err, blackjack.ErrInvalidAction)
	mu.Lock()
	assert.Len(t, delivered[ids[1]], 1)
	mu.Unlock()

	out, err := l.DrainOutbound()
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLobbyClosed(t *testing.T) {
	l := New(Config{Shoe: nines})
	l.Close()
	l.Close()

	_, err := l.Admit()
	assert.ErrorIs(t, err, ErrLobbyClosed)
	_, err = l.Dispatch(blackjack.NewPlayerID(), blackjack.Hit())
	assert.ErrorIs(t, err, ErrLobbyClosed)
	assert.ErrorIs(t, l.Drop(blackjack.NewPlayerID()), ErrLobbyClosed)
}
