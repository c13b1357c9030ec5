package lobby

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"blackjack-lite/blackjack"
	"blackjack-lite/card"
)

// nines deals 18 to everyone so a round only ends when every seat stands.
func nines() card.CardList {
	pile := make(card.CardList, 0, 20)
	for i := 0; i < 20; i++ {
		pile.Add(card.New(card.Spade, card.Nine))
	}
	return pile
}

type CoordinatorSuite struct {
	suite.Suite
	settled chan RoundSettledInfo
	coord   *Coordinator
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.settled = make(chan RoundSettledInfo, 4)
	s.coord = NewCoordinator(Config{
		Shoe: nines,
		OnRoundSettled: func(info RoundSettledInfo) {
			s.settled <- info
		},
	})
}

func (s *CoordinatorSuite) admit(n int) []blackjack.PlayerID {
	ids := make([]blackjack.PlayerID, n)
	for i := range ids {
		ids[i] = s.coord.Admit()
	}
	return ids
}

func (s *CoordinatorSuite) TestAdmitFillsWaitingRoom() {
	ids := s.admit(3)

	snap := s.coord.Snapshot()
	s.Equal(ids, snap.Waiting)
	s.Empty(snap.Tables)
	for _, id := range ids {
		_, ok := s.coord.TableOf(id)
		s.False(ok)
	}
}

func (s *CoordinatorSuite) TestFourthPlayerCreatesTable() {
	ids := s.admit(4)

	snap := s.coord.Snapshot()
	s.Empty(snap.Waiting)
	s.Require().Contains(snap.Tables, "table_1")

	table := snap.Tables["table_1"]
	s.Require().Len(table.Players, 4)
	for seat, p := range table.Players {
		s.Equal(ids[seat], p.ID)
		s.Equal(seat, p.Seat)
		s.Empty(p.Hand)
		s.Zero(p.Balance)
	}
	s.Equal(20, table.DeckRemaining)

	for _, id := range ids {
		tableID, ok := s.coord.TableOf(id)
		s.True(ok)
		s.Equal("table_1", tableID)
	}

	more := s.admit(4)
	tableID, ok := s.coord.TableOf(more[0])
	s.True(ok)
	s.Equal("table_2", tableID)
}

func (s *CoordinatorSuite) TestDropFromWaitingRoom() {
	ids := s.admit(3)
	s.coord.Drop(ids[1])
	s.Equal([]blackjack.PlayerID{ids[0], ids[2]}, s.coord.Snapshot().Waiting)

	// Unknown players are ignored.
	s.coord.Drop(blackjack.NewPlayerID())
	s.Len(s.coord.Snapshot().Waiting, 2)
}

func (s *CoordinatorSuite) TestDispatchUnseated() {
	waiting := s.admit(1)[0]
	_, err := s.coord.Dispatch(waiting, blackjack.AddMoney(10))
	s.ErrorIs(err, ErrPlayerNotFound)

	_, err = s.coord.Dispatch(blackjack.NewPlayerID(), blackjack.Hit())
	s.ErrorIs(err, ErrPlayerNotFound)
}

func (s *CoordinatorSuite) TestDispatchFansOutToTableMates() {
	ids := s.admit(4)

	events, err := s.coord.Dispatch(ids[0], blackjack.AddMoney(100))
	s.Require().NoError(err)
	s.Equal([]blackjack.ClientEvent{blackjack.BettingEvent(ids[0], 100)}, events)

	out := s.coord.DrainOutbound()
	s.Len(out, 3)
	s.NotContains(out, ids[0])
	for _, id := range ids[1:] {
		s.Equal(events, out[id])
	}

	s.Empty(s.coord.DrainOutbound())
}

func (s *CoordinatorSuite) TestDispatchWrapsEngineErrors() {
	ids := s.admit(4)

	_, err := s.coord.Dispatch(ids[0], blackjack.AddMoney(-5))
	s.Require().Error(err)
	s.ErrorIs(err, blackjack.ErrInvalidAction)
	s.Contains(err.Error(), "table_1")
	s.Empty(s.coord.DrainOutbound())

	_, err = s.coord.Dispatch(ids[1], blackjack.Hit())
	s.ErrorIs(err, blackjack.ErrInvalidAction)
}

func (s *CoordinatorSuite) TestRoundSettledHook() {
	ids := s.admit(4)
	for _, id := range ids {
		_, err := s.coord.Dispatch(id, blackjack.AddMoney(100))
		s.Require().NoError(err)
		_, err = s.coord.Dispatch(id, blackjack.StartingBet(10))
		s.Require().NoError(err)
	}

	var last []blackjack.ClientEvent
	for _, id := range ids {
		events, err := s.coord.Dispatch(id, blackjack.Stand())
		s.Require().NoError(err)
		last = events
	}
	s.True(blackjack.IsRoundOver(last))

	select {
	case info := <-s.settled:
		s.Equal("table_1", info.TableID)
		s.Require().NotNil(info.Settlement)
		s.Equal(uint32(1), info.Settlement.Round)
		s.Equal(18, info.Settlement.DealerValue)
		s.Require().Len(info.Settlement.Players, 4)
		for _, r := range info.Settlement.Players {
			s.Equal(blackjack.Chips(20), r.Payout)
		}
	case <-time.After(time.Second):
		s.Fail("round settled hook not called")
	}
}

func (s *CoordinatorSuite) TestDropAdvancesTurnAndRetiresTable() {
	ids := s.admit(4)
	for _, id := range ids {
		_, err := s.coord.Dispatch(id, blackjack.AddMoney(100))
		s.Require().NoError(err)
		_, err = s.coord.Dispatch(id, blackjack.StartingBet(10))
		s.Require().NoError(err)
	}
	s.coord.DrainOutbound()

	s.coord.Drop(ids[0])
	table := s.coord.Table("table_1")
	s.Require().NotNil(table)
	cur, ok := table.CurrentPlayer()
	s.True(ok)
	s.Equal(ids[1], cur)

	_, err := s.coord.Dispatch(ids[0], blackjack.Stand())
	s.ErrorIs(err, ErrPlayerNotFound)

	for _, id := range ids[1:] {
		s.coord.Drop(id)
	}
	s.Nil(s.coord.Table("table_1"))
	s.Empty(s.coord.Snapshot().Tables)
	s.Empty(s.coord.DrainOutbound())
}

func (s *CoordinatorSuite) TestDropFansOutDealerCascade() {
	ids := s.admit(4)
	for _, id := range ids {
		_, err := s.coord.Dispatch(id, blackjack.AddMoney(100))
		s.Require().NoError(err)
		_, err = s.coord.Dispatch(id, blackjack.StartingBet(10))
		s.Require().NoError(err)
	}
	for _, id := range ids[:3] {
		_, err := s.coord.Dispatch(id, blackjack.Stand())
		s.Require().NoError(err)
	}
	s.coord.DrainOutbound()

	s.coord.Drop(ids[3])
	out := s.coord.DrainOutbound()
	s.Len(out, 3)
	for _, id := range ids[:3] {
		s.True(blackjack.IsRoundOver(out[id]))
	}

	select {
	case info := <-s.settled:
		s.Len(info.Settlement.Players, 3)
	case <-time.After(time.Second):
		s.Fail("round settled hook not called")
	}
}
