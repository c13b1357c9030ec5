package blackjack

func indexOf(ids []PlayerID, id PlayerID) int {
	for i, cur := range ids {
		if cur == id {
			return i
		}
	}
	return -1
}

func removeID(ids []PlayerID, id PlayerID) []PlayerID {
	out := ids[:0]
	for _, cur := range ids {
		if cur != id {
			out = append(out, cur)
		}
	}
	return out
}
