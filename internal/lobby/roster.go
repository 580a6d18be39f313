package lobby

import "matchlobby/internal/relay"

// UnknownName stands in for a player whose name property has not synced
// yet. Non-fatal; the next properties-updated callback repairs it.
const UnknownName = "Unknown"

type PlayerIdentity struct {
	ID   int
	Name string
}

// buildRoster projects the relay's room player list into identities, in
// the order the relay reports. Always derived, never mutated directly.
func buildRoster(players []relay.Player) []PlayerIdentity {
	out := make([]PlayerIdentity, len(players))
	for i, p := range players {
		name := p.Props[relay.PropName]
		if name == "" {
			name = UnknownName
		}
		out[i] = PlayerIdentity{ID: p.ID, Name: name}
	}
	return out
}

func (s *Session) rosterHas(id int) bool {
	for _, p := range s.roster {
		if p.ID == id {
			return true
		}
	}
	return false
}
