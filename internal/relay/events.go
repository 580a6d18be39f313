package relay

// Event is a callback delivered by the relay connection. The lobby session
// consumes these from a single goroutine, so no event carries locks or
// shared references; slices and maps are the receiver's to keep.
type Event interface{ isRelayEvent() }

// Connected fires once the relay has assigned the local player id.
type Connected struct{ PlayerID int }

// JoinedRoom fires after a join-or-create completes, with the full roster.
type JoinedRoom struct {
	Room    string
	Players []Player
}

// LeftRoom fires after the local player has left its room.
type LeftRoom struct{}

type PlayerEntered struct{ Player Player }

type PlayerLeft struct{ PlayerID int }

// PropertiesUpdated carries only the changed keys.
type PropertiesUpdated struct {
	PlayerID int
	Props    map[string]string
}

// RoomListUpdate replaces the cached room listing.
type RoomListUpdate struct{ Rooms []RoomSummary }

// CustomEvent is a directed event raised by another player.
type CustomEvent struct {
	Code    byte
	Payload []string
	Sender  int
}

// OperationFailed reports a rejected call (e.g. joining a full room). The
// negotiation layer logs these and moves on; nothing in the protocol
// retries.
type OperationFailed struct{ Reason string }

func (Connected) isRelayEvent()         {}
func (JoinedRoom) isRelayEvent()        {}
func (LeftRoom) isRelayEvent()          {}
func (PlayerEntered) isRelayEvent()     {}
func (PlayerLeft) isRelayEvent()        {}
func (PropertiesUpdated) isRelayEvent() {}
func (RoomListUpdate) isRelayEvent()    {}
func (CustomEvent) isRelayEvent()       {}
func (OperationFailed) isRelayEvent()   {}
