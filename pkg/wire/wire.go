package wire

// JSON frames exchanged between a relay client and the relay server.
// One websocket text message = one frame.

// Client -> Server
// JoinOrCreate:
//   room: string
//   max_players: number
//
// Leave: {}
//
// SetProps:
//   props: { [key]: string } // merged into the local player's property map
//
// Raise:
//   code: number             // 1=invite, 2=decline, 3=move-to-room
//   payload: string[]        // at most three fields
//   targets: number[]        // player ids; unknown ids are silently skipped

const (
	FrameJoinOrCreate = "JoinOrCreate"
	FrameLeave        = "Leave"
	FrameSetProps     = "SetProps"
	FrameRaise        = "Raise"
)

// Server -> Client
const (
	FrameWelcome       = "Welcome"
	FrameJoinedRoom    = "JoinedRoom"
	FrameLeftRoom      = "LeftRoom"
	FramePlayerEntered = "PlayerEntered"
	FramePlayerLeft    = "PlayerLeft"
	FramePropsUpdated  = "PropsUpdated"
	FrameRoomList      = "RoomList"
	FrameEvent         = "Event"
	FrameError         = "Error"
)

type PlayerInfo struct {
	ID    int               `json:"id"`
	Props map[string]string `json:"props,omitempty"`
}

type RoomInfo struct {
	Name        string `json:"name"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
}

type ClientFrame struct {
	Type       string            `json:"type"`
	Room       string            `json:"room,omitempty"`
	MaxPlayers int               `json:"max_players,omitempty"`
	Props      map[string]string `json:"props,omitempty"`
	Code       byte              `json:"code,omitempty"`
	Payload    []string          `json:"payload,omitempty"`
	Targets    []int             `json:"targets,omitempty"`
}

type ServerFrame struct {
	Type     string            `json:"type"`
	PlayerID int               `json:"player_id,omitempty"`
	Room     string            `json:"room,omitempty"`
	Players  []PlayerInfo      `json:"players,omitempty"`
	Props    map[string]string `json:"props,omitempty"`
	Rooms    []RoomInfo        `json:"rooms,omitempty"`
	Code     byte              `json:"code,omitempty"`
	Payload  []string          `json:"payload,omitempty"`
	Sender   int               `json:"sender,omitempty"`
	Error    string            `json:"error,omitempty"`
}
