package wire

import "encoding/json"

// Envelope is the frame exchanged over the websocket in both directions.
// Data holds the event-specific payload, still encoded.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// CreateGame opens a room. UserID is empty for guests. Password is optional;
// when set, joiners must supply it verbatim.
type CreateGame struct {
	Code     string `json:"code"`
	Username string `json:"username"`
	UserID   string `json:"userId,omitempty"`
	Password string `json:"password,omitempty"`
}

// JoinGame fills the second slot of an existing room.
type JoinGame struct {
	Code     string `json:"code"`
	Username string `json:"username"`
	UserID   string `json:"userId,omitempty"`
	Password string `json:"password,omitempty"`
}

// Move is relayed verbatim to the opponent; the server does not interpret
// the fields beyond logging them.
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
	SAN       string `json:"san,omitempty"`
	FEN       string `json:"fen,omitempty"`
}

// LeaveRoom is an explicit exit; before start it abandons, in-progress it
// counts as a disconnect loss.
type LeaveRoom struct {
	Code string `json:"code"`
}

// UpdatePGN keeps the server's copy of the notation current so a later
// termination snapshot has the full game.
type UpdatePGN struct {
	PGN string `json:"pgn"`
}

// GameReport accompanies every client-reported terminal state.
type GameReport struct {
	Winner string `json:"winner,omitempty"`
	PGN    string `json:"pgn,omitempty"`
	FEN    string `json:"fen,omitempty"`
}

// RoomCreated confirms a createGame to everyone in the room.
type RoomCreated struct {
	Code        string `json:"code"`
	White       string `json:"white"`
	HasPassword bool   `json:"hasPassword"`
}

// MatchFound announces the opponent before the start countdown.
type MatchFound struct {
	White   string `json:"white"`
	Black   string `json:"black"`
	Message string `json:"message"`
}

// StartGame fires when the countdown elapses with both slots occupied.
type StartGame struct {
	White   string `json:"white"`
	Black   string `json:"black"`
	Message string `json:"message"`
}

// DrawOffered carries which side asked.
type DrawOffered struct {
	From string `json:"from"`
}

// GameEnded is broadcast for every settled or guest-skipped termination.
type GameEnded struct {
	Result string `json:"result"`
	Winner string `json:"winner"`
	Reason string `json:"reason"`
}

// GameOverDisconnect notifies the surviving side after an opponent drop.
type GameOverDisconnect struct {
	Winner string `json:"winner"`
	Reason string `json:"reason"`
}

// RoomClosed tells a waiting opponent the room is gone.
type RoomClosed struct {
	Reason string `json:"reason"`
}

// Error is sent only to the connection that caused the failure.
type Error struct {
	Message string `json:"message"`
}
