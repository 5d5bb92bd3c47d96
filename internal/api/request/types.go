package request

// CreatePlayerRequest is the request body for creating a player
type CreatePlayerRequest struct {
	DisplayName string `json:"display_name"`
}

// CreateRoomRequest is the request body for opening a private room.
// MaxRounds defaults to 3 when omitted.
type CreateRoomRequest struct {
	MaxRounds int `json:"max_rounds,omitempty"`
}

// JoinRoomRequest is the request body for joining a room by code
type JoinRoomRequest struct {
	Code string `json:"code"`
}

// SubmitMoveRequest is the request body for playing a move
type SubmitMoveRequest struct {
	Move string `json:"move"`
}
