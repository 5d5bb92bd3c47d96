package model

// RoundResult is a completed round's outcome from the viewer's side
type RoundResult string

const (
	RoundResultYou      RoundResult = "you"
	RoundResultOpponent RoundResult = "opponent"
	RoundResultDraw     RoundResult = "draw"
)

// RoundView is a completed round as seen by one participant
type RoundView struct {
	Number       int
	YourMove     Move
	OpponentMove Move
	Result       RoundResult
}

// RatingChange is the viewer's rating movement over a concluded game
type RatingChange struct {
	Old   int
	New   int
	Delta int
}

// GameView is a participant's projection of a game.
// The opponent's move in the open round is never included.
type GameView struct {
	GameID           GameID
	Status           GameStatus
	MaxRounds        int
	CurrentRound     int
	WinsNeeded       int
	YourScore        int
	OpponentScore    int
	OpponentID       PlayerID
	OpponentName     string
	OpponentRating   int
	YourMove         *Move
	OpponentHasMoved bool
	Rounds           []RoundView
	WinnerID         *PlayerID
	IsDraw           bool
	Private          bool
	RatingChange     *RatingChange
}
