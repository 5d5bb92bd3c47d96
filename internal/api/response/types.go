package response

import (
	"time"

	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/services/rating"
)

// Player represents a player in API responses
type Player struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Rating      int     `json:"rating"`
	Tier        string  `json:"tier"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Draws       int     `json:"draws"`
	GamesPlayed int     `json:"games_played"`
	WinRate     float64 `json:"win_rate"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		Rating:      p.Rating,
		Tier:        rating.TierFor(p.Rating).Name,
		Wins:        p.Wins,
		Losses:      p.Losses,
		Draws:       p.Draws,
		GamesPlayed: p.GamesPlayed,
		WinRate:     p.WinRate(),
	}
}

// AuthResponse is the response for player creation
type AuthResponse struct {
	Player       Player    `json:"player"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session and its player
func AuthResponseFromSession(s *model.Session, p *model.Player) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(p),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Heartbeat reports the caller's active game, if any
type Heartbeat struct {
	ActiveGameID *string `json:"active_game_id"`
}

// Stats is a player's record with derived standings
type Stats struct {
	Player     Player  `json:"player"`
	WinRate    float64 `json:"win_rate"`
	GlobalRank int     `json:"global_rank"`
	Tier       string  `json:"tier"`
	WinStreak  int     `json:"win_streak"`
}

// StatsFromModel converts model.PlayerStats
func StatsFromModel(s *model.PlayerStats) Stats {
	return Stats{
		Player:     PlayerFromModel(&s.Player),
		WinRate:    s.WinRate,
		GlobalRank: s.GlobalRank,
		Tier:       s.Tier,
		WinStreak:  s.WinStreak,
	}
}

// Match is one concluded game in a player's history
type Match struct {
	GameID        string    `json:"game_id"`
	Status        string    `json:"status"`
	OpponentID    string    `json:"opponent_id"`
	OpponentName  string    `json:"opponent_name"`
	YourScore     int       `json:"your_score"`
	OpponentScore int       `json:"opponent_score"`
	Result        string    `json:"result"`
	FinishedAt    time.Time `json:"finished_at"`
}

// MatchesFromModel converts a list of model.MatchSummary
func MatchesFromModel(ms []model.MatchSummary) []Match {
	out := make([]Match, len(ms))
	for i, m := range ms {
		out[i] = Match{
			GameID:        string(m.GameID),
			Status:        string(m.Status),
			OpponentID:    string(m.OpponentID),
			OpponentName:  m.OpponentName,
			YourScore:     m.YourScore,
			OpponentScore: m.OpponentScore,
			Result:        string(m.Result),
			FinishedAt:    m.FinishedAt,
		}
	}
	return out
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Position    int     `json:"position"`
	PlayerID    string  `json:"player_id"`
	DisplayName string  `json:"display_name"`
	Rating      int     `json:"rating"`
	Tier        string  `json:"tier"`
	Wins        int     `json:"wins"`
	GamesPlayed int     `json:"games_played"`
	WinRate     float64 `json:"win_rate"`
}

// LeaderboardFromModel converts leaderboard rows
func LeaderboardFromModel(entries []model.LeaderboardEntry) []LeaderboardEntry {
	out := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = LeaderboardEntry{
			Position:    e.Position,
			PlayerID:    string(e.Player.ID),
			DisplayName: e.Player.DisplayName,
			Rating:      e.Player.Rating,
			Tier:        e.Tier,
			Wins:        e.Player.Wins,
			GamesPlayed: e.Player.GamesPlayed,
			WinRate:     e.WinRate,
		}
	}
	return out
}

// OnlinePlayer is a recently active player
type OnlinePlayer struct {
	Player Player `json:"player"`
	InGame bool   `json:"in_game"`
}

// OnlinePlayers lists recently active players
type OnlinePlayers struct {
	Players []OnlinePlayer `json:"players"`
	Count   int            `json:"count"`
}

// OnlinePlayersFromModel converts the online list
func OnlinePlayersFromModel(online []model.OnlinePlayer) OnlinePlayers {
	out := OnlinePlayers{Players: make([]OnlinePlayer, len(online)), Count: len(online)}
	for i, o := range online {
		out.Players[i] = OnlinePlayer{Player: PlayerFromModel(&o.Player), InGame: o.InGame}
	}
	return out
}

// QueueStatus represents the caller's matchmaking state
type QueueStatus struct {
	InQueue        bool    `json:"in_queue"`
	Matched        bool    `json:"matched"`
	Timeout        bool    `json:"timeout"`
	GameID         *string `json:"game_id,omitempty"`
	OpponentName   string  `json:"opponent_name,omitempty"`
	WaitSeconds    int     `json:"wait_seconds"`
	PlayersWaiting int     `json:"players_waiting"`
}

// QueueStatusFromModel converts model.QueueStatus
func QueueStatusFromModel(s *model.QueueStatus) QueueStatus {
	return QueueStatus{
		InQueue:        s.InQueue,
		Matched:        s.Matched,
		Timeout:        s.Timeout,
		GameID:         idString(s.GameID),
		OpponentName:   s.OpponentName,
		WaitSeconds:    s.WaitSeconds,
		PlayersWaiting: s.PlayersWaiting,
	}
}

// CreatedRoom is returned once, when a room is opened. The code is not
// retrievable afterwards.
type CreatedRoom struct {
	RoomID    string    `json:"room_id"`
	Code      string    `json:"code"`
	MaxRounds int       `json:"max_rounds"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreatedRoomFromModel converts model.CreatedRoom
func CreatedRoomFromModel(c *model.CreatedRoom) CreatedRoom {
	return CreatedRoom{
		RoomID:    string(c.Room.ID),
		Code:      c.Code,
		MaxRounds: c.Room.MaxRounds,
		ExpiresAt: c.Room.ExpiresAt,
	}
}

// JoinedRoom is returned to a successful joiner
type JoinedRoom struct {
	GameID string `json:"game_id"`
}

// RoomStatus is the host's view of their latest room
type RoomStatus struct {
	HasRoom      bool       `json:"has_room"`
	Matched      bool       `json:"matched"`
	Expired      bool       `json:"expired"`
	RoomID       string     `json:"room_id,omitempty"`
	MaxRounds    int        `json:"max_rounds,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	GameID       *string    `json:"game_id,omitempty"`
	OpponentName string     `json:"opponent_name,omitempty"`
}

// RoomStatusFromModel converts model.RoomStatus
func RoomStatusFromModel(s *model.RoomStatus) RoomStatus {
	out := RoomStatus{
		HasRoom:      s.HasRoom,
		Matched:      s.Matched,
		Expired:      s.Expired,
		RoomID:       string(s.RoomID),
		MaxRounds:    s.MaxRounds,
		GameID:       idString(s.GameID),
		OpponentName: s.OpponentName,
	}
	if !s.ExpiresAt.IsZero() {
		out.ExpiresAt = &s.ExpiresAt
	}
	return out
}

// Round is a completed round from the caller's side
type Round struct {
	Number       int    `json:"number"`
	YourMove     string `json:"your_move"`
	OpponentMove string `json:"opponent_move"`
	Result       string `json:"result"`
}

// RatingChange is the caller's rating movement over a concluded game
type RatingChange struct {
	Old   int `json:"old"`
	New   int `json:"new"`
	Delta int `json:"delta"`
}

// Game is the caller's view of a game
type Game struct {
	GameID           string        `json:"game_id"`
	Status           string        `json:"status"`
	MaxRounds        int           `json:"max_rounds"`
	CurrentRound     int           `json:"current_round"`
	WinsNeeded       int           `json:"wins_needed"`
	YourScore        int           `json:"your_score"`
	OpponentScore    int           `json:"opponent_score"`
	OpponentID       string        `json:"opponent_id"`
	OpponentName     string        `json:"opponent_name"`
	OpponentRating   int           `json:"opponent_rating"`
	YourMove         *string       `json:"your_move"`
	OpponentHasMoved bool          `json:"opponent_has_moved"`
	Rounds           []Round       `json:"rounds"`
	WinnerID         *string       `json:"winner_id"`
	IsDraw           bool          `json:"is_draw"`
	Private          bool          `json:"private"`
	RatingChange     *RatingChange `json:"rating_change,omitempty"`
}

// GameFromModel converts model.GameView
func GameFromModel(v *model.GameView) Game {
	g := Game{
		GameID:           string(v.GameID),
		Status:           string(v.Status),
		MaxRounds:        v.MaxRounds,
		CurrentRound:     v.CurrentRound,
		WinsNeeded:       v.WinsNeeded,
		YourScore:        v.YourScore,
		OpponentScore:    v.OpponentScore,
		OpponentID:       string(v.OpponentID),
		OpponentName:     v.OpponentName,
		OpponentRating:   v.OpponentRating,
		YourMove:         idString(v.YourMove),
		OpponentHasMoved: v.OpponentHasMoved,
		Rounds:           make([]Round, len(v.Rounds)),
		WinnerID:         idString(v.WinnerID),
		IsDraw:           v.IsDraw,
		Private:          v.Private,
	}
	for i, r := range v.Rounds {
		g.Rounds[i] = Round{
			Number:       r.Number,
			YourMove:     string(r.YourMove),
			OpponentMove: string(r.OpponentMove),
			Result:       string(r.Result),
		}
	}
	if v.RatingChange != nil {
		g.RatingChange = &RatingChange{
			Old:   v.RatingChange.Old,
			New:   v.RatingChange.New,
			Delta: v.RatingChange.Delta,
		}
	}
	return g
}

// SweepReport counts what a sweep cleaned up
type SweepReport struct {
	QueueEvicted   int  `json:"queue_evicted"`
	GamesAbandoned int  `json:"games_abandoned"`
	RoomsExpired   int  `json:"rooms_expired"`
	RoundsDeleted  int  `json:"rounds_deleted"`
	Skipped        bool `json:"skipped"`
}

// SweepReportFromModel converts model.SweepReport
func SweepReportFromModel(r *model.SweepReport) SweepReport {
	return SweepReport{
		QueueEvicted:   r.QueueEvicted,
		GamesAbandoned: r.GamesAbandoned,
		RoomsExpired:   r.RoomsExpired,
		RoundsDeleted:  r.RoundsDeleted,
		Skipped:        r.Skipped,
	}
}

// Health is the response for the health check
type Health struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func idString[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
