package model

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// PlayerID uniquely identifies a player across the system
type PlayerID string

// DefaultRating is the rating assigned to new players
const DefaultRating = 1000

// MaxDisplayNameLength bounds display names in runes
const MaxDisplayNameLength = 32

// Player represents a participant and their cumulative record
type Player struct {
	ID           PlayerID
	DisplayName  string
	Rating       int
	Wins         int
	Losses       int
	Draws        int
	GamesPlayed  int
	LastActiveAt time.Time
	CreatedAt    time.Time
}

// WinRate returns the percentage of games won, rounded to one decimal place
func (p *Player) WinRate() float64 {
	if p.GamesPlayed == 0 {
		return 0
	}
	return math.Round(float64(p.Wins)*1000/float64(p.GamesPlayed)) / 10
}

// NormalizeDisplayName trims the name and checks its length
func NormalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n == 0 || n > MaxDisplayNameLength {
		return "", ErrInvalidDisplayName
	}
	return name, nil
}

// Session ties an opaque token to a player
type Session struct {
	Token     string
	PlayerID  PlayerID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// PlayerStats is a player's record with derived standings
type PlayerStats struct {
	Player     Player
	WinRate    float64
	GlobalRank int
	Tier       string
	WinStreak  int
}

// OnlinePlayer is a recently active player and whether they are mid-game
type OnlinePlayer struct {
	Player Player
	InGame bool
}

// MatchResult is a finished game's outcome from one player's side
type MatchResult string

const (
	MatchResultWin  MatchResult = "win"
	MatchResultLoss MatchResult = "loss"
	MatchResultDraw MatchResult = "draw"
)

// MatchSummary is a completed game seen from one player
type MatchSummary struct {
	GameID        GameID
	Status        GameStatus
	OpponentID    PlayerID
	OpponentName  string
	YourScore     int
	OpponentScore int
	Result        MatchResult
	FinishedAt    time.Time
}

// LeaderboardSort selects the ordering of the leaderboard
type LeaderboardSort string

const (
	SortByRating  LeaderboardSort = "rating"
	SortByWins    LeaderboardSort = "wins"
	SortByWinRate LeaderboardSort = "winrate"
)

// ParseLeaderboardSort maps a query value to a sort, defaulting to rating
func ParseLeaderboardSort(s string) (LeaderboardSort, error) {
	switch LeaderboardSort(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByRating:
		return SortByRating, nil
	case SortByWins:
		return SortByWins, nil
	case SortByWinRate:
		return SortByWinRate, nil
	default:
		return "", ErrInvalidSortKey
	}
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Position int
	Player   Player
	WinRate  float64
	Tier     string
}
