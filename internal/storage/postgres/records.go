package postgres

import (
	"time"

	"github.com/mcoot/rpsarena/internal/model"
)

// Row types mirror the tables in migrations/. Conversions to and from the
// model types live next to each record.

type playerRecord struct {
	ID           string `gorm:"primaryKey"`
	DisplayName  string
	Rating       int
	Wins         int
	Losses       int
	Draws        int
	GamesPlayed  int
	LastActiveAt time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
}

func (playerRecord) TableName() string { return "players" }

func newPlayerRecord(p *model.Player) *playerRecord {
	return &playerRecord{
		ID:           string(p.ID),
		DisplayName:  p.DisplayName,
		Rating:       p.Rating,
		Wins:         p.Wins,
		Losses:       p.Losses,
		Draws:        p.Draws,
		GamesPlayed:  p.GamesPlayed,
		LastActiveAt: p.LastActiveAt,
		CreatedAt:    p.CreatedAt,
	}
}

func (r *playerRecord) toModel() *model.Player {
	return &model.Player{
		ID:           model.PlayerID(r.ID),
		DisplayName:  r.DisplayName,
		Rating:       r.Rating,
		Wins:         r.Wins,
		Losses:       r.Losses,
		Draws:        r.Draws,
		GamesPlayed:  r.GamesPlayed,
		LastActiveAt: r.LastActiveAt,
		CreatedAt:    r.CreatedAt,
	}
}

type queueRecord struct {
	Seq      int64  `gorm:"primaryKey;autoIncrement"`
	PlayerID string `gorm:"uniqueIndex"`
	Rating   int
	JoinedAt time.Time
}

func (queueRecord) TableName() string { return "matchmaking_queue" }

func (r *queueRecord) toModel() *model.QueueEntry {
	return &model.QueueEntry{
		Seq:      r.Seq,
		PlayerID: model.PlayerID(r.PlayerID),
		Rating:   r.Rating,
		JoinedAt: r.JoinedAt,
	}
}

type roomRecord struct {
	ID        string `gorm:"primaryKey"`
	HostID    string
	CodeHash  string
	MaxRounds int
	State     string
	ExpiresAt time.Time
	GameID    *string
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

func (roomRecord) TableName() string { return "private_rooms" }

func newRoomRecord(r *model.PrivateRoom) *roomRecord {
	return &roomRecord{
		ID:        string(r.ID),
		HostID:    string(r.HostID),
		CodeHash:  r.CodeHash,
		MaxRounds: r.MaxRounds,
		State:     string(r.State),
		ExpiresAt: r.ExpiresAt,
		GameID:    fromID(r.GameID),
		CreatedAt: r.CreatedAt,
	}
}

func (r *roomRecord) toModel() *model.PrivateRoom {
	return &model.PrivateRoom{
		ID:        model.RoomID(r.ID),
		HostID:    model.PlayerID(r.HostID),
		CodeHash:  r.CodeHash,
		MaxRounds: r.MaxRounds,
		State:     model.RoomState(r.State),
		ExpiresAt: r.ExpiresAt,
		GameID:    toID[model.GameID](r.GameID),
		CreatedAt: r.CreatedAt,
	}
}

type gameRecord struct {
	ID                 string `gorm:"primaryKey"`
	Player1ID          string `gorm:"column:player1_id"`
	Player2ID          string `gorm:"column:player2_id"`
	Player1Score       int    `gorm:"column:player1_score"`
	Player2Score       int    `gorm:"column:player2_score"`
	MaxRounds          int
	CurrentRound       int
	Status             string
	WinnerID           *string
	Player1RatingStart int `gorm:"column:player1_rating_start"`
	Player2RatingStart int `gorm:"column:player2_rating_start"`
	RatingApplied      bool
	Private            bool
	RoomID             *string
	CreatedAt          time.Time `gorm:"autoCreateTime:false"`
	FinishedAt         *time.Time
}

func (gameRecord) TableName() string { return "games" }

func newGameRecord(g *model.Game) *gameRecord {
	return &gameRecord{
		ID:                 string(g.ID),
		Player1ID:          string(g.Player1ID),
		Player2ID:          string(g.Player2ID),
		Player1Score:       g.Player1Score,
		Player2Score:       g.Player2Score,
		MaxRounds:          g.MaxRounds,
		CurrentRound:       g.CurrentRound,
		Status:             string(g.Status),
		WinnerID:           fromID(g.WinnerID),
		Player1RatingStart: g.Player1RatingStart,
		Player2RatingStart: g.Player2RatingStart,
		RatingApplied:      g.RatingApplied,
		Private:            g.Private,
		RoomID:             fromID(g.RoomID),
		CreatedAt:          g.CreatedAt,
		FinishedAt:         g.FinishedAt,
	}
}

func (r *gameRecord) toModel() *model.Game {
	return &model.Game{
		ID:                 model.GameID(r.ID),
		Player1ID:          model.PlayerID(r.Player1ID),
		Player2ID:          model.PlayerID(r.Player2ID),
		Player1Score:       r.Player1Score,
		Player2Score:       r.Player2Score,
		MaxRounds:          r.MaxRounds,
		CurrentRound:       r.CurrentRound,
		Status:             model.GameStatus(r.Status),
		WinnerID:           toID[model.PlayerID](r.WinnerID),
		Player1RatingStart: r.Player1RatingStart,
		Player2RatingStart: r.Player2RatingStart,
		RatingApplied:      r.RatingApplied,
		Private:            r.Private,
		RoomID:             toID[model.RoomID](r.RoomID),
		CreatedAt:          r.CreatedAt,
		FinishedAt:         r.FinishedAt,
	}
}

type roundRecord struct {
	GameID      string  `gorm:"primaryKey"`
	Number      int     `gorm:"primaryKey;autoIncrement:false"`
	Player1Move *string `gorm:"column:player1_move"`
	Player2Move *string `gorm:"column:player2_move"`
	WinnerID    *string
	IsDraw      bool
	CompletedAt *time.Time
}

func (roundRecord) TableName() string { return "game_rounds" }

func newRoundRecord(r *model.Round) *roundRecord {
	return &roundRecord{
		GameID:      string(r.GameID),
		Number:      r.Number,
		Player1Move: fromID(r.Player1Move),
		Player2Move: fromID(r.Player2Move),
		WinnerID:    fromID(r.WinnerID),
		IsDraw:      r.IsDraw,
		CompletedAt: r.CompletedAt,
	}
}

func (r *roundRecord) toModel() *model.Round {
	return &model.Round{
		GameID:      model.GameID(r.GameID),
		Number:      r.Number,
		Player1Move: toID[model.Move](r.Player1Move),
		Player2Move: toID[model.Move](r.Player2Move),
		WinnerID:    toID[model.PlayerID](r.WinnerID),
		IsDraw:      r.IsDraw,
		CompletedAt: r.CompletedAt,
	}
}

// fromID and toID convert optional string-typed values to nullable columns

func fromID[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toID[T ~string](v *string) *T {
	if v == nil {
		return nil
	}
	t := T(*v)
	return &t
}
