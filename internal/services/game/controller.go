package game

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/rpsarena/internal/consistency"
	"github.com/mcoot/rpsarena/internal/dependencies/clock"
	"github.com/mcoot/rpsarena/internal/dependencies/random"
	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/services/rating"
	"github.com/mcoot/rpsarena/internal/services/rules"
	"github.com/mcoot/rpsarena/internal/storage"
)

// Seat is a player entering a game with their rating at that moment
type Seat struct {
	PlayerID model.PlayerID
	Rating   int
}

// Controller manages the per-game round state machine
type Controller struct {
	consistency *consistency.Controller
	clock       clock.Clock
	random      random.Random
	logger      *slog.Logger
}

// NewController creates a new game Controller
func NewController(
	consistency *consistency.Controller,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		consistency: consistency,
		clock:       clock,
		random:      random,
		logger:      logger,
	}
}

// Create inserts a new active game and its first round within tx.
// Both queue matching and room joins create games through here, and log
// the game once their transaction has committed.
func (c *Controller) Create(ctx context.Context, tx storage.Tx, p1, p2 Seat, maxRounds int, roomID *model.RoomID) (*model.Game, error) {
	if err := model.ValidateMaxRounds(maxRounds); err != nil {
		return nil, err
	}
	if p1.PlayerID == p2.PlayerID {
		return nil, model.Invariant("player %s cannot play themselves", p1.PlayerID)
	}

	g := &model.Game{
		ID:                 model.GameID(c.random.ID()),
		Player1ID:          p1.PlayerID,
		Player2ID:          p2.PlayerID,
		MaxRounds:          maxRounds,
		CurrentRound:       1,
		Status:             model.GameStatusActive,
		Player1RatingStart: p1.Rating,
		Player2RatingStart: p2.Rating,
		Private:            roomID != nil,
		RoomID:             roomID,
		CreatedAt:          c.clock.Now(),
	}
	if err := tx.InsertGame(ctx, g); err != nil {
		return nil, err
	}
	if err := tx.InsertRound(ctx, &model.Round{GameID: g.ID, Number: 1}); err != nil {
		return nil, err
	}

	return g, nil
}

// SubmitMove records a player's move in the open round, resolving the round
// and possibly the game once both moves are in.
func (c *Controller) SubmitMove(ctx context.Context, gameID model.GameID, playerID model.PlayerID, move model.Move) (*model.GameView, error) {
	if !move.Valid() {
		return nil, model.ErrInvalidMove
	}

	var j journal
	err := c.consistency.Run(ctx, "game.submit_move", func(ctx context.Context, tx storage.Tx) error {
		j = nil
		g, err := tx.LockGame(ctx, gameID)
		if err != nil {
			return err
		}
		if !g.IsActive() {
			return model.ErrGameNotActive
		}
		seat := g.Seat(playerID)
		if seat == 0 {
			return model.ErrNotParticipant
		}

		round, err := tx.LockRound(ctx, g.ID, g.CurrentRound)
		if errors.Is(err, model.ErrRoundNotFound) {
			return model.Invariant("active game %s has no round %d", g.ID, g.CurrentRound)
		}
		if err != nil {
			return err
		}
		if round.MoveOf(seat) != nil {
			return model.ErrMoveAlreadySubmitted
		}

		round.SetMove(seat, move)
		if !round.BothMoved() {
			return tx.UpdateRound(ctx, round)
		}
		return c.resolveRound(ctx, tx, g, round, &j)
	})
	if err != nil {
		return nil, err
	}
	c.flush(j)

	return c.GetState(ctx, gameID, playerID)
}

func (c *Controller) resolveRound(ctx context.Context, tx storage.Tx, g *model.Game, round *model.Round, j *journal) error {
	now := c.clock.Now()

	outcome, err := rules.Resolve(*round.Player1Move, *round.Player2Move)
	if err != nil {
		return err
	}
	switch outcome {
	case rules.OutcomePlayer1:
		winner := g.Player1ID
		round.WinnerID = &winner
		g.Player1Score++
	case rules.OutcomePlayer2:
		winner := g.Player2ID
		round.WinnerID = &winner
		g.Player2Score++
	default:
		round.IsDraw = true
	}
	round.CompletedAt = &now

	if err := tx.UpdateRound(ctx, round); err != nil {
		return err
	}

	j.add("round resolved",
		slog.String("game_id", string(g.ID)),
		slog.Int("round", round.Number),
		slog.Int("player1_score", g.Player1Score),
		slog.Int("player2_score", g.Player2Score),
	)

	return c.advance(ctx, tx, g, j)
}

// advance ends the game if it is decided, otherwise opens the next round
func (c *Controller) advance(ctx context.Context, tx storage.Tx, g *model.Game, j *journal) error {
	need := g.WinsNeeded()
	switch {
	case g.Player1Score >= need:
		winner := g.Player1ID
		return c.conclude(ctx, tx, g, model.GameStatusFinished, &winner, j)
	case g.Player2Score >= need:
		winner := g.Player2ID
		return c.conclude(ctx, tx, g, model.GameStatusFinished, &winner, j)
	case g.CurrentRound >= g.MaxRounds:
		return c.conclude(ctx, tx, g, model.GameStatusFinished, g.LeaderByScore(), j)
	}

	g.CurrentRound++
	if err := tx.UpdateGame(ctx, g); err != nil {
		return err
	}
	return tx.InsertRound(ctx, &model.Round{GameID: g.ID, Number: g.CurrentRound})
}

// conclude ends the game and applies the rating update exactly once.
// A nil winner is a draw.
func (c *Controller) conclude(ctx context.Context, tx storage.Tx, g *model.Game, status model.GameStatus, winner *model.PlayerID, j *journal) error {
	now := c.clock.Now()
	g.Status = status
	g.WinnerID = winner
	g.FinishedAt = &now
	g.RatingApplied = true

	players, err := tx.LockPlayers(ctx, g.Player1ID, g.Player2ID)
	if err != nil {
		return err
	}
	p1, p2 := players[g.Player1ID], players[g.Player2ID]

	switch {
	case winner == nil:
		p1.Rating, p2.Rating = rating.Draw(p1.Rating, p2.Rating)
		p1.Draws++
		p2.Draws++
	case *winner == p1.ID:
		p1.Rating, p2.Rating = rating.WinLoss(p1.Rating, p2.Rating)
		p1.Wins++
		p2.Losses++
	default:
		p2.Rating, p1.Rating = rating.WinLoss(p2.Rating, p1.Rating)
		p2.Wins++
		p1.Losses++
	}
	p1.GamesPlayed++
	p2.GamesPlayed++

	for _, p := range []*model.Player{p1, p2} {
		if err := tx.UpdatePlayer(ctx, p); err != nil {
			return err
		}
	}
	if err := tx.UpdateGame(ctx, g); err != nil {
		return err
	}

	attrs := []any{
		slog.String("game_id", string(g.ID)),
		slog.String("status", string(status)),
		slog.Int("player1_rating", p1.Rating),
		slog.Int("player2_rating", p2.Rating),
	}
	if winner != nil {
		attrs = append(attrs, slog.String("winner_id", string(*winner)))
	}
	j.add("game concluded", attrs...)
	return nil
}

// Forfeit concedes an active game. The opponent wins and ratings update as
// for any decided game.
func (c *Controller) Forfeit(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error {
	var j journal
	err := c.consistency.Run(ctx, "game.forfeit", func(ctx context.Context, tx storage.Tx) error {
		j = nil
		g, err := tx.LockGame(ctx, gameID)
		if err != nil {
			return err
		}
		if !g.IsActive() {
			return model.ErrGameNotActive
		}
		if !g.IsParticipant(playerID) {
			return model.ErrNotParticipant
		}
		winner := g.OpponentOf(playerID)
		return c.conclude(ctx, tx, g, model.GameStatusAbandoned, &winner, &j)
	})
	if err != nil {
		return err
	}
	c.flush(j)
	return nil
}

// ActiveGame returns the player's active game, or model.ErrGameNotFound
func (c *Controller) ActiveGame(ctx context.Context, playerID model.PlayerID) (*model.Game, error) {
	var g *model.Game
	err := c.consistency.Run(ctx, "game.active", func(ctx context.Context, tx storage.Tx) error {
		var err error
		g, err = tx.FindActiveGame(ctx, playerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// GetState returns the game as seen by viewerID. Games the viewer is not part
// of are reported as not found.
func (c *Controller) GetState(ctx context.Context, gameID model.GameID, viewerID model.PlayerID) (*model.GameView, error) {
	var view *model.GameView
	err := c.consistency.Run(ctx, "game.get_state", func(ctx context.Context, tx storage.Tx) error {
		g, err := tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		if !g.IsParticipant(viewerID) {
			return model.ErrGameNotFound
		}

		rounds, err := tx.ListRounds(ctx, g.ID)
		if err != nil {
			return err
		}
		viewer, err := tx.GetPlayer(ctx, viewerID)
		if err != nil {
			return err
		}
		opponent, err := tx.GetPlayer(ctx, g.OpponentOf(viewerID))
		if err != nil {
			return err
		}

		view = project(g, rounds, viewer, opponent)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// journal holds log records made during a transaction attempt. They are
// written once the transaction commits, so retried attempts log nothing.
type journal []logRecord

type logRecord struct {
	msg   string
	attrs []any
}

func (j *journal) add(msg string, attrs ...any) {
	*j = append(*j, logRecord{msg: msg, attrs: attrs})
}

func (c *Controller) flush(j journal) {
	for _, r := range j {
		c.logger.Info(r.msg, r.attrs...)
	}
}

// EnsureNotPlaying returns an *model.AlreadyInGameError if the player has an active game
func EnsureNotPlaying(ctx context.Context, tx storage.Tx, playerID model.PlayerID) error {
	g, err := tx.FindActiveGame(ctx, playerID)
	if err == nil {
		return &model.AlreadyInGameError{GameID: g.ID}
	}
	if errors.Is(err, model.ErrGameNotFound) {
		return nil
	}
	return err
}

// Interface for dependency injection
type ControllerInterface interface {
	Create(ctx context.Context, tx storage.Tx, p1, p2 Seat, maxRounds int, roomID *model.RoomID) (*model.Game, error)
	SubmitMove(ctx context.Context, gameID model.GameID, playerID model.PlayerID, move model.Move) (*model.GameView, error)
	Forfeit(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error
	ActiveGame(ctx context.Context, playerID model.PlayerID) (*model.Game, error)
	GetState(ctx context.Context, gameID model.GameID, viewerID model.PlayerID) (*model.GameView, error)
}

var _ ControllerInterface = (*Controller)(nil)
