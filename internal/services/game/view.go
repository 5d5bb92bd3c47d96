package game

import "github.com/mcoot/rpsarena/internal/model"

// project builds the viewer's side of a game. The opponent's move in the
// open round is reduced to a has-moved flag.
func project(g *model.Game, rounds []*model.Round, viewer, opponent *model.Player) *model.GameView {
	seat := g.Seat(viewer.ID)
	otherSeat := 3 - seat

	view := &model.GameView{
		GameID:         g.ID,
		Status:         g.Status,
		MaxRounds:      g.MaxRounds,
		CurrentRound:   g.CurrentRound,
		WinsNeeded:     g.WinsNeeded(),
		YourScore:      g.ScoreOf(viewer.ID),
		OpponentScore:  g.ScoreOf(opponent.ID),
		OpponentID:     opponent.ID,
		OpponentName:   opponent.DisplayName,
		OpponentRating: opponent.Rating,
		WinnerID:       g.WinnerID,
		IsDraw:         !g.IsActive() && g.WinnerID == nil,
		Private:        g.Private,
		Rounds:         []model.RoundView{},
	}

	for _, r := range rounds {
		if !r.IsComplete() {
			if g.IsActive() && r.Number == g.CurrentRound {
				view.YourMove = r.MoveOf(seat)
				view.OpponentHasMoved = r.MoveOf(otherSeat) != nil
			}
			continue
		}

		rv := model.RoundView{
			Number:       r.Number,
			YourMove:     *r.MoveOf(seat),
			OpponentMove: *r.MoveOf(otherSeat),
			Result:       model.RoundResultDraw,
		}
		if !r.IsDraw && r.WinnerID != nil {
			if *r.WinnerID == viewer.ID {
				rv.Result = model.RoundResultYou
			} else {
				rv.Result = model.RoundResultOpponent
			}
		}
		view.Rounds = append(view.Rounds, rv)
	}

	if !g.IsActive() && g.RatingApplied {
		old := g.RatingStartOf(viewer.ID)
		view.RatingChange = &model.RatingChange{
			Old:   old,
			New:   viewer.Rating,
			Delta: viewer.Rating - old,
		}
	}

	return view
}
