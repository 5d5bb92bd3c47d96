package rules

import "github.com/mcoot/rpsarena/internal/model"

// Outcome is the result of a single round
type Outcome int

const (
	OutcomeDraw Outcome = iota
	OutcomePlayer1
	OutcomePlayer2
)

func (o Outcome) String() string {
	switch o {
	case OutcomePlayer1:
		return "player1"
	case OutcomePlayer2:
		return "player2"
	default:
		return "draw"
	}
}

// Beats reports whether a defeats b. It panics on a move outside the
// enum; Resolve checks its inputs first.
func Beats(a, b model.Move) bool {
	return victim(a) == b
}

// victim returns the move that m defeats
func victim(m model.Move) model.Move {
	switch m {
	case model.MoveRock:
		return model.MoveScissors
	case model.MovePaper:
		return model.MoveRock
	case model.MoveScissors:
		return model.MovePaper
	}
	panic(model.Invariant("unknown move %q", m))
}

// Resolve decides a round from both players' moves
func Resolve(player1, player2 model.Move) (Outcome, error) {
	for _, m := range []model.Move{player1, player2} {
		if !m.Valid() {
			return OutcomeDraw, model.Invariant("unknown move %q", m)
		}
	}

	switch {
	case Beats(player1, player2):
		return OutcomePlayer1, nil
	case Beats(player2, player1):
		return OutcomePlayer2, nil
	default:
		return OutcomeDraw, nil
	}
}
