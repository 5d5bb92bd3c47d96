package rules

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsarena/internal/model"
)

type RulesSuite struct {
	suite.Suite
}

func TestRulesSuite(t *testing.T) {
	suite.Run(t, new(RulesSuite))
}

func (s *RulesSuite) TestBeatsCycle() {
	s.True(Beats(model.MoveRock, model.MoveScissors))
	s.True(Beats(model.MoveScissors, model.MovePaper))
	s.True(Beats(model.MovePaper, model.MoveRock))

	s.False(Beats(model.MoveScissors, model.MoveRock))
	s.False(Beats(model.MovePaper, model.MoveScissors))
	s.False(Beats(model.MoveRock, model.MovePaper))
}

func (s *RulesSuite) TestBeatsIsIrreflexiveAndAsymmetric() {
	for _, a := range model.Moves() {
		s.False(Beats(a, a), "%s must not beat itself", a)
		for _, b := range model.Moves() {
			if a != b {
				s.NotEqual(Beats(a, b), Beats(b, a), "exactly one of %s/%s wins", a, b)
			}
		}
	}
}

func (s *RulesSuite) resolve(a, b model.Move) Outcome {
	outcome, err := Resolve(a, b)
	s.Require().NoError(err)
	return outcome
}

func (s *RulesSuite) TestResolve() {
	s.Equal(OutcomePlayer1, s.resolve(model.MoveRock, model.MoveScissors))
	s.Equal(OutcomePlayer2, s.resolve(model.MoveRock, model.MovePaper))
	s.Equal(OutcomeDraw, s.resolve(model.MovePaper, model.MovePaper))
}

func (s *RulesSuite) TestResolveIsSymmetric() {
	for _, a := range model.Moves() {
		for _, b := range model.Moves() {
			forward := s.resolve(a, b)
			reverse := s.resolve(b, a)
			switch forward {
			case OutcomePlayer1:
				s.Equal(OutcomePlayer2, reverse)
			case OutcomePlayer2:
				s.Equal(OutcomePlayer1, reverse)
			default:
				s.Equal(OutcomeDraw, reverse)
			}
		}
	}
}

func (s *RulesSuite) TestUnknownMoveIsInvariantViolation() {
	_, err := Resolve(model.Move("lizard"), model.MoveRock)
	s.ErrorIs(err, model.ErrInvariantViolation)

	_, err = Resolve(model.MovePaper, model.Move(""))
	s.ErrorIs(err, model.ErrInvariantViolation)

	s.Panics(func() { Beats(model.Move("lizard"), model.MovePaper) })
}
