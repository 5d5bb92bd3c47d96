package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mcoot/rpsarena/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Player:
		o.printPlayer(v)
	case response.AuthResponse:
		o.printAuth(v)
	case response.Heartbeat:
		o.printHeartbeat(v)
	case response.Stats:
		o.printStats(v)
	case []response.Match:
		o.printMatches(v)
	case []response.LeaderboardEntry:
		o.printLeaderboard(v)
	case response.OnlinePlayers:
		o.printOnline(v)
	case response.QueueStatus:
		o.printQueueStatus(v)
	case response.CreatedRoom:
		o.printCreatedRoom(v)
	case response.JoinedRoom:
		fmt.Fprintf(o.w, "Joined room. Game: %s\n", v.GameID)
	case response.RoomStatus:
		o.printRoomStatus(v)
	case response.Game:
		o.printGame(v)
	case response.SweepReport:
		o.printSweepReport(v)
	case response.Health:
		o.printHealth(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printPlayer(p response.Player) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Fprintf(o.w, "Rating: %d [%s]\n", p.Rating, p.Tier)
	fmt.Fprintf(o.w, "Record: %dW %dL %dD (%.1f%%)\n", p.Wins, p.Losses, p.Draws, p.WinRate)
}

func (o *Output) printAuth(a response.AuthResponse) {
	o.printPlayer(a.Player)
	fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
}

func (o *Output) printHeartbeat(h response.Heartbeat) {
	if h.ActiveGameID == nil {
		fmt.Fprintln(o.w, "No active game")
		return
	}
	fmt.Fprintf(o.w, "Active game: %s\n", *h.ActiveGameID)
}

func (o *Output) printStats(s response.Stats) {
	o.printPlayer(s.Player)
	fmt.Fprintf(o.w, "Rank: #%d\n", s.GlobalRank)
	fmt.Fprintf(o.w, "Win streak: %d\n", s.WinStreak)
}

func (o *Output) printMatches(ms []response.Match) {
	if len(ms) == 0 {
		fmt.Fprintln(o.w, "No matches yet")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "RESULT\tSCORE\tOPPONENT\tSTATUS\tFINISHED")
	for _, m := range ms {
		fmt.Fprintf(tw, "%s\t%d-%d\t%s\t%s\t%s\n",
			strings.ToUpper(m.Result), m.YourScore, m.OpponentScore, m.OpponentName, m.Status,
			m.FinishedAt.Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}

func (o *Output) printLeaderboard(entries []response.LeaderboardEntry) {
	tw := tabwriter.NewWriter(o.w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPLAYER\tRATING\tTIER\tWINS\tGAMES\tWIN%")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%d\t%d\t%.1f\n",
			e.Position, e.DisplayName, e.Rating, e.Tier, e.Wins, e.GamesPlayed, e.WinRate)
	}
	_ = tw.Flush()
}

func (o *Output) printOnline(online response.OnlinePlayers) {
	if online.Count == 0 {
		fmt.Fprintln(o.w, "Nobody online")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYER\tRATING\tTIER\tSTATUS")
	for _, p := range online.Players {
		status := "idle"
		if p.InGame {
			status = "in game"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", p.Player.DisplayName, p.Player.Rating, p.Player.Tier, status)
	}
	_ = tw.Flush()
}

func (o *Output) printQueueStatus(s response.QueueStatus) {
	switch {
	case s.Matched:
		fmt.Fprintf(o.w, "Matched against %s\n", s.OpponentName)
		if s.GameID != nil {
			fmt.Fprintf(o.w, "Game: %s\n", *s.GameID)
		}
	case s.Timeout:
		fmt.Fprintln(o.w, "Queue timed out; join again to keep waiting")
	case s.InQueue:
		fmt.Fprintf(o.w, "Waiting for %ds (%d in queue)\n", s.WaitSeconds, s.PlayersWaiting)
	default:
		fmt.Fprintln(o.w, "Not in queue")
	}
}

func (o *Output) printCreatedRoom(r response.CreatedRoom) {
	fmt.Fprintf(o.w, "Room code: %s\n", r.Code)
	fmt.Fprintf(o.w, "Best of %d, expires %s\n", r.MaxRounds, r.ExpiresAt.Format("15:04:05 MST"))
}

func (o *Output) printRoomStatus(s response.RoomStatus) {
	switch {
	case !s.HasRoom:
		fmt.Fprintln(o.w, "No room")
	case s.Matched:
		fmt.Fprintf(o.w, "%s joined your room\n", s.OpponentName)
		if s.GameID != nil {
			fmt.Fprintf(o.w, "Game: %s\n", *s.GameID)
		}
	case s.Expired:
		fmt.Fprintln(o.w, "Room expired")
	default:
		fmt.Fprintf(o.w, "Waiting for an opponent (best of %d)\n", s.MaxRounds)
	}
}

func (o *Output) printGame(g response.Game) {
	fmt.Fprintf(o.w, "Game: %s (%s)\n", g.GameID, g.Status)
	fmt.Fprintf(o.w, "Opponent: %s (%d)\n", g.OpponentName, g.OpponentRating)
	fmt.Fprintf(o.w, "Score: %d-%d, first to %d\n", g.YourScore, g.OpponentScore, g.WinsNeeded)

	for _, r := range g.Rounds {
		fmt.Fprintf(o.w, "  Round %d: %s vs %s (%s)\n", r.Number, r.YourMove, r.OpponentMove, r.Result)
	}

	if g.Status == "active" {
		fmt.Fprintf(o.w, "Round %d of up to %d\n", g.CurrentRound, g.MaxRounds)
		if g.YourMove != nil {
			fmt.Fprintf(o.w, "Your move: %s\n", *g.YourMove)
		}
		if g.OpponentHasMoved {
			fmt.Fprintln(o.w, "Opponent has moved")
		}
		return
	}

	switch {
	case g.IsDraw:
		fmt.Fprintln(o.w, "Result: draw")
	case g.WinnerID != nil && *g.WinnerID == g.OpponentID:
		fmt.Fprintln(o.w, "Result: you lost")
	case g.WinnerID != nil:
		fmt.Fprintln(o.w, "Result: you won")
	}
	if g.RatingChange != nil {
		fmt.Fprintf(o.w, "Rating: %d -> %d (%+d)\n", g.RatingChange.Old, g.RatingChange.New, g.RatingChange.Delta)
	}
}

func (o *Output) printSweepReport(r response.SweepReport) {
	if r.Skipped {
		fmt.Fprintln(o.w, "Sweep skipped: another instance holds the lease")
		return
	}
	fmt.Fprintf(o.w, "Queue entries evicted: %d\n", r.QueueEvicted)
	fmt.Fprintf(o.w, "Games abandoned: %d\n", r.GamesAbandoned)
	fmt.Fprintf(o.w, "Rooms expired: %d\n", r.RoomsExpired)
	fmt.Fprintf(o.w, "Rounds deleted: %d\n", r.RoundsDeleted)
}

func (o *Output) printHealth(h response.Health) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	if h.Error != "" {
		fmt.Fprintf(o.w, "Error: %s\n", h.Error)
	}
}
