package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/storage"
)

// tx operates on a private dataset. Locks are implicit: the owning Storage
// runs one transaction at a time.
type tx struct {
	data *dataset
}

var _ storage.Tx = (*tx)(nil)

// Player operations

func (t *tx) InsertPlayer(ctx context.Context, player *model.Player) error {
	t.data.players[player.ID] = *player
	return nil
}

func (t *tx) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	p, ok := t.data.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return &p, nil
}

func (t *tx) LockPlayers(ctx context.Context, ids ...model.PlayerID) (map[model.PlayerID]*model.Player, error) {
	result := make(map[model.PlayerID]*model.Player, len(ids))
	for _, id := range ids {
		p, err := t.GetPlayer(ctx, id)
		if err != nil {
			return nil, err
		}
		result[id] = p
	}
	return result, nil
}

func (t *tx) UpdatePlayer(ctx context.Context, player *model.Player) error {
	if _, ok := t.data.players[player.ID]; !ok {
		return model.ErrPlayerNotFound
	}
	t.data.players[player.ID] = *player
	return nil
}

func (t *tx) TouchPlayer(ctx context.Context, id model.PlayerID, at time.Time) error {
	p, ok := t.data.players[id]
	if !ok {
		return model.ErrPlayerNotFound
	}
	p.LastActiveAt = at
	t.data.players[id] = p
	return nil
}

func (t *tx) ListLeaderboard(ctx context.Context, sort model.LeaderboardSort, limit int) ([]*model.Player, error) {
	var players []*model.Player
	for _, p := range t.data.players {
		if p.GamesPlayed > 0 {
			players = append(players, &p)
		}
	}

	slices.SortFunc(players, func(a, b *model.Player) int {
		var c int
		switch sort {
		case model.SortByWins:
			c = cmp.Or(cmp.Compare(b.Wins, a.Wins), cmp.Compare(b.Rating, a.Rating))
		case model.SortByWinRate:
			c = cmp.Or(cmp.Compare(winFraction(b), winFraction(a)), cmp.Compare(b.GamesPlayed, a.GamesPlayed))
		default:
			c = cmp.Or(cmp.Compare(b.Rating, a.Rating), cmp.Compare(b.Wins, a.Wins))
		}
		return cmp.Or(c, cmp.Compare(a.ID, b.ID))
	})

	if limit > 0 && len(players) > limit {
		players = players[:limit]
	}
	return players, nil
}

func winFraction(p *model.Player) float64 {
	if p.GamesPlayed == 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.GamesPlayed)
}

func (t *tx) CountPlayersRatedAbove(ctx context.Context, rating int) (int, error) {
	n := 0
	for _, p := range t.data.players {
		if p.Rating > rating {
			n++
		}
	}
	return n, nil
}

func (t *tx) ListOnlinePlayers(ctx context.Context, since time.Time, limit int) ([]*model.Player, error) {
	var players []*model.Player
	for _, p := range t.data.players {
		if !p.LastActiveAt.Before(since) {
			players = append(players, &p)
		}
	}
	slices.SortFunc(players, func(a, b *model.Player) int {
		return cmp.Or(cmp.Compare(b.Rating, a.Rating), cmp.Compare(a.ID, b.ID))
	})
	if limit > 0 && len(players) > limit {
		players = players[:limit]
	}
	return players, nil
}

// Queue operations

func (t *tx) GetQueueEntry(ctx context.Context, playerID model.PlayerID) (*model.QueueEntry, error) {
	e, ok := t.data.queue[playerID]
	if !ok {
		return nil, model.ErrNotQueued
	}
	return &e, nil
}

func (t *tx) InsertQueueEntry(ctx context.Context, entry *model.QueueEntry) error {
	if existing, ok := t.data.queue[entry.PlayerID]; ok {
		entry.Seq = existing.Seq
		return nil
	}
	t.data.nextSeq++
	entry.Seq = t.data.nextSeq
	t.data.queue[entry.PlayerID] = *entry
	return nil
}

func (t *tx) LockQueuePair(ctx context.Context, playerID model.PlayerID) (*model.QueueEntry, *model.QueueEntry, error) {
	var self, opponent *model.QueueEntry
	for _, e := range t.data.queue {
		if e.PlayerID == playerID {
			self = &e
			continue
		}
		if opponent == nil || olderThan(&e, opponent) {
			opponent = &e
		}
	}
	return self, opponent, nil
}

func olderThan(a, b *model.QueueEntry) bool {
	if !a.JoinedAt.Equal(b.JoinedAt) {
		return a.JoinedAt.Before(b.JoinedAt)
	}
	return a.Seq < b.Seq
}

func (t *tx) LockQueueEntries(ctx context.Context, playerIDs ...model.PlayerID) ([]*model.QueueEntry, error) {
	ids := slices.Clone(playerIDs)
	slices.Sort(ids)

	var entries []*model.QueueEntry
	for _, id := range slices.Compact(ids) {
		if e, ok := t.data.queue[id]; ok {
			entries = append(entries, &e)
		}
	}
	slices.SortFunc(entries, func(a, b *model.QueueEntry) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	return entries, nil
}

func (t *tx) DeleteQueueEntries(ctx context.Context, playerIDs ...model.PlayerID) (int, error) {
	n := 0
	for _, id := range playerIDs {
		if _, ok := t.data.queue[id]; ok {
			delete(t.data.queue, id)
			n++
		}
	}
	return n, nil
}

func (t *tx) DeleteQueueEntriesJoinedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	n := 0
	for id, e := range t.data.queue {
		if e.JoinedAt.Before(cutoff) {
			delete(t.data.queue, id)
			n++
		}
	}
	return n, nil
}

func (t *tx) CountQueueEntries(ctx context.Context) (int, error) {
	return len(t.data.queue), nil
}

// Room operations

func (t *tx) InsertRoom(ctx context.Context, room *model.PrivateRoom) error {
	t.data.rooms[room.ID] = *room
	return nil
}

func (t *tx) UpdateRoom(ctx context.Context, room *model.PrivateRoom) error {
	if _, ok := t.data.rooms[room.ID]; !ok {
		return model.ErrRoomNotFound
	}
	t.data.rooms[room.ID] = *room
	return nil
}

func (t *tx) LockRoom(ctx context.Context, id model.RoomID) (*model.PrivateRoom, error) {
	r, ok := t.data.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return &r, nil
}

func (t *tx) FindWaitingRoom(ctx context.Context, hostID model.PlayerID) (*model.PrivateRoom, error) {
	rooms := t.hostRooms(hostID, model.RoomStateWaiting)
	if len(rooms) == 0 {
		return nil, model.ErrRoomNotFound
	}
	return rooms[0], nil
}

func (t *tx) LatestRoom(ctx context.Context, hostID model.PlayerID) (*model.PrivateRoom, error) {
	rooms := t.hostRooms(hostID, model.RoomStateWaiting, model.RoomStateStarted)
	if len(rooms) == 0 {
		return nil, model.ErrRoomNotFound
	}
	return rooms[0], nil
}

// hostRooms returns the host's rooms in the given states, newest first
func (t *tx) hostRooms(hostID model.PlayerID, states ...model.RoomState) []*model.PrivateRoom {
	var rooms []*model.PrivateRoom
	for _, r := range t.data.rooms {
		if r.HostID == hostID && slices.Contains(states, r.State) {
			rooms = append(rooms, &r)
		}
	}
	slices.SortFunc(rooms, newestRoomFirst)
	return rooms
}

func newestRoomFirst(a, b *model.PrivateRoom) int {
	return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
}

func (t *tx) ListJoinableRooms(ctx context.Context, now time.Time) ([]*model.PrivateRoom, error) {
	var rooms []*model.PrivateRoom
	for _, r := range t.data.rooms {
		if r.IsJoinable(now) {
			rooms = append(rooms, &r)
		}
	}
	slices.SortFunc(rooms, newestRoomFirst)
	return rooms, nil
}

func (t *tx) ExpireRooms(ctx context.Context, now time.Time) (int, error) {
	n := 0
	for id, r := range t.data.rooms {
		if r.State == model.RoomStateWaiting && !now.Before(r.ExpiresAt) {
			r.State = model.RoomStateExpired
			t.data.rooms[id] = r
			n++
		}
	}
	return n, nil
}

// Game operations

func (t *tx) InsertGame(ctx context.Context, game *model.Game) error {
	t.data.games[game.ID] = *game
	return nil
}

func (t *tx) UpdateGame(ctx context.Context, game *model.Game) error {
	if _, ok := t.data.games[game.ID]; !ok {
		return model.ErrGameNotFound
	}
	t.data.games[game.ID] = *game
	return nil
}

func (t *tx) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	g, ok := t.data.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return &g, nil
}

func (t *tx) LockGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	return t.GetGame(ctx, id)
}

func (t *tx) FindActiveGame(ctx context.Context, playerID model.PlayerID) (*model.Game, error) {
	for _, g := range t.data.games {
		if g.IsActive() && g.IsParticipant(playerID) {
			return &g, nil
		}
	}
	return nil, model.ErrGameNotFound
}

func (t *tx) ListStaleGames(ctx context.Context, cutoff time.Time) ([]*model.Game, error) {
	var games []*model.Game
	for _, g := range t.data.games {
		if !g.IsActive() {
			continue
		}
		p1, ok1 := t.data.players[g.Player1ID]
		p2, ok2 := t.data.players[g.Player2ID]
		if ok1 && ok2 && p1.LastActiveAt.Before(cutoff) && p2.LastActiveAt.Before(cutoff) {
			games = append(games, &g)
		}
	}
	slices.SortFunc(games, func(a, b *model.Game) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return games, nil
}

func (t *tx) ListConcludedGames(ctx context.Context, playerID model.PlayerID, limit int, statuses ...model.GameStatus) ([]*model.Game, error) {
	var games []*model.Game
	for _, g := range t.data.games {
		if g.IsParticipant(playerID) && slices.Contains(statuses, g.Status) && g.FinishedAt != nil {
			games = append(games, &g)
		}
	}
	slices.SortFunc(games, func(a, b *model.Game) int {
		return cmp.Or(b.FinishedAt.Compare(*a.FinishedAt), cmp.Compare(b.ID, a.ID))
	})
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

// Round operations

func (t *tx) InsertRound(ctx context.Context, round *model.Round) error {
	t.data.rounds[roundKey{round.GameID, round.Number}] = *round
	return nil
}

func (t *tx) UpdateRound(ctx context.Context, round *model.Round) error {
	key := roundKey{round.GameID, round.Number}
	if _, ok := t.data.rounds[key]; !ok {
		return model.ErrRoundNotFound
	}
	t.data.rounds[key] = *round
	return nil
}

func (t *tx) LockRound(ctx context.Context, gameID model.GameID, number int) (*model.Round, error) {
	r, ok := t.data.rounds[roundKey{gameID, number}]
	if !ok {
		return nil, model.ErrRoundNotFound
	}
	return &r, nil
}

func (t *tx) ListRounds(ctx context.Context, gameID model.GameID) ([]*model.Round, error) {
	var rounds []*model.Round
	for _, r := range t.data.rounds {
		if r.GameID == gameID {
			rounds = append(rounds, &r)
		}
	}
	slices.SortFunc(rounds, func(a, b *model.Round) int {
		return cmp.Compare(a.Number, b.Number)
	})
	return rounds, nil
}

func (t *tx) DeleteOrphanRounds(ctx context.Context) (int, error) {
	n := 0
	for key := range t.data.rounds {
		if _, ok := t.data.games[key.gameID]; !ok {
			delete(t.data.rounds, key)
			n++
		}
	}
	return n, nil
}
