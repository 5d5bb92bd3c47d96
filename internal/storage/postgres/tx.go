package postgres

import (
	"context"
	"errors"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mcoot/rpsarena/internal/model"
	"github.com/mcoot/rpsarena/internal/storage"
)

type tx struct {
	db *gorm.DB
}

var _ storage.Tx = (*tx)(nil)

var forUpdate = clause.Locking{Strength: "UPDATE"}

// take loads a single row, mapping a missing row to notFound
func take(db *gorm.DB, dest any, notFound error, query string, args ...any) error {
	err := db.Where(query, args...).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

// update writes every column of rec, including zero values
func update(db *gorm.DB, rec any, notFound error) error {
	result := db.Model(rec).Select("*").Updates(rec)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound
	}
	return nil
}

// Player operations

func (t *tx) InsertPlayer(ctx context.Context, player *model.Player) error {
	return t.db.Create(newPlayerRecord(player)).Error
}

func (t *tx) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var rec playerRecord
	if err := take(t.db, &rec, model.ErrPlayerNotFound, "id = ?", id); err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (t *tx) LockPlayers(ctx context.Context, ids ...model.PlayerID) (map[model.PlayerID]*model.Player, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var recs []playerRecord
	err := t.db.Clauses(forUpdate).
		Where("id IN ?", sorted).
		Order("id").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	if len(recs) != len(sorted) {
		return nil, model.ErrPlayerNotFound
	}

	result := make(map[model.PlayerID]*model.Player, len(recs))
	for i := range recs {
		p := recs[i].toModel()
		result[p.ID] = p
	}
	return result, nil
}

func (t *tx) UpdatePlayer(ctx context.Context, player *model.Player) error {
	return update(t.db, newPlayerRecord(player), model.ErrPlayerNotFound)
}

func (t *tx) TouchPlayer(ctx context.Context, id model.PlayerID, at time.Time) error {
	result := t.db.Model(&playerRecord{}).Where("id = ?", id).Update("last_active_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return model.ErrPlayerNotFound
	}
	return nil
}

func (t *tx) ListLeaderboard(ctx context.Context, sort model.LeaderboardSort, limit int) ([]*model.Player, error) {
	var order string
	switch sort {
	case model.SortByWins:
		order = "wins DESC, rating DESC, id"
	case model.SortByWinRate:
		order = "wins::float / games_played DESC, games_played DESC, id"
	default:
		order = "rating DESC, wins DESC, id"
	}

	query := t.db.Where("games_played > 0").Order(order)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var recs []playerRecord
	if err := query.Find(&recs).Error; err != nil {
		return nil, err
	}
	players := make([]*model.Player, len(recs))
	for i := range recs {
		players[i] = recs[i].toModel()
	}
	return players, nil
}

func (t *tx) CountPlayersRatedAbove(ctx context.Context, rating int) (int, error) {
	var n int64
	err := t.db.Model(&playerRecord{}).Where("rating > ?", rating).Count(&n).Error
	return int(n), err
}

func (t *tx) ListOnlinePlayers(ctx context.Context, since time.Time, limit int) ([]*model.Player, error) {
	query := t.db.Where("last_active_at >= ?", since).Order("rating DESC, id")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var recs []playerRecord
	if err := query.Find(&recs).Error; err != nil {
		return nil, err
	}
	players := make([]*model.Player, len(recs))
	for i := range recs {
		players[i] = recs[i].toModel()
	}
	return players, nil
}

// Queue operations

func (t *tx) GetQueueEntry(ctx context.Context, playerID model.PlayerID) (*model.QueueEntry, error) {
	var rec queueRecord
	if err := take(t.db, &rec, model.ErrNotQueued, "player_id = ?", playerID); err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (t *tx) InsertQueueEntry(ctx context.Context, entry *model.QueueEntry) error {
	rec := queueRecord{
		PlayerID: string(entry.PlayerID),
		Rating:   entry.Rating,
		JoinedAt: entry.JoinedAt,
	}
	result := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		DoNothing: true,
	}).Create(&rec)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		existing, err := t.GetQueueEntry(ctx, entry.PlayerID)
		if err != nil {
			return err
		}
		entry.Seq = existing.Seq
		return nil
	}
	entry.Seq = rec.Seq
	return nil
}

// LockQueuePair finds the oldest other entry without locking, then locks the
// two rows together in Seq order. The opponent may have been removed in
// between, in which case it is reported as absent.
func (t *tx) LockQueuePair(ctx context.Context, playerID model.PlayerID) (*model.QueueEntry, *model.QueueEntry, error) {
	ids := []string{string(playerID)}

	var oldest queueRecord
	err := t.db.Where("player_id <> ?", playerID).Order("joined_at, seq").Take(&oldest).Error
	switch {
	case err == nil:
		ids = append(ids, oldest.PlayerID)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, err
	}

	var recs []queueRecord
	err = t.db.Clauses(forUpdate).Where("player_id IN ?", ids).Order("seq").Find(&recs).Error
	if err != nil {
		return nil, nil, err
	}

	var self, opponent *model.QueueEntry
	for i := range recs {
		if recs[i].PlayerID == string(playerID) {
			self = recs[i].toModel()
		} else {
			opponent = recs[i].toModel()
		}
	}
	return self, opponent, nil
}

func (t *tx) LockQueueEntries(ctx context.Context, playerIDs ...model.PlayerID) ([]*model.QueueEntry, error) {
	if len(playerIDs) == 0 {
		return nil, nil
	}
	var recs []queueRecord
	err := t.db.Clauses(forUpdate).Where("player_id IN ?", playerIDs).Order("seq").Find(&recs).Error
	if err != nil {
		return nil, err
	}
	entries := make([]*model.QueueEntry, len(recs))
	for i := range recs {
		entries[i] = recs[i].toModel()
	}
	return entries, nil
}

func (t *tx) DeleteQueueEntries(ctx context.Context, playerIDs ...model.PlayerID) (int, error) {
	if len(playerIDs) == 0 {
		return 0, nil
	}
	result := t.db.Where("player_id IN ?", playerIDs).Delete(&queueRecord{})
	return int(result.RowsAffected), result.Error
}

func (t *tx) DeleteQueueEntriesJoinedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result := t.db.Where("joined_at < ?", cutoff).Delete(&queueRecord{})
	return int(result.RowsAffected), result.Error
}

func (t *tx) CountQueueEntries(ctx context.Context) (int, error) {
	var n int64
	err := t.db.Model(&queueRecord{}).Count(&n).Error
	return int(n), err
}

// Room operations

func (t *tx) InsertRoom(ctx context.Context, room *model.PrivateRoom) error {
	err := t.db.Create(newRoomRecord(room)).Error
	if isUniqueViolation(err, waitingRoomIndex) {
		return model.ErrRoomAlreadyOpen
	}
	return err
}

func (t *tx) UpdateRoom(ctx context.Context, room *model.PrivateRoom) error {
	return update(t.db, newRoomRecord(room), model.ErrRoomNotFound)
}

func (t *tx) LockRoom(ctx context.Context, id model.RoomID) (*model.PrivateRoom, error) {
	var rec roomRecord
	if err := take(t.db.Clauses(forUpdate), &rec, model.ErrRoomNotFound, "id = ?", id); err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (t *tx) FindWaitingRoom(ctx context.Context, hostID model.PlayerID) (*model.PrivateRoom, error) {
	return t.newestRoom(hostID, model.RoomStateWaiting)
}

func (t *tx) LatestRoom(ctx context.Context, hostID model.PlayerID) (*model.PrivateRoom, error) {
	return t.newestRoom(hostID, model.RoomStateWaiting, model.RoomStateStarted)
}

func (t *tx) newestRoom(hostID model.PlayerID, states ...model.RoomState) (*model.PrivateRoom, error) {
	var rec roomRecord
	err := take(t.db.Order("created_at DESC, id DESC"), &rec, model.ErrRoomNotFound,
		"host_id = ? AND state IN ?", hostID, states)
	if err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (t *tx) ListJoinableRooms(ctx context.Context, now time.Time) ([]*model.PrivateRoom, error) {
	var recs []roomRecord
	err := t.db.Where("state = ? AND expires_at > ?", model.RoomStateWaiting, now).
		Order("created_at DESC, id DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	rooms := make([]*model.PrivateRoom, len(recs))
	for i := range recs {
		rooms[i] = recs[i].toModel()
	}
	return rooms, nil
}

func (t *tx) ExpireRooms(ctx context.Context, now time.Time) (int, error) {
	result := t.db.Model(&roomRecord{}).
		Where("state = ? AND expires_at <= ?", model.RoomStateWaiting, now).
		Update("state", model.RoomStateExpired)
	return int(result.RowsAffected), result.Error
}

// Game operations

func (t *tx) InsertGame(ctx context.Context, game *model.Game) error {
	return t.db.Create(newGameRecord(game)).Error
}

func (t *tx) UpdateGame(ctx context.Context, game *model.Game) error {
	return update(t.db, newGameRecord(game), model.ErrGameNotFound)
}

func (t *tx) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	return t.loadGame(t.db, id)
}

func (t *tx) LockGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	return t.loadGame(t.db.Clauses(forUpdate), id)
}

func (t *tx) loadGame(db *gorm.DB, id model.GameID) (*model.Game, error) {
	var rec gameRecord
	if err := take(db, &rec, model.ErrGameNotFound, "id = ?", id); err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (t *tx) FindActiveGame(ctx context.Context, playerID model.PlayerID) (*model.Game, error) {
	var rec gameRecord
	err := take(t.db.Order("created_at DESC"), &rec, model.ErrGameNotFound,
		"status = ? AND (player1_id = ? OR player2_id = ?)", model.GameStatusActive, playerID, playerID)
	if err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (t *tx) ListStaleGames(ctx context.Context, cutoff time.Time) ([]*model.Game, error) {
	idle := t.db.Model(&playerRecord{}).Select("id").Where("last_active_at < ?", cutoff)

	var recs []gameRecord
	err := t.db.Where("status = ? AND player1_id IN (?) AND player2_id IN (?)", model.GameStatusActive, idle, idle).
		Order("id").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return gameModels(recs), nil
}

func (t *tx) ListConcludedGames(ctx context.Context, playerID model.PlayerID, limit int, statuses ...model.GameStatus) ([]*model.Game, error) {
	query := t.db.
		Where("(player1_id = ? OR player2_id = ?) AND status IN ? AND finished_at IS NOT NULL", playerID, playerID, statuses).
		Order("finished_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var recs []gameRecord
	if err := query.Find(&recs).Error; err != nil {
		return nil, err
	}
	return gameModels(recs), nil
}

func gameModels(recs []gameRecord) []*model.Game {
	games := make([]*model.Game, len(recs))
	for i := range recs {
		games[i] = recs[i].toModel()
	}
	return games
}

// Round operations

func (t *tx) InsertRound(ctx context.Context, round *model.Round) error {
	return t.db.Create(newRoundRecord(round)).Error
}

func (t *tx) UpdateRound(ctx context.Context, round *model.Round) error {
	return update(t.db, newRoundRecord(round), model.ErrRoundNotFound)
}

func (t *tx) LockRound(ctx context.Context, gameID model.GameID, number int) (*model.Round, error) {
	var rec roundRecord
	err := take(t.db.Clauses(forUpdate), &rec, model.ErrRoundNotFound, "game_id = ? AND number = ?", gameID, number)
	if err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (t *tx) ListRounds(ctx context.Context, gameID model.GameID) ([]*model.Round, error) {
	var recs []roundRecord
	if err := t.db.Where("game_id = ?", gameID).Order("number").Find(&recs).Error; err != nil {
		return nil, err
	}
	rounds := make([]*model.Round, len(recs))
	for i := range recs {
		rounds[i] = recs[i].toModel()
	}
	return rounds, nil
}

func (t *tx) DeleteOrphanRounds(ctx context.Context) (int, error) {
	result := t.db.
		Where("NOT EXISTS (SELECT 1 FROM games WHERE games.id = game_rounds.game_id)").
		Delete(&roundRecord{})
	return int(result.RowsAffected), result.Error
}
