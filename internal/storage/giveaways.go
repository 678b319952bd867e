package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	GiveawayOpen   = "open"
	GiveawayClosed = "closed"
)

// ErrGiveawayNotOpen reports an entry toggle against a giveaway that is
// no longer open.
var ErrGiveawayNotOpen = errors.New("giveaway not open")

// Giveaway transitions open→closed exactly once. MessageID is zero on a
// provisional row and is bound once the announcement message exists.
type Giveaway struct {
	ID           int64
	GuildID      int64
	ChannelID    int64
	MessageID    int64
	HostID       int64
	Title        string
	Requirements string
	Winners      int
	EndAt        time.Time
	Status       string
}

func (s *Store) CreateGiveaway(ctx context.Context, g Giveaway) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO giveaways (guild_id, channel_id, message_id, host_id, title, requirements, winners, end_at, status)
		VALUES (?, ?, 0, ?, ?, ?, ?, ?, ?)
	`, g.GuildID, g.ChannelID, g.HostID, g.Title, g.Requirements, g.Winners, g.EndAt.Unix(), GiveawayOpen)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *Store) BindGiveawayMessage(ctx context.Context, id, messageID int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE giveaways SET message_id = ? WHERE id = ?
	`, messageID, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetGiveaway(ctx context.Context, id int64) (Giveaway, error) {
	return s.scanGiveaway(s.db.QueryRowContext(ctx, `
		SELECT id, guild_id, channel_id, message_id, host_id, title, COALESCE(requirements, ''), winners, end_at, status
		FROM giveaways WHERE id = ?
	`, id))
}

func (s *Store) GiveawayByMessage(ctx context.Context, messageID int64) (Giveaway, error) {
	return s.scanGiveaway(s.db.QueryRowContext(ctx, `
		SELECT id, guild_id, channel_id, message_id, host_id, title, COALESCE(requirements, ''), winners, end_at, status
		FROM giveaways WHERE message_id = ?
	`, messageID))
}

// ListDueGiveaways returns the open giveaways whose end has passed.
func (s *Store) ListDueGiveaways(ctx context.Context, at time.Time) ([]Giveaway, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, channel_id, message_id, host_id, title, COALESCE(requirements, ''), winners, end_at, status
		FROM giveaways
		WHERE status = ? AND end_at <= ?
		ORDER BY end_at ASC
	`, GiveawayOpen, at.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var giveaways []Giveaway
	for rows.Next() {
		g, err := scanGiveawayRow(rows)
		if err != nil {
			return nil, err
		}
		giveaways = append(giveaways, g)
	}
	return giveaways, rows.Err()
}

// CloseGiveaway flips open→closed and reports whether this call made the
// transition. A second call finds no open row and reports false.
func (s *Store) CloseGiveaway(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE giveaways SET status = ? WHERE id = ? AND status = ?
	`, GiveawayClosed, id, GiveawayOpen)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *Store) DeleteGiveaway(ctx context.Context, id int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM giveaway_entries WHERE giveaway_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM giveaways WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ToggleEntry inserts the entry if absent and deletes it if present, in
// one transaction so concurrent toggles by the same user serialize. The
// open-status check shares the transaction, so a toggle racing the
// closing sweep cannot land an entry after the draw's snapshot.
func (s *Store) ToggleEntry(ctx context.Context, giveawayID, userID int64) (joined bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM giveaways WHERE id = ?`, giveawayID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return false, err
	}
	if status != GiveawayOpen {
		err = ErrGiveawayNotOpen
		return false, err
	}

	result, err := tx.ExecContext(ctx, `
		DELETE FROM giveaway_entries WHERE giveaway_id = ? AND user_id = ?
	`, giveawayID, userID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO giveaway_entries (giveaway_id, user_id) VALUES (?, ?)
		`, giveawayID, userID); err != nil {
			return false, err
		}
		joined = true
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return joined, nil
}

func (s *Store) ListEntries(ctx context.Context, giveawayID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM giveaway_entries WHERE giveaway_id = ?
	`, giveawayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []int64
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		users = append(users, userID)
	}
	return users, rows.Err()
}

func (s *Store) CountEntries(ctx context.Context, giveawayID int64) (int, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM giveaway_entries WHERE giveaway_id = ?
	`, giveawayID)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanGiveaway(row *sql.Row) (Giveaway, error) {
	g, err := scanGiveawayRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Giveaway{}, ErrNotFound
		}
		return Giveaway{}, err
	}
	return g, nil
}

func scanGiveawayRow(row rowScanner) (Giveaway, error) {
	var g Giveaway
	var endAt int64
	err := row.Scan(&g.ID, &g.GuildID, &g.ChannelID, &g.MessageID, &g.HostID, &g.Title, &g.Requirements, &g.Winners, &endAt, &g.Status)
	if err != nil {
		return Giveaway{}, err
	}
	g.EndAt = time.Unix(endAt, 0)
	return g, nil
}
