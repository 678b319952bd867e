package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Punishment is a currently-in-effect reversible sanction. At most one
// row exists per (guild, user, kind); re-issuing replaces the expiry.
type Punishment struct {
	GuildID   int64
	UserID    int64
	Kind      string
	ExpiresAt time.Time
}

func (s *Store) UpsertPunishment(ctx context.Context, p Punishment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO punishments (guild_id, user_id, kind, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(guild_id, user_id, kind) DO UPDATE SET
			expires_at = excluded.expires_at
	`, p.GuildID, p.UserID, p.Kind, p.ExpiresAt.Unix())
	return err
}

// ClearPunishment removes the row; it reports whether a row existed so
// settlement races can tell a real reversal from a no-op.
func (s *Store) ClearPunishment(ctx context.Context, guildID, userID int64, kind string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM punishments WHERE guild_id = ? AND user_id = ? AND kind = ?
	`, guildID, userID, kind)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *Store) GetPunishment(ctx context.Context, guildID, userID int64, kind string) (Punishment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT guild_id, user_id, kind, expires_at
		FROM punishments
		WHERE guild_id = ? AND user_id = ? AND kind = ?
	`, guildID, userID, kind)

	var p Punishment
	var expires int64
	err := row.Scan(&p.GuildID, &p.UserID, &p.Kind, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Punishment{}, ErrNotFound
		}
		return Punishment{}, err
	}
	p.ExpiresAt = time.Unix(expires, 0)
	return p, nil
}

func (s *Store) ListPunishments(ctx context.Context) ([]Punishment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild_id, user_id, kind, expires_at
		FROM punishments
		ORDER BY expires_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var punishments []Punishment
	for rows.Next() {
		var p Punishment
		var expires int64
		if err := rows.Scan(&p.GuildID, &p.UserID, &p.Kind, &expires); err != nil {
			return nil, err
		}
		p.ExpiresAt = time.Unix(expires, 0)
		punishments = append(punishments, p)
	}
	return punishments, rows.Err()
}
