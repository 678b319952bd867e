package storage

import (
	"context"
	"database/sql"
	"time"
)

// Warn is an immutable moderation record. Rows are never updated; a warn
// stops counting once expires_at passes unless it is permanent.
type Warn struct {
	ID        int64
	GuildID   int64
	UserID    int64
	ModID     int64
	Reason    string
	CreatedAt time.Time
	ExpiresAt *time.Time
	Permanent bool
}

func (s *Store) AddWarn(ctx context.Context, warn Warn) (int64, error) {
	var expires any
	if warn.ExpiresAt != nil {
		expires = warn.ExpiresAt.Unix()
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO warns (guild_id, user_id, mod_id, reason, created_at, expires_at, permanent)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, warn.GuildID, warn.UserID, warn.ModID, warn.Reason, warn.CreatedAt.Unix(), expires, boolToInt(warn.Permanent))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CountActiveWarns counts the warns still in effect at the given instant:
// permanent ones plus those whose expiry has not yet passed.
func (s *Store) CountActiveWarns(ctx context.Context, guildID, userID int64, at time.Time) (int, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM warns
		WHERE guild_id = ? AND user_id = ?
		AND (permanent = 1 OR expires_at IS NULL OR expires_at > ?)
	`, guildID, userID, at.Unix())

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) ListWarns(ctx context.Context, guildID, userID int64) ([]Warn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, user_id, mod_id, COALESCE(reason, ''), created_at, expires_at, permanent
		FROM warns
		WHERE guild_id = ? AND user_id = ?
		ORDER BY created_at DESC
	`, guildID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var warns []Warn
	for rows.Next() {
		var warn Warn
		var created int64
		var expires sql.NullInt64
		var permanent int
		if err := rows.Scan(&warn.ID, &warn.GuildID, &warn.UserID, &warn.ModID, &warn.Reason, &created, &expires, &permanent); err != nil {
			return nil, err
		}
		warn.CreatedAt = time.Unix(created, 0)
		if expires.Valid {
			value := time.Unix(expires.Int64, 0)
			warn.ExpiresAt = &value
		}
		warn.Permanent = permanent == 1
		warns = append(warns, warn)
	}
	return warns, rows.Err()
}
