package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	booking "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/booking/application/domain"
)

type PgBookingRepository struct {
	pool *pgxpool.Pool
}

func NewPgBookingRepository(pool *pgxpool.Pool) *PgBookingRepository {
	return &PgBookingRepository{pool: pool}
}

func (r *PgBookingRepository) ListSongs(ctx context.Context) ([]booking.SongRequest, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgBookingRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.user_id, s.singer, s.title, s.artist,
		       (SELECT COUNT(*) FROM song_votes v WHERE v.song_id = s.id) AS votes,
		       s.created_at
		FROM song_requests s
		ORDER BY votes DESC, s.created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var songs []booking.SongRequest
	for rows.Next() {
		var s booking.SongRequest
		if err := rows.Scan(&s.ID, &s.UserID, &s.Singer, &s.Title, &s.Artist, &s.Votes, &s.CreatedAt); err != nil {
			return nil, err
		}
		songs = append(songs, s)
	}
	return songs, rows.Err()
}

func (r *PgBookingRepository) AddSong(ctx context.Context, s booking.SongRequest) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgBookingRepository: nil pool")
	}
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO song_requests (user_id, singer, title, artist, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, s.UserID, s.Singer, s.Title, s.Artist, s.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgBookingRepository) DeleteSong(ctx context.Context, id, userID int64) error {
	if r == nil || r.pool == nil {
		return errors.New("PgBookingRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx,
		"DELETE FROM song_requests WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (r *PgBookingRepository) AddVote(ctx context.Context, songID, userID int64) error {
	if r == nil || r.pool == nil {
		return errors.New("PgBookingRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		INSERT INTO song_votes (song_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (song_id, user_id) DO NOTHING
	`, songID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return booking.ErrDuplicateVote
	}
	return nil
}

func (r *PgBookingRepository) Leaderboard(ctx context.Context, limit int) ([]booking.LeaderboardRow, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgBookingRepository: nil pool")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.username, COALESCE(SUM(a.score), 0) AS points
		FROM users u
		JOIN archive_entries a ON a.singer = u.username
		GROUP BY u.id, u.username
		ORDER BY points DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.LeaderboardRow
	for rows.Next() {
		var row booking.LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.Username, &row.Points); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PgBookingRepository) SearchArchive(ctx context.Context, query string, limit int) ([]booking.ArchiveEntry, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgBookingRepository: nil pool")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, singer, title, artist, score, performed_at
		FROM archive_entries
		WHERE title ILIKE '%' || $1 || '%' OR singer ILIKE '%' || $1 || '%'
		ORDER BY performed_at DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.ArchiveEntry
	for rows.Next() {
		var e booking.ArchiveEntry
		if err := rows.Scan(&e.ID, &e.Singer, &e.Title, &e.Artist, &e.Score, &e.PerformedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PgBookingRepository) ListWishlist(ctx context.Context, userID int64) ([]booking.WishlistItem, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgBookingRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, artist, created_at
		FROM wishlist_items
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.WishlistItem
	for rows.Next() {
		var w booking.WishlistItem
		if err := rows.Scan(&w.ID, &w.UserID, &w.Title, &w.Artist, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *PgBookingRepository) AddWishlist(ctx context.Context, item booking.WishlistItem) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgBookingRepository: nil pool")
	}
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO wishlist_items (user_id, title, artist, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, item.UserID, item.Title, item.Artist, item.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgBookingRepository) DeleteWishlist(ctx context.Context, id, userID int64) error {
	if r == nil || r.pool == nil {
		return errors.New("PgBookingRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx,
		"DELETE FROM wishlist_items WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return booking.ErrNotFound
	}
	return nil
}
