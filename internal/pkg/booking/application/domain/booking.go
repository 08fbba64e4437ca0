package booking

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("booking: not found")
	ErrDuplicateVote = errors.New("booking: user already voted for this song")
)

// SongRequest is one entry in tonight's request queue.
type SongRequest struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Singer    string    `db:"singer"`
	Title     string    `db:"title"`
	Artist    string    `db:"artist"`
	Votes     int       `db:"votes"`
	CreatedAt time.Time `db:"created_at"`
}

// WishlistItem is a song a user wants to perform some night.
type WishlistItem struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Title     string    `db:"title"`
	Artist    string    `db:"artist"`
	CreatedAt time.Time `db:"created_at"`
}

// ArchiveEntry is a past performance, searchable by title or singer.
type ArchiveEntry struct {
	ID          int64     `db:"id"`
	Singer      string    `db:"singer"`
	Title       string    `db:"title"`
	Artist      string    `db:"artist"`
	Score       int       `db:"score"`
	PerformedAt time.Time `db:"performed_at"`
}

// LeaderboardRow is one aggregated standing.
type LeaderboardRow struct {
	UserID   int64  `json:"userId" db:"user_id"`
	Username string `json:"username" db:"username"`
	Points   int    `json:"points" db:"points"`
}
