package repository

import (
	"context"

	booking "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/booking/application/domain"
)

// BookingRepository defines persistence for the karaoke-night resources.
// All of these are plain request/response CRUD; nothing here is stateful
// beyond the database.
type BookingRepository interface {
	ListSongs(ctx context.Context) ([]booking.SongRequest, error)
	AddSong(ctx context.Context, s booking.SongRequest) (int64, error)
	DeleteSong(ctx context.Context, id, userID int64) error

	AddVote(ctx context.Context, songID, userID int64) error

	Leaderboard(ctx context.Context, limit int) ([]booking.LeaderboardRow, error)
	SearchArchive(ctx context.Context, query string, limit int) ([]booking.ArchiveEntry, error)

	ListWishlist(ctx context.Context, userID int64) ([]booking.WishlistItem, error)
	AddWishlist(ctx context.Context, item booking.WishlistItem) (int64, error)
	DeleteWishlist(ctx context.Context, id, userID int64) error
}
