package usecase

import (
	"context"
	"errors"
	"fmt"

	booking "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/booking/application/domain"
	repository "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/booking/persistence/repository/port"
)

// VoteSongInput identifies the vote: one per user per song.
type VoteSongInput struct {
	SongID int64
	UserID int64
}

// VoteSongUseCase records a vote, surfacing duplicates as a domain error.
type VoteSongUseCase struct {
	Repo repository.BookingRepository
}

func NewVoteSongUseCase(repo repository.BookingRepository) *VoteSongUseCase {
	return &VoteSongUseCase{Repo: repo}
}

func (uc *VoteSongUseCase) Execute(ctx context.Context, in VoteSongInput) error {
	if in.SongID == 0 || in.UserID == 0 {
		return fmt.Errorf("song_id and user_id are required")
	}
	err := uc.Repo.AddVote(ctx, in.SongID, in.UserID)
	if errors.Is(err, booking.ErrDuplicateVote) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
