package userRepo

import (
	"context"
	"errors"

	"healthpulse/models"
)

var ErrNotFound = errors.New("user not found")

// UserRepository is the read side of the user directory used for fan-out
// and offline push.
type UserRepository interface {
	// ListRecipients pages through users ordered by id, starting after afterID.
	ListRecipients(ctx context.Context, afterID string, limit int) ([]models.Recipient, error)
	GetRecipient(ctx context.Context, id string) (*models.Recipient, error)
	// UpsertFCMToken registers the device token for offline push.
	UpsertFCMToken(ctx context.Context, id, token string) error
}
