package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/babylonlabs-io/custody-engine/internal/db"
	"github.com/babylonlabs-io/custody-engine/internal/db/model"
	"github.com/babylonlabs-io/custody-engine/internal/types"
	"github.com/rs/zerolog/log"
)

func (s *Service) InitUser(ctx context.Context, owner string) (*model.UserLedgerDocument, *types.Error) {
	if owner == "" {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.ValidationError, "owner is required")
	}

	unlock := s.locks.Lock(userLockKey(owner))
	defer unlock()

	ledger := model.NewUserLedgerDocument(owner)
	if err := s.db.SaveNewUserLedger(ctx, ledger); err != nil {
		if db.IsDuplicateKeyError(err) {
			return nil, types.NewDomainError(types.ErrUserAlreadyInitialized, "owner %s", owner)
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to save user ledger: %w", err))
	}

	log.Ctx(ctx).Info().Str("owner", owner).Msg("user ledger initialized")
	return ledger, nil
}

func (s *Service) GetUserLedger(ctx context.Context, owner string) (*model.UserLedgerDocument, *types.Error) {
	ledger, err := s.db.GetUserLedger(ctx, owner)
	if err != nil {
		return nil, ledgerLookupError(err, owner)
	}
	return ledger, nil
}

// CloseUser destroys the owner's ledger. Accrued points are forfeited, so it
// is refused while any asset is still in custody.
func (s *Service) CloseUser(ctx context.Context, owner string) *types.Error {
	unlock := s.locks.Lock(userLockKey(owner))
	defer unlock()

	ledger, err := s.db.GetUserLedger(ctx, owner)
	if err != nil {
		return ledgerLookupError(err, owner)
	}
	if ledger.AmountStaked > 0 {
		return types.NewDomainError(
			types.ErrUserHasActiveStakes, "%d assets in custody", ledger.AmountStaked,
		)
	}

	if err := s.db.DeleteUserLedger(ctx, owner); err != nil {
		if db.IsNotFoundError(err) {
			// raced with a commit that did not go through the key lock
			return types.NewDomainError(types.ErrUserHasActiveStakes, "owner %s", owner)
		}
		return types.NewInternalServiceError(fmt.Errorf("failed to delete user ledger: %w", err))
	}

	log.Ctx(ctx).Info().
		Str("owner", owner).
		Uint64("points_forfeited", ledger.Points).
		Msg("user ledger closed")
	return nil
}

func ledgerLookupError(err error, owner string) *types.Error {
	if db.IsNotFoundError(err) {
		return types.NewDomainError(types.ErrUserNotInitialized, "owner %s", owner)
	}
	return types.NewInternalServiceError(fmt.Errorf("failed to get user ledger: %w", err))
}
