package portal

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type RedeemPasswordResetMessage struct {
	Token    string `json:"token" example:"350399bc-c095-4bdc-a59c-3352d44848e4" doc:"Reset token from the emailed link."`
	Password string `json:"new_password" example:"some_secret_word" doc:"Replacement password."`
}

func (p RedeemPasswordResetMessage) Type() string { return "user.password_reset.redeem" }

// RedeemPasswordResetHandler consumes reset tokens. The password
// change and the token consumption commit as one transaction; a
// token is never left redeemable after the digest changed, and the
// digest never changes without retiring the token.
type RedeemPasswordResetHandler struct {
	repo   RepositoryManager
	hasher PasswordAuthenticator
	logger Logger
}

// NewRedeemPasswordResetHandler creates a handler with sane defaults
func NewRedeemPasswordResetHandler(repo RepositoryManager) *RedeemPasswordResetHandler {
	return &RedeemPasswordResetHandler{
		repo:   repo,
		hasher: NewBcryptHasher(DefaultBcryptCost),
		logger: defLogger{},
	}
}

// WithPasswordAuthenticator swaps the hashing capability
func (h *RedeemPasswordResetHandler) WithPasswordAuthenticator(hasher PasswordAuthenticator) *RedeemPasswordResetHandler {
	if hasher != nil {
		h.hasher = hasher
	}
	return h
}

// WithLogger overrides the logger used by the handler
func (h *RedeemPasswordResetHandler) WithLogger(logger Logger) *RedeemPasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RedeemPasswordResetHandler) Execute(ctx context.Context, event RedeemPasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset redemption",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RedeemPasswordResetHandler) execute(ctx context.Context, event RedeemPasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	reset, err := h.repo.PasswordResets().GetActiveByToken(ctx, event.Token)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrInvalidResetToken
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve password reset record")
	}

	if reset.ExpiresAt == nil {
		return goerrors.New("password reset record is missing an expiry", goerrors.CategoryInternal)
	}

	if !reset.ExpiresAt.After(time.Now()) {
		// lazy invalidation: retire the row in its own transaction so
		// the state change survives the error we return. The caller
		// sees the same error an unknown token produces.
		err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return h.repo.PasswordResets().MarkUsedTx(ctx, tx, reset.ID, ResetTokenExpired)
		})
		if err != nil && !repository.IsRecordNotFound(err) {
			h.logger.Error("failed to invalidate expired reset token", "error", err)
		}
		return ErrInvalidResetToken
	}

	passwordHash, err := h.hasher.HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid new password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash new password")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.repo.Users().ResetPasswordTx(ctx, tx, reset.UserID, passwordHash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password")
		}

		if err := h.repo.PasswordResets().MarkUsedTx(ctx, tx, reset.ID, ResetTokenRedeemed); err != nil {
			// a concurrent redeemer won the compare-and-set; roll
			// back the password change and fail like any spent token
			if repository.IsRecordNotFound(err) {
				return ErrInvalidResetToken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark reset token as used")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	return nil
}
