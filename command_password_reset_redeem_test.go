package portal_test

import (
	"context"
	"testing"
	"time"

	portal "github.com/goliatone/go-portal"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func issueResetToken(t *testing.T, repo *fakeRepoManager, user *portal.User) *portal.PasswordResetToken {
	t.Helper()

	handler := portal.NewRequestPasswordResetHandler(repo).
		WithNotifier(&fakeNotifier{})

	var resp *portal.RequestPasswordResetResponse
	require.NoError(t, handler.Execute(context.Background(), portal.RequestPasswordResetMessage{
		Email:      user.Email,
		OnResponse: func(r *portal.RequestPasswordResetResponse) { resp = r },
	}))
	require.NotNil(t, resp.Reset)
	return resp.Reset
}

func TestRedeemPasswordReset_Succeeds(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepoManager()
	user := seedUser(repo, "redeem@example.com", "old password", portal.RoleUser)
	reset := issueResetToken(t, repo, user)

	handler := portal.NewRedeemPasswordResetHandler(repo).
		WithPasswordAuthenticator(portal.NewBcryptHasher(4))

	err := handler.Execute(ctx, portal.RedeemPasswordResetMessage{
		Token:    reset.Token,
		Password: "brand new password",
	})
	require.NoError(t, err)

	// credential rotated
	stored, err := repo.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("brand new password")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("old password")))

	// token consumed
	_, err = repo.PasswordResets().GetActiveByToken(ctx, reset.Token)
	assert.Error(t, err)

	active, err := repo.PasswordResets().CountActiveForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, active)
}

func TestRedeemPasswordReset_SecondAttemptFails(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepoManager()
	user := seedUser(repo, "replay@example.com", "old password", portal.RoleUser)
	reset := issueResetToken(t, repo, user)

	handler := portal.NewRedeemPasswordResetHandler(repo).
		WithPasswordAuthenticator(portal.NewBcryptHasher(4))

	require.NoError(t, handler.Execute(ctx, portal.RedeemPasswordResetMessage{
		Token:    reset.Token,
		Password: "first redemption",
	}))

	err := handler.Execute(ctx, portal.RedeemPasswordResetMessage{
		Token:    reset.Token,
		Password: "second redemption",
	})
	assert.ErrorIs(t, err, portal.ErrInvalidResetToken)
}

func TestRedeemPasswordReset_ExpiredAndUnknownAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepoManager()
	user := seedUser(repo, "late@example.com", "old password", portal.RoleUser)

	// write an already-expired token directly
	now := time.Now()
	expired := now.Add(-time.Minute)
	created := now.Add(-61 * time.Minute)
	reset := &portal.PasswordResetToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Status:    portal.ResetTokenRequested,
		CreatedAt: &created,
		ExpiresAt: &expired,
	}
	_, err := repo.PasswordResets().CreateTx(ctx, fakeTx(), reset)
	require.NoError(t, err)

	handler := portal.NewRedeemPasswordResetHandler(repo).
		WithPasswordAuthenticator(portal.NewBcryptHasher(4))

	expiredErr := handler.Execute(ctx, portal.RedeemPasswordResetMessage{
		Token:    reset.Token,
		Password: "too late",
	})
	unknownErr := handler.Execute(ctx, portal.RedeemPasswordResetMessage{
		Token:    uuid.NewString(),
		Password: "never existed",
	})

	assert.ErrorIs(t, expiredErr, portal.ErrInvalidResetToken)
	assert.ErrorIs(t, unknownErr, portal.ErrInvalidResetToken)

	// the expired row was retired lazily with its terminal state
	active, err := repo.PasswordResets().CountActiveForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, active)

	// and the password did not change
	stored, err := repo.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("old password")))
}

func TestRedeemPasswordReset_SupersededTokenFails(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepoManager()
	user := seedUser(repo, "stale@example.com", "old password", portal.RoleUser)

	first := issueResetToken(t, repo, user)
	second := issueResetToken(t, repo, user)

	handler := portal.NewRedeemPasswordResetHandler(repo).
		WithPasswordAuthenticator(portal.NewBcryptHasher(4))

	err := handler.Execute(ctx, portal.RedeemPasswordResetMessage{
		Token:    first.Token,
		Password: "with the stale token",
	})
	assert.ErrorIs(t, err, portal.ErrInvalidResetToken)

	// the fresh token still works
	require.NoError(t, handler.Execute(ctx, portal.RedeemPasswordResetMessage{
		Token:    second.Token,
		Password: "with the fresh token",
	}))
}
