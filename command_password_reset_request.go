package portal

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultResetTokenTTL is the redemption window for reset tokens
const DefaultResetTokenTTL = 60 * time.Minute

type RequestPasswordResetMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	OnResponse func(resp *RequestPasswordResetResponse)
}

func (p RequestPasswordResetMessage) Type() string { return "user.password_reset.request" }

type RequestPasswordResetResponse struct {
	Reset      *PasswordResetToken
	Superseded int64
	Success    bool
}

// RequestPasswordResetHandler issues reset tokens. It never reveals
// whether the email maps to an account, and it retires any still
// active token in the same transaction that writes the new one.
type RequestPasswordResetHandler struct {
	repo     RepositoryManager
	notifier Notifier
	logger   Logger
	linkBase string
	tokenTTL time.Duration
}

// NewRequestPasswordResetHandler creates a handler with sane defaults
func NewRequestPasswordResetHandler(repo RepositoryManager) *RequestPasswordResetHandler {
	return &RequestPasswordResetHandler{
		repo:     repo,
		notifier: logNotifier{},
		logger:   defLogger{},
		linkBase: "/reset-password",
		tokenTTL: DefaultResetTokenTTL,
	}
}

// WithNotifier sets the outbound delivery capability
func (h *RequestPasswordResetHandler) WithNotifier(n Notifier) *RequestPasswordResetHandler {
	h.notifier = normalizeNotifier(n)
	return h
}

// WithLogger overrides the logger used by the handler
func (h *RequestPasswordResetHandler) WithLogger(logger Logger) *RequestPasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithResetLinkBase sets the URL the emailed token is appended to
func (h *RequestPasswordResetHandler) WithResetLinkBase(base string) *RequestPasswordResetHandler {
	if base != "" {
		h.linkBase = base
	}
	return h
}

// WithTokenTTL overrides the redemption window
func (h *RequestPasswordResetHandler) WithTokenTTL(ttl time.Duration) *RequestPasswordResetHandler {
	if ttl > 0 {
		h.tokenTTL = ttl
	}
	return h
}

func (h *RequestPasswordResetHandler) Execute(ctx context.Context, event RequestPasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestPasswordResetHandler) execute(ctx context.Context, event RequestPasswordResetMessage) error {
	resp := &RequestPasswordResetResponse{}

	var user *User

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				// unknown address: respond exactly as if a token was
				// issued, no enumeration signal
				user = nil
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		superseded, err := h.repo.PasswordResets().SupersedeActiveForUserTx(ctx, tx, user.ID)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to supersede previous reset tokens")
		}
		resp.Superseded = superseded

		now := time.Now()
		expiresAt := now.Add(h.tokenTTL)
		reset := &PasswordResetToken{
			Token:     uuid.NewString(),
			UserID:    user.ID,
			Status:    ResetTokenRequested,
			CreatedAt: &now,
			ExpiresAt: &expiresAt,
		}

		if reset, err = h.repo.PasswordResets().CreateTx(ctx, tx, reset); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create password reset record")
		}
		resp.Reset = reset

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to request password reset")
	}

	if resp.Reset != nil && user != nil {
		body := ComposeResetNotification(user, h.linkBase, resp.Reset.Token)
		if err := h.notifier.Send(ctx, user.Email, ResetNotificationSubject, body); err != nil {
			// delivery failure must not change the outcome
			h.logger.Error("reset notification delivery failed", "error", err)
		}
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
