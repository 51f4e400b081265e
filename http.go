package portal

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// ActorContextKey is the router locals key holding the resolved caller
const ActorContextKey = "portal:actor"

// RouteAuthenticator guards JSON routes with bearer tokens and maps
// flow errors onto HTTP responses
type RouteAuthenticator struct {
	auth   Authenticator
	Logger Logger
}

func NewHTTPAuthenticator(auther Authenticator) *RouteAuthenticator {
	return &RouteAuthenticator{
		auth:   auther,
		Logger: defLogger{},
	}
}

// ProtectedRoute resolves the Authorization bearer token into a user
// and stores it in the request locals. Any failure short-circuits
// with 401.
func (a *RouteAuthenticator) ProtectedRoute() router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			raw, err := bearerToken(ctx)
			if err != nil {
				return RenderError(ctx, err)
			}

			user, err := a.auth.Resolve(ctx.Context(), raw)
			if err != nil {
				a.Logger.Info("bearer resolution failed", "error", err, "path", ctx.OriginalURL())
				return RenderError(ctx, ErrUnauthenticated)
			}

			ctx.Locals(ActorContextKey, user)
			return hf(ctx)
		}
	}
}

// AdminRoute additionally requires the admin role. Must run after
// ProtectedRoute.
func (a *RouteAuthenticator) AdminRoute() router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			actor := ActorFromContext(ctx)
			if actor == nil {
				return RenderError(ctx, ErrUnauthenticated)
			}
			if !actor.Role.IsAdmin() {
				return RenderError(ctx, ErrForbidden)
			}
			return hf(ctx)
		}
	}
}

// ActorFromContext returns the user placed in locals by
// ProtectedRoute, or nil
func ActorFromContext(ctx router.Context) *User {
	if user, ok := ctx.Locals(ActorContextKey).(*User); ok {
		return user
	}
	return nil
}

func bearerToken(ctx router.Context) (string, error) {
	header := ctx.GetString("Authorization", "")
	if header == "" {
		return "", ErrUnauthenticated
	}

	const scheme = "bearer "
	if len(header) <= len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", ErrUnauthenticated
	}

	return strings.TrimSpace(header[len(scheme):]), nil
}

// RenderError writes a rich error as a JSON response, using the
// error's embedded HTTP code and text code
func RenderError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status < http.StatusBadRequest || status > 599 {
		status = http.StatusInternalServerError
	}

	return ctx.JSON(status, map[string]any{
		"error": map[string]any{
			"message":   richErr.Message,
			"text_code": richErr.TextCode,
		},
	})
}
