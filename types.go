package portal

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds portal options. Constructed once at process start and
// passed by injection; components never read ambient global state.
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetResetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetResetLinkBase() string
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	Resolve(ctx context.Context, token string) (*User, error)
	Register(ctx context.Context, msg RegisterUserMessage) (*User, error)
}

// PasswordAuthenticator authenticates passwords. The hashing
// primitive is an injected capability, the default is bcrypt.
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Notifier delivers outbound messages. Delivery outcome never
// affects the correctness of the operation that triggered it.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] PORTAL "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] PORTAL "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] PORTAL "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
