package portal

import (
	"os"
	"strconv"
	"strings"
)

// Default durations, in minutes
const (
	DefaultTokenExpiration      = 240
	DefaultResetTokenExpiration = 60
)

// SimpleConfig is the immutable Config implementation built once at
// process start
type SimpleConfig struct {
	SigningKey           string
	TokenExpiration      int
	ResetTokenExpiration int
	Issuer               string
	Audience             []string
	ResetLinkBase        string
}

var _ Config = (*SimpleConfig)(nil)

func (c *SimpleConfig) GetSigningKey() string { return c.SigningKey }

func (c *SimpleConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return DefaultTokenExpiration
	}
	return c.TokenExpiration
}

func (c *SimpleConfig) GetResetTokenExpiration() int {
	if c.ResetTokenExpiration <= 0 {
		return DefaultResetTokenExpiration
	}
	return c.ResetTokenExpiration
}

func (c *SimpleConfig) GetIssuer() string { return c.Issuer }

func (c *SimpleConfig) GetAudience() []string { return c.Audience }

func (c *SimpleConfig) GetResetLinkBase() string { return c.ResetLinkBase }

// NewConfigFromEnv reads the process environment. Callers loading a
// dotenv file do so before this runs.
func NewConfigFromEnv() *SimpleConfig {
	cfg := &SimpleConfig{
		SigningKey:           os.Getenv("PORTAL_SIGNING_KEY"),
		TokenExpiration:      envInt("PORTAL_TOKEN_EXPIRATION", DefaultTokenExpiration),
		ResetTokenExpiration: envInt("PORTAL_RESET_TOKEN_EXPIRATION", DefaultResetTokenExpiration),
		Issuer:               os.Getenv("PORTAL_ISSUER"),
		ResetLinkBase:        os.Getenv("PORTAL_RESET_LINK_BASE"),
	}

	if aud := os.Getenv("PORTAL_AUDIENCE"); aud != "" {
		for _, a := range strings.Split(aud, ",") {
			if a = strings.TrimSpace(a); a != "" {
				cfg.Audience = append(cfg.Audience, a)
			}
		}
	}

	return cfg
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return def
	}
	return val
}
