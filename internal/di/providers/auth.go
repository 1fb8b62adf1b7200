package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/gutenbae/gutenbae-server/internal/auth"
	"github.com/gutenbae/gutenbae-server/internal/config"
	"github.com/gutenbae/gutenbae-server/internal/logger"
)

// AuthKey is the hex-encoded PASETO symmetric key.
type AuthKey string

// ProvideAuthKey loads the token key from config, or generates and persists
// one next to the database on first run.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Auth.TokenKey != "" {
		return AuthKey(cfg.Auth.TokenKey), nil
	}

	keyHex, err := auth.LoadOrGenerateKey(filepath.Dir(cfg.Data.DatabasePath))
	if err != nil {
		return "", err
	}
	cfg.Auth.TokenKey = keyHex

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
	)

	return AuthKey(keyHex), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(string(authKey), cfg.Auth.AccessTokenDuration)
}
