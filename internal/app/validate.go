package app

import (
	"fmt"
	"strings"

	"noticeboard/pkg/config"
)

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running services. Keep checks light
// and focused so callers can surface user-friendly errors.
func validateConfig(eff config.Effective) error {
	if eff.DBPath == "" {
		return fmt.Errorf("database path is empty: set --db flag, NOTICEBOARD_DB_PATH env, or storage.db_path in config")
	}
	if eff.Config.Uploads.Dir == "" {
		return fmt.Errorf("uploads directory is empty: set NOTICEBOARD_UPLOADS_DIR env or uploads.dir in config")
	}

	if len(eff.Config.Auth.Admins) > 0 && strings.TrimSpace(eff.Config.Auth.JWTSecret) == "" {
		return fmt.Errorf("admins configured but no jwt secret: set auth.jwt_secret or NOTICEBOARD_JWT_SECRET")
	}
	seen := make(map[string]bool, len(eff.Config.Auth.Admins))
	for _, a := range eff.Config.Auth.Admins {
		if a.Username == "" || a.ID == "" {
			return fmt.Errorf("admin entries need both id and username")
		}
		if !strings.HasPrefix(a.PasswordHash, "$2") {
			return fmt.Errorf("admin %q: password_hash must be a bcrypt hash", a.Username)
		}
		if seen[a.Username] {
			return fmt.Errorf("duplicate admin username %q", a.Username)
		}
		seen[a.Username] = true
	}

	rl := eff.Config.Security.RateLimit
	if rl.RPS < 0 || rl.Burst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}
	return nil
}
