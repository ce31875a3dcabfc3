package app

import (
	"strings"
	"testing"

	"noticeboard/pkg/config"
)

func validEff() config.Effective {
	cfg := config.Default()
	cfg.Auth.JWTSecret = "secret"
	cfg.Auth.Admins = []config.AdminUser{
		{ID: "adm-1", Username: "alice", PasswordHash: "$2a$10$abcdefghijklmnopqrstuv"},
	}
	return config.Effective{Config: cfg, Addr: ":8080", DBPath: cfg.Storage.DBPath}
}

func TestValidateConfigAccepts(t *testing.T) {
	if err := validateConfig(validEff()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateConfigRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Effective)
		want   string
	}{
		{"missing db path", func(e *config.Effective) { e.DBPath = "" }, "database path"},
		{"missing uploads dir", func(e *config.Effective) { e.Config.Uploads.Dir = "" }, "uploads directory"},
		{"admins without secret", func(e *config.Effective) { e.Config.Auth.JWTSecret = "" }, "jwt secret"},
		{"admin without username", func(e *config.Effective) { e.Config.Auth.Admins[0].Username = "" }, "id and username"},
		{"plaintext password", func(e *config.Effective) { e.Config.Auth.Admins[0].PasswordHash = "hunter2" }, "bcrypt"},
		{"duplicate admin", func(e *config.Effective) {
			e.Config.Auth.Admins = append(e.Config.Auth.Admins, e.Config.Auth.Admins[0])
		}, "duplicate"},
		{"negative rate", func(e *config.Effective) { e.Config.Security.RateLimit.RPS = -1 }, "rate limit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eff := validEff()
			tc.mutate(&eff)
			err := validateConfig(eff)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}
