// Package auth resolves caller identity. Admins log in with configured
// credentials and receive a signed bearer token; every other caller is an
// anonymous viewer. The rest of the system trusts the resolved identity
// verbatim.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"noticeboard/pkg/config"
	"noticeboard/pkg/errors"
	"noticeboard/pkg/logger"
	"noticeboard/pkg/utils"
)

const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// Identity is the resolved caller for a request.
type Identity struct {
	ID   string
	Name string
	Role string
}

// IsAdmin reports whether the identity passed the admin role gate.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

type ctxIdentityKey struct{}

// tokenClaims is the JWT claims shape issued at login.
type tokenClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
	Role string `json:"role"`
}

const defaultTokenTTL = 24 * time.Hour

// Authenticator issues and verifies admin bearer tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	admins map[string]config.AdminUser // keyed by username
}

// New builds an Authenticator from config. A JWT secret is required as soon
// as any admin is configured; failing fast here beats an unusable login
// endpoint later.
func New(cfg config.AuthConfig) (*Authenticator, error) {
	if len(cfg.Admins) > 0 && strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("auth: admins configured but no jwt_secret set")
	}
	admins := make(map[string]config.AdminUser, len(cfg.Admins))
	for _, a := range cfg.Admins {
		if a.Username == "" || a.ID == "" {
			return nil, fmt.Errorf("auth: admin entries need both id and username")
		}
		admins[a.Username] = a
	}
	ttl := cfg.TokenTTL.Duration()
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Authenticator{secret: []byte(cfg.JWTSecret), ttl: ttl, admins: admins}, nil
}

// Login checks the credentials against the configured admin roster and
// returns a signed bearer token plus the resolved identity.
func (a *Authenticator) Login(username, password string) (string, Identity, error) {
	adm, ok := a.admins[username]
	if !ok {
		// run the hash comparison anyway so unknown and known usernames
		// take comparable time
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000uGZwFueMLplSYsClwLdKEGq0DoYUrcS"), []byte(password))
		return "", Identity{}, errors.New(errors.KindUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(adm.PasswordHash), []byte(password)); err != nil {
		return "", Identity{}, errors.New(errors.KindUnauthorized, "invalid credentials")
	}

	now := time.Now().UTC()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adm.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		Name: adm.Name,
		Role: RoleAdmin,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", Identity{}, errors.Wrap(errors.KindServer, "token signing failed", err)
	}
	logger.Info("admin_login", "user", adm.ID)
	return token, Identity{ID: adm.ID, Name: adm.Name, Role: RoleAdmin}, nil
}

// Verify parses and validates a bearer token, returning the identity it
// carries.
func (a *Authenticator) Verify(token string) (Identity, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, errors.New(errors.KindUnauthorized, "invalid token")
	}
	return Identity{ID: claims.Subject, Name: claims.Name, Role: claims.Role}, nil
}

// Middleware resolves the caller identity for every request. Requests
// without a bearer token proceed as anonymous viewers; a token that is
// present but invalid is rejected outright.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			ctx := context.WithValue(r.Context(), ctxIdentityKey{}, Identity{Role: RoleViewer})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		id, err := a.Verify(token)
		if err != nil {
			logger.Warn("invalid_token", "path", r.URL.Path, "remote", r.RemoteAddr)
			utils.JSONError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxIdentityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFromContext returns the resolved identity, or an anonymous viewer
// when none was attached.
func IdentityFromContext(ctx context.Context) Identity {
	if v := ctx.Value(ctxIdentityKey{}); v != nil {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Identity{Role: RoleViewer}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
