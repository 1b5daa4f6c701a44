package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kazz187/volunteerdesk/pkg/cerr"
	"github.com/kazz187/volunteerdesk/pkg/clog"
)

const DefaultTokenTTL = 24 * time.Hour

// Caller is the verified identity behind a request.
type Caller struct {
	UserID string
	Role   string
}

type callerKey struct{}

func ContextWithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(Caller)
	if !ok || caller.UserID == "" {
		return Caller{}, false
	}
	return caller, true
}

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Issuer signs and verifies HS256 bearer tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Issuer)

func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		i.ttl = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

func NewIssuer(secret string, opts ...Option) *Issuer {
	i := &Issuer{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Issuer) Issue(userID, role string) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := i.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: role,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(i.secret)
}

func (i *Issuer) Parse(token string) (Caller, error) {
	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Caller{}, fmt.Errorf("parse token: %w", err)
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return Caller{}, errors.New("invalid token")
	}
	if c.Subject == "" {
		return Caller{}, errors.New("token has no subject")
	}
	return Caller{UserID: c.Subject, Role: c.Role}, nil
}

// Middleware resolves the bearer token into a Caller. Browsers cannot set
// headers on EventSource requests, so the access_token query parameter is
// accepted as a fallback.
func (i *Issuer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			cerr.SetNewJSONError(r.Context(), cerr.Unauthenticated, "missing bearer token", nil)
			return
		}
		caller, err := i.Parse(token)
		if err != nil {
			cerr.SetNewJSONError(r.Context(), cerr.Unauthenticated, "invalid bearer token", err)
			return
		}
		ctx := ContextWithCaller(r.Context(), caller)
		clog.AddCaller(ctx, caller.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}
