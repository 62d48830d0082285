package main

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/icco/spot"
	"go.uber.org/zap"
)

type contextKey string

const slugContextKey contextKey = "slug"

var errNoBearer = errors.New("missing or invalid authorization header")

// tokens issues and checks session tokens. A token's subject is the slug of
// the one session it may drive.
type tokens struct {
	secret []byte
	ttl    time.Duration
}

func newTokens(secret string, ttl time.Duration) (*tokens, error) {
	key := []byte(secret)
	if secret == "" {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
		log.Infow("no token secret configured, generated one")
	}
	return &tokens{secret: key, ttl: ttl}, nil
}

func (t *tokens) issue(slug string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    spot.Service,
		Subject:   slug,
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *tokens) verify(tokenString, slug string) error {
	_, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(spot.Service),
		jwt.WithSubject(slug),
	)
	return err
}

func bearer(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errNoBearer
	}
	return strings.TrimPrefix(authHeader, "Bearer "), nil
}

// sessionAuth lets a request through only with a token for the slug in its
// path.
func (t *tokens) sessionAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := ugcPolicy.Sanitize(chi.URLParam(r, "slug"))

		tok, err := bearer(r)
		if err == nil {
			err = t.verify(tok, slug)
		}
		if err != nil {
			log.Errorw("authentication failed", "slug", slug, zap.Error(err))
			if err := Renderer.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"}); err != nil {
				log.Errorw("failed to render JSON", zap.Error(err))
			}
			return
		}

		ctx := context.WithValue(r.Context(), slugContextKey, slug)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func slugFromContext(ctx context.Context) string {
	slug, _ := ctx.Value(slugContextKey).(string)
	return slug
}
