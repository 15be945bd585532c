package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// jwtMaxSkew bounds the distance between the issued-at claim and the local clock.
const jwtMaxSkew = 60 * time.Second

// jwtHandler rejects requests that do not carry an HS256 bearer token signed with secret
// and issued within jwtMaxSkew of now.
func jwtHandler(logger zerolog.Logger, secret [32]byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := verifyBearer(r.Header.Get("Authorization"), secret, time.Now()); err != nil {
			logger.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("rejected unauthenticated request")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func verifyBearer(header string, secret [32]byte, now time.Time) error {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return fmt.Errorf("missing bearer token")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret[:], nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}

	iat, err := claims.GetIssuedAt()
	if err != nil || iat == nil {
		return fmt.Errorf("missing issued-at claim")
	}
	if skew := now.Sub(iat.Time); skew > jwtMaxSkew || skew < -jwtMaxSkew {
		return fmt.Errorf("stale token: issued %s from now", skew.Round(time.Second))
	}
	return nil
}
