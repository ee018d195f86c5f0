package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gatepass/internal/infra/logging"
)

type ctxKey string

const ctxKeyScannerID ctxKey = "scanner_id"

// adminAuth provides simple Bearer token authentication for the admin API.
func (s *Server) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("Admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		token := bearerToken(r)
		if token == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if token != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// scannerAuth authenticates gate scanners via a signed JWT whose subject is
// the scanner ID. The ID ends up on the consumed pass and the audit trail.
func (s *Server) scannerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.scannerSecret) == 0 {
			s.log.Error().Msg("Scanner JWT secret is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		raw := bearerToken(r)
		if raw == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return s.scannerSecret, nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyScannerID, claims.Subject)
		ctx = logging.WithScannerID(ctx, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// mintScannerToken signs a scanner identity token.
func (s *Server) mintScannerToken(scannerID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   scannerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.scannerSecret)
}

func scannerIDFrom(ctx context.Context) *string {
	if v := ctx.Value(ctxKeyScannerID); v != nil {
		id := v.(string)
		return &id
	}
	return nil
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}
