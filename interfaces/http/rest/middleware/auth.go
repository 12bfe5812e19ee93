package middleware

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"archboard-backend/infrastructure/config"
	"archboard-backend/pkg/auth"
	"archboard-backend/pkg/common"
)

const tokenIssuer = "archboard-backend"

var tokenAudience = []string{"archboard-api"}

// Authenticate guards the editing API. Inside Lambda the API Gateway JWT
// authorizer has already validated the token, so only the forwarded user
// headers are read; everywhere else the token is validated locally.
func Authenticate() func(next http.Handler) http.Handler {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return AuthenticateForLambda()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		cfg = &config.Config{
			JWTSecret: os.Getenv("JWT_SECRET"),
			JWTIssuer: tokenIssuer,
		}
	}

	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
		Audience:      tokenAudience,
	})
	if err != nil {
		// A broken validator must not silently wave requests through
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				common.RespondError(w, r, http.StatusUnauthorized, "AUTH_UNAVAILABLE", "authentication unavailable")
			})
		}
	}

	ipLimiter := auth.NewIPRateLimiter(100)
	userLimiter := auth.NewUserRateLimiter(200)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed, _ := ipLimiter.Allow(r.Context(), clientIP(r)); !allowed {
				common.RespondError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
				return
			}

			token := bearerToken(r)
			if token == "" {
				common.RespondError(w, r, http.StatusUnauthorized, "TOKEN_MISSING", "missing authentication token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				common.RespondError(w, r, http.StatusUnauthorized, "TOKEN_INVALID", tokenFailureMessage(err))
				return
			}

			if allowed, _ := userLimiter.Allow(r.Context(), claims.UserID); !allowed {
				common.RespondError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "user rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithUser(r, claims.UserID, claims.Email, claims.Roles)))
		})
	}
}

// AuthenticateForLambda trusts the user headers the Lambda adapter copies
// out of the API Gateway authorizer context. Requests without the
// authorizer marker are rejected outright.
func AuthenticateForLambda() func(next http.Handler) http.Handler {
	ipLimiter := auth.NewIPRateLimiter(100)
	userLimiter := auth.NewUserRateLimiter(200)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed, _ := ipLimiter.Allow(r.Context(), clientIP(r)); !allowed {
				common.RespondError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
				return
			}

			if r.Header.Get("X-API-Gateway-Authorized") != "true" {
				common.RespondError(w, r, http.StatusUnauthorized, "NOT_AUTHORIZED", "request not authorized by API Gateway")
				return
			}

			userID := r.Header.Get("X-User-ID")
			if userID == "" {
				common.RespondError(w, r, http.StatusUnauthorized, "USER_MISSING", "missing user context from API Gateway")
				return
			}

			if allowed, _ := userLimiter.Allow(r.Context(), userID); !allowed {
				common.RespondError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "user rate limit exceeded")
				return
			}

			roles := []string{"authenticated"}
			if raw := r.Header.Get("X-User-Roles"); raw != "" {
				roles = strings.Split(raw, ",")
			}

			next.ServeHTTP(w, r.WithContext(contextWithUser(r, userID, r.Header.Get("X-User-Email"), roles)))
		})
	}
}

func contextWithUser(r *http.Request, userID, email string, roles []string) context.Context {
	ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
		UserID: userID,
		Email:  email,
		Roles:  roles,
	})
	return common.WithUserID(ctx, userID)
}

func tokenFailureMessage(err error) string {
	switch err {
	case auth.ErrExpiredToken:
		return "token has expired"
	case auth.ErrInvalidSignature:
		return "invalid token signature"
	default:
		return "invalid token"
	}
}

// bearerToken reads the JWT from the Authorization header, the auth cookie,
// or the token query parameter, in that order.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return header
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}

// clientIP resolves the originating address through proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

// TokenRefresh issues a fresh token for a still-acceptable one. Expired
// signatures are allowed through validation so a just-lapsed session can
// renew without a full login.
type TokenRefresh struct {
	generator *auth.JWTGenerator
	validator *auth.JWTValidator
}

func NewTokenRefresh(secretKey string) (*TokenRefresh, error) {
	generator, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{
		SigningMethod: "HS256",
		SecretKey:     secretKey,
		Issuer:        tokenIssuer,
		Audience:      tokenAudience,
		ExpiryTime:    24 * time.Hour,
	})
	if err != nil {
		return nil, err
	}

	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     secretKey,
		Issuer:        tokenIssuer,
		Audience:      tokenAudience,
	})
	if err != nil {
		return nil, err
	}

	return &TokenRefresh{generator: generator, validator: validator}, nil
}

// Handler is the POST /auth/refresh endpoint.
func (t *TokenRefresh) Handler(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		common.RespondError(w, r, http.StatusUnauthorized, "TOKEN_MISSING", "missing token")
		return
	}

	claims, err := t.validator.ValidateToken(token)
	if err != nil && err != auth.ErrExpiredToken {
		common.RespondError(w, r, http.StatusUnauthorized, "TOKEN_INVALID", "invalid token")
		return
	}

	fresh, err := t.generator.GenerateToken(claims.UserID, claims.Email, claims.Roles)
	if err != nil {
		common.RespondError(w, r, http.StatusInternalServerError, "TOKEN_ISSUE_FAILED", "failed to generate token")
		return
	}

	common.RespondJSON(w, r, http.StatusOK, map[string]interface{}{
		"token":      fresh,
		"expires_in": int((24 * time.Hour).Seconds()),
	})
}
