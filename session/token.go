package session

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenExpired проверяет claim exp, если токен бэкенда оказался JWT.
// Подпись не проверяется: ключа у нас нет, токен проверяет сам бэкенд.
// Непрозрачные токены и JWT без exp никогда не считаются истёкшими.
func TokenExpired(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
