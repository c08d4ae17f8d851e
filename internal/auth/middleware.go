package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const chatUserKey contextKey = "chatUser"

// ChatUserHeader carries the stable external identity assigned by the
// trusted chat front end.
const ChatUserHeader = "X-Chat-User"

// ChatUserMiddleware requires the chat identity header on every user-facing
// endpoint and stashes it in the request context.
func ChatUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatID := strings.TrimSpace(r.Header.Get(ChatUserHeader))
		if chatID == "" {
			http.Error(w, "Missing chat identity", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), chatUserKey, chatID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ChatUserFromContext returns the identity placed by ChatUserMiddleware.
func ChatUserFromContext(ctx context.Context) string {
	chatID, _ := ctx.Value(chatUserKey).(string)
	return chatID
}

// AdminAuthMiddleware validates the bearer JWT issued by the admin login.
func AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		secret := os.Getenv("JWT_SECRET")
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
