// waypoint/jwt.go
package waypoint

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// defaultJWTSecret is the signing key used when New() finds no
// WAYPOINT_JWT_SECRET in the Engine's ConfigManager. GenerateJWT and
// ValidateJWT are free functions (no *Engine receiver), so New() pushes the
// configured secret into the package-level var below via setJWTSecret
// rather than threading Config through every call.
const defaultJWTSecret = "supersecretjwtkeythatshouldbemoresecureinproduction"

var (
	jwtSecretMu sync.RWMutex
	jwtSecret   = []byte(defaultJWTSecret)
)

// setJWTSecret installs the signing key GenerateJWT/ValidateJWT use. Called
// once from New() with the value resolved from Config.
func setJWTSecret(secret string) {
	jwtSecretMu.Lock()
	defer jwtSecretMu.Unlock()
	jwtSecret = []byte(secret)
}

func currentJWTSecret() []byte {
	jwtSecretMu.RLock()
	defer jwtSecretMu.RUnlock()
	return jwtSecret
}

// Claims defines the JWT claims structure.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateJWT generates a new JWT for the given user ID.
func GenerateJWT(userID string) (string, error) {
	expirationTime := time.Now().Add(24 * time.Hour) // Token valid for 24 hours
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "waypoint",
			Subject:   userID,
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()), // Unique ID for the token
			Audience:  []string{"waypoint-users"},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(currentJWTSecret())
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return tokenString, nil
}

// ValidateJWT validates a JWT string and returns the claims if valid.
func ValidateJWT(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return currentJWTSecret(), nil
	})

	if err != nil {
		return nil, fmt.Errorf("invalid JWT: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("JWT is invalid")
	}

	return claims, nil
}
