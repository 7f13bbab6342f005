package tablecode

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"table-order/models"
)

var ErrInvalidToken = errors.New("invalid or expired table token")

// Claims bind a QR token to one table
type Claims struct {
	TableID int64  `json:"table_id"`
	Table   string `json:"table"`
	jwt.RegisteredClaims
}

// Signer issues and verifies table tokens. A zero TTL means tokens never expire,
// which suits codes printed on a table.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a signed token for a table
func (s *Signer) Issue(t models.Table) (string, error) {
	now := s.now()
	claims := Claims{
		TableID: t.ID,
		Table:   t.Number,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  t.Number,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse validates a token and returns its claims
func (s *Signer) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Table == "" {
		return nil, fmt.Errorf("%w: missing table", ErrInvalidToken)
	}
	return claims, nil
}
