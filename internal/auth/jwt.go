package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
)

const Audience = "cdp-ledger"

var ErrInvalidSubject = errors.New("token subject is not an account address")

// JWTManager signs and verifies HS256 bearer tokens whose subject is the
// caller's account address.
type JWTManager struct {
	issuer string
	secret []byte
	now    func() time.Time
}

type Claims struct {
	jwt.RegisteredClaims
}

func NewJWTManager(issuer, signingKey string) *JWTManager {
	return &JWTManager{issuer: issuer, secret: []byte(signingKey), now: time.Now}
}

func (m *JWTManager) Mint(caller common.Address, ttl time.Duration) (string, error) {
	now := m.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   caller.Hex(),
			Audience:  []string{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(m.secret)
}

// Parse verifies the token and returns the caller it was issued to.
func (m *JWTManager) Parse(tokenString string) (common.Address, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(claims.Subject) {
		return common.Address{}, ErrInvalidSubject
	}
	return common.HexToAddress(claims.Subject), nil
}
