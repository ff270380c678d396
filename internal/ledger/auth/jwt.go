package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "bet-ledger-engine"

// Claims carrega o id do usuário (sub) e os grupos a que pertence
type Claims struct {
	Groups []string `json:"groups"`

	jwt.RegisteredClaims
}

// JWT assina e valida tokens HS256 com segredo compartilhado
type JWT struct {
	Secret   []byte
	TokenTTL time.Duration
}

// Sign gera um token para o usuário com os grupos informados
func (j JWT) Sign(userID string, groups []Role) (token string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	expiresAt = now.Add(j.TokenTTL)

	gs := make([]string, 0, len(groups))
	for _, g := range groups {
		gs = append(gs, string(g))
	}
	claims := Claims{
		Groups: gs,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, expiresAt, nil
}

// Verify valida o token e devolve o Actor correspondente
func (j JWT) Verify(token string) (Actor, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return j.Secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return Anonymous, err
	}
	c, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || c.Subject == "" {
		return Anonymous, errors.New("invalid token")
	}

	a := Actor{ID: c.Subject, Authenticated: true}
	for _, g := range c.Groups {
		a.Groups = append(a.Groups, Role(g))
	}
	return a, nil
}
