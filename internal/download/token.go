// Package download hands out short-lived signed links to the files of
// completed purchases and serves them.
package download

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claim keys carried by a download token.
const (
	claimPurchase = "pid"
	claimUser     = "uid"
	claimPath     = "path"
	claimName     = "name"
)

var errMalformedToken = errors.New("malformed download token")

// Grant is what a download token authorizes: one file of one purchase.
type Grant struct {
	PurchaseID string
	UserID     string
	Path       string
	Name       string
}

// Signer issues HS256 download tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for g and its expiry.
func (s *Signer) Sign(g Grant) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		claimPurchase: g.PurchaseID,
		claimUser:     g.UserID,
		claimPath:     g.Path,
		claimName:     g.Name,
		"iat":         now.Unix(),
		"exp":         exp.Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign download token: %w", err)
	}
	return signed, exp, nil
}

func grantFromToken(token *jwt.Token) (Grant, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Grant{}, errMalformedToken
	}
	g := Grant{
		PurchaseID: stringClaim(claims, claimPurchase),
		UserID:     stringClaim(claims, claimUser),
		Path:       stringClaim(claims, claimPath),
		Name:       stringClaim(claims, claimName),
	}
	if g.PurchaseID == "" || g.UserID == "" || g.Path == "" {
		return Grant{}, errMalformedToken
	}
	return g, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
