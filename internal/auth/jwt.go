package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainauth "github.com/streamtube/backend/internal/domain/auth"
)

// Token verification failure modes. Wrong-secret-class tokens surface as
// ErrSignatureInvalid because the two classes are signed with independent
// secrets.
var (
	ErrTokenMalformed   = errors.New("token malformed")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired     = errors.New("token expired")
)

type CodecConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Now           func() time.Time
}

// Codec signs and verifies the two token classes. Tokens are
// self-contained: verification needs no store lookup.
type Codec struct {
	cfg CodecConfig
}

func NewCodec(cfg CodecConfig) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("codec: both signing secrets are required")
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Codec{cfg: cfg}, nil
}

type accessTokenClaims struct {
	UserID   int64  `json:"uid"`
	Email    string `json:"email"`
	UserName string `json:"userName"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

type refreshTokenClaims struct {
	UserID   int64  `json:"uid"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

func (c *Codec) registered(sub int64, ttl time.Duration) jwt.RegisteredClaims {
	now := c.cfg.Now()
	return jwt.RegisteredClaims{
		Issuer:    c.cfg.Issuer,
		Subject:   fmt.Sprintf("%d", sub),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		// jti keeps back-to-back tokens for the same account distinct.
		ID: uuid.NewString(),
	}
}

func (c *Codec) IssueAccess(cl domainauth.AccessClaims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, accessTokenClaims{
		UserID:           cl.UserID,
		Email:            cl.Email,
		UserName:         cl.UserName,
		FullName:         cl.FullName,
		RegisteredClaims: c.registered(cl.UserID, c.cfg.AccessTTL),
	})
	return t.SignedString(c.cfg.AccessSecret)
}

func (c *Codec) IssueRefresh(cl domainauth.RefreshClaims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshTokenClaims{
		UserID:           cl.UserID,
		Email:            cl.Email,
		FullName:         cl.FullName,
		RegisteredClaims: c.registered(cl.UserID, c.cfg.RefreshTTL),
	})
	return t.SignedString(c.cfg.RefreshSecret)
}

func (c *Codec) VerifyAccess(token string) (domainauth.AccessClaims, error) {
	var claims accessTokenClaims
	if err := c.parse(token, &claims, c.cfg.AccessSecret); err != nil {
		return domainauth.AccessClaims{}, err
	}
	return domainauth.AccessClaims{
		UserID:   claims.UserID,
		Email:    claims.Email,
		UserName: claims.UserName,
		FullName: claims.FullName,
	}, nil
}

func (c *Codec) VerifyRefresh(token string) (domainauth.RefreshClaims, error) {
	var claims refreshTokenClaims
	if err := c.parse(token, &claims, c.cfg.RefreshSecret); err != nil {
		return domainauth.RefreshClaims{}, err
	}
	return domainauth.RefreshClaims{
		UserID:   claims.UserID,
		Email:    claims.Email,
		FullName: claims.FullName,
	}, nil
}

func (c *Codec) parse(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithTimeFunc(c.cfg.Now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return ErrSignatureInvalid
		default:
			return ErrTokenMalformed
		}
	}
	if !parsed.Valid {
		return ErrSignatureInvalid
	}
	return nil
}
