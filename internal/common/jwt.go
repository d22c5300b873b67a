package common

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer          = "jamsocial"
	sessionSubject  = "user-auth"
	objectSubject   = "object-read"
	sessionLifetime = 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

// Claims represents the session data carried by a bearer token.
type Claims struct {
	UserID int64  `json:"user_id"`
	Handle string `json:"handle"`
	jwt.RegisteredClaims
}

// TokenIssuer issues and validates session tokens. It is the only piece of
// the auth collaborator the profile service depends on.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

func (i *TokenIssuer) GenerateToken(userID int64, handle string) (string, error) {
	now := i.now()
	claims := &Claims{
		UserID: userID,
		Handle: handle,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   sessionSubject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(i.secret)
}

func (i *TokenIssuer) ValidToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithSubject(sessionSubject),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *TokenIssuer) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return i.secret, nil
}

// ObjectClaims grant read access to exactly one object until ExpiresAt.
type ObjectClaims struct {
	Bucket string `json:"bkt"`
	Path   string `json:"path"`
	jwt.RegisteredClaims
}

// ObjectSigner mints the tokens embedded in signed object URLs. The media
// server verifies them with the same secret, so it is the sole authority on
// expiry.
type ObjectSigner struct {
	secret []byte
	now    func() time.Time
}

func NewObjectSigner(secret string) *ObjectSigner {
	return &ObjectSigner{secret: []byte(secret), now: time.Now}
}

func (s *ObjectSigner) Sign(bucket, path string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive, got %s", ttl)
	}
	now := s.now()
	claims := &ObjectClaims{
		Bucket: bucket,
		Path:   path,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   objectSubject,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the token signature, expiry and that it was minted for
// bucket/path.
func (s *ObjectSigner) Verify(tokenString, bucket, path string) error {
	claims := &ObjectClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithSubject(objectSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Bucket != bucket || claims.Path != path {
		return fmt.Errorf("%w: token not issued for %s/%s", ErrInvalidToken, bucket, path)
	}
	return nil
}
