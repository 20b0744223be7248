package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Token errors. Callers map all of them to 403.
var (
	ErrTokenMalformed = errors.New("malformed token")
	ErrTokenSignature = errors.New("token signature mismatch")
	ErrTokenExpired   = errors.New("token expired")
	ErrNoSecret       = errors.New("signing secret missing")
)

var b64 = base64.RawURLEncoding

// SignedToken is a verified download token.
type SignedToken struct {
	Scope     string
	ID        string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner issues HMAC-SHA256 tokens of the form
// id.expiry.base64(path).base64(mac). The scope is covered by the MAC but not
// carried in the token, so a token minted for one scope fails in another.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate signs id and relPath for scope, valid for the signer's TTL.
func (s *SignedURLSigner) Generate(scope, id, relPath string) (string, time.Time, error) {
	switch {
	case len(s.secret) == 0:
		return "", time.Time{}, ErrNoSecret
	case scope == "" || id == "" || relPath == "" || strings.Contains(id, "."):
		return "", time.Time{}, ErrTokenMalformed
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	payload := []string{id, strconv.FormatInt(expiresAt.Unix(), 10), b64.EncodeToString([]byte(relPath))}
	token := strings.Join(append(payload, s.mac(scope, payload)), ".")
	return token, expiresAt, nil
}

// Parse verifies token for scope. allowExpired skips the expiry check, for
// cleanup of files whose links have lapsed.
func (s *SignedURLSigner) Parse(scope, token string, allowExpired bool) (*SignedToken, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return nil, ErrTokenMalformed
	}
	payload, sig := parts[:3], parts[3]
	if !hmac.Equal([]byte(s.mac(scope, payload)), []byte(sig)) {
		return nil, ErrTokenSignature
	}
	path, err := b64.DecodeString(payload[2])
	if err != nil {
		return nil, ErrTokenMalformed
	}
	unix, err := strconv.ParseInt(payload[1], 10, 64)
	if err != nil {
		return nil, ErrTokenMalformed
	}
	expiresAt := time.Unix(unix, 0)
	if !allowExpired && s.now().After(expiresAt) {
		return nil, ErrTokenExpired
	}
	return &SignedToken{Scope: scope, ID: payload[0], Path: string(path), ExpiresAt: expiresAt}, nil
}

func (s *SignedURLSigner) mac(scope string, payload []string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(scope))
	for _, p := range payload {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return b64.EncodeToString(h.Sum(nil))
}
