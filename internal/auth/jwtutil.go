package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// ErrInvalidToken covers every way a compact token can fail verification:
// malformed structure, bad encoding, or a signature mismatch.
var ErrInvalidToken = errors.New("invalid token")

var enc = base64.RawURLEncoding

// SignHS256 serializes claims into a compact HS256 JWT.
func SignHS256(claims map[string]any, secret []byte) (string, error) {
	header, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	signing := enc.EncodeToString(header) + "." + enc.EncodeToString(payload)
	return signing + "." + enc.EncodeToString(hs256(signing, secret)), nil
}

// ParseAndVerifyHS256 checks the token signature against secret and returns
// the decoded claims.
func ParseAndVerifyHS256(token string, secret []byte) (map[string]any, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}
	sig, err := enc.DecodeString(parts[2])
	if err != nil {
		return nil, ErrInvalidToken
	}
	signing := parts[0] + "." + parts[1]
	if !hmac.Equal(sig, hs256(signing, secret)) {
		return nil, ErrInvalidToken
	}
	payload, err := enc.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func hs256(signing string, secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(signing))
	return mac.Sum(nil)
}
