package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

var (
	ErrSignatureExpired = errors.New("signature expired")
	ErrSignatureInvalid = errors.New("invalid signature")
)

const minSecretLen = 32

// SecretBytes は文字列から署名用のバイト列を生成する（最低32バイト）
func SecretBytes(s string) []byte {
	b := []byte(s)
	if len(b) < minSecretLen {
		out := make([]byte, minSecretLen)
		copy(out, b)
		return out
	}
	return b
}

// SignResource は resource と有効期限から署名を生成する
func SignResource(resource string, expires time.Time, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(resource))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(strconv.FormatInt(expires.Unix(), 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyResource は署名と有効期限を検証する
func VerifyResource(resource string, expiresUnix int64, signature string, secret []byte, now time.Time) error {
	expires := time.Unix(expiresUnix, 0)
	expected := SignResource(resource, expires, secret)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureInvalid
	}
	if now.After(expires) {
		return ErrSignatureExpired
	}
	return nil
}
