// Package token は認証用の署名付きトークンの発行と検証を提供します。
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL はトークンの有効期間です（発行から1日）。
const TTL = 24 * time.Hour

// Claims は認証済みユーザーを表すクレームです。
type Claims struct {
	jwt.RegisteredClaims
	Name      string `json:"name"`
	SessionID string `json:"sessionId"`
}

// Service はHMAC対称鍵で署名するトークンサービスです。
type Service struct {
	secretKey string
}

// NewService は指定の秘密鍵でトークンサービスを作成します。
func NewService(secretKey string) *Service {
	return &Service{secretKey: secretKey}
}

// Issue は name と sessionId を埋め込んだ署名付きトークンを発行します。
func (s *Service) Issue(name, sessionID string) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
		Name:      name,
		SessionID: sessionID,
	})

	signed, err := t.SignedString([]byte(s.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify は署名と有効期限を検証し、クレームを返します。
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(s.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !t.Valid {
		return nil, fmt.Errorf("token is invalid")
	}
	return claims, nil
}
