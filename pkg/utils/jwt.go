package utils

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer 开发/测试用的令牌签发器
// 生产环境的令牌由外部身份提供方（Clerk）签发，本服务只负责解析
type TokenIssuer struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewTokenIssuer 创建HS256令牌签发器
func NewTokenIssuer(secretKey string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		now:       time.Now,
	}
}

// claimsFor 构造带 sub 的标准 claims
func (j *TokenIssuer) claimsFor(subject string) *jwt.RegisteredClaims {
	now := j.now()
	return &jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
	}
}

// IssueHS256 签发HS256令牌
func (j *TokenIssuer) IssueHS256(subject string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, j.claimsFor(subject))
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// IssueRS256 用RSA私钥签发RS256令牌（模拟 Clerk 的签名方式）
func (j *TokenIssuer) IssueRS256(key *rsa.PrivateKey, subject string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, j.claimsFor(subject))
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// IssueWithClaims 签发任意 claims 的HS256令牌（用于构造缺少 sub 等异常令牌）
func (j *TokenIssuer) IssueWithClaims(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
