// Package jwt 校验外部身份服务签发的访问令牌
//
// 本服务不负责登录，GenerateAccessToken 只用于联调和测试。
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 角色
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// 校验错误
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenNotActive = errors.New("token not active yet")
)

// Claims 令牌声明
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Config JWT 配置，Issuer 非空时校验签发方
type Config struct {
	Secret           string
	AccessExpireTime time.Duration
	Issuer           string
}

// Manager 令牌管理器
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	parser *jwt.Parser
}

// NewManager 创建令牌管理器
func NewManager(cfg *Config) *Manager {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30 * time.Second),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &Manager{
		secret: []byte(cfg.Secret),
		ttl:    cfg.AccessExpireTime,
		issuer: cfg.Issuer,
		parser: jwt.NewParser(opts...),
	}
}

// GenerateAccessToken 签发访问令牌，返回令牌和过期时间戳
func (m *Manager) GenerateAccessToken(userID int64, role string) (string, int64, error) {
	now := time.Now()
	exp := now.Add(m.ttl)
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	return signed, exp.Unix(), err
}

// ParseToken 校验并解析令牌，未携带角色的令牌按普通用户处理
func (m *Manager) ParseToken(raw string) (*Claims, error) {
	claims := new(Claims)
	_, err := m.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotActive
	default:
		return nil, ErrTokenInvalid
	}

	if claims.Role == "" {
		claims.Role = RoleUser
	}
	return claims, nil
}
