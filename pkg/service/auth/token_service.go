/*
 * @Description: 令牌服务（签发访问/刷新令牌对）
 * @Author: 星河
 * @Date: 2025-03-19 10:28:44
 * @LastEditTime: 2025-06-10 12:05:31
 * @LastEditors: 星河
 */
package auth

import (
	"fmt"
	"time"

	"github.com/xinghe-v/xinghe-video/internal/pkg/auth"
	"github.com/xinghe-v/xinghe-video/pkg/config"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
	"github.com/xinghe-v/xinghe-video/pkg/idgen"
)

// TokenPair 一次签发的令牌对
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// ITokenService 负责令牌的签发与校验
type ITokenService interface {
	IssueTokenPair(user *model.User) (*TokenPair, error)
	Verify(tokenString string) (*auth.CustomClaims, error)
}

type tokenService struct {
	secret []byte
}

func NewTokenService(cfg *config.Config) (ITokenService, error) {
	secret := cfg.GetString(config.KeyJWTSecret)
	if secret == "" {
		return nil, fmt.Errorf("未配置 JWT 密钥 (System.JWTSecret)")
	}
	return &tokenService{secret: []byte(secret)}, nil
}

func (s *tokenService) IssueTokenPair(user *model.User) (*TokenPair, error) {
	userPublicID, err := idgen.GeneratePublicID(user.ID, idgen.EntityTypeUser)
	if err != nil {
		return nil, err
	}
	groupPublicID, err := idgen.GeneratePublicID(user.UserGroupID, idgen.EntityTypeUserGroup)
	if err != nil {
		return nil, err
	}

	accessToken, expiresAt, err := auth.GenerateToken(s.secret, userPublicID, groupPublicID, auth.AccessTokenDuration)
	if err != nil {
		return nil, err
	}
	refreshToken, _, err := auth.GenerateToken(s.secret, userPublicID, groupPublicID, auth.RefreshTokenDuration)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *tokenService) Verify(tokenString string) (*auth.CustomClaims, error) {
	return auth.ParseToken(s.secret, tokenString)
}
