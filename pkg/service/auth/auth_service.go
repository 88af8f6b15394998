/*
 * @Description: 认证服务（登录、注册、令牌刷新）
 * @Author: 星河
 * @Date: 2025-03-19 11:02:15
 * @LastEditTime: 2025-06-21 19:22:48
 * @LastEditors: 星河
 */
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xinghe-v/xinghe-video/internal/pkg/security"
	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
	"github.com/xinghe-v/xinghe-video/pkg/domain/repository"
	"github.com/xinghe-v/xinghe-video/pkg/idgen"
)

// RegisterRequest 注册请求体
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=8,max=64"`
	Nickname string `json:"nickname,omitempty"`
	Email    string `json:"email,omitempty"`
}

// IAuthService 定义了账号相关的业务操作
type IAuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*model.UserInfo, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*model.LoginResponse, error)
}

type authService struct {
	userRepo repository.UserRepository
	tokens   ITokenService
}

func NewAuthService(userRepo repository.UserRepository, tokens ITokenService) IAuthService {
	return &authService{userRepo: userRepo, tokens: tokens}
}

func toUserInfo(user *model.User) (*model.UserInfo, error) {
	publicID, err := idgen.GeneratePublicID(user.ID, idgen.EntityTypeUser)
	if err != nil {
		return nil, err
	}
	return &model.UserInfo{
		ID:       publicID,
		Username: user.Username,
		Nickname: user.Nickname,
		IsAdmin:  user.UserGroupID == model.UserGroupAdmin,
	}, nil
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*model.UserInfo, error) {
	if _, err := s.userRepo.FindByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("%w: 用户名已被占用", constant.ErrConflict)
	} else if !errors.Is(err, constant.ErrNotFound) {
		return nil, err
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("生成密码哈希失败: %w", err)
	}

	nickname := req.Nickname
	if nickname == "" {
		nickname = req.Username
	}
	user := &model.User{
		Username:     req.Username,
		PasswordHash: hash,
		Nickname:     nickname,
		Email:        req.Email,
		UserGroupID:  model.UserGroupDefault,
		Status:       model.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return toUserInfo(user)
}

func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, constant.ErrNotFound) {
			// 不暴露用户名是否存在
			return nil, fmt.Errorf("%w: 用户名或密码错误", constant.ErrUnauthorized)
		}
		return nil, err
	}
	if !security.CheckPassword(req.Password, user.PasswordHash) {
		return nil, fmt.Errorf("%w: 用户名或密码错误", constant.ErrUnauthorized)
	}
	if user.Status != model.UserStatusActive {
		return nil, fmt.Errorf("%w: 账号已被禁用", constant.ErrForbidden)
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		return nil, err
	}
	return s.buildLoginResponse(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*model.LoginResponse, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, constant.ErrInvalidToken
	}
	userID, entityType, err := idgen.DecodePublicID(claims.UserID)
	if err != nil || entityType != idgen.EntityTypeUser {
		return nil, constant.ErrInvalidToken
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, constant.ErrInvalidToken
	}
	if user.Status != model.UserStatusActive {
		return nil, fmt.Errorf("%w: 账号已被禁用", constant.ErrForbidden)
	}
	return s.buildLoginResponse(user)
}

func (s *authService) buildLoginResponse(user *model.User) (*model.LoginResponse, error) {
	pair, err := s.tokens.IssueTokenPair(user)
	if err != nil {
		return nil, err
	}
	info, err := toUserInfo(user)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt.Unix(),
		User:         info,
	}, nil
}
