package service

import (
	"context"
	"crypto/subtle"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/util"
	"bodegaclick/pkg/logger"
)

// AuthService logs in the single configured operator.
type AuthService struct {
	username     string
	passwordHash string
	jwtManager   *util.JWTManager
}

func NewAuthService(username, passwordHash string, jwtManager *util.JWTManager) *AuthService {
	return &AuthService{
		username:     username,
		passwordHash: passwordHash,
		jwtManager:   jwtManager,
	}
}

func (s *AuthService) Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error) {
	if s.passwordHash == "" {
		return nil, ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.username)) == 1
	passOK := util.CheckPassword(req.Password, s.passwordHash)
	if !userOK || !passOK {
		logger.Warn().Str("username", req.Username).Msg("Failed login attempt")
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtManager.GenerateToken(s.username, util.RoleOperator)
	if err != nil {
		return nil, err
	}
	return &entity.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.jwtManager.TokenDuration().Seconds()),
	}, nil
}
