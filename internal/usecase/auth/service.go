// Package auth orchestrates login against the external identity provider:
// input normalization, authorization-profile gating, local mirror
// reconciliation and session token issuance.
package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"signa-backend/internal/config"
	"signa-backend/internal/coresso"
	domainUser "signa-backend/internal/domain/user"
	"signa-backend/internal/logger"
	appErrors "signa-backend/pkg/errors"
	"signa-backend/pkg/utils"
)

type Service struct {
	userRepo domainUser.Repository
	sso      coresso.Client
	config   *config.Config
}

func NewService(userRepo domainUser.Repository, sso coresso.Client, cfg *config.Config) *Service {
	return &Service{
		userRepo: userRepo,
		sso:      sso,
		config:   cfg,
	}
}

// Login runs the full authentication sequence. The external provider is
// authoritative: only after it accepts the credentials is the local mirror
// touched, inside a single transaction.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Credenciais inválidas", err)
	}

	rf, err := utils.NormalizeRF(req.Username)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, err.Error(), nil)
	}

	profile, err := s.sso.Authenticate(ctx, rf, req.Password)
	if err != nil {
		return nil, err
	}

	if !s.profileAuthorized(profile.Codes) {
		logger.Warn("Login com perfil não autorizado",
			zap.String("username", rf),
			zap.Strings("perfis", profile.Codes),
			zap.String("event", "login_rejected_unauthorized_profile"),
		)
		return nil, appErrors.ErrUnauthorizedProfile
	}

	u, created, err := s.userRepo.UpsertFromProvider(ctx, rf, req.Password, domainUser.ProviderProfile{
		Name:  profile.Name,
		Email: optional(profile.Email),
		CPF:   optional(profile.CPF),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mirror user: %w", err)
	}

	tokenPair, err := utils.GenerateTokenPair(
		u.Username,
		u.Name,
		u.EmailAddress(),
		s.config.JWT.Secret,
		s.config.JWT.AccessExpiryMinutes,
		s.config.JWT.RefreshExpiryHours,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	logger.Info("Login concluído com sucesso",
		zap.String("username", u.Username),
		zap.Bool("created", created),
		zap.String("event", "login_success"),
	)

	return &LoginResponse{
		Token: tokenPair.AccessToken,
		Name:  u.Name,
		Email: u.EmailAddress(),
		CPF:   u.CPFNumber(),
	}, nil
}

// Me returns the mirrored profile of the authenticated user.
func (s *Service) Me(ctx context.Context, username string) (*MeResponse, error) {
	u, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	return toMeResponse(u), nil
}

// profileAuthorized fails closed: a missing or empty profile list is treated
// the same as the configured code not being present.
func (s *Service) profileAuthorized(codes []string) bool {
	if len(codes) == 0 {
		return false
	}

	for _, code := range codes {
		if code == s.config.CoreSSO.SystemCode {
			return true
		}
	}

	return false
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
