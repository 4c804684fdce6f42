// Package password orchestrates the password-reset flow. The external
// provider is the source of truth: the remote reset always happens before the
// local mirror is touched, and a mirror failure after a successful remote
// reset is reported as a reconciliation event, never as a user-facing error.
package password

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"signa-backend/internal/config"
	"signa-backend/internal/coresso"
	domainUser "signa-backend/internal/domain/user"
	"signa-backend/internal/logger"
	"signa-backend/internal/mailer"
	"signa-backend/internal/token"
	appErrors "signa-backend/pkg/errors"
	"signa-backend/pkg/utils"
)

// EmailNotRegisteredMessage instructs the user to involve an administrator
// when no deliverable address exists anywhere.
const EmailNotRegisteredMessage = "E-mail não encontrado! <br/>" +
	"Para resolver este problema, entre em contato com o administrador do sistema."

type Service struct {
	userRepo domainUser.Repository
	sso      coresso.Client
	mail     mailer.Mailer
	tokens   *token.ResetIssuer
	config   *config.Config
}

func NewService(
	userRepo domainUser.Repository,
	sso coresso.Client,
	mail mailer.Mailer,
	tokens *token.ResetIssuer,
	cfg *config.Config,
) *Service {
	return &Service{
		userRepo: userRepo,
		sso:      sso,
		mail:     mail,
		tokens:   tokens,
		config:   cfg,
	}
}

// Forgot resolves a deliverable email for the user (provider first, mirror as
// fallback), issues a reset token and sends the recovery link. The returned
// detail embeds an anonymized echo of the address.
func (s *Service) Forgot(ctx context.Context, req *ForgotRequest) (string, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return "", appErrors.NewAppError(appErrors.CodeValidation, "Informe um RF válido (7 ou 8 dígitos).", err)
	}

	u, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		logger.Warn("RF não encontrado no banco local",
			zap.String("username", req.Username),
			zap.String("event", "password_reset_user_not_found"),
		)
		return "", err
	}

	email := s.resolveEmail(ctx, u)
	if email == "" {
		logger.Warn("RF sem e-mail cadastrado em nenhuma fonte",
			zap.String("username", u.Username),
			zap.String("event", "password_reset_email_not_registered"),
		)
		return "", appErrors.NewAppError(appErrors.CodeValidation, EmailNotRegisteredMessage, nil)
	}

	uid, resetToken := s.tokens.Issue(u)
	link := fmt.Sprintf("%s/recuperar-senha/%s/%s", s.config.App.PublicURL, uid, resetToken)

	// Delivery is best-effort: the token already exists and stays redeemable,
	// so a send failure must not fail the request.
	if err := s.mail.SendPasswordReset(email, u.FirstName(), link); err != nil {
		logger.Error("Falha ao enviar e-mail de recuperação de senha",
			zap.String("username", u.Username),
			zap.Error(err),
			zap.String("event", "password_reset_email_failed"),
		)
	}

	logger.Info("Token de recuperação de senha gerado",
		zap.String("username", u.Username),
		zap.String("event", "password_reset_requested"),
	)

	detail := fmt.Sprintf(
		"Enviamos um link de recuperação para %s. <br/>Verifique sua caixa de entrada ou spam.",
		utils.AnonymizeEmail(email),
	)

	return detail, nil
}

// resolveEmail prefers the authoritative provider address and falls back to
// the local mirror when the provider cannot answer.
func (s *Service) resolveEmail(ctx context.Context, u *domainUser.User) string {
	data, err := s.sso.FetchProfile(ctx, u.Username)
	if err != nil {
		logger.Warn("Falha ao consultar e-mail no CoreSSO, usando espelho local",
			zap.String("username", u.Username),
			zap.Error(err),
		)
	} else if data.Email != "" {
		return data.Email
	}

	return u.EmailAddress()
}

// Reset validates the uid/token pair, resets the password on the external
// provider and then updates the local mirror. A mirror failure after the
// remote reset succeeded is logged as a reconciliation event and the call
// still reports success: the system of record has already been updated.
func (s *Service) Reset(ctx context.Context, req *ResetRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.NewAppError(appErrors.CodeValidation, "Dados inválidos.", err)
	}

	if req.NewPass != req.NewPassConfirm {
		return appErrors.ErrPasswordMismatch
	}

	u, err := s.tokens.Validate(ctx, req.UID, req.Token, s.userRepo)
	if err != nil {
		logger.Warn("Token de redefinição de senha inválido",
			zap.Error(err),
			zap.String("event", "password_reset_invalid_token"),
		)
		return err
	}

	if err := s.sso.ResetPassword(ctx, u.Username, req.NewPass); err != nil {
		logger.Error("Falha ao redefinir senha no CoreSSO",
			zap.String("username", u.Username),
			zap.Error(err),
			zap.String("event", "password_reset_remote_failed"),
		)
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, u.ID, req.NewPass); err != nil {
		logger.Error("Senha redefinida no CoreSSO, mas falha ao atualizar espelho local",
			zap.String("username", u.Username),
			zap.Error(err),
			zap.String("event", "password_reset_mirror_reconciliation_needed"),
		)
	}

	logger.Info("Redefinição de senha concluída",
		zap.String("username", u.Username),
		zap.String("event", "password_reset_success"),
	)

	return nil
}
