// Package emailchange orchestrates the two halves of the email-change flow:
// requesting a change (persisted single-use token plus confirmation mail) and
// confirming it (token validation, authoritative remote update, atomic local
// update).
package emailchange

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"signa-backend/internal/config"
	"signa-backend/internal/coresso"
	domainUser "signa-backend/internal/domain/user"
	"signa-backend/internal/logger"
	"signa-backend/internal/mailer"
	appErrors "signa-backend/pkg/errors"
	"signa-backend/pkg/utils"
)

type Service struct {
	userRepo  domainUser.Repository
	emailRepo domainUser.EmailChangeRepository
	sso       coresso.Client
	mail      mailer.Mailer
	config    *config.Config
}

func NewService(
	userRepo domainUser.Repository,
	emailRepo domainUser.EmailChangeRepository,
	sso coresso.Client,
	mail mailer.Mailer,
	cfg *config.Config,
) *Service {
	return &Service{
		userRepo:  userRepo,
		emailRepo: emailRepo,
		sso:       sso,
		mail:      mail,
		config:    cfg,
	}
}

// Request validates the new address, persists a pending single-use record and
// sends the confirmation link. The record is persisted before the mail goes
// out: if delivery fails the link stays redeemable and an operator can resend
// it.
func (s *Service) Request(ctx context.Context, username, newEmail string) error {
	u, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	if err := s.validateNewEmail(ctx, u, newEmail); err != nil {
		return err
	}

	request := &domainUser.EmailChangeRequest{
		UserID:   u.ID,
		NewEmail: newEmail,
		Token:    uuid.New().String(),
	}

	if err := s.emailRepo.Create(ctx, request); err != nil {
		return fmt.Errorf("failed to persist email change request: %w", err)
	}

	link := fmt.Sprintf("%s/confirmar-email/%s", s.config.App.PublicURL, request.Token)

	logger.Info("Solicitação de alteração de e-mail registrada",
		zap.String("username", u.Username),
		zap.String("event", "email_change_requested"),
	)

	if err := s.mail.SendEmailChangeConfirmation(newEmail, u.Name, link); err != nil {
		return appErrors.NewInternalError("Erro inesperado.", err)
	}

	return nil
}

// validateNewEmail applies the checks in order, each with its own message.
func (s *Service) validateNewEmail(ctx context.Context, u *domainUser.User, newEmail string) error {
	if newEmail == "" {
		return appErrors.NewAppError(appErrors.CodeValidation, "O campo de e-mail é obrigatório.", nil)
	}

	if u.EmailAddress() == newEmail {
		return appErrors.NewAppError(appErrors.CodeValidation, "O novo e-mail não pode ser igual ao atual.", nil)
	}

	if !strings.HasSuffix(newEmail, s.config.App.EmailDomain) {
		return appErrors.NewAppError(appErrors.CodeValidation, "Utilize seu e-mail institucional.", nil)
	}

	inUse, err := s.userRepo.EmailInUse(ctx, newEmail, u.ID)
	if err != nil {
		return fmt.Errorf("failed to check email availability: %w", err)
	}
	if inUse {
		return appErrors.NewAppError(appErrors.CodeValidation, domainUser.ErrEmailAlreadyRegistered.Error(), nil)
	}

	if !utils.IsValidEmail(newEmail) {
		return appErrors.NewAppError(appErrors.CodeValidation, "Digite um e-mail válido!", nil)
	}

	return nil
}

// Confirm redeems a token. The remote provider is updated first; only when it
// accepts the change are the mirror's email and the used flag committed, in
// one transaction. A local failure after the remote change succeeded is an
// accepted inconsistency window, logged loudly and surfaced as an internal
// error.
func (s *Service) Confirm(ctx context.Context, tokenValue string) (*domainUser.User, error) {
	request, err := s.emailRepo.GetByToken(ctx, tokenValue)
	if err != nil {
		return nil, err
	}

	u, err := s.userRepo.GetByID(ctx, request.UserID)
	if err != nil {
		return nil, err
	}

	if request.Used {
		return nil, appErrors.ErrTokenAlreadyUsed
	}

	ttl := time.Duration(s.config.App.EmailChangeTokenTTLMinutes) * time.Minute
	if request.ExpiredAt(time.Now(), ttl) {
		return nil, appErrors.ErrTokenExpired
	}

	if err := s.sso.ChangeEmail(ctx, u.Username, request.NewEmail); err != nil {
		logger.Error("Falha ao alterar e-mail no CoreSSO",
			zap.String("username", u.Username),
			zap.Error(err),
			zap.String("event", "email_change_remote_failed"),
		)
		return nil, err
	}

	if err := s.emailRepo.Confirm(ctx, u.ID, request.ID, request.NewEmail); err != nil {
		logger.Error("E-mail alterado no CoreSSO, mas falha ao atualizar espelho local",
			zap.String("username", u.Username),
			zap.Error(err),
			zap.String("event", "email_change_mirror_reconciliation_needed"),
		)
		return nil, appErrors.NewInternalError("Erro inesperado.", err)
	}

	u.Email = &request.NewEmail

	logger.Info("E-mail alterado com sucesso",
		zap.String("username", u.Username),
		zap.String("event", "email_change_success"),
	)

	return u, nil
}
