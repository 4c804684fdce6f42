package password

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"signa-backend/internal/config"
	"signa-backend/internal/coresso"
	"signa-backend/internal/domain/user"
	"signa-backend/internal/logger"
	"signa-backend/internal/token"
	appErrors "signa-backend/pkg/errors"
	"signa-backend/pkg/utils"
)

func TestMain(m *testing.M) {
	logger.Logger = zap.NewNop()
	os.Exit(m.Run())
}

type fakeUserRepo struct {
	users             map[string]*user.User
	updatePasswordErr error
	passwordUpdates   int
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*user.User{}}
	for _, u := range users {
		repo.users[u.Username] = u
	}
	return repo
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	for _, u := range f.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (f *fakeUserRepo) EmailInUse(ctx context.Context, email string, excludeUserID uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeUserRepo) UpsertFromProvider(ctx context.Context, username, password string, profile user.ProviderProfile) (*user.User, bool, error) {
	return nil, false, errors.New("not implemented")
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, password string) error {
	f.passwordUpdates++
	if f.updatePasswordErr != nil {
		return f.updatePasswordErr
	}
	for _, u := range f.users {
		if u.ID == userID {
			hashed, err := utils.EnsureHashed(password)
			if err != nil {
				return err
			}
			u.PasswordHashed = hashed
			return nil
		}
	}
	return user.ErrUserNotFound
}

type fakeSSO struct {
	profileData    *coresso.UserData
	profileErr     error
	resetErr       error
	resetCalls     int
	lastResetLogin string
	lastResetPass  string
}

func (f *fakeSSO) Authenticate(ctx context.Context, login, password string) (*coresso.Profile, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeSSO) FetchProfile(ctx context.Context, login string) (*coresso.UserData, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profileData, nil
}

func (f *fakeSSO) ResetPassword(ctx context.Context, login, newPassword string) error {
	f.resetCalls++
	f.lastResetLogin = login
	f.lastResetPass = newPassword
	return f.resetErr
}

func (f *fakeSSO) ChangeEmail(ctx context.Context, login, newEmail string) error {
	return errors.New("not implemented")
}

type fakeMailer struct {
	resetCalls int
	lastTo     string
	lastLink   string
	sendErr    error
}

func (f *fakeMailer) SendPasswordReset(to, name, link string) error {
	f.resetCalls++
	f.lastTo = to
	f.lastLink = link
	return f.sendErr
}

func (f *fakeMailer) SendEmailChangeConfirmation(to, name, link string) error {
	return errors.New("not implemented")
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.PublicURL = "https://signa.sme.prefeitura.sp.gov.br"
	return cfg
}

func testUser() *user.User {
	email := "maria@sme.prefeitura.sp.gov.br"
	lastLogin := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	return &user.User{
		ID:             uuid.New(),
		Username:       "1234567",
		Name:           "Maria da Silva",
		Email:          &email,
		PasswordHashed: "$2a$10$abcdefghijklmnopqrstuv",
		LastLogin:      &lastLogin,
	}
}

func newService(repo *fakeUserRepo, sso *fakeSSO, mail *fakeMailer) *Service {
	issuer := token.NewResetIssuer("test-secret", 24*time.Hour)
	return NewService(repo, sso, mail, issuer, testConfig())
}

func TestForgotSendsLinkWithProviderEmail(t *testing.T) {
	u := testUser()
	repo := newFakeUserRepo(u)
	sso := &fakeSSO{profileData: &coresso.UserData{Email: "provedor@sme.prefeitura.sp.gov.br"}}
	mail := &fakeMailer{}

	svc := newService(repo, sso, mail)
	detail, err := svc.Forgot(context.Background(), &ForgotRequest{Username: "1234567"})
	require.NoError(t, err)

	require.Equal(t, 1, mail.resetCalls)
	require.Equal(t, "provedor@sme.prefeitura.sp.gov.br", mail.lastTo,
		"provider address must win over the mirror")
	require.True(t, strings.HasPrefix(mail.lastLink,
		"https://signa.sme.prefeitura.sp.gov.br/recuperar-senha/"))

	require.Contains(t, detail, "pro*****@sme.prefeitura.sp.gov.br")
	require.NotContains(t, detail, "provedor@")
}

func TestForgotFallsBackToMirrorEmail(t *testing.T) {
	u := testUser()
	repo := newFakeUserRepo(u)
	sso := &fakeSSO{profileErr: appErrors.NewCommunicationError("CoreSSO fora do ar", nil)}
	mail := &fakeMailer{}

	svc := newService(repo, sso, mail)
	_, err := svc.Forgot(context.Background(), &ForgotRequest{Username: "1234567"})
	require.NoError(t, err)
	require.Equal(t, "maria@sme.prefeitura.sp.gov.br", mail.lastTo)
}

func TestForgotUserNotFound(t *testing.T) {
	svc := newService(newFakeUserRepo(), &fakeSSO{}, &fakeMailer{})

	_, err := svc.Forgot(context.Background(), &ForgotRequest{Username: "7654321"})
	require.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestForgotNoEmailAnywhere(t *testing.T) {
	u := testUser()
	u.Email = nil
	repo := newFakeUserRepo(u)
	sso := &fakeSSO{profileData: &coresso.UserData{}}
	mail := &fakeMailer{}

	svc := newService(repo, sso, mail)
	_, err := svc.Forgot(context.Background(), &ForgotRequest{Username: "1234567"})

	var appErr *appErrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.CodeValidation, appErr.Code)
	require.Equal(t, EmailNotRegisteredMessage, appErr.Message)
	require.Zero(t, mail.resetCalls)
}

func TestForgotMailFailureStillSucceeds(t *testing.T) {
	u := testUser()
	repo := newFakeUserRepo(u)
	sso := &fakeSSO{profileData: &coresso.UserData{Email: u.EmailAddress()}}
	mail := &fakeMailer{sendErr: errors.New("smtp down")}

	svc := newService(repo, sso, mail)
	detail, err := svc.Forgot(context.Background(), &ForgotRequest{Username: "1234567"})
	require.NoError(t, err)
	require.Contains(t, detail, "Enviamos um link de recuperação")
}

func TestForgotInvalidUsernameLength(t *testing.T) {
	svc := newService(newFakeUserRepo(), &fakeSSO{}, &fakeMailer{})

	for _, username := range []string{"", "123456", "123456789"} {
		_, err := svc.Forgot(context.Background(), &ForgotRequest{Username: username})
		require.True(t, appErrors.HasCode(err, appErrors.CodeValidation), "username %q", username)
	}
}

func TestResetSuccess(t *testing.T) {
	u := testUser()
	repo := newFakeUserRepo(u)
	sso := &fakeSSO{}
	issuer := token.NewResetIssuer("test-secret", 24*time.Hour)
	svc := NewService(repo, sso, &fakeMailer{}, issuer, testConfig())

	uid, tok := issuer.Issue(u)
	err := svc.Reset(context.Background(), &ResetRequest{
		UID:            uid,
		Token:          tok,
		NewPass:        "NovaSenha1",
		NewPassConfirm: "NovaSenha1",
	})
	require.NoError(t, err)

	require.Equal(t, 1, sso.resetCalls)
	require.Equal(t, "1234567", sso.lastResetLogin)
	require.Equal(t, "NovaSenha1", sso.lastResetPass)
	require.True(t, utils.CheckPassword(u.PasswordHashed, "NovaSenha1"),
		"mirror hash must verify against the new password")
}

func TestResetTokenSingleUse(t *testing.T) {
	u := testUser()
	repo := newFakeUserRepo(u)
	issuer := token.NewResetIssuer("test-secret", 24*time.Hour)
	svc := NewService(repo, &fakeSSO{}, &fakeMailer{}, issuer, testConfig())

	uid, tok := issuer.Issue(u)
	req := &ResetRequest{UID: uid, Token: tok, NewPass: "NovaSenha1", NewPassConfirm: "NovaSenha1"}

	require.NoError(t, svc.Reset(context.Background(), req))

	err := svc.Reset(context.Background(), req)
	require.ErrorIs(t, err, appErrors.ErrTokenInvalid,
		"token must stop validating once the password hash changed")
}

func TestResetPasswordMismatch(t *testing.T) {
	u := testUser()
	repo := newFakeUserRepo(u)
	sso := &fakeSSO{}
	issuer := token.NewResetIssuer("test-secret", 24*time.Hour)
	svc := NewService(repo, sso, &fakeMailer{}, issuer, testConfig())

	uid, tok := issuer.Issue(u)
	err := svc.Reset(context.Background(), &ResetRequest{
		UID:            uid,
		Token:          tok,
		NewPass:        "NovaSenha1",
		NewPassConfirm: "OutraSenha2",
	})
	require.ErrorIs(t, err, appErrors.ErrPasswordMismatch)
	require.Zero(t, sso.resetCalls)
}

func TestResetRemoteFailureLeavesMirrorUntouched(t *testing.T) {
	u := testUser()
	originalHash := u.PasswordHashed
	repo := newFakeUserRepo(u)
	sso := &fakeSSO{resetErr: appErrors.NewIntegrationError("Senha fora do padrão exigido.", nil)}
	issuer := token.NewResetIssuer("test-secret", 24*time.Hour)
	svc := NewService(repo, sso, &fakeMailer{}, issuer, testConfig())

	uid, tok := issuer.Issue(u)
	err := svc.Reset(context.Background(), &ResetRequest{
		UID:            uid,
		Token:          tok,
		NewPass:        "NovaSenha1",
		NewPassConfirm: "NovaSenha1",
	})
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.CodeIntegration))
	require.Zero(t, repo.passwordUpdates)
	require.Equal(t, originalHash, u.PasswordHashed)
}

func TestResetMirrorFailureStillSucceeds(t *testing.T) {
	u := testUser()
	repo := newFakeUserRepo(u)
	repo.updatePasswordErr = errors.New("db down")
	sso := &fakeSSO{}
	issuer := token.NewResetIssuer("test-secret", 24*time.Hour)
	svc := NewService(repo, sso, &fakeMailer{}, issuer, testConfig())

	uid, tok := issuer.Issue(u)
	err := svc.Reset(context.Background(), &ResetRequest{
		UID:            uid,
		Token:          tok,
		NewPass:        "NovaSenha1",
		NewPassConfirm: "NovaSenha1",
	})
	require.NoError(t, err, "remote reset already happened, caller must see success")
	require.Equal(t, 1, sso.resetCalls)
}

func TestResetInvalidToken(t *testing.T) {
	u := testUser()
	repo := newFakeUserRepo(u)
	sso := &fakeSSO{}
	issuer := token.NewResetIssuer("test-secret", 24*time.Hour)
	svc := NewService(repo, sso, &fakeMailer{}, issuer, testConfig())

	uid, _ := issuer.Issue(u)
	err := svc.Reset(context.Background(), &ResetRequest{
		UID:            uid,
		Token:          "1a2b3c-deadbeef",
		NewPass:        "NovaSenha1",
		NewPassConfirm: "NovaSenha1",
	})
	require.Error(t, err)
	require.Zero(t, sso.resetCalls)
}
