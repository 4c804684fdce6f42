package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"signa-backend/internal/config"
	"signa-backend/internal/coresso"
	"signa-backend/internal/domain/user"
	"signa-backend/internal/logger"
	"signa-backend/internal/middleware"
	"signa-backend/internal/token"
	"signa-backend/internal/usecase/auth"
	"signa-backend/internal/usecase/emailchange"
	"signa-backend/internal/usecase/password"
	"signa-backend/pkg/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Logger = zap.NewNop()
	os.Exit(m.Run())
}

type fakeUserRepo struct {
	users     map[string]*user.User
	upsertErr error
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
	for _, u := range f.users {
		if u.ID != excludeUserID && u.EmailAddress() == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) UpsertFromProvider(ctx context.Context, username, pass string, profile user.ProviderProfile) (*user.User, bool, error) {
	if f.upsertErr != nil {
		return nil, false, f.upsertErr
	}

	now := time.Now()
	u, ok := f.users[username]
	if !ok {
		u = &user.User{ID: uuid.New(), Username: username}
		f.users[username] = u
	}
	u.Name = profile.Name
	u.Email = profile.Email
	u.CPF = profile.CPF
	hashed, err := utils.EnsureHashed(pass)
	if err != nil {
		return nil, false, err
	}
	u.PasswordHashed = hashed
	u.LastLogin = &now

	return u, !ok, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, pass string) error {
	for _, u := range f.users {
		if u.ID == userID {
			hashed, err := utils.EnsureHashed(pass)
			if err != nil {
				return err
			}
			u.PasswordHashed = hashed
			return nil
		}
	}
	return user.ErrUserNotFound
}

type fakeEmailChangeRepo struct {
	requests map[string]*user.EmailChangeRequest
	userRepo *fakeUserRepo
}

func newFakeEmailChangeRepo(userRepo *fakeUserRepo) *fakeEmailChangeRepo {
	return &fakeEmailChangeRepo{
		requests: map[string]*user.EmailChangeRequest{},
		userRepo: userRepo,
	}
}

func (f *fakeEmailChangeRepo) Create(ctx context.Context, request *user.EmailChangeRequest) error {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now()
	}
	f.requests[request.Token] = request
	return nil
}

func (f *fakeEmailChangeRepo) GetByToken(ctx context.Context, tokenValue string) (*user.EmailChangeRequest, error) {
	request, ok := f.requests[tokenValue]
	if !ok {
		return nil, user.ErrEmailChangeNotFound
	}
	return request, nil
}

func (f *fakeEmailChangeRepo) Confirm(ctx context.Context, userID, requestID uuid.UUID, newEmail string) error {
	for _, request := range f.requests {
		if request.ID == requestID {
			request.Used = true
		}
	}
	for _, u := range f.userRepo.users {
		if u.ID == userID {
			u.Email = &newEmail
		}
	}
	return nil
}

type fakeSSO struct {
	profile    *coresso.Profile
	authErr    error
	userData   *coresso.UserData
	profileErr error
	resetErr   error
	changeErr  error
}

func (f *fakeSSO) Authenticate(ctx context.Context, login, pass string) (*coresso.Profile, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.profile, nil
}

func (f *fakeSSO) FetchProfile(ctx context.Context, login string) (*coresso.UserData, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.userData, nil
}

func (f *fakeSSO) ResetPassword(ctx context.Context, login, newPassword string) error {
	return f.resetErr
}

func (f *fakeSSO) ChangeEmail(ctx context.Context, login, newEmail string) error {
	return f.changeErr
}

type fakeMailer struct {
	sendErr error
}

func (f *fakeMailer) SendPasswordReset(to, name, link string) error {
	return f.sendErr
}

func (f *fakeMailer) SendEmailChangeConfirmation(to, name, link string) error {
	return f.sendErr
}

// testEnv wires the handlers onto a router the same way SetupRoutes does,
// with fakes behind the services.
type testEnv struct {
	router    *gin.Engine
	cfg       *config.Config
	userRepo  *fakeUserRepo
	emailRepo *fakeEmailChangeRepo
	sso       *fakeSSO
	mail      *fakeMailer
	issuer    *token.ResetIssuer
}

func newTestEnv(users ...*user.User) *testEnv {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.AccessExpiryMinutes = 60
	cfg.JWT.RefreshExpiryHours = 168
	cfg.CoreSSO.SystemCode = "SIGNA"
	cfg.App.PublicURL = "https://signa.sme.prefeitura.sp.gov.br"
	cfg.App.EmailDomain = "@sme.prefeitura.sp.gov.br"
	cfg.App.EmailChangeTokenTTLMinutes = 30
	cfg.App.ResetTokenTTLHours = 24

	env := &testEnv{
		cfg:      cfg,
		userRepo: newFakeUserRepo(users...),
		sso:      &fakeSSO{},
		mail:     &fakeMailer{},
		issuer:   token.NewResetIssuer(cfg.JWT.Secret, 24*time.Hour),
	}
	env.emailRepo = newFakeEmailChangeRepo(env.userRepo)

	authHandler := NewAuthHandler(auth.NewService(env.userRepo, env.sso, cfg))
	passwordHandler := NewPasswordHandler(password.NewService(env.userRepo, env.sso, env.mail, env.issuer, cfg))
	emailChangeHandler := NewEmailChangeHandler(emailchange.NewService(env.userRepo, env.emailRepo, env.sso, env.mail, cfg))

	router := gin.New()
	api := router.Group("/api")
	{
		authHandler.RegisterRoutes(api)
		passwordHandler.RegisterRoutes(api)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			authHandler.RegisterProfileRoutes(protected)
			emailChangeHandler.RegisterRoutes(protected)
		}
	}
	env.router = router

	return env
}

func (e *testEnv) accessToken(t *testing.T, u *user.User) string {
	t.Helper()
	pair, err := utils.GenerateTokenPair(u.Username, u.Name, u.EmailAddress(), e.cfg.JWT.Secret, 60, 168)
	require.NoError(t, err)
	return pair.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func testEnvUser() *user.User {
	email := "maria@sme.prefeitura.sp.gov.br"
	cpf := "12345678901"
	lastLogin := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	return &user.User{
		ID:             uuid.New(),
		Username:       "1234567",
		Name:           "Maria da Silva",
		Email:          &email,
		CPF:            &cpf,
		PasswordHashed: "$2a$10$abcdefghijklmnopqrstuv",
		LastLogin:      &lastLogin,
	}
}

var errBoom = errors.New("boom")
