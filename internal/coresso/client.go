// Package coresso wraps outbound calls to the SME CoreSSO/EOL provider, the
// authoritative system for employee credentials and profile data. Every
// outcome is translated into the application's error taxonomy: invalid
// credentials, integration error (upstream non-2xx), communication error
// (transport failure) or internal error.
package coresso

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"signa-backend/internal/config"
	"signa-backend/internal/logger"
	appErrors "signa-backend/pkg/errors"
)

// Profile is the payload returned by a successful authentication.
type Profile struct {
	Name  string   `json:"nome"`
	Email string   `json:"email"`
	CPF   string   `json:"numeroDocumento"`
	Codes []string `json:"perfis"`
}

// UserData is the payload of the profile lookup endpoint.
type UserData struct {
	Name  string `json:"nome"`
	Email string `json:"email"`
}

// Client is the outbound interface consumed by the orchestrators.
type Client interface {
	Authenticate(ctx context.Context, login, password string) (*Profile, error)
	FetchProfile(ctx context.Context, login string) (*UserData, error)
	ResetPassword(ctx context.Context, login, newPassword string) error
	ChangeEmail(ctx context.Context, login, newEmail string) error
}

type HTTPClient struct {
	baseURL       string
	apiKey        string
	httpClient    *http.Client
	profileClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(cfg *config.CoreSSOConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		profileClient: &http.Client{
			Timeout: time.Duration(cfg.ProfileTimeoutSeconds) * time.Second,
		},
	}
}

func (c *HTTPClient) Authenticate(ctx context.Context, login, password string) (*Profile, error) {
	payload := map[string]string{
		"login": login,
		"senha": password,
	}

	logger.Info("Autenticando no CoreSSO", zap.String("login", login))

	resp, err := c.post(ctx, c.httpClient, "/v1/autenticacao", payload)
	if err != nil {
		logger.Error("Erro de comunicação com CoreSSO", zap.Error(err))
		return nil, appErrors.NewCommunicationError("Erro de comunicação com CoreSSO", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, appErrors.ErrInvalidCredentials
	case resp.StatusCode != http.StatusOK:
		return nil, appErrors.NewIntegrationError(
			fmt.Sprintf("Erro ao autenticar no CoreSSO: %d", resp.StatusCode), nil)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		logger.Error("Erro interno na autenticação", zap.Error(err))
		return nil, appErrors.NewInternalError("Erro interno ao autenticar no CoreSSO", err)
	}

	return &profile, nil
}

func (c *HTTPClient) FetchProfile(ctx context.Context, login string) (*UserData, error) {
	url := fmt.Sprintf("%s/v1/usuarios/%s/dados", c.baseURL, login)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, appErrors.NewInternalError("Erro ao montar consulta ao CoreSSO", err)
	}
	c.setHeaders(req)

	resp, err := c.profileClient.Do(req)
	if err != nil {
		return nil, appErrors.NewCommunicationError("Erro de comunicação com CoreSSO", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, appErrors.NewIntegrationError(
			fmt.Sprintf("Erro ao consultar usuário no CoreSSO: %d", resp.StatusCode), nil)
	}

	var data UserData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, appErrors.NewIntegrationError("Resposta inválida do CoreSSO", err)
	}

	return &data, nil
}

func (c *HTTPClient) ResetPassword(ctx context.Context, login, newPassword string) error {
	if login == "" {
		return appErrors.NewIntegrationError("Login não informado para redefinição de senha", nil)
	}
	if newPassword == "" {
		return appErrors.NewIntegrationError("Senha não informada para redefinição de senha", nil)
	}

	payload := map[string]string{
		"login": login,
		"senha": newPassword,
	}

	return c.mutate(ctx, "/v1/alterar-senha", payload, "Erro ao redefinir senha no CoreSSO")
}

func (c *HTTPClient) ChangeEmail(ctx context.Context, login, newEmail string) error {
	if login == "" {
		return appErrors.NewIntegrationError("Login não informado para alteração de e-mail", nil)
	}
	if newEmail == "" {
		return appErrors.NewIntegrationError("E-mail não informado para alteração de e-mail", nil)
	}

	payload := map[string]string{
		"login": login,
		"email": newEmail,
	}

	return c.mutate(ctx, "/v1/alterar-email", payload, "Erro ao alterar e-mail no CoreSSO")
}

// mutate posts a credential-change request. Upstream failures come back as
// integration errors carrying the upstream message; these are considered safe
// to echo on the credential-change flows.
func (c *HTTPClient) mutate(ctx context.Context, path string, payload map[string]string, genericMessage string) error {
	resp, err := c.post(ctx, c.httpClient, path, payload)
	if err != nil {
		return appErrors.NewIntegrationError(genericMessage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return appErrors.NewIntegrationError(extractErrorMessage(resp.Body, genericMessage), nil)
	}

	return nil
}

func (c *HTTPClient) post(ctx context.Context, client *http.Client, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	return client.Do(req)
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("accept", "application/json")
	req.Header.Set("x-api-eol-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json-patch+json")
}

// extractErrorMessage best-effort unwraps the provider's JSON error envelope.
func extractErrorMessage(body io.Reader, fallback string) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4<<10))
	if err != nil || len(raw) == 0 {
		return fallback
	}

	var envelope struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Erro    string `json:"erro"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		switch {
		case envelope.Message != "":
			return envelope.Message
		case envelope.Detail != "":
			return envelope.Detail
		case envelope.Erro != "":
			return envelope.Erro
		}
	}

	return fallback
}
