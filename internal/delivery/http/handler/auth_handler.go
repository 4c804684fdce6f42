package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainUser "signa-backend/internal/domain/user"
	"signa-backend/internal/logger"
	"signa-backend/internal/middleware"
	"signa-backend/internal/usecase/auth"
	appErrors "signa-backend/pkg/errors"
	"signa-backend/pkg/utils"
)

// InstabilityMessage replaces any upstream detail on the login path, so
// integration internals never leak through the public surface.
const InstabilityMessage = "Parece que estamos com uma instabilidade no momento. " +
	"Tente entrar novamente daqui a pouco."

type AuthHandler struct {
	service *auth.Service
}

func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/login", h.Login)
}

func (h *AuthHandler) RegisterProfileRoutes(router *gin.RouterGroup) {
	router.GET("/me", h.Me)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Credenciais inválidas")
		return
	}

	req.Username = utils.SanitizeString(req.Username)

	response, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		h.respondLoginError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *AuthHandler) Me(c *gin.Context) {
	username := middleware.GetUsername(c)
	if username == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Usuário não autenticado")
		return
	}

	profile, err := h.service.Me(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, err.Error())
			return
		}

		logger.Error("Erro ao consultar perfil do usuário autenticado",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Erro interno")
		return
	}

	c.JSON(http.StatusOK, profile)
}

// respondLoginError maps the login error taxonomy to the HTTP surface.
// Expected rejections are logged at warning level, everything else at error;
// upstream detail is logged but never echoed.
func (h *AuthHandler) respondLoginError(c *gin.Context, err error) {
	requestID := middleware.GetRequestID(c)

	switch {
	case errors.Is(err, appErrors.ErrInvalidCredentials):
		utils.ErrorResponse(c, http.StatusUnauthorized, err.Error())

	case errors.Is(err, appErrors.ErrUnauthorizedProfile):
		utils.ErrorResponse(c, http.StatusUnauthorized, err.Error())

	case appErrors.HasCode(err, appErrors.CodeValidation):
		var appErr *appErrors.AppError
		errors.As(err, &appErr)
		utils.ErrorResponse(c, http.StatusBadRequest, appErr.Message)

	case appErrors.HasCode(err, appErrors.CodeIntegration),
		appErrors.HasCode(err, appErrors.CodeCommunication):
		logger.Warn("Falha na autenticação",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusBadRequest, InstabilityMessage)

	default:
		logger.Error("Erro interno no login",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Erro interno")
	}
}
