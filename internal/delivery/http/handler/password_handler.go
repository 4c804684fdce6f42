package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainUser "signa-backend/internal/domain/user"
	"signa-backend/internal/logger"
	"signa-backend/internal/middleware"
	"signa-backend/internal/usecase/password"
	appErrors "signa-backend/pkg/errors"
	"signa-backend/pkg/utils"
)

type PasswordHandler struct {
	service *password.Service
}

func NewPasswordHandler(service *password.Service) *PasswordHandler {
	return &PasswordHandler{service: service}
}

func (h *PasswordHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/esqueci-senha", h.Forgot)
	router.POST("/redefinir-senha", h.Reset)
}

func (h *PasswordHandler) Forgot(c *gin.Context) {
	var req password.ForgotRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Informe um RF válido (7 ou 8 dígitos).")
		return
	}

	req.Username = utils.SanitizeString(req.Username)

	detail, err := h.service.Forgot(c.Request.Context(), &req)
	if err != nil {
		h.respondForgotError(c, err)
		return
	}

	utils.ErrorResponse(c, http.StatusOK, detail)
}

func (h *PasswordHandler) respondForgotError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainUser.ErrUserNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())

	case appErrors.HasCode(err, appErrors.CodeValidation):
		var appErr *appErrors.AppError
		errors.As(err, &appErr)
		utils.ErrorResponse(c, http.StatusBadRequest, appErr.Message)

	default:
		logger.Error("Erro inesperado no fluxo de esqueci minha senha",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Erro interno no servidor.")
	}
}

func (h *PasswordHandler) Reset(c *gin.Context) {
	var req password.ResetRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"detail": "Dados inválidos.",
		})
		return
	}

	if err := h.service.Reset(c.Request.Context(), &req); err != nil {
		h.respondResetError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"detail": "Senha redefinida com sucesso.",
	})
}

// respondResetError echoes the specific failure: token and upstream messages
// are considered safe and actionable on this flow.
func (h *PasswordHandler) respondResetError(c *gin.Context, err error) {
	var detail string
	status := http.StatusBadRequest

	var appErr *appErrors.AppError
	switch {
	case errors.Is(err, appErrors.ErrPasswordMismatch),
		errors.Is(err, appErrors.ErrUIDInvalid),
		errors.Is(err, appErrors.ErrTokenInvalid),
		errors.Is(err, appErrors.ErrTokenExpired),
		errors.Is(err, domainUser.ErrUserNotFound):
		detail = err.Error()

	case errors.As(err, &appErr) && appErr.Code != appErrors.CodeInternal:
		detail = appErr.Message

	default:
		logger.Error("Erro inesperado na redefinição de senha",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		status = http.StatusInternalServerError
		detail = "Erro interno"
	}

	c.JSON(status, gin.H{
		"status": "error",
		"detail": detail,
	})
}
