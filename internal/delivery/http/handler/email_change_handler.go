package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainUser "signa-backend/internal/domain/user"
	"signa-backend/internal/logger"
	"signa-backend/internal/middleware"
	"signa-backend/internal/usecase/emailchange"
	appErrors "signa-backend/pkg/errors"
	"signa-backend/pkg/utils"
)

type EmailChangeHandler struct {
	service *emailchange.Service
}

func NewEmailChangeHandler(service *emailchange.Service) *EmailChangeHandler {
	return &EmailChangeHandler{service: service}
}

func (h *EmailChangeHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/alteracao-email")
	{
		group.POST("/solicitar", h.Request)
		group.PUT("/validar/:token", h.Confirm)
	}
}

func (h *EmailChangeHandler) Request(c *gin.Context) {
	username := middleware.GetUsername(c)
	if username == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Usuário não autenticado")
		return
	}

	var req emailchange.RequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "O campo de e-mail é obrigatório.")
		return
	}

	req.NewEmail = utils.SanitizeEmail(req.NewEmail)

	if err := h.service.Request(c.Request.Context(), username, req.NewEmail); err != nil {
		h.respondRequestError(c, err)
		return
	}

	utils.MessageResponse(c, http.StatusCreated, "E-mail de confirmação enviado com sucesso.")
}

func (h *EmailChangeHandler) respondRequestError(c *gin.Context, err error) {
	switch {
	case appErrors.HasCode(err, appErrors.CodeValidation):
		var appErr *appErrors.AppError
		errors.As(err, &appErr)
		utils.ErrorResponse(c, http.StatusBadRequest, appErr.Message)

	default:
		logger.Error("Erro na solicitação de alteração de e-mail",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Erro inesperado.")
	}
}

func (h *EmailChangeHandler) Confirm(c *gin.Context) {
	token := c.Param("token")

	u, err := h.service.Confirm(c.Request.Context(), token)
	if err != nil {
		h.respondConfirmError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "E-mail alterado com sucesso.",
		"email":   u.EmailAddress(),
	})
}

func (h *EmailChangeHandler) respondConfirmError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainUser.ErrEmailChangeNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())

	case errors.Is(err, appErrors.ErrTokenAlreadyUsed),
		errors.Is(err, appErrors.ErrTokenExpired):
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())

	case appErrors.HasCode(err, appErrors.CodeIntegration),
		appErrors.HasCode(err, appErrors.CodeCommunication):
		// Remote change failed, nothing was committed locally: upstream
		// detail is safe and useful on this flow.
		var appErr *appErrors.AppError
		errors.As(err, &appErr)
		logger.Error("Erro na integração SME para alteração de e-mail",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusBadRequest, appErr.Message)

	default:
		logger.Error("Erro inesperado na confirmação de alteração de e-mail",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Erro inesperado.")
	}
}
