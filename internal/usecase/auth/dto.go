package auth

import "signa-backend/internal/domain/user"

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the login payload: the access token plus the mirrored
// profile fields.
type LoginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Email string `json:"email"`
	CPF   string `json:"cpf"`
}

type MeResponse struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	CPF      string `json:"cpf"`
}

func toMeResponse(u *user.User) *MeResponse {
	return &MeResponse{
		Username: u.Username,
		Name:     u.Name,
		Email:    u.EmailAddress(),
		CPF:      u.CPFNumber(),
	}
}
