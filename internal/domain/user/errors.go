package user

import "errors"

var (
	ErrUserNotFound           = errors.New("Usuário não encontrado")
	ErrEmailAlreadyRegistered = errors.New("Este e-mail já está cadastrado.")
	ErrEmailChangeNotFound    = errors.New("Solicitação de alteração de e-mail não encontrada.")
)
