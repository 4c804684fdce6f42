package emailchange

type RequestInput struct {
	NewEmail string `json:"new_email"`
}

type ConfirmResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}
