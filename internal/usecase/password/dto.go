package password

type ForgotRequest struct {
	Username string `json:"username" validate:"required,min=7,max=8"`
}

type ResetRequest struct {
	UID            string `json:"uid" validate:"required"`
	Token          string `json:"token" validate:"required"`
	NewPass        string `json:"new_pass" validate:"required"`
	NewPassConfirm string `json:"new_pass_confirm" validate:"required"`
}
