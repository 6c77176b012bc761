// Package request holds validated request bodies.
package request

// EmailVerifyCodeRequest asks for a registration verification code to be
// mailed. Username is limited to letters, digits and underscores.
type EmailVerifyCodeRequest struct {
	Email    string `json:"email" validate:"notblank,email"`
	Username string `json:"username" validate:"notblank,min=5,max=20,word"`
	Password string `json:"password" validate:"notblank,min=8,max=64"`
	Nickname string `json:"nickname,omitempty" validate:"max=20"`
}

var emailVerifyCodeMessages = map[string]string{
	"email.notblank":    "Email cannot be empty",
	"email.email":       "Email format is incorrect",
	"username.notblank": "Username cannot be empty",
	"username.min":      "Username length must be between 5 and 20",
	"username.max":      "Username length must be between 5 and 20",
	"username.word":     "Username can only contain letters, numbers and underscores",
	"password.notblank": "Password cannot be empty",
	"password.min":      "Password length must be between 8 and 64",
	"password.max":      "Password length must be between 8 and 64",
	"nickname.max":      "Nickname length must be less than 20",
}

// ValidationMessages implements binding.MessageProvider.
func (EmailVerifyCodeRequest) ValidationMessages() map[string]string {
	return emailVerifyCodeMessages
}
