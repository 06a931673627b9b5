package form

type passwordInput struct {
	Password string `json:"password" validate:"account_password"`
	Confirm  string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// ValidatePassword applies the account password rules used by registration and
// the forced password change: at least 8 characters, letters and digits, and a
// matching confirmation.
func ValidatePassword(password, confirm string) error {
	return check("invalid password", passwordInput{Password: password, Confirm: confirm})
}
