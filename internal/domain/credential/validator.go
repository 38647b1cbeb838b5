package credential

// bcrypt не принимает пароли длиннее 72 байт.
const MaxPasswordBytes = 72

// Validator - интерфейс для валидации нового пароля
type Validator interface {
	ValidateNewPassword(password string) error
}

type PasswordValidator struct {
	maxBytes int
}

// NewPasswordValidator создает новый валидатор
func NewPasswordValidator() *PasswordValidator {
	return &PasswordValidator{maxBytes: MaxPasswordBytes}
}

func (v *PasswordValidator) ValidateNewPassword(password string) error {
	if password == "" {
		return ErrNewPasswordRequired
	}
	if len(password) > v.maxBytes {
		return ErrPasswordTooLong
	}
	return nil
}
