package credential

// Role одна из двух фиксированных ролей сервиса.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleGuest
}

func (r Role) String() string {
	return string(r)
}

// Credential строка таблицы password_rol.
type Credential struct {
	ID           int
	Role         Role
	PasswordHash string
}

// DefaultPasswords пароли, которые записываются при первом запуске.
var DefaultPasswords = map[Role]string{
	RoleAdmin: "admin123",
	RoleGuest: "guest123",
}
