package domain

// Identity — пользователь, восстановленный по токену сессии.
type Identity struct {
	UserID      int64
	Username    string
	DisplayName string
	IsAdmin     bool
}
