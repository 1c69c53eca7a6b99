// Пакет model — доменные модели REURB backend.
package model

import "time"

// User — учётная запись сотрудника.
// Хранится в таблице users.
type User struct {
	// ID — первичный ключ
	ID int64
	// Name — отображаемое имя
	Name string
	// Login — уникальное имя для входа
	Login string
	// PasswordHash — argon2id хэш в PHC-формате, plaintext не хранится
	PasswordHash string
	// Role — роль (Administrador, Usuario)
	Role string
	// CreatedAt — время создания
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// UserUpdate — частичное обновление пользователя.
// nil означает «поле не меняется».
type UserUpdate struct {
	Name         *string
	Login        *string
	Role         *string
	PasswordHash *string
}

// IsEmpty сообщает, что обновление не содержит изменений.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Login == nil && u.Role == nil && u.PasswordHash == nil
}
