// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrInvalidCredentials — неверный логин или пароль.
	ErrInvalidCredentials = errors.New("неверный логин или пароль")
	// ErrUserNotFound — пользователь из токена больше не существует.
	ErrUserNotFound = errors.New("пользователь токена не найден")
	// ErrUploadRejected — загружаемый файл отклонён (размер).
	ErrUploadRejected = errors.New("файл отклонён")
	// ErrImport — ошибка импорта пакета записей.
	ErrImport = errors.New("ошибка импорта")
)
