// Пакет rbac — роли сотрудников REURB и проверка прав.
// Ролей две: Administrador (управление пользователями, справочниками,
// импорт) и Usuario (работа с регистрационными записями).
package rbac

// Роли в порядке возрастания привилегий.
const (
	RoleUser  = "Usuario"
	RoleAdmin = "Administrador"
)

// roleWeight — вес роли для сравнения.
var roleWeight = map[string]int{
	RoleUser:  1,
	RoleAdmin: 2,
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}

// Roles возвращает допустимые роли в порядке возрастания привилегий.
func Roles() []string {
	return []string{RoleUser, RoleAdmin}
}

// Satisfies сообщает, достаточно ли роли role для доступа,
// требующего роль required. Неизвестная роль не удовлетворяет ничему.
func Satisfies(role, required string) bool {
	w, ok := roleWeight[role]
	if !ok {
		return false
	}
	return w >= roleWeight[required]
}

// IsAdmin проверяет роль администратора.
func IsAdmin(role string) bool {
	return role == RoleAdmin
}
