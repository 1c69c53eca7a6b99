package rbac

import "testing"

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleAdmin, true},
		{RoleUser, true},
		{"admin", false},
		{"administrador", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidRole(tt.role); got != tt.want {
			t.Errorf("IsValidRole(%q) = %v, хотели %v", tt.role, got, tt.want)
		}
	}
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		required string
		want     bool
	}{
		{"admin для admin-маршрута", RoleAdmin, RoleAdmin, true},
		{"admin для обычного маршрута", RoleAdmin, RoleUser, true},
		{"usuario для обычного маршрута", RoleUser, RoleUser, true},
		{"usuario для admin-маршрута", RoleUser, RoleAdmin, false},
		{"неизвестная роль", "root", RoleUser, false},
		{"пустая роль", "", RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Satisfies(tt.role, tt.required); got != tt.want {
				t.Errorf("Satisfies(%q, %q) = %v, хотели %v", tt.role, tt.required, got, tt.want)
			}
		})
	}
}

func TestRoles(t *testing.T) {
	roles := Roles()
	if len(roles) != 2 {
		t.Fatalf("Roles() = %v", roles)
	}
	for _, r := range roles {
		if !IsValidRole(r) {
			t.Errorf("роль %q из Roles() невалидна", r)
		}
	}
	if !IsAdmin(RoleAdmin) || IsAdmin(RoleUser) {
		t.Error("IsAdmin() работает некорректно")
	}
}
