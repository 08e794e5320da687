package model

import "testing"

func TestDisplayName(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"alice@tenant-a.test", "Alice"},
		{"jane.doe@x.io", "Jane.doe"},
		{"Bob@x.io", "Bob"},
		{"élodie@x.io", "Élodie"},
		{"no-at-sign", "No-at-sign"},
		{"@x.io", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := DisplayName(tt.email); got != tt.want {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}

func TestUserBeforeCreateDefaults(t *testing.T) {
	u := &User{Email: "a@a.test"}
	if err := u.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if u.ID == "" {
		t.Error("expected an id to be assigned")
	}
	if u.Role != RoleUser {
		t.Errorf("Role = %q, want %q", u.Role, RoleUser)
	}

	admin := &User{ID: "fixed", Role: RoleAdmin}
	if err := admin.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if admin.ID != "fixed" || admin.Role != RoleAdmin {
		t.Errorf("BeforeCreate overwrote explicit values: %+v", admin)
	}
}
