package inputval

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		// Valid emails
		{"user@example.com", true},
		{"user.name@example.com", true},
		{"user+tag@example.com", true},
		{"user@subdomain.example.com", true},
		{"user123@example.co.uk", true},
		{"a@b.co", true},
		{"user@localhost", true},  // RFC 5322 allows single-label domains
		{"admin@mailserver", true}, // useful for dev/test environments

		// Invalid emails - empty/whitespace
		{"", false},
		{"   ", false},

		// Invalid emails - missing parts
		{"user", false},
		{"user@", false},
		{"@example.com", false},

		// Invalid emails - bad format (previously allowed by weak regex)
		{".user@example.com", false},   // leading dot in local
		{"user.@example.com", false},   // trailing dot in local
		{"user..name@example.com", false}, // consecutive dots
		{"user@.example.com", false},   // leading dot in domain
		{"user@example..com", false},   // consecutive dots in domain

		// Invalid emails - display name format (should be rejected)
		{"User Name <user@example.com>", false},

		// Invalid emails - other malformed
		{"user @example.com", false},  // space in local
		{"user@ example.com", false},  // space after @
		{"user@exam ple.com", false},  // space in domain
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got := IsValidEmail(tt.email)
			if got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	type input struct {
		Name  string `validate:"required,max=10" label:"Full name"`
		Email string `validate:"required,email" label:"Email address"`
		Note  string `validate:"min=3" label:"Note"`
	}

	tests := []struct {
		name      string
		in        input
		wantErrs  int
		wantFirst string
	}{
		{"valid", input{Name: "John", Email: "john@example.com"}, 0, ""},
		{"missing name", input{Email: "john@example.com"}, 1, "Full name is required."},
		{"name too long", input{Name: "VeryLongNameThatExceeds", Email: "j@x.io"}, 1, "Full name must be at most 10 characters."},
		{"bad email", input{Name: "John", Email: "nope"}, 1, "A valid email address is required."},
		{"short note", input{Name: "John", Email: "j@x.io", Note: "ab"}, 1, "Note must be at least 3 characters."},
		{"missing both", input{}, 2, "Full name is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.in)
			if got := len(res.All()); got != tt.wantErrs {
				t.Fatalf("errors = %d (%v), want %d", got, res.All(), tt.wantErrs)
			}
			if res.HasErrors() != (tt.wantErrs > 0) {
				t.Errorf("HasErrors = %v", res.HasErrors())
			}
			if res.First() != tt.wantFirst {
				t.Errorf("First = %q, want %q", res.First(), tt.wantFirst)
			}
		})
	}
}

func TestValidate_Pointer(t *testing.T) {
	type input struct {
		Name string `validate:"required" label:"Name"`
	}
	if !Validate(&input{}).HasErrors() {
		t.Error("expected error for pointer input")
	}
	var nilInput *input
	if Validate(nilInput).HasErrors() {
		t.Error("nil pointer should validate cleanly")
	}
}
