package db

import "testing"

func TestNormalizeDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "postgres scheme", in: "postgres://u:p@h:5432/db", want: "postgresql://u:p@h:5432/db?sslmode=require"},
		{name: "existing query", in: "postgresql://h/db?connect_timeout=10", want: "postgresql://h/db?connect_timeout=10&sslmode=require"},
		{name: "explicit sslmode", in: "postgresql://h/db?sslmode=disable", want: "postgresql://h/db?sslmode=disable"},
		{name: "key value", in: "host=localhost dbname=ev", want: "host=localhost dbname=ev"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeDSN(tc.in); got != tc.want {
				t.Fatalf("NormalizeDSN(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewPostgresDBRejectsEmptyDSN(t *testing.T) {
	if _, err := NewPostgresDB("   "); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}
