package tokens

import (
	"errors"
	"testing"
	"time"
)

var testSecret = []byte("test-secret")

func TestIssueAndParse(t *testing.T) {
	now := time.Now()
	s, issued, err := Issue(testSecret, 7, "a@example.com", "member", now, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := Parse(testSecret, s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != 7 || claims.Email != "a@example.com" || claims.Role != "member" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if claims.ID == "" || claims.ID != issued.ID {
		t.Errorf("jti = %q, want %q", claims.ID, issued.ID)
	}
	if r := claims.Remaining(now); r <= 59*time.Minute || r > time.Hour {
		t.Errorf("Remaining = %v", r)
	}
}

func TestParseRejects(t *testing.T) {
	now := time.Now()
	expired, _, _ := Issue(testSecret, 1, "a@example.com", "member", now.Add(-2*time.Hour), time.Hour)
	valid, _, _ := Issue(testSecret, 1, "a@example.com", "member", now, time.Hour)

	tests := map[string]struct {
		secret []byte
		token  string
	}{
		"expired":      {testSecret, expired},
		"wrong secret": {[]byte("other"), valid},
		"garbage":      {testSecret, "not-a-jwt"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(tt.secret, tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
