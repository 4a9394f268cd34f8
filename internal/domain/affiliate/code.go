package affiliate

import (
	"strings"

	"github.com/google/uuid"
)

// NewCode returns a short referral code for a new member.
func NewCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// NormalizeCode trims and lower-cases codes coming from URLs and forms.
func NormalizeCode(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
