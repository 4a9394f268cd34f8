package stripe

import "testing"

func TestNormalizeStripeStatus(t *testing.T) {
	s := func(v string) *string { return &v }

	tests := []struct {
		in   *string
		want string
	}{
		{nil, StatusNone},
		{s("  "), StatusNone},
		{s("active"), StatusActive},
		{s("trialing"), StatusTrialing},
		{s("unpaid"), StatusPastDue},
		{s("past_due"), StatusPastDue},
		{s("incomplete_expired"), StatusCanceled},
		{s("incomplete"), "incomplete"},
	}
	for _, tt := range tests {
		if got := NormalizeStripeStatus(tt.in); got != tt.want {
			t.Errorf("NormalizeStripeStatus(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
