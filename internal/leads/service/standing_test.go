package service

import (
	"testing"

	"leadhub/internal/leads/repository"
)

func TestStandingFor(t *testing.T) {
	cases := []struct {
		name   string
		counts repository.OutcomeCounts
		want   string
	}{
		{"no history", repository.OutcomeCounts{}, "active"},
		{"healthy mix", repository.OutcomeCounts{Contracted: 4, Declined: 3, CancelApproved: 1}, "active"},
		{"mostly cancellations", repository.OutcomeCounts{Contracted: 1, Declined: 1, CancelApproved: 4}, "review"},
		{"cancellations but thin history", repository.OutcomeCounts{CancelApproved: 3}, "active"},
		{"exactly half cancelled", repository.OutcomeCounts{Contracted: 3, CancelApproved: 3}, "active"},
		{"just over half cancelled", repository.OutcomeCounts{Contracted: 2, CancelApproved: 4}, "review"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := standingFor(tc.counts); got != tc.want {
				t.Errorf("standingFor(%+v) = %q, want %q", tc.counts, got, tc.want)
			}
		})
	}
}
