package service

import (
	"testing"

	"leadhub/internal/leads/domain"
	"leadhub/internal/leads/repository"

	"github.com/google/uuid"
)

func TestLeadContractedByOther(t *testing.T) {
	me := uuid.New()
	rival := uuid.New()

	cases := []struct {
		name        string
		assignments []repository.Assignment
		want        bool
	}{
		{
			name: "no contracts on the lead",
			assignments: []repository.Assignment{
				{MerchantID: me, Status: domain.StatusDelivered},
				{MerchantID: rival, Status: domain.StatusDelivered},
			},
			want: false,
		},
		{
			name: "own contract does not block",
			assignments: []repository.Assignment{
				{MerchantID: me, Status: domain.StatusContracted},
				{MerchantID: rival, Status: domain.StatusDelivered},
			},
			want: false,
		},
		{
			name: "competitor holds the contract",
			assignments: []repository.Assignment{
				{MerchantID: me, Status: domain.StatusDelivered},
				{MerchantID: rival, Status: domain.StatusContracted},
			},
			want: true,
		},
		{
			name: "competitor closed without contract",
			assignments: []repository.Assignment{
				{MerchantID: me, Status: domain.StatusDelivered},
				{MerchantID: rival, Status: domain.StatusCancelApproved},
				{MerchantID: uuid.New(), Status: domain.StatusDeclined},
			},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := leadContractedByOther(tc.assignments, me); got != tc.want {
				t.Errorf("leadContractedByOther = %v, want %v", got, tc.want)
			}
		})
	}
}
