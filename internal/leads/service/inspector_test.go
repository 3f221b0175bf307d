package service

import (
	"testing"
	"time"

	"leadhub/internal/leads/domain"
	"leadhub/internal/leads/repository"

	"github.com/google/uuid"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestSummarizeCompetitorsExcludesOwnAssignment(t *testing.T) {
	me := uuid.New()
	other := uuid.New()
	now := time.Now()

	assignments := []repository.Assignment{
		{MerchantID: me, DetailStatus: domain.DetailPursuing, CallCount: 5},
		{MerchantID: other, DetailStatus: domain.DetailUnhandled},
	}

	summary := SummarizeCompetitors(assignments, me, now)
	if summary.Competitors != 1 {
		t.Fatalf("Competitors = %d, want 1", summary.Competitors)
	}
	if summary.ActiveCompetitors != 0 {
		t.Errorf("ActiveCompetitors = %d, want 0", summary.ActiveCompetitors)
	}
}

func TestSummarizeCompetitorsActivitySignals(t *testing.T) {
	me := uuid.New()
	now := time.Now()

	cases := []struct {
		name       string
		assignment repository.Assignment
		active     bool
	}{
		{
			name:       "untouched",
			assignment: repository.Assignment{MerchantID: uuid.New(), DetailStatus: domain.DetailUnhandled},
			active:     false,
		},
		{
			name: "recent contact",
			assignment: repository.Assignment{
				MerchantID:    uuid.New(),
				DetailStatus:  domain.DetailUnhandled,
				LastContactAt: ptrTime(now.Add(-48 * time.Hour)),
			},
			active: true,
		},
		{
			name: "stale contact only",
			assignment: repository.Assignment{
				MerchantID:    uuid.New(),
				DetailStatus:  domain.DetailUnhandled,
				LastContactAt: ptrTime(now.Add(-8 * 24 * time.Hour)),
			},
			active: false,
		},
		{
			name:       "active pursuit status",
			assignment: repository.Assignment{MerchantID: uuid.New(), DetailStatus: domain.DetailReviewing},
			active:     true,
		},
		{
			name:       "calls logged",
			assignment: repository.Assignment{MerchantID: uuid.New(), DetailStatus: domain.DetailUnhandled, CallCount: 2},
			active:     true,
		},
		{
			name: "future appointment",
			assignment: repository.Assignment{
				MerchantID:    uuid.New(),
				DetailStatus:  domain.DetailUnhandled,
				AppointmentAt: ptrTime(now.Add(24 * time.Hour)),
			},
			active: true,
		},
		{
			name: "past appointment only",
			assignment: repository.Assignment{
				MerchantID:    uuid.New(),
				DetailStatus:  domain.DetailUnhandled,
				AppointmentAt: ptrTime(now.Add(-24 * time.Hour)),
			},
			active: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			summary := SummarizeCompetitors([]repository.Assignment{tc.assignment}, me, now)
			if got := summary.ActiveCompetitors > 0; got != tc.active {
				t.Errorf("active = %v, want %v", got, tc.active)
			}
		})
	}
}

func TestSummarizeCompetitorsClosedRows(t *testing.T) {
	me := uuid.New()
	now := time.Now()

	assignments := []repository.Assignment{
		{MerchantID: me, DetailStatus: domain.DetailPursuing},
		{MerchantID: uuid.New(), DetailStatus: domain.DetailContracted, CallCount: 9},
		{MerchantID: uuid.New(), DetailStatus: domain.DetailDeclined, CallCount: 3},
	}

	summary := SummarizeCompetitors(assignments, me, now)
	if !summary.AnyContracted {
		t.Error("AnyContracted should be true")
	}
	// Closed rows carry the contracted signal but are not open competition:
	// they never appear in the counts or the entry list.
	if summary.Competitors != 0 {
		t.Errorf("Competitors = %d, want 0", summary.Competitors)
	}
	if summary.ActiveCompetitors != 0 {
		t.Errorf("ActiveCompetitors = %d, want 0", summary.ActiveCompetitors)
	}
	if len(summary.Entries) != 0 {
		t.Errorf("len(Entries) = %d, want 0", len(summary.Entries))
	}
}

func TestSummarizeCompetitorsEntryValues(t *testing.T) {
	me := uuid.New()
	rival := uuid.New()
	now := time.Now()
	lastContact := now.Add(-3 * 24 * time.Hour)
	appointment := now.Add(48 * time.Hour)

	assignments := []repository.Assignment{
		{MerchantID: me, Rank: 1, DetailStatus: domain.DetailPursuing},
		{
			MerchantID:    rival,
			Rank:          2,
			DetailStatus:  domain.DetailAppointmentSet,
			CallCount:     4,
			LastContactAt: ptrTime(lastContact),
			AppointmentAt: ptrTime(appointment),
		},
		{MerchantID: uuid.New(), Rank: 3, DetailStatus: domain.DetailCancelled},
	}

	summary := SummarizeCompetitors(assignments, me, now)
	if len(summary.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1", len(summary.Entries))
	}

	entry := summary.Entries[0]
	if entry.MerchantID != rival {
		t.Errorf("MerchantID = %s, want %s", entry.MerchantID, rival)
	}
	if entry.Rank != 2 {
		t.Errorf("Rank = %d, want 2", entry.Rank)
	}
	if entry.DetailStatus != string(domain.DetailAppointmentSet) {
		t.Errorf("DetailStatus = %q, want %q", entry.DetailStatus, domain.DetailAppointmentSet)
	}
	if entry.CallCount != 4 {
		t.Errorf("CallCount = %d, want 4", entry.CallCount)
	}
	if entry.LastContactAt == nil || !entry.LastContactAt.Equal(lastContact) {
		t.Errorf("LastContactAt = %v, want %v", entry.LastContactAt, lastContact)
	}
	if entry.AppointmentAt == nil || !entry.AppointmentAt.Equal(appointment) {
		t.Errorf("AppointmentAt = %v, want %v", entry.AppointmentAt, appointment)
	}
	if !entry.Active {
		t.Error("entry should be active")
	}
}
