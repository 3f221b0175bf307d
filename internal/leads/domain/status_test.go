package domain

import "testing"

func TestCanTransitionForwardOnly(t *testing.T) {
	cases := []struct {
		from, to DetailStatus
		want     bool
	}{
		{DetailUnhandled, DetailPursuing, true},
		{DetailUnhandled, DetailDeclined, true},
		{DetailPursuing, DetailAppointmentSet, true},
		{DetailPursuing, DetailUnhandled, false},
		{DetailAppointmentSet, DetailPursuing, false},
		{DetailVisited, DetailEstimateSubmitted, true},
		{DetailEstimateSubmitted, DetailReviewing, true},
		{DetailReviewing, DetailNegotiating, true},
		{DetailNegotiating, DetailContracted, true},
		{DetailUnhandled, DetailContracted, true},
		{DetailPursuing, DetailCancelled, true},

		// Contracted only progresses through payment states.
		{DetailContracted, DetailPaymentPending, true},
		{DetailContracted, DetailCompleted, true},
		{DetailContracted, DetailDeclined, false},
		{DetailContracted, DetailCancelled, false},
		{DetailPaymentPending, DetailCompleted, true},
		{DetailPaymentPending, DetailContracted, false},

		// Nothing resurrects a closed assignment.
		{DetailDeclined, DetailPursuing, false},
		{DetailDeclined, DetailContracted, false},
		{DetailCancelled, DetailPursuing, false},
		{DetailCompleted, DetailPursuing, false},
		{DetailCompleted, DetailContracted, false},

		// Self transitions are rejected.
		{DetailPursuing, DetailPursuing, false},

		// Unknown values never pass.
		{"bogus", DetailPursuing, false},
		{DetailPursuing, "bogus", false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestClosedPredicate(t *testing.T) {
	closed := []DetailStatus{DetailContracted, DetailPaymentPending, DetailCompleted, DetailDeclined, DetailCancelled}
	open := []DetailStatus{DetailUnhandled, DetailPursuing, DetailAppointmentSet, DetailVisited, DetailEstimateSubmitted, DetailReviewing, DetailNegotiating}

	for _, d := range closed {
		if !d.Closed() {
			t.Errorf("%q should be closed", d)
		}
		if d.ActivePursuit() {
			t.Errorf("%q should not count as active pursuit", d)
		}
	}
	for _, d := range open {
		if d.Closed() {
			t.Errorf("%q should be open", d)
		}
	}
}

func TestStatusForProjection(t *testing.T) {
	cases := []struct {
		detail DetailStatus
		want   Status
		forced bool
	}{
		{DetailContracted, StatusContracted, true},
		{DetailPaymentPending, StatusContracted, true},
		{DetailCompleted, StatusContracted, true},
		{DetailDeclined, StatusDeclined, true},
		{DetailCancelled, StatusCancelApproved, true},
		{DetailPursuing, "", false},
		{DetailReviewing, "", false},
	}

	for _, tc := range cases {
		got, forced := StatusFor(tc.detail)
		if forced != tc.forced || got != tc.want {
			t.Errorf("StatusFor(%q) = (%q, %v), want (%q, %v)", tc.detail, got, forced, tc.want, tc.forced)
		}
	}
}

func TestDetailStatusForReport(t *testing.T) {
	cases := []struct {
		report ReportStatus
		want   DetailStatus
		ok     bool
	}{
		{ReportPreContract, DetailNegotiating, true},
		{ReportPostContractPreWork, DetailPaymentPending, true},
		{ReportInProgress, DetailPaymentPending, true},
		{ReportPostCompletion, DetailCompleted, true},
		{"unknown", "", false},
	}

	for _, tc := range cases {
		got, ok := DetailStatusForReport(tc.report)
		if ok != tc.ok || got != tc.want {
			t.Errorf("DetailStatusForReport(%q) = (%q, %v), want (%q, %v)", tc.report, got, ok, tc.want, tc.ok)
		}
	}
}
