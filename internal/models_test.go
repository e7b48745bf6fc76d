package internal

import "testing"

func TestListingTransitions(t *testing.T) {
	allowed := []struct{ from, to string }{
		{ListingDraft, ListingPending},
		{ListingPending, ListingActive},
		{ListingActive, ListingClosed},
		{ListingDraft, ListingClosed},
		{ListingPending, ListingClosed},
	}
	for _, tc := range allowed {
		if !CanTransitionListing(tc.from, tc.to) {
			t.Errorf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to string }{
		{ListingDraft, ListingActive},
		{ListingActive, ListingDraft},
		{ListingActive, ListingPending},
		{ListingClosed, ListingActive},
		{ListingClosed, ListingDraft},
		{ListingClosed, ListingPending},
	}
	for _, tc := range denied {
		if CanTransitionListing(tc.from, tc.to) {
			t.Errorf("%s -> %s should be denied", tc.from, tc.to)
		}
	}
}

func TestApplicationTransitions(t *testing.T) {
	for _, from := range []string{AppPending, AppReviewing, AppShortlisted, AppInterviewed} {
		for _, to := range []string{AppReviewing, AppShortlisted, AppInterviewed, AppAccepted, AppRejected} {
			if !CanTransitionApplication(from, to) {
				t.Errorf("%s -> %s should be allowed for the organization", from, to)
			}
		}
	}

	for _, from := range []string{AppAccepted, AppRejected, AppWithdrawn} {
		if CanTransitionApplication(from, AppReviewing) {
			t.Errorf("terminal state %s must not transition", from)
		}
		if CanWithdrawApplication(from) {
			t.Errorf("terminal state %s must not be withdrawable", from)
		}
	}

	// withdrawn is not an organization target
	if CanTransitionApplication(AppPending, AppWithdrawn) {
		t.Error("organizations must not set withdrawn")
	}
	if !CanWithdrawApplication(AppInterviewed) {
		t.Error("athlete may withdraw from any non-terminal state")
	}
}
