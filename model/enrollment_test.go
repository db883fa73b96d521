package model

import (
	"testing"
	"time"
)

func TestPercentage(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{3, 5, 60},
		{5, 5, 100},
		{1, 3, 33},
		{2, 3, 67},
		{7, 5, 100},
	}
	for _, tc := range cases {
		if got := Percentage(tc.completed, tc.total); got != tc.want {
			t.Fatalf("Percentage(%d, %d) = %d, want %d", tc.completed, tc.total, got, tc.want)
		}
	}
}

func TestApplySummary_CompletesOnlyFromActive(t *testing.T) {
	e := &Enrollment{Status: EnrollmentActive}

	if e.ApplySummary(3, 5, t0) {
		t.Fatalf("60%% must not transition")
	}
	if e.Progress.ProgressPercentage != 60 || e.Status != EnrollmentActive {
		t.Fatalf("unexpected enrollment: %+v", e)
	}

	if !e.ApplySummary(5, 5, t0) {
		t.Fatalf("100%% must transition")
	}
	if e.Status != EnrollmentCompleted || e.CompletedAt == nil {
		t.Fatalf("expected completed enrollment: %+v", e)
	}

	// a lesson added later drops the percentage but never the status
	if e.ApplySummary(5, 6, t0) {
		t.Fatalf("unexpected transition")
	}
	if e.Status != EnrollmentCompleted || e.Progress.ProgressPercentage != 83 {
		t.Fatalf("completed enrollment regressed: %+v", e)
	}
}

func TestApplySummary_SuspendedStaysSuspended(t *testing.T) {
	e := &Enrollment{Status: EnrollmentSuspended}
	if e.ApplySummary(2, 2, t0) {
		t.Fatalf("suspended enrollment must not transition")
	}
	if e.Status != EnrollmentSuspended || e.Progress.ProgressPercentage != 100 {
		t.Fatalf("unexpected enrollment: %+v", e)
	}
}

func TestGrantsAccessAt(t *testing.T) {
	past := t0.Add(-time.Hour)
	future := t0.Add(time.Hour)

	cases := []struct {
		name string
		e    Enrollment
		want bool
	}{
		{"active lifetime", Enrollment{Status: EnrollmentActive}, true},
		{"active in window", Enrollment{Status: EnrollmentActive, ExpiresAt: &future}, true},
		{"active past window", Enrollment{Status: EnrollmentActive, ExpiresAt: &past}, false},
		{"completed", Enrollment{Status: EnrollmentCompleted}, true},
		{"expired", Enrollment{Status: EnrollmentExpired}, false},
		{"suspended", Enrollment{Status: EnrollmentSuspended}, false},
	}
	for _, tc := range cases {
		if got := tc.e.GrantsAccessAt(t0); got != tc.want {
			t.Fatalf("%s: expected %v got %v", tc.name, tc.want, got)
		}
	}
}
