package entities

import (
	"testing"
	"time"
)

func TestContactRewardStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from ContactRewardStatus
		to   ContactRewardStatus
		want bool
	}{
		{"pending to granted", ContactRewardStatusPending, ContactRewardStatusGranted, true},
		{"pending to rejected", ContactRewardStatusPending, ContactRewardStatusRejected, true},
		{"granted is terminal", ContactRewardStatusGranted, ContactRewardStatusRejected, false},
		{"rejected is terminal", ContactRewardStatusRejected, ContactRewardStatusGranted, false},
		{"pending to pending", ContactRewardStatusPending, ContactRewardStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Fatalf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestEffectiveCooldownDaysPrefersTierOverride(t *testing.T) {
	tierDays := 3
	if got := EffectiveCooldownDays(&tierDays, 30); got != 3 {
		t.Fatalf("expected tier override to win, got %d", got)
	}
}

func TestEffectiveCooldownDaysFallsBackToGlobal(t *testing.T) {
	if got := EffectiveCooldownDays(nil, 30); got != 30 {
		t.Fatalf("expected global cooldown, got %d", got)
	}
}

func TestComputeCooldownUntilNilWhenNoCooldown(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if until := ComputeCooldownUntil(now, 0); until != nil {
		t.Fatalf("expected nil cooldown, got %v", until)
	}
}

func TestComputeCooldownUntilAddsDays(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	until := ComputeCooldownUntil(now, 5)
	if until == nil {
		t.Fatal("expected non-nil cooldown")
	}
	want := now.Add(5 * 24 * time.Hour)
	if !until.Equal(want) {
		t.Fatalf("expected %v, got %v", want, *until)
	}
}
