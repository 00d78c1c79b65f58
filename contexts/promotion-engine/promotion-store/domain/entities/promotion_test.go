package entities

import (
	"testing"
	"time"
)

func TestNewValidityWindowRejectsFromAfterTo(t *testing.T) {
	from := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	if _, ok := NewValidityWindow(&from, &to); ok {
		t.Fatal("expected window with from after to to be rejected")
	}
}

func TestValidityWindowActiveAtOpenBounds(t *testing.T) {
	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	window, ok := NewValidityWindow(&from, nil)
	if !ok {
		t.Fatal("expected half-open window to be valid")
	}

	if window.ActiveAt(from.Add(-time.Hour)) {
		t.Fatal("expected window to be inactive before from")
	}
	if !window.ActiveAt(from.Add(24 * time.Hour * 365)) {
		t.Fatal("expected open-ended window to remain active far in the future")
	}
}

func TestValidityWindowZeroValueIsAlwaysActive(t *testing.T) {
	var window ValidityWindow
	if !window.ActiveAt(time.Now()) {
		t.Fatal("expected unbounded window to be active at any instant")
	}
}

func TestNormalizedCountryUppercasesAndTrims(t *testing.T) {
	v := PromotionVersion{CountryISO: " gb "}
	if got := v.NormalizedCountry(); got != "GB" {
		t.Fatalf("expected GB, got %q", got)
	}
}

func TestNewMonetaryValueRejectsNegativeAmount(t *testing.T) {
	if _, ok := NewMonetaryValue(-1, "USD"); ok {
		t.Fatal("expected negative amount to be rejected")
	}
}

func TestNewMonetaryValueRejectsBlankUnit(t *testing.T) {
	if _, ok := NewMonetaryValue(10, "   "); ok {
		t.Fatal("expected blank unit to be rejected")
	}
}

func TestNewMonetaryValueTrimsUnit(t *testing.T) {
	value, ok := NewMonetaryValue(5, " points ")
	if !ok {
		t.Fatal("expected valid monetary value")
	}
	if value.Unit != "points" {
		t.Fatalf("expected trimmed unit, got %q", value.Unit)
	}
}
