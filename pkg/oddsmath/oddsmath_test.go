package oddsmath_test

import (
	"errors"
	"math"
	"testing"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/oddsmath"
)

func TestDecimalToImpliedProbability(t *testing.T) {
	tests := []struct {
		name    string
		decimal float64
		want    float64
	}{
		{"Even odds 2.00", 2.0, 0.50},
		{"Favorite 1.50", 1.5, 0.6667},
		{"Underdog 2.10", 2.10, 0.47619},
		{"Underdog 2.05", 2.05, 0.48780},
		{"Long shot 4.00", 4.0, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := oddsmath.DecimalToImpliedProbability(tt.decimal)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if math.Abs(got-tt.want) > 0.0001 {
				t.Errorf("DecimalToImpliedProbability(%f) = %f, want %f", tt.decimal, got, tt.want)
			}
		})
	}
}

func TestValidateDecimal(t *testing.T) {
	tests := []struct {
		name    string
		decimal float64
		wantErr bool
	}{
		{"valid 1.01", 1.01, false},
		{"valid 15.0", 15.0, false},
		{"exactly one", 1.0, true},
		{"below one", 0.8, true},
		{"zero", 0, true},
		{"negative", -2.0, true},
		{"NaN", math.NaN(), true},
		{"positive infinity", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := oddsmath.ValidateDecimal(tt.decimal)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if !errors.Is(err, oddsmath.ErrInvalidOdds) {
					t.Errorf("expected ErrInvalidOdds, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestProfitFraction(t *testing.T) {
	sum := 1/2.10 + 1/2.05
	if math.Abs(sum-0.96399) > 0.00001 {
		t.Errorf("inverse sum = %f, want 0.96399", sum)
	}
	if profit := oddsmath.ProfitFraction(sum); math.Abs(profit-0.03736) > 0.0001 {
		t.Errorf("profit fraction = %f, want 0.03736", profit)
	}
}

func TestProfitFraction_ZeroSum(t *testing.T) {
	if got := oddsmath.ProfitFraction(0); got != 0 {
		t.Errorf("ProfitFraction(0) = %f, want 0", got)
	}
}
