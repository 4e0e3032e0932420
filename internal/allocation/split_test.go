package allocation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func TestSplitSumsExactly(t *testing.T) {
	tests := []struct {
		total string
		n     int
	}{
		{"10", 3},
		{"1", 7},
		{"0.000000000000000001", 2},
		{"123456789.123456789123456789", 11},
		{"0", 4},
		{"5", 1},
	}
	for _, tt := range tests {
		total := decimal.RequireFromString(tt.total)
		shares, err := Split(total, tt.n)
		if err != nil {
			t.Fatalf("Split(%s, %d) failed: %v", tt.total, tt.n, err)
		}
		if len(shares) != tt.n {
			t.Fatalf("Expected %d shares, got %d", tt.n, len(shares))
		}
		if !sum(shares).Equal(total) {
			t.Errorf("Split(%s, %d) sums to %s", tt.total, tt.n, sum(shares))
		}
		for i := 0; i < tt.n-1; i++ {
			if shares[i].Exponent() < -Precision {
				t.Errorf("Share %d of %s not quantized: %s", i, tt.total, shares[i])
			}
		}
	}
}

func TestSplitRemainderLast(t *testing.T) {
	shares, err := Split(decimal.NewFromInt(10), 3)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	first := decimal.RequireFromString("3.333333333333333333")
	last := decimal.RequireFromString("3.333333333333333334")
	if !shares[0].Equal(first) || !shares[1].Equal(first) {
		t.Errorf("Expected leading shares %s, got %s and %s", first, shares[0], shares[1])
	}
	if !shares[2].Equal(last) {
		t.Errorf("Expected last share %s, got %s", last, shares[2])
	}
}

func TestSplitZeroShares(t *testing.T) {
	if _, err := Split(decimal.NewFromInt(1), 0); !errors.Is(err, ErrNoShares) {
		t.Errorf("Expected ErrNoShares, got %v", err)
	}
}

func TestSplitWeighted(t *testing.T) {
	shares, err := SplitWeighted(decimal.NewFromInt(10), []decimal.Decimal{decimal.NewFromInt(6), decimal.NewFromInt(4)})
	if err != nil {
		t.Fatalf("SplitWeighted failed: %v", err)
	}
	if !shares[0].Equal(decimal.NewFromInt(6)) || !shares[1].Equal(decimal.NewFromInt(4)) {
		t.Errorf("Expected 6 and 4, got %s and %s", shares[0], shares[1])
	}

	shares, err = SplitWeighted(decimal.NewFromInt(1), []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("SplitWeighted failed: %v", err)
	}
	if !sum(shares).Equal(decimal.NewFromInt(1)) {
		t.Errorf("Expected exact sum, got %s", sum(shares))
	}

	if _, err := SplitWeighted(decimal.NewFromInt(1), nil); !errors.Is(err, ErrNoShares) {
		t.Errorf("Expected ErrNoShares, got %v", err)
	}
	if _, err := SplitWeighted(decimal.NewFromInt(1), []decimal.Decimal{decimal.Zero}); !errors.Is(err, ErrInvalidWeight) {
		t.Errorf("Expected ErrInvalidWeight, got %v", err)
	}
}
