package accounting

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestMinimumCollateral(t *testing.T) {
	e18 := uint256.MustFromDecimal("1000000000000000000")

	tests := []struct {
		name    string
		debt    *uint256.Int
		ratio   uint64
		scale   *uint256.Int
		price   *uint256.Int
		want    string
		wantErr error
	}{
		{
			name:  "debt 100 at 1.5x, price 200, 18 decimals",
			debt:  uint256.NewInt(100),
			ratio: 1500,
			scale: e18,
			price: uint256.NewInt(200),
			want:  "750000000000000000",
		},
		{
			name:  "truncates toward zero",
			debt:  uint256.NewInt(1),
			ratio: 1500,
			scale: uint256.NewInt(1),
			price: uint256.NewInt(1),
			want:  "1", // 1500/1000 = 1.5 -> 1
		},
		{
			name:  "division order matches reference",
			debt:  uint256.NewInt(7),
			ratio: 1500,
			scale: uint256.NewInt(10),
			price: uint256.NewInt(3),
			want:  "35", // 7*1500*10 = 105000 /1000 = 105 /3 = 35
		},
		{
			name:  "zero debt needs zero collateral",
			debt:  uint256.NewInt(0),
			ratio: 1500,
			scale: e18,
			price: uint256.NewInt(200),
			want:  "0",
		},
		{
			name:    "zero price is rejected",
			debt:    uint256.NewInt(100),
			ratio:   1500,
			scale:   e18,
			price:   uint256.NewInt(0),
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "overflow is rejected",
			debt:    new(uint256.Int).SetAllOne(),
			ratio:   1500,
			scale:   e18,
			price:   uint256.NewInt(1),
			wantErr: ErrOverflow,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := MinimumCollateral(tt.debt, tt.ratio, tt.scale, tt.price)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want err=%v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got.Dec() != tt.want {
				t.Fatalf("minimum = %s, want %s", got.Dec(), tt.want)
			}
		})
	}
}

func TestMinimumCollateral_DoesNotMutateInputs(t *testing.T) {
	debt := uint256.NewInt(100)
	scale := uint256.NewInt(1000)
	price := uint256.NewInt(3)
	if _, err := MinimumCollateral(debt, 1500, scale, price); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if debt.Uint64() != 100 || scale.Uint64() != 1000 || price.Uint64() != 3 {
		t.Fatalf("inputs mutated: debt=%s scale=%s price=%s", debt, scale, price)
	}
}

func TestProRata(t *testing.T) {
	got, err := ProRata(uint256.NewInt(1000), uint256.NewInt(40), uint256.NewInt(100))
	if err != nil {
		t.Fatalf("ProRata: %v", err)
	}
	if got.Uint64() != 400 {
		t.Fatalf("ProRata = %s, want 400", got)
	}

	got, err = ProRata(uint256.NewInt(10), uint256.NewInt(1), uint256.NewInt(3))
	if err != nil {
		t.Fatalf("ProRata: %v", err)
	}
	if got.Uint64() != 3 {
		t.Fatalf("ProRata truncation = %s, want 3", got)
	}

	if _, err := ProRata(uint256.NewInt(1), uint256.NewInt(1), uint256.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount on zero whole, got %v", err)
	}
}

func TestAddSub(t *testing.T) {
	if _, err := Add(new(uint256.Int).SetAllOne(), uint256.NewInt(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("Add overflow: got %v", err)
	}
	if _, err := Sub(uint256.NewInt(1), uint256.NewInt(2)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("Sub underflow: got %v", err)
	}
	got, err := Sub(uint256.NewInt(5), uint256.NewInt(2))
	if err != nil || got.Uint64() != 3 {
		t.Fatalf("Sub = %v, %v", got, err)
	}
}
