package custodian

import "testing"

func TestDeriveDeterministic(t *testing.T) {
	a, err := Derive("prod-seed")
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	b, err := Derive("prod-seed")
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if a.Address() != b.Address() {
		t.Errorf("same seed derived different addresses: %s vs %s", a.Address(), b.Address())
	}
}

func TestDeriveDistinctSeeds(t *testing.T) {
	a, err := Derive("seed-a")
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	b, err := Derive("seed-b")
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if a.Address() == b.Address() {
		t.Errorf("distinct seeds derived the same address %s", a.Address())
	}
}

func TestDeriveEmptySeed(t *testing.T) {
	if _, err := Derive(""); err == nil {
		t.Error("expected error for empty seed")
	}
}
