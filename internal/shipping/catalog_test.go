package shipping

import "testing"

func TestFind(t *testing.T) {
	m, err := Find("express")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if m.CostCents != 1499 {
		t.Fatalf("unexpected cost %d", m.CostCents)
	}
}

func TestFindUnknown(t *testing.T) {
	if _, err := Find("drone"); err == nil {
		t.Fatal("expected not found")
	}
}

func TestMethodsCopyIsSafe(t *testing.T) {
	methods := Methods()
	methods[0].CostCents = 1

	again, _ := Find(methods[0].ID)
	if again.CostCents == 1 {
		t.Fatal("catalog must not be mutable through Methods()")
	}
}
