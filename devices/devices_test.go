package devices

import "testing"

func TestCatalog_ReturnsKnownDevices(t *testing.T) {
	all := Catalog()
	if len(all) == 0 {
		t.Fatal("expected non-empty device catalog")
	}
	for _, d := range all {
		if d.ID == "" || d.Width <= 0 || d.Height <= 0 {
			t.Errorf("device %+v has invalid fields", d)
		}
	}
}

func TestCatalog_ReturnsIndependentCopy(t *testing.T) {
	a := Catalog()
	a[0].Name = "mutated"
	b := Catalog()
	if b[0].Name == "mutated" {
		t.Error("Catalog should return a fresh copy each call")
	}
}
