package validation

import "testing"

func TestValidators(t *testing.T) {
	v := Violations{}
	Required("nom", "  ", v)
	PositiveInt("quantite", 0, v)
	NonNegativeInt("quantite_disponible", -1, v)
	OneOf("type", "autre", []string{"medicament", "materiel"}, v)

	if len(v) != 4 {
		t.Fatalf("expected 4 violations got %d: %v", len(v), v)
	}
	if v["nom"] != "required" || v["quantite"] != "must_be_positive" {
		t.Fatalf("unexpected violations: %v", v)
	}

	ok := Violations{}
	Required("nom", "Gants", ok)
	PositiveInt("quantite", 3, ok)
	NonNegativeInt("quantite_disponible", 0, ok)
	OneOf("type", "materiel", []string{"medicament", "materiel"}, ok)
	if !ok.Empty() {
		t.Fatalf("expected no violations, got %v", ok)
	}
}
