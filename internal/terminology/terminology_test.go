package terminology

import "testing"

func TestIdentifierType(t *testing.T) {
	cases := map[string]string{
		"NS":  "PI",
		"SNS": "HC",
		"NIF": "TAX",
		"PRC": "PRC",
	}
	for hl7Code, want := range cases {
		got, ok := IdentifierType(hl7Code)
		if !ok {
			t.Fatalf("IdentifierType(%q): expected ok", hl7Code)
		}
		if got != want {
			t.Errorf("IdentifierType(%q) = %q, want %q", hl7Code, got, want)
		}
	}

	if _, ok := IdentifierType("ZZZ"); ok {
		t.Errorf("IdentifierType(ZZZ) should not be mapped")
	}
}

func TestGender(t *testing.T) {
	if g, ok := Gender("M"); !ok || g != GenderMale {
		t.Errorf("Gender(M) = %q, %v; want male, true", g, ok)
	}
	if _, ok := Gender("X"); ok {
		t.Errorf("Gender(X) should be unmapped")
	}
}

func TestClassifyAddress(t *testing.T) {
	c := ClassifyAddress("C")
	if c.ParentCode != "CURRENT" || c.Type != "postal" {
		t.Errorf("ClassifyAddress(C) = %+v", c)
	}
	// unlisted code falls back to the PID-only default
	c = ClassifyAddress("ZZZ")
	if c.ParentCode != "MAIN_ADDRESS" || c.Use != "home" {
		t.Errorf("ClassifyAddress(ZZZ) fallback = %+v", c)
	}
}

func TestRelationship(t *testing.T) {
	c, ok := Relationship("FTH")
	if !ok || c.Code != "FTH" || c.System != systemV3RoleCode {
		t.Errorf("Relationship(FTH) = %+v, %v", c, ok)
	}
	c, ok = Relationship("ZZZ")
	if ok {
		t.Errorf("Relationship(ZZZ) should report unmapped")
	}
	if c.Code != "O" || c.System != systemV2_0131 {
		t.Errorf("Relationship(ZZZ) fallback = %+v", c)
	}
}

func TestPortugalPostalCode(t *testing.T) {
	if !PortugalPostalCode.MatchString("1000-001") {
		t.Errorf("expected 1000-001 to match")
	}
	if PortugalPostalCode.MatchString("10001") {
		t.Errorf("expected 10001 not to match")
	}
}
