package hl7v2

import "testing"

const sampleA28 = "MSH|^~\\&|SNDAPP|SNDFAC|RCVAPP|RCVFAC|20240101120000||ADT^A28^ADT_A05|MSG0001|P|2.5\r" +
	"EVN|A28|20240101120000\r" +
	"PID|1||12345^^^SONHO^NS||DOE^JOHN^M||19800101|M|||Rua A^^Lisboa^^1000-001^PT^C^^110503\r"

func TestParseMSHFields(t *testing.T) {
	msg := Parse(sampleA28)
	msh := msg.GetSegment("MSH", 0)
	if msh == nil {
		t.Fatal("expected MSH segment")
	}
	if got := msh.Component(9, 1, 1); got != "ADT" {
		t.Errorf("MSH-9.1 = %q, want ADT", got)
	}
	if got := msh.Component(9, 1, 2); got != "A28" {
		t.Errorf("MSH-9.2 = %q, want A28", got)
	}
	if got := msh.Field(10); got != "MSG0001" {
		t.Errorf("MSH-10 = %q, want MSG0001", got)
	}
}

func TestParsePIDIdentifiers(t *testing.T) {
	msg := Parse(sampleA28)
	pid := msg.GetSegment("PID", 0)
	if pid == nil {
		t.Fatal("expected PID segment")
	}
	comps := pid.Repetition(3, 1)
	if len(comps) < 5 {
		t.Fatalf("PID-3 components = %v", comps)
	}
	if comps[0] != "12345" {
		t.Errorf("PID-3.1 = %q, want 12345", comps[0])
	}
	if comps[3] != "SONHO" {
		t.Errorf("PID-3.4 = %q, want SONHO", comps[3])
	}
	if comps[4] != "NS" {
		t.Errorf("PID-3.5 = %q, want NS", comps[4])
	}
}

func TestGetSegmentMissing(t *testing.T) {
	msg := Parse(sampleA28)
	if seg := msg.GetSegment("ZZZ", 0); seg != nil {
		t.Errorf("expected nil for missing segment, got %+v", seg)
	}
}
