package hl7v2

import "testing"

func TestParseFrameHappyPath(t *testing.T) {
	inbound, errData := ParseFrame(sampleA28)
	if errData != nil {
		t.Fatalf("unexpected error: %+v", errData)
	}
	if inbound.TriggerEvent != "A28" {
		t.Errorf("TriggerEvent = %q, want A28", inbound.TriggerEvent)
	}
	if inbound.BundleID != "msg0001" {
		t.Errorf("BundleID = %q, want msg0001", inbound.BundleID)
	}
	if inbound.ActionCode != "A28" {
		t.Errorf("ActionCode = %q, want A28", inbound.ActionCode)
	}

	ackMsg := Parse(inbound.AckMsg)
	msa := ackMsg.GetSegment("MSA", 0)
	if msa == nil {
		t.Fatal("expected MSA segment in generated ACK")
	}
	if got := msa.Field(1); got != AckCommitAccept {
		t.Errorf("MSA-1 = %q, want CA", got)
	}
	if got := msa.Field(2); got != "MSG0001" {
		t.Errorf("MSA-2 = %q, want MSG0001", got)
	}
}

func TestParseFrameMalformedMSH(t *testing.T) {
	_, errData := ParseFrame("PID|1||12345^^^SONHO^NS\r")
	if errData == nil {
		t.Fatal("expected an InternalErrorData for a payload missing MSH")
	}
	if errData.Kind != ErrorParseException {
		t.Errorf("Kind = %q, want parseException", errData.Kind)
	}
}

func TestParseFrameUnknownEvent(t *testing.T) {
	raw := "MSH|^~\\&|A|B|C|D|20240101120000||ADT|MSG0002|P|2.5\r"
	_, errData := ParseFrame(raw)
	if errData == nil {
		t.Fatal("expected an error for a message with no trigger event")
	}
}

func TestIsACK(t *testing.T) {
	ackPayload := "MSH|^~\\&|A|B|C|D|20240101120000||ACK|MSG0003|P|2.5\rMSA|AA|MSG0003\r"
	if !IsACK(ackPayload) {
		t.Errorf("expected IsACK to detect an ACK message")
	}
	if IsACK(sampleA28) {
		t.Errorf("expected IsACK to be false for an ADT message")
	}
}
