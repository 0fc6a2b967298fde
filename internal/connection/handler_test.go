package connection

import (
	"testing"

	"github.com/rs/zerolog"
)

func newTestHandler() *Handler {
	return &Handler{log: zerolog.Nop(), state: StateReading}
}

func TestIngestRejectsMissingStartByte(t *testing.T) {
	h := newTestHandler()
	_, err := h.Ingest([]byte("MSH|^~\\&|A\x1c\r"))
	if err == nil {
		t.Fatal("expected a framing error for a chunk not starting with SB")
	}
}

func TestIngestExtractsCompleteFrame(t *testing.T) {
	h := newTestHandler()
	chunk := append([]byte{0x0B}, []byte("MSH|^~\\&|A")...)
	chunk = append(chunk, 0x1C, 0x0D)

	frames, err := h.Ingest(chunk)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if frames[0].Raw[0] != 0x0B {
		t.Errorf("expected frame to retain its SB byte")
	}
}

func TestIngestPartialFrameWaitsForMore(t *testing.T) {
	h := newTestHandler()
	frames, err := h.Ingest([]byte{0x0B, 'M', 'S', 'H'})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 0 {
		t.Fatalf("expected no frames yet, got %d", len(frames))
	}
	stored, _, _ := h.Stats()
	if stored != 4 {
		t.Errorf("stored = %d, want 4", stored)
	}
}

func TestIngestOverrunClosesConnection(t *testing.T) {
	h := newTestHandler()
	big := make([]byte, maxStored+1)
	big[0] = 0x0B
	_, err := h.Ingest(big)
	if err == nil {
		t.Fatal("expected an overrun error")
	}
}

func TestWatermarkSuspendAndResume(t *testing.T) {
	h := newTestHandler()

	over := make([]byte, int(highWatermark)+1)
	over[0] = 0x0B
	_, err := h.Ingest(over)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, suspended, _ := h.Stats()
	if !suspended {
		t.Fatal("expected handler to be suspended above the high watermark")
	}

	h.CompleteFrame(int(highWatermark))
	stored, suspended, framesProcessed := h.Stats()
	if suspended {
		t.Errorf("expected handler to resume below the low watermark, stored=%d", stored)
	}
	if framesProcessed != 1 {
		t.Errorf("framesProcessed = %d, want 1", framesProcessed)
	}
}
