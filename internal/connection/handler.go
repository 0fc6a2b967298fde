// Package connection implements the per-connection MLLP state machine
// (framing, watermarked flow control, ACK write-back) and the TCP
// acceptor that spawns one handler per accepted socket.
package connection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sonho/adt-gateway/internal/dispatch"
	"github.com/sonho/adt-gateway/internal/hl7v2"
	"github.com/sonho/adt-gateway/internal/kafka"
)

// Watermarks, per spec §4.1.
const (
	maxStored      = 100_000_000
	highWatermark  = maxStored * 0.5
	lowWatermark   = maxStored * 0.3
	readBufferSize = 64 * 1024
)

// State names the connection handler's cooperative state machine states.
type State int

const (
	StateReading State = iota
	StateReadingSuspended
	StateWritingAck
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateReading:
		return "READING"
	case StateReadingSuspended:
		return "READING_SUSPENDED"
	case StateWritingAck:
		return "WRITING_ACK"
	case StateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// FrameRecord is a single complete MLLP frame extracted from the
// connection's receive buffer, delimiters included.
type FrameRecord struct {
	Raw []byte
}

// frameErrorKind distinguishes the two fatal conditions that close a
// connection outright, per spec §4.1/§7.
type frameErrorKind int

const (
	errFraming frameErrorKind = iota
	errOverrun
)

type frameError struct {
	kind frameErrorKind
	msg  string
}

func (e *frameError) Error() string { return e.msg }

// Handler owns one TCP connection's receive buffer and state, per spec
// §5's "no shared mutable state between connections" rule. Ingest is
// pure buffer bookkeeping and is exercised directly by tests; Run drives
// it against a real net.Conn.
type Handler struct {
	conn       net.Conn
	dispatcher *dispatch.Dispatcher
	producer   *kafka.Producer
	log        zerolog.Logger
	connID     string

	mu              sync.Mutex
	state           State
	buf             []byte
	stored          int
	suspended       bool
	closing         bool
	framesProcessed int
}

// NewHandler builds a Handler for a freshly accepted connection.
func NewHandler(conn net.Conn, d *dispatch.Dispatcher, p *kafka.Producer, log zerolog.Logger, connID string) *Handler {
	return &Handler{
		conn:       conn,
		dispatcher: d,
		producer:   p,
		log:        log.With().Str("conn_id", connID).Logger(),
		connID:     connID,
		state:      StateReading,
	}
}

// Stats reports the current buffer occupancy, suspension flag, and total
// frames processed on this connection, per SPEC_FULL §C.3's supplemented
// observability contract.
func (h *Handler) Stats() (stored int, suspended bool, framesProcessed int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stored, h.suspended, h.framesProcessed
}

// Ingest appends a freshly read chunk to the receive buffer, validates
// framing on a fresh frame, extracts every complete frame now available,
// and updates the watermark suspension flag. It does not decrement
// stored for extracted frames — that happens in CompleteFrame once the
// frame's ACK has been written, matching spec §4.1's "pop the oldest
// chunk" on ACK-write completion, not on mere frame detection.
func (h *Handler) Ingest(chunk []byte) ([]FrameRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.buf) == 0 && len(chunk) > 0 && chunk[0] != hl7v2.StartBlock {
		return nil, &frameError{kind: errFraming, msg: fmt.Sprintf("frame does not start with SB byte (got 0x%02x)", chunk[0])}
	}

	h.buf = append(h.buf, chunk...)
	h.stored += len(chunk)

	if h.stored > maxStored {
		return nil, &frameError{kind: errOverrun, msg: fmt.Sprintf("stored bytes %d exceeded maxStored %d", h.stored, maxStored)}
	}
	if h.stored > highWatermark && !h.suspended {
		h.suspended = true
		h.state = StateReadingSuspended
	}

	var frames []FrameRecord
	for {
		idx := bytes.IndexByte(h.buf, hl7v2.EndBlock)
		if idx < 0 {
			break
		}
		end := idx + 1
		if end < len(h.buf) && h.buf[end] == hl7v2.CarriageReturn {
			end++
		}
		raw := make([]byte, end)
		copy(raw, h.buf[:end])
		frames = append(frames, FrameRecord{Raw: raw})
		h.buf = h.buf[end:]
	}

	return frames, nil
}

// CompleteFrame accounts for a fully processed frame (its ACK has been
// written), decrementing stored and resuming reads if the low watermark
// is crossed while suspended, per spec §4.1.
func (h *Handler) CompleteFrame(frameLen int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stored -= frameLen
	if h.stored < 0 {
		h.stored = 0
	}
	h.framesProcessed++
	if h.suspended && float64(h.stored) < lowWatermark {
		h.suspended = false
		h.state = StateReading
	}
}

func (h *Handler) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

func (h *Handler) markClosing() {
	h.mu.Lock()
	h.closing = true
	h.state = StateClosing
	h.mu.Unlock()
}

func (h *Handler) isClosing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closing
}

// Run drives the handler's read loop against the underlying connection
// until the peer closes, a framing error occurs, the buffer overruns, or
// ctx is cancelled (checked between frames and after each read timeout).
func (h *Handler) Run(ctx context.Context) {
	defer h.conn.Close()
	defer h.log.Debug().Int("frames_processed", h.framesProcessed).Msg("connection closed")

	readBuf := make([]byte, readBufferSize)
	for {
		if h.isClosing() || ctx.Err() != nil {
			return
		}

		_ = h.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		n, err := h.conn.Read(readBuf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			h.log.Debug().Err(err).Msg("connection read ended")
			return
		}
		if n == 0 {
			continue
		}

		frames, ferr := h.Ingest(readBuf[:n])
		if ferr != nil {
			var fe *frameError
			if errors.As(ferr, &fe) {
				switch fe.kind {
				case errFraming:
					h.log.Error().Err(fe).Msg("framing error, closing connection")
				case errOverrun:
					h.log.Warn().Err(fe).Msg("buffer overrun, closing connection")
				}
			}
			h.markClosing()
			return
		}

		for _, frame := range frames {
			h.processFrame(ctx, frame)
			if h.isClosing() {
				return
			}
		}
	}
}

// processFrame decodes, parses, ACKs, and (for non-ACK inbound messages)
// dispatches a single complete MLLP frame, per spec §4.1's ACK protocol.
func (h *Handler) processFrame(ctx context.Context, frame FrameRecord) {
	payload := hl7v2.DecodePayload(frame.Raw)

	if hl7v2.IsACK(payload) {
		h.log.Info().Msg("received inbound ACK, not publishing or replying")
		h.CompleteFrame(len(frame.Raw))
		return
	}

	inbound, parseErr := hl7v2.ParseFrame(payload)
	if parseErr != nil {
		h.handleParseError(ctx, parseErr)
		h.CompleteFrame(len(frame.Raw))
		return
	}

	if err := h.producer.PublishRequestIn(ctx, inbound.BundleID, payload); err != nil {
		h.log.Error().Err(err).Str("bundle_id", inbound.BundleID).Msg("failed to publish requestIn")
	}

	h.setState(StateWritingAck)
	ackFrame := hl7v2.FrameMessage(inbound.AckMsg)
	if _, err := h.conn.Write(ackFrame); err != nil {
		h.log.Error().Err(err).Msg("failed to write ACK, closing connection")
		h.markClosing()
		return
	}
	h.setState(StateReading)

	h.dispatcher.Dispatch(ctx, inbound)
	h.CompleteFrame(len(frame.Raw))
}

// handleParseError implements spec §7's parse-failure path: publish the
// CE ACK to the exceptions topic, then write it back; the connection
// stays open.
func (h *Handler) handleParseError(ctx context.Context, parseErr *hl7v2.InternalErrorData) {
	if err := h.producer.PublishException(ctx, parseErr.ExceptionID, parseErr.ExceptionAckMsg); err != nil {
		h.log.Error().Err(err).Str("exception_id", parseErr.ExceptionID).Msg("failed to publish exception")
	}

	h.setState(StateWritingAck)
	ackFrame := hl7v2.FrameMessage(parseErr.ExceptionAckMsg)
	if _, err := h.conn.Write(ackFrame); err != nil {
		h.log.Error().Err(err).Msg("failed to write error ACK, closing connection")
		h.markClosing()
		return
	}
	h.setState(StateReading)
	h.log.Warn().Str("kind", string(parseErr.Kind)).Msg("parse failure, error ACK written")
}
