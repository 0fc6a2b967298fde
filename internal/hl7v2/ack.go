package hl7v2

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Acknowledgment codes (MSA-1).
const (
	AckApplicationAccept = "AA"
	AckCommitAccept      = "CA"
	AckCommitError       = "CE"
	AckCommitReject      = "CR"
)

// InboundMessage is the parser's success output: a decoded frame ready
// for dispatch, plus the ACK already generated for it.
type InboundMessage struct {
	BundleID         string // control ID from MSA-2 / MSH-10
	AckMsg           string // encoded ACK ready to frame
	Msg              string // original encoded payload, when echo is required
	TriggerEvent     string // e.g. "A28"
	ActionCode       string // EVN-4, optional
	ActivityArea     string // PV1-2, optional
	SequentialNumber string // MSH-13 of the inbound message; the generated ACK carries no MSA-4
}

// ErrorKind distinguishes why the parser could not produce an
// InboundMessage.
type ErrorKind string

const (
	ErrorParseException ErrorKind = "parseException"
	ErrorNotSupported    ErrorKind = "notSupported"
)

// InternalErrorData is the parser's failure output.
type InternalErrorData struct {
	ExceptionID     string
	Kind            ErrorKind
	ExceptionAckMsg string // MLLP-ready CE ACK built from MSH only
	OriginalMsg     string // sanitized source text, CR/LF stripped
}

func (e *InternalErrorData) Error() string {
	return fmt.Sprintf("hl7v2: %s: exception %s", e.Kind, e.ExceptionID)
}

// ParseFrame decodes a single HL7 v2.5 frame (segments separated by \r,
// starting with MSH) and returns either a success InboundMessage or a
// failure InternalErrorData, mirroring spec §4.2's ParseResult union.
func ParseFrame(raw string) (*InboundMessage, *InternalErrorData) {
	sanitized := sanitize(raw)

	msg := Parse(raw)
	msh := msg.GetSegment("MSH", 0)
	if msh == nil {
		return nil, newParseError(raw, sanitized, "message does not start with MSH")
	}

	msgType := msh.Field(9)
	triggerEvent := msh.Component(9, 1, 2)
	controlID := msh.Field(10)

	if msgType == "" {
		return nil, newParseError(raw, sanitized, "unable to determine message type from MSH-9")
	}

	msgTypeCode := msh.Component(9, 1, 1)
	if msgTypeCode == "ACK" {
		return inboundFromACK(msh, sanitized), nil
	}

	// Permissive version acceptance: an unexpected MSH-12 is not by itself
	// a parse failure, only a missing trigger event is (spec §4.2 step 3).
	if triggerEvent == "" {
		return nil, &InternalErrorData{
			ExceptionID:     uuid.NewString(),
			Kind:            ErrorParseException,
			ExceptionAckMsg: buildHeaderOnlyACK(msh, AckCommitError, fmt.Sprintf("Unknown event %s", msgType)),
			OriginalMsg:     sanitized,
		}
	}

	ack := GenerateACK(msh, AckCommitAccept, "")
	evn := msg.GetSegment("EVN", 0)
	pv1 := msg.GetSegment("PV1", 0)

	var actionCode, activityArea string
	if evn != nil {
		actionCode = evn.Field(4)
	}
	if pv1 != nil {
		activityArea = pv1.Field(2)
	}

	// The inbound message carries no MSA segment of its own (it is the
	// one being acknowledged, not an ACK); its MSH-13 sequence number
	// field is the closest available source for sequentialNumber.
	return &InboundMessage{
		BundleID:         strings.ToLower(controlID),
		AckMsg:           ack,
		Msg:              raw,
		TriggerEvent:     triggerEvent,
		ActionCode:       actionCode,
		ActivityArea:     activityArea,
		SequentialNumber: msh.Field(13),
	}, nil
}

func inboundFromACK(msh *Segment, sanitized string) *InboundMessage {
	return &InboundMessage{
		BundleID:     strings.ToLower(msh.Field(10)),
		TriggerEvent: "ACK",
		Msg:          sanitized,
	}
}

func newParseError(raw, sanitized, reason string) *InternalErrorData {
	ackMsg := headerOnlyACKFromRaw(raw, reason)
	return &InternalErrorData{
		ExceptionID:     uuid.NewString(),
		Kind:            ErrorParseException,
		ExceptionAckMsg: ackMsg,
		OriginalMsg:     sanitized,
	}
}

// headerOnlyACKFromRaw implements the fallback described in spec §4.2:
// split the payload by \r, find the first segment starting with "MSH", parse just
// the header, and synthesize a CE ACK from it. If no MSH segment can be
// found at all, a minimal synthetic ACK is returned instead.
func headerOnlyACKFromRaw(raw, reason string) string {
	for _, line := range strings.Split(raw, "\r") {
		line = strings.TrimRight(line, "\n")
		if strings.HasPrefix(line, "MSH") {
			seg := parseSegment(line)
			return buildHeaderOnlyACK(&seg, AckCommitError, reason)
		}
	}
	return minimalACK(reason)
}

func buildHeaderOnlyACK(msh *Segment, code, errorText string) string {
	return GenerateACK(msh, code, errorText)
}

func minimalACK(reason string) string {
	now := time.Now().UTC().Format("20060102150405")
	return "MSH|^~\\&|||||" + now + "||ACK||P|2.5\rMSA|" + AckCommitError + "|" + "\rERR|" + reason
}

// sanitize strips CR/LF from the original payload for safe logging, per
// InternalErrorData.originalMsg's contract.
func sanitize(raw string) string {
	s := strings.ReplaceAll(raw, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// GenerateACK builds an HL7 v2.5 ACK message replying to the given MSH
// segment, with the given MSA-1 code and optional error text (MSA-3).
func GenerateACK(msh *Segment, code, errorText string) string {
	sendingApp := msh.Field(3)
	sendingFacility := msh.Field(4)
	receivingApp := msh.Field(5)
	receivingFacility := msh.Field(6)
	controlID := msh.Field(10)
	now := time.Now().UTC().Format("20060102150405")

	var b strings.Builder
	b.WriteString("MSH|^~\\&|")
	b.WriteString(receivingApp)
	b.WriteString("|")
	b.WriteString(receivingFacility)
	b.WriteString("|")
	b.WriteString(sendingApp)
	b.WriteString("|")
	b.WriteString(sendingFacility)
	b.WriteString("|")
	b.WriteString(now)
	b.WriteString("||ACK|")
	b.WriteString(uuid.NewString())
	b.WriteString("|P|2.5\r")
	b.WriteString("MSA|")
	b.WriteString(code)
	b.WriteString("|")
	b.WriteString(controlID)
	if errorText != "" {
		b.WriteString("|")
		b.WriteString(errorText)
	}
	return b.String()
}

// IsACK reports whether the given decoded frame is itself an ACK message
// (MSH-9 starts with "ACK"), per spec §4.1's inbound-ACK detection.
func IsACK(raw string) bool {
	msg := Parse(raw)
	msh := msg.GetSegment("MSH", 0)
	if msh == nil {
		return false
	}
	return msh.Component(9, 1, 1) == "ACK"
}
