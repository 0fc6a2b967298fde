// Package dispatch routes decoded HL7 messages to per-trigger-event
// operations. Only ADT^A28 currently has a handler; every other trigger
// event is logged and dropped, per spec §4.6.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sonho/adt-gateway/internal/fhir"
	"github.com/sonho/adt-gateway/internal/hl7v2"
	"github.com/sonho/adt-gateway/internal/kafka"
	"github.com/sonho/adt-gateway/internal/mapper"
)

// Dispatcher owns the process-wide, immutable collaborators (Kafka
// producer, managing-organization identity, logger) shared by every
// connection handler, per spec §5's "shared resources" rule.
type Dispatcher struct {
	Producer            *kafka.Producer
	ManagingOrgCode     string
	ManagingOrgName     string
	Log                 zerolog.Logger
}

// Dispatch routes an already-ACKed InboundMessage by trigger event.
// The client has already received its CA/AA ACK by the time this runs;
// any error here is logged with the bundle id and otherwise swallowed,
// per spec §7's "Mapper exception" row.
func (d *Dispatcher) Dispatch(ctx context.Context, inbound *hl7v2.InboundMessage) {
	switch inbound.TriggerEvent {
	case "A28":
		if err := d.handlePatientNew(ctx, inbound); err != nil {
			d.Log.Error().Err(err).Str("bundle_id", inbound.BundleID).Msg("failed to build FHIR bundle")
		}
	default:
		d.Log.Info().Str("trigger_event", inbound.TriggerEvent).Str("bundle_id", inbound.BundleID).
			Msg("unsupported trigger event, ACK already sent")
	}
}

// handlePatientNew implements spec §4.6's patient-new flow: re-parse,
// build the Bundle, JSON-encode it, and publish it keyed by MSH-10.
func (d *Dispatcher) handlePatientNew(ctx context.Context, inbound *hl7v2.InboundMessage) error {
	msg := hl7v2.Parse(inbound.Msg)

	bundle, err := d.buildBundle(msg)
	if err != nil {
		return err
	}

	body, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("dispatch: encode bundle: %w", err)
	}

	if err := d.Producer.PublishFHIRTransaction(ctx, bundle.ID, string(body)); err != nil {
		return fmt.Errorf("dispatch: publish bundle: %w", err)
	}

	d.Log.Info().Str("bundle_id", bundle.ID).Msg("published FHIR transaction bundle")
	return nil
}

// buildBundle composes the full transaction Bundle for an A28
// registration: Patient, managing Organization, optional GP
// Practitioner+Organization, and Coverage+payer Organization entries.
func (d *Dispatcher) buildBundle(msg hl7v2.Message) (*fhir.Bundle, error) {
	msh := msg.GetSegment("MSH", 0)
	if msh == nil {
		return nil, fmt.Errorf("dispatch: MSH segment missing on second pass")
	}
	bundleID := strings.ToLower(msh.Field(10))
	bundle := fhir.NewTransactionBundle(bundleID, time.Now().UTC().Format(time.RFC3339))

	patientResult, err := mapper.MapPatient(msg, d.ManagingOrgCode, d.Log)
	if err != nil {
		return nil, fmt.Errorf("dispatch: map patient: %w", err)
	}
	bundle.AddPatient(patientResult.Patient, patientResult.FirstIdentifierValue)

	managingOrg := mapper.MapOrganization(d.ManagingOrgCode, d.ManagingOrgName)
	bundle.AddOrganization(managingOrg, d.ManagingOrgCode)

	if gp := patientResult.GeneralPractitioner; gp != nil {
		rol := msg.GetSegment("ROL", 0)
		practitioner := mapper.MapPractitioner(rol, gp.ID)
		bundle.AddPractitioner(practitioner, mapper.PractitionerFamilyName(practitioner))

		if gp.OrganizationID != "" {
			gpOrg := mapper.MapOrganization(gp.OrganizationCode, "")
			bundle.AddOrganization(gpOrg, gp.OrganizationCode)
		}
	}

	for _, cov := range mapper.MapCoverages(msg, patientResult.Patient.ID) {
		bundle.AddOrganization(cov.Payer, cov.Payer.Identifier[0].Value)
		bundle.AddCoverage(cov.Coverage)
	}

	return bundle, nil
}
