package events

import (
	"time"

	id "givepool/pkg/domain"
)

// Event captures a committed funding-domain fact. Events are secondary,
// best-effort effects: the primary mutation has already committed by the
// time one is emitted, and a lost event never rolls anything back. Keep the
// struct transport-agnostic so stores and sinks can fan out.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	ProjectID id.ProjectID   `json:"project_id,omitempty"`
	Account   id.AccountID   `json:"account,omitempty"`
	Amount    int64          `json:"amount,omitempty"`
	Asset     id.AssetID     `json:"asset,omitempty"`
	Status    string         `json:"status,omitempty"`
	Ref       id.ContentHash `json:"ref,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

type EventType string

const (
	EventProjectCreated    EventType = "project_created"
	EventDonationAccepted  EventType = "donation_accepted"
	EventProjectFunded     EventType = "project_funded"
	EventFundsReleased     EventType = "funds_released"
	EventStatusChanged     EventType = "status_changed"
	EventDonorRefunded     EventType = "donor_refunded"
	EventEvidenceSubmitted EventType = "evidence_submitted"
	EventBadgeMinted       EventType = "badge_minted"
)
