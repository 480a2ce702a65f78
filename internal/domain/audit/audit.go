// Package audit holds the append-only audit row types (spec.md §3):
// RoleAudit, ContestApprovalAudit, ContestStatusAudit, Notification.
package audit

import "time"

// RoleAudit records a change of a User's role.
type RoleAudit struct {
	ID        int64
	UserID    int64
	OldRole   string
	NewRole   string
	ChangedBy *int64
	Reason    string
	At        time.Time
}

// ApprovalAction is the closed set of decisions recorded against a
// Contest's approval workflow.
type ApprovalAction string

const (
	ApprovalActionApproved ApprovalAction = "approved"
	ApprovalActionRejected ApprovalAction = "rejected"
)

// ContestApprovalAudit records an admin approve/reject decision.
type ContestApprovalAudit struct {
	ID        int64
	ContestID int64
	Action    ApprovalAction
	By        int64
	Reason    string
	At        time.Time
}

// ReasonCode is a closed, machine-readable classification of a status
// transition, supplementing the free-text Reason (SPEC_FULL.md §4.6a).
// It is carried on ContestStatusAudit only; ApprovalQueue.Statistics does
// not read it (it works from Contest timestamps, DESIGN.md OQ8).
type ReasonCode string

const (
	ReasonSubmitted           ReasonCode = "submitted"
	ReasonWithdrawn           ReasonCode = "withdrawn"
	ReasonApproved            ReasonCode = "approved"
	ReasonRejected            ReasonCode = "rejected"
	ReasonSchedulerActivated  ReasonCode = "scheduler_activated"
	ReasonSchedulerEnded      ReasonCode = "scheduler_ended"
	ReasonWinnersSelected     ReasonCode = "winners_selected"
	ReasonAdminCancelled      ReasonCode = "admin_cancelled"
	ReasonAdminForced         ReasonCode = "admin_forced"
)

// ContestStatusAudit records a (old, new) status transition.
type ContestStatusAudit struct {
	ID         int64
	ContestID  int64
	OldStatus  string
	NewStatus  string
	By         *int64
	ActorRole  string
	ReasonCode ReasonCode
	Reason     string
	At         time.Time
}

// Notification records one attempted SMS send (spec.md §3 / §4.9).
type Notification struct {
	ID           int64
	UserID       *int64
	ContestID    *int64
	TemplateType string
	Phone        string
	Body         string
	SentAt       time.Time
	Success      bool
	Suppressed   bool
	Error        string
	ProviderMessageID string
}
