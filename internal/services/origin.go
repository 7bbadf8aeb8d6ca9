package services

// OriginKind discriminates who asked for a status transition
type OriginKind string

// Transition origin kinds
const (
	OriginManual    OriginKind = "manual"
	OriginAutomatic OriginKind = "automatic"
	OriginApproval  OriginKind = "approval_granted"
)

// TransitionOrigin is a tagged value describing where a transition came
// from: an operator acting directly, the automatic scheduler, or the
// approval gate executing a granted request. It replaces the bare
// isAutomatic flag and settles who changedBy refers to in each case.
type TransitionOrigin struct {
	Kind              OriginKind
	ActorID           *uint
	ApprovalRequestID *uint
	ApproverID        *uint
}

// ManualOrigin describes an operator-initiated transition
func ManualOrigin(actorID uint) TransitionOrigin {
	return TransitionOrigin{Kind: OriginManual, ActorID: &actorID}
}

// AutomaticOrigin describes a scheduler-initiated transition
func AutomaticOrigin() TransitionOrigin {
	return TransitionOrigin{Kind: OriginAutomatic}
}

// ApprovalOrigin describes a transition executed because a manager
// approved a pending request.
func ApprovalOrigin(requestID, approverID uint) TransitionOrigin {
	return TransitionOrigin{
		Kind:              OriginApproval,
		ApprovalRequestID: &requestID,
		ApproverID:        &approverID,
	}
}

// IsAutomatic reports whether the system acted without a human
func (o TransitionOrigin) IsAutomatic() bool {
	return o.Kind == OriginAutomatic
}

// ApprovalGranted reports whether the transition arrives pre-validated
// from the approval gate.
func (o TransitionOrigin) ApprovalGranted() bool {
	return o.Kind == OriginApproval
}

// ChangedBy resolves the user recorded on the history entry: the acting
// operator for manual transitions, the approver for granted requests,
// nil when the scheduler acted.
func (o TransitionOrigin) ChangedBy() *uint {
	switch o.Kind {
	case OriginManual:
		return o.ActorID
	case OriginApproval:
		return o.ApproverID
	}
	return nil
}
