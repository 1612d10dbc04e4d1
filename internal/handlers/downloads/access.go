package downloads

// AccessKind tags the outcome of the download grant resolver. A closed set
// so switches over it stay exhaustive.
type AccessKind int

const (
	OwnerAccess AccessKind = iota
	FreeAccess
	PurchasedAccess
	AccessDenied
)

func (k AccessKind) String() string {
	switch k {
	case OwnerAccess:
		return "owner"
	case FreeAccess:
		return "free"
	case PurchasedAccess:
		return "purchased"
	default:
		return "denied"
	}
}

// AccessDecision is computed per request and never persisted.
type AccessDecision struct {
	Kind   AccessKind
	Reason string // only set for AccessDenied
}

func granted(kind AccessKind) AccessDecision {
	return AccessDecision{Kind: kind}
}

func denied(reason string) AccessDecision {
	return AccessDecision{Kind: AccessDenied, Reason: reason}
}
