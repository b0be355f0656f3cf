package audithook

// Action constants for audit events.
const (
	// Balance actions
	ActionTokenTransferred = "token.transferred"
	ActionTokenApproved    = "token.approved"

	// Supply actions
	ActionTokenMinted = "token.minted"
	ActionTokenBurned = "token.burned"

	// Access actions
	ActionOwnershipTransferred = "ownership.transferred"
)

// Resource constants for audit events.
const (
	ResourceBalance   = "balance"
	ResourceAllowance = "allowance"
	ResourceSupply    = "supply"
	ResourceOwnership = "ownership"
)

// Category constants for audit events.
const (
	CategoryTransfer = "transfer"
	CategorySupply   = "supply"
	CategoryAccess   = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
