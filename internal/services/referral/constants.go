package referral

// BasisPointsDivisor converts basis points into a fraction.
const BasisPointsDivisor = 10000

// MaxPurchaseAmount keeps amount * basis points inside int64.
const MaxPurchaseAmount = (1<<63 - 1) / BasisPointsDivisor

// Default cashback per level: 5%, 3% and 1%.
var DefaultLevelBasisPoints = []int64{500, 300, 100}

// Reasons a chain walk ended
const (
	StopNoInviter       = "no_inviter"
	StopInviterNotFound = "inviter_not_found"
	StopMaxLevels       = "max_levels"
	StopCycle           = "cycle"
)

// Computation outcomes reported to the metrics collector
const (
	ResultApplied     = "applied"
	ResultPreview     = "preview"
	ResultInvalid     = "invalid_argument"
	ResultNotFound    = "not_found"
	ResultUnavailable = "unavailable"
)
