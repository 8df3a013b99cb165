package review

// Dimension is one independently reviewable aspect of a registration.
type Dimension string

const (
	Payment Dimension = "payment"
	Profile Dimension = "profile"
	TCC     Dimension = "tcc"
)

// Dimensions lists every dimension in checklist order.
func Dimensions() []Dimension {
	return []Dimension{Payment, Profile, TCC}
}

func (d Dimension) String() string {
	return string(d)
}

func (d Dimension) Valid() bool {
	switch d {
	case Payment, Profile, TCC:
		return true
	default:
		return false
	}
}

// DimensionStatus is the review state of a single dimension.
type DimensionStatus string

const (
	DimensionPending     DimensionStatus = "pending"
	DimensionNeedsUpdate DimensionStatus = "needs_update"
	DimensionPassed      DimensionStatus = "passed"
	DimensionRejected    DimensionStatus = "rejected"
)

func (s DimensionStatus) String() string {
	return string(s)
}

func (s DimensionStatus) Valid() bool {
	switch s {
	case DimensionPending, DimensionNeedsUpdate, DimensionPassed, DimensionRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is defined from s.
func (s DimensionStatus) Terminal() bool {
	return s == DimensionPassed || s == DimensionRejected
}

// CanTransition reports whether the dimension state machine allows from -> to.
func CanTransition(from, to DimensionStatus) bool {
	switch from {
	case DimensionPending:
		return to == DimensionNeedsUpdate || to == DimensionPassed || to == DimensionRejected
	case DimensionNeedsUpdate:
		return to == DimensionPassed || to == DimensionRejected
	default:
		return false
	}
}

// Status is the overall lifecycle state of a registration.
type Status string

const (
	StatusPending          Status = "pending"
	StatusWaitingForReview Status = "waiting_for_review"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusWaitingForReview, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}
