package review

// Item is the review state of one dimension.
type Item struct {
	Status DimensionStatus `json:"status"`
	Notes  string          `json:"notes,omitempty"`
}

// Checklist holds exactly one Item per dimension.
type Checklist struct {
	Payment Item `json:"payment"`
	Profile Item `json:"profile"`
	TCC     Item `json:"tcc"`
}

// NewChecklist returns a checklist with every dimension pending.
func NewChecklist() Checklist {
	return Checklist{
		Payment: Item{Status: DimensionPending},
		Profile: Item{Status: DimensionPending},
		TCC:     Item{Status: DimensionPending},
	}
}

// Normalized fills missing statuses with pending.
func (c Checklist) Normalized() Checklist {
	for _, d := range Dimensions() {
		if item, _ := c.Get(d); !item.Status.Valid() {
			item.Status = DimensionPending
			c, _ = c.With(d, item)
		}
	}
	return c
}

func (c Checklist) Get(d Dimension) (Item, bool) {
	switch d {
	case Payment:
		return c.Payment, true
	case Profile:
		return c.Profile, true
	case TCC:
		return c.TCC, true
	default:
		return Item{}, false
	}
}

// With returns a copy of c with the item for d replaced.
func (c Checklist) With(d Dimension, item Item) (Checklist, bool) {
	switch d {
	case Payment:
		c.Payment = item
	case Profile:
		c.Profile = item
	case TCC:
		c.TCC = item
	default:
		return c, false
	}
	return c, true
}

func (c Checklist) AllPassed() bool {
	return c.Payment.Status == DimensionPassed &&
		c.Profile.Status == DimensionPassed &&
		c.TCC.Status == DimensionPassed
}

func (c Checklist) AnyRejected() bool {
	return c.Payment.Status == DimensionRejected ||
		c.Profile.Status == DimensionRejected ||
		c.TCC.Status == DimensionRejected
}

func (c Checklist) Valid() bool {
	return c.Payment.Status.Valid() && c.Profile.Status.Valid() && c.TCC.Status.Valid()
}
