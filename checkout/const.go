package checkout

// State is the custom type to define the current state of a checkout attempt
type State string

// Defining the states of an Attempt. Pending attempts either get verified
// into Paid, fail verification into Failed, or are swept into Expired by the
// reconciler once the popup is abandoned past the TTL.
const (
	StatePending State = "Pending"
	StatePaid    State = "Paid"
	StateFailed  State = "Failed"
	StateExpired State = "Expired"
)

const defaultCurrency = "INR"
