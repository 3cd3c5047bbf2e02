package order

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusPreparing Status = "PREPARING"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusPaid,
	StatusPreparing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// transitions defines allowed state transitions
var transitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {}, // terminal state
	StatusCancelled: {}, // terminal state
}

// ParseStatus accepts only the exact upper-case status names, without
// surrounding whitespace.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	if _, ok := transitions[st]; !ok {
		return "", false
	}
	return st, true
}

func (s Status) String() string { return string(s) }

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// AllowedTransitions returns the statuses reachable from s in one step.
// The returned slice is a copy.
func AllowedTransitions(s Status) []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransition checks if an order in status from can move to status to
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s Status) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// reachedPayment reports whether payment had been captured by the time the
// order was in status s.
func reachedPayment(s Status) bool {
	switch s {
	case StatusPaid, StatusPreparing, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// RequiresRefund is true when a cancellation happens after payment.
func RequiresRefund(prev, next Status) bool {
	return next == StatusCancelled && reachedPayment(prev)
}

// StatusNames converts statuses to their wire names.
func StatusNames(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
