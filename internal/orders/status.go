package orders

import "shop-backend/internal/errx"

type Status string

const (
	StatusPending    Status = "Pending"
	StatusDelivering Status = "Delivering"
	StatusCompleted  Status = "Completed"
)

// Forward-only. Staying in place is a no-op, not a transition.
var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusDelivering: true, StatusCompleted: true},
	StatusDelivering: {StatusCompleted: true},
	StatusCompleted:  {},
}

func ValidStatus(s Status) bool {
	_, ok := validNext[s]
	return ok
}

func CanTransition(from, to Status) bool {
	return from == to || validNext[from][to]
}

type Paid string

const (
	PaidYes Paid = "Paid"
	PaidNo  Paid = "Unpaid"
)

func ValidPaid(p Paid) bool { return p == PaidYes || p == PaidNo }

type PaymentMethod string

const (
	PayOnline      PaymentMethod = "PayOnline"
	CashOnDelivery PaymentMethod = "CashOnDelivery"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	return m == PayOnline || m == CashOnDelivery
}

// ValidateUpdate checks a status/paid update against the lifecycle rules.
// nil means "leave unchanged". The payment rules are checked against the
// effective paid value: when the same request also sets paid, the new value
// counts.
func ValidateUpdate(cur Order, newStatus *Status, newPaid *Paid) error {
	if newPaid != nil && !ValidPaid(*newPaid) {
		return errx.Invalidf("invalid paid value %q", *newPaid)
	}
	if newStatus == nil {
		return nil
	}
	if !ValidStatus(*newStatus) {
		return errx.Invalidf("invalid status %q", *newStatus)
	}
	if !CanTransition(cur.Status, *newStatus) {
		return &errx.InvalidStateError{Msg: string(cur.Status) + " order cannot move to " + string(*newStatus)}
	}

	paid := cur.Paid
	if newPaid != nil {
		paid = *newPaid
	}
	if *newStatus == StatusCompleted && paid != PaidYes {
		return &errx.InvalidStateError{Msg: "order cannot be completed unless paid"}
	}
	if *newStatus == StatusDelivering && cur.PaymentMethod == PayOnline && paid != PaidYes {
		return &errx.InvalidStateError{Msg: "PayOnline orders cannot be delivered unless paid"}
	}
	return nil
}
