package types

type PaymentPurpose string

const (
	PaymentPurposeWalletCharge    PaymentPurpose = "wallet_charge"
	PaymentPurposeCoursePurchase  PaymentPurpose = "course_purchase"
	PaymentPurposeWorkshopBooking PaymentPurpose = "workshop_booking"
	PaymentPurposeProductPurchase PaymentPurpose = "product_purchase"
	PaymentPurposeSubscription    PaymentPurpose = "subscription"
	PaymentPurposeServiceFee      PaymentPurpose = "service_fee"
	PaymentPurposePenalty         PaymentPurpose = "penalty"
	PaymentPurposeRefund          PaymentPurpose = "refund"
	PaymentPurposeBonus           PaymentPurpose = "bonus"
	PaymentPurposeOther           PaymentPurpose = "other"
)

func (p PaymentPurpose) Valid() bool {
	switch p {
	case PaymentPurposeWalletCharge, PaymentPurposeCoursePurchase, PaymentPurposeWorkshopBooking,
		PaymentPurposeProductPurchase, PaymentPurposeSubscription, PaymentPurposeServiceFee,
		PaymentPurposePenalty, PaymentPurposeRefund, PaymentPurposeBonus, PaymentPurposeOther:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusProcessing        PaymentStatus = "processing"
	PaymentStatusCompleted         PaymentStatus = "completed"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusCancelled         PaymentStatus = "cancelled"
	PaymentStatusExpired           PaymentStatus = "expired"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentStatusRefunded          PaymentStatus = "refunded"
)

// Open reports whether the payment is still waiting on the payer or the bank.
func (s PaymentStatus) Open() bool {
	return s == PaymentStatusPending || s == PaymentStatusProcessing
}

// Refundable reports whether money can still be returned for the payment.
func (s PaymentStatus) Refundable() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusPartiallyRefunded
}

// Settled reports whether the payment reached a successful outcome at some point.
func (s PaymentStatus) Settled() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusPartiallyRefunded || s == PaymentStatusRefunded
}

func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusExpired, PaymentStatusRefunded:
		return true
	}
	return false
}

// DefaultCurrency is the Iranian rial; all amounts are integral rials.
const DefaultCurrency = "IRR"
