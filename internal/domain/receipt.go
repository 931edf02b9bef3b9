package domain

import (
	"context"
	"time"
)

// PaymentMethod is how a booking is paid.
type PaymentMethod string

const (
	PaymentNone         PaymentMethod = "none"
	PaymentInvoice      PaymentMethod = "invoice"
	PaymentCheque       PaymentMethod = "cheque"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentPaypal       PaymentMethod = "paypal"
	PaymentDatacash     PaymentMethod = "datacash"
)

// ReceiptType classifies how a receipt expects to be settled.
type ReceiptType string

const (
	ReceiptNullPayment    ReceiptType = "null"
	ReceiptOfflinePayment ReceiptType = "offline"
	ReceiptOnlinePayment  ReceiptType = "online"
)

// ReceiptType maps the payment method onto the receipt type it produces.
func (m PaymentMethod) ReceiptType() ReceiptType {
	switch m {
	case PaymentPaypal, PaymentDatacash:
		return ReceiptOnlinePayment
	case PaymentInvoice, PaymentCheque, PaymentBankTransfer:
		return ReceiptOfflinePayment
	default:
		return ReceiptNullPayment
	}
}

// Provider is the online payment provider name, empty for offline methods.
func (m PaymentMethod) Provider() string {
	if m.ReceiptType() == ReceiptOnlinePayment {
		return string(m)
	}
	return ""
}

// Receipt is the billing and payment snapshot taken at each commit.
// swagger:model Receipt
type Receipt struct {
	ID                string         `json:"id"`
	BookingID         int64          `json:"booking_id"`
	Billing           BillingDetails `json:"billing"`
	PaymentMethod     PaymentMethod  `json:"payment_method"`
	Type              ReceiptType    `json:"type"`
	PaymentProvider   string         `json:"payment_provider,omitempty"`
	PaymentReceivedAt *time.Time     `json:"payment_received_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// NewReceipt starts a receipt for b carrying a copy of its billing block.
func NewReceipt(b *Booking, now time.Time) *Receipt {
	return &Receipt{
		BookingID: b.ID,
		Billing:   b.Billing,
		Type:      ReceiptNullPayment,
		CreatedAt: now,
	}
}

// SetPaymentDetails records the payment method and the receipt type it implies.
func (r *Receipt) SetPaymentDetails(m PaymentMethod) {
	r.PaymentMethod = m
	r.Type = m.ReceiptType()
	r.PaymentProvider = m.Provider()
}

// PendingOnline reports an online receipt whose payment has not arrived yet.
func (r *Receipt) PendingOnline() bool {
	return r != nil && r.Type == ReceiptOnlinePayment && r.PaymentReceivedAt == nil
}

// CurrentPaymentReceipt picks the receipt a payment gateway should act on from
// receipts ordered oldest first: the latest non-null receipt when it is pending
// online, otherwise the latest receipt overall. It returns nil for no receipts.
func CurrentPaymentReceipt(receipts []*Receipt) *Receipt {
	if len(receipts) == 0 {
		return nil
	}
	for i := len(receipts) - 1; i >= 0; i-- {
		if receipts[i].Type == ReceiptNullPayment {
			continue
		}
		if receipts[i].PendingOnline() {
			return receipts[i]
		}
		break
	}
	return receipts[len(receipts)-1]
}

// ReceiptRepository persists receipts.
type ReceiptRepository interface {
	Create(ctx context.Context, r *Receipt) error
	Update(ctx context.Context, r *Receipt) error
	ListByBooking(ctx context.Context, bookingID int64) ([]*Receipt, error)
}
