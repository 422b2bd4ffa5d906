package trade

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded, OrderStatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status ends the nominal flow
// Pending → Confirmed → Preparing → Shipped → Delivered.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded, OrderStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can change to target.
// A status change is a plain field update: any valid status different from
// the current one is accepted and stock is never touched.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	return target.IsValid() && target != s
}

// Origin tells where a sale was placed
type Origin string

const (
	OriginStorefront Origin = "STOREFRONT"
	OriginPOS        Origin = "POS"
)

// IsValid returns true if the origin is valid
func (o Origin) IsValid() bool {
	return o == OriginStorefront || o == OriginPOS
}

// InitialStatus returns the status an order of this origin is created in
func (o Origin) InitialStatus() OrderStatus {
	if o == OriginPOS {
		return OrderStatusCompleted
	}
	return OrderStatusPending
}

// PaymentMethod is recorded on the order; payment itself is processed elsewhere
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodPix          PaymentMethod = "PIX"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodDeferred     PaymentMethod = "DEFERRED"
)

// PaymentMethods lists every accepted payment method
var PaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodPix,
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodBankTransfer,
	PaymentMethodDeferred,
}

// IsValid returns true if the payment method is valid
func (p PaymentMethod) IsValid() bool {
	for _, m := range PaymentMethods {
		if m == p {
			return true
		}
	}
	return false
}
