package aurauth

import (
	"context"
	"encoding/json"
	"time"
)

// Purpose tags the two one-time-code flows. Each purpose owns an
// independent code slot on the account, so an outstanding reset code never
// invalidates an outstanding verification code or vice versa.
type Purpose int

const (
	// PurposeVerification is the email-verification flow (24h code TTL by
	// default).
	PurposeVerification Purpose = iota
	// PurposeReset is the password-reset flow (15m code TTL by default).
	PurposeReset
)

func (p Purpose) String() string {
	switch p {
	case PurposeVerification:
		return "verification"
	case PurposeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// CodeSlot is one outstanding one-time code: the SHA-256 hash of the code
// and its absolute expiry. A nil slot means no code is outstanding. A slot
// whose expiry is in the past is treated as absent regardless of the hash.
type CodeSlot struct {
	Hash      []byte `json:"hash"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Expired reports whether the slot is past its expiry at the given instant.
func (s *CodeSlot) Expired(now time.Time) bool {
	return s == nil || now.Unix() > s.ExpiresAt
}

// CartData maps item id -> size label -> quantity. Stored quantities are
// always >= 1; emptied entries are pruned, never kept at zero.
type CartData map[string]map[string]int

// Account is the full identity record as persisted. It carries the
// password hash and must never cross the authentication gate; handlers see
// [Identity] instead.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Verified     bool      `json:"verified"`
	VerifyCode   *CodeSlot `json:"verifyCode,omitempty"`
	ResetCode    *CodeSlot `json:"resetCode,omitempty"`
	Cart         CartData  `json:"cart,omitempty"`
	CreatedAt    int64     `json:"createdAt"`
}

// Identity is the hash-free projection of an account attached to request
// contexts by the middleware gate and returned by [Engine.UserData].
type Identity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Verified bool   `json:"isVerified"`
}

// Identity projects the account into its gate-safe form.
func (a *Account) Identity() Identity {
	return Identity{
		ID:       a.ID,
		Name:     a.Name,
		Email:    a.Email,
		Verified: a.Verified,
	}
}

// CredentialStore is the persistence interface the Engine requires for
// accounts. Implementations must return the sentinel errors of this
// package (ErrUserNotFound, ErrAccountExists, ErrCodeInvalid) for the
// documented conditions and wrap infrastructure failures in
// ErrStoreUnavailable.
//
// Every read-modify-write on a single account (code issue/consume, cart
// mutation) must be atomic with respect to that account's record: the
// Redis implementation in the store sub-package runs them as optimistic
// WATCH transactions. ConsumeVerifyCode and ConsumeResetCode clear the
// code slot in the same transaction that applies the flow's effect, so a
// code can never be replayed after a partially applied consume.
type CredentialStore interface {
	// Create persists a new account. Fails with ErrAccountExists when the
	// email is already indexed.
	Create(ctx context.Context, acc *Account) error
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)

	// SetCode binds a one-time code hash and expiry to the account's slot
	// for the given purpose, overwriting any prior code of that purpose.
	SetCode(ctx context.Context, id string, purpose Purpose, hash []byte, expiresAt time.Time) error
	// ConsumeVerifyCode validates the submitted code hash against the
	// verification slot and, atomically, marks the account verified and
	// clears the slot. Fails with ErrCodeInvalid on mismatch, expiry, or
	// an empty slot.
	ConsumeVerifyCode(ctx context.Context, id string, hash []byte) error
	// ConsumeResetCode validates the submitted code hash against the reset
	// slot and, atomically, installs the new password hash and clears the
	// slot.
	ConsumeResetCode(ctx context.Context, id string, hash []byte, newPasswordHash string) error

	// AddCartItem increments the (item, size) quantity, creating it at 1.
	AddCartItem(ctx context.Context, id, itemID, size string) error
	// SetCartQuantity sets the (item, size) quantity. A quantity <= 0
	// removes the pair and prunes the item entry when no sizes remain.
	// Absent pairs are left untouched.
	SetCartQuantity(ctx context.Context, id, itemID, size string, quantity int) error
	Cart(ctx context.Context, id string) (CartData, error)
	ClearCart(ctx context.Context, id string) error
}

// PaymentMethod identifies how an order is paid.
type PaymentMethod string

const (
	// PaymentCOD is cash on delivery.
	PaymentCOD PaymentMethod = "COD"
	// PaymentOnline is the external gateway.
	PaymentOnline PaymentMethod = "Razorpay"
)

// OrderItem is a product snapshot inside an order.
type OrderItem struct {
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// Order is a placed order. Address is carried opaquely: the engine
// requires it to be present but does not interpret it.
type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Items     []OrderItem     `json:"items"`
	Amount    int64           `json:"amount"`
	Address   json.RawMessage `json:"address"`
	Status    string          `json:"status"`
	Method    PaymentMethod   `json:"paymentMethod"`
	Paid      bool            `json:"payment"`
	PlacedAt  int64           `json:"date"`
	GatewayID string          `json:"gatewayOrderId,omitempty"`
}

// OrderStore persists orders. Same error contract as [CredentialStore].
type OrderStore interface {
	CreateOrder(ctx context.Context, o *Order) error
	FindOrder(ctx context.Context, id string) (*Order, error)
	MarkOrderPaid(ctx context.Context, id string) error
	UpdateOrderStatus(ctx context.Context, id, status string) error
	OrdersByUser(ctx context.Context, userID string) ([]Order, error)
	AllOrders(ctx context.Context) ([]Order, error)
}

// GatewayOrder is the gateway's view of an order.
type GatewayOrder struct {
	ID      string
	Receipt string
	Status  string
}

// GatewayStatusPaid is the gateway status that marks an order as settled.
const GatewayStatusPaid = "paid"

// PaymentGateway is the narrow capability the engine needs from the
// external payment provider: create an order, fetch its status. The
// provider itself is out of scope.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error)
	FetchOrder(ctx context.Context, gatewayOrderID string) (GatewayOrder, error)
}

// Message is one outbound transactional email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers transactional email. Implementations should honor ctx
// cancellation; the engine applies its own per-send timeout.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// RegisterResult is returned by [Engine.Register].
type RegisterResult struct {
	UserID string
	Token  string
}

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	UserID string
	Token  string
}

// PlaceOrderInput is the input for order placement.
type PlaceOrderInput struct {
	UserID  string
	Items   []OrderItem
	Amount  int64
	Address json.RawMessage
}

// OnlineOrderResult is returned by [Engine.PlaceOrderOnline]: the local
// order plus the gateway order id the client completes payment against.
type OnlineOrderResult struct {
	OrderID        string
	GatewayOrderID string
	Amount         int64
	Currency       string
}
