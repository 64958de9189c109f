package aurauth

import "errors"

var (
	// ErrMissingDetails is returned when a flow is called without its
	// required inputs.
	ErrMissingDetails = errors.New("missing details")
	// ErrUnauthorized is returned when no usable session token accompanies
	// a request that requires one.
	ErrUnauthorized = errors.New("not authorized")
	// ErrUserNotFound is returned when an account id or email resolves to
	// no stored account.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountExists is returned by Register when the email is already
	// taken.
	ErrAccountExists = errors.New("user already exists")
	// ErrAlreadyVerified is returned when a verification code is requested
	// for an account that is already verified.
	ErrAlreadyVerified = errors.New("account already verified")
	// ErrInvalidEmail is returned by Login when the email matches no
	// account.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidPassword is returned by Login on a password mismatch.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrCodeInvalid covers every unusable OTP: wrong value, expired, or
	// never issued. The cases are deliberately not distinguished to the
	// caller.
	ErrCodeInvalid = errors.New("invalid or expired otp")
	// ErrTokenInvalid is returned when a session token fails signature or
	// shape checks.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned when a session token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrAdminCredentials is returned when the privileged credential pair
	// does not match.
	ErrAdminCredentials = errors.New("invalid credentials")
	// ErrMailUnavailable is returned when an awaited notification cannot be
	// delivered.
	ErrMailUnavailable = errors.New("notification delivery failed")
	// ErrStoreUnavailable wraps credential or order store infrastructure
	// failures.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEngineNotReady is returned when an Engine method is called before
	// a required dependency was injected.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrEmptyCart is returned when an order is placed with no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrAddressRequired is returned when an order is placed without a
	// delivery address.
	ErrAddressRequired = errors.New("address is required")
	// ErrOrderNotFound is returned when an order id resolves to no stored
	// order.
	ErrOrderNotFound = errors.New("order not found")
	// ErrPaymentFailed is returned when the gateway reports an order as
	// unpaid during verification.
	ErrPaymentFailed = errors.New("payment failed")
	// ErrPaymentUnavailable wraps payment gateway transport failures.
	ErrPaymentUnavailable = errors.New("payment gateway unavailable")
)
