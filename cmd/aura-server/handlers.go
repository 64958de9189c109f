package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	aurauth "github.com/aura-labs/aurauth"
	"github.com/aura-labs/aurauth/middleware"
)

type handlers struct {
	engine *aurauth.Engine
	cfg    aurauth.Config
	logger *zap.Logger
}

// envelope is the uniform response shape. Flows attach their payload
// through the extra fields.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Token   string            `json:"token,omitempty"`
	UserID  string            `json:"userId,omitempty"`
	User    *aurauth.Identity `json:"userData,omitempty"`
	Cart    aurauth.CartData  `json:"cartData,omitempty"`
	Orders  []aurauth.Order   `json:"orders,omitempty"`
	Order   any               `json:"order,omitempty"`
}

func respond(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decode(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// fail maps engine sentinels onto status codes and the uniform shape.
func (h *handlers) fail(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	message := err.Error()

	switch {
	case errors.Is(err, aurauth.ErrUnauthorized),
		errors.Is(err, aurauth.ErrTokenInvalid),
		errors.Is(err, aurauth.ErrTokenExpired),
		errors.Is(err, aurauth.ErrAdminCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, aurauth.ErrUserNotFound),
		errors.Is(err, aurauth.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, aurauth.ErrAccountExists):
		status = http.StatusConflict
	case errors.Is(err, aurauth.ErrStoreUnavailable),
		errors.Is(err, aurauth.ErrMailUnavailable),
		errors.Is(err, aurauth.ErrPaymentUnavailable),
		errors.Is(err, aurauth.ErrEngineNotReady):
		status = http.StatusInternalServerError
		message = "Something went wrong"
		h.logger.Error("request failed", zap.Error(err))
	}

	respond(w, status, envelope{Success: false, Message: message})
}

func (h *handlers) identity(r *http.Request) (aurauth.Identity, bool) {
	return aurauth.IdentityFromContext(r.Context())
}

func (h *handlers) setSessionCookie(w http.ResponseWriter, token string) {
	c := &http.Cookie{
		Name:     h.cfg.Cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cfg.Cookie.MaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.cfg.Cookie.Production {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, c)
}

func (h *handlers) clearSessionCookie(w http.ResponseWriter) {
	c := &http.Cookie{
		Name:     h.cfg.Cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.cfg.Cookie.Production {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, c)
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, envelope{Success: true, Message: "API working"})
}

/*
====================================
AUTH
====================================
*/

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		h.fail(w, aurauth.ErrMissingDetails)
		return
	}

	res, err := h.engine.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	respond(w, http.StatusCreated, envelope{Success: true, Token: res.Token})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		h.fail(w, aurauth.ErrMissingDetails)
		return
	}

	res, err := h.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	respond(w, http.StatusOK, envelope{Success: true, Token: res.Token})
}

// logout never fails: the identity is resolved best-effort for the
// logout notice, and the cookie is cleared no matter what the request
// carried.
func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.ResolveToken(r, h.cfg.Cookie.Name); ok {
		if id, err := h.engine.VerifySession(r.Context(), token); err == nil {
			h.engine.Logout(r.Context(), id.ID)
		}
	}
	h.clearSessionCookie(w)
	respond(w, http.StatusOK, envelope{Success: true, Message: "Logged out"})
}

func (h *handlers) userData(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(r)
	if !ok {
		h.fail(w, aurauth.ErrUnauthorized)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, User: &id})
}

func (h *handlers) isAuthenticated(w http.ResponseWriter, r *http.Request) {
	// The guard already verified the token; answer with the subject.
	id, ok := h.identity(r)
	if !ok {
		h.fail(w, aurauth.ErrUnauthorized)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, UserID: id.ID})
}

func (h *handlers) sendVerifyOTP(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(r)
	if !ok {
		h.fail(w, aurauth.ErrUnauthorized)
		return
	}

	if err := h.engine.SendVerifyCode(r.Context(), id.ID); err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, Message: "Verification OTP sent on email"})
}

func (h *handlers) verifyAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(r)
	if !ok {
		h.fail(w, aurauth.ErrUnauthorized)
		return
	}

	var req struct {
		OTP string `json:"otp"`
	}
	if err := decode(r, &req); err != nil {
		h.fail(w, aurauth.ErrMissingDetails)
		return
	}

	if err := h.engine.ConfirmVerifyCode(r.Context(), id.ID, req.OTP); err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, Message: "Email verified successfully"})
}

func (h *handlers) sendResetOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil {
		h.fail(w, aurauth.ErrMissingDetails)
		return
	}

	if err := h.engine.SendResetCode(r.Context(), req.Email); err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, Message: "OTP sent to your email"})
}

func (h *handlers) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}
	if err := decode(r, &req); err != nil {
		h.fail(w, aurauth.ErrMissingDetails)
		return
	}

	if err := h.engine.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, Message: "Password has been reset successfully"})
}

func (h *handlers) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		h.fail(w, aurauth.ErrMissingDetails)
		return
	}

	token, err := h.engine.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, Token: token})
}

/*
====================================
CART
====================================
*/

func (h *handlers) cartAdd(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(r)
	if !ok {
		h.fail(w, aurauth.ErrUnauthorized)
		return
	}

	var req struct {
		ItemID string `json:"itemId"`
		Size   string `json:"size"`
	}
	if err := decode(r, &req); err != nil {
		h.fail(w, aurauth.ErrMissingDetails)
		return
	}

	if err := h.engine.AddToCart(r.Context(), id.ID, req.ItemID, req.Size); err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, Message: "Added To Cart"})
}

func (h *handlers) cartUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(r)
	if !ok {
		h.fail(w, aurauth.ErrUnauthorized)
		return
	}

	var req struct {
		ItemID   string `json:"itemId"`
		Size     string `json:"size"`
		Quantity int    `json:"quantity"`
	}
	if err := decode(r, &req); err != nil {
		h.fail(w, aurauth.ErrMissingDetails)
		return
	}

	if err := h.engine.UpdateCart(r.Context(), id.ID, req.ItemID, req.Size, req.Quantity); err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, Message: "Cart Updated"})
}

func (h *handlers) cartGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(r)
	if !ok {
		h.fail(w, aurauth.ErrUnauthorized)
		return
	}

	cart, err := h.engine.GetCart(r.Context(), id.ID)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, Cart: cart})
}

/*
====================================
ORDERS
====================================
*/

type orderRequest struct {
	Items   []aurauth.OrderItem `json:"items"`
	Amount  int64               `json:"amount"`
	Address json.RawMessage     `json:"address"`
}

func (h *handlers) orderPlace(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(r)
	if !ok {
		h.fail(w, aurauth.ErrUnauthorized)
		return
	}

	var req orderRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, aurauth.ErrMissingDetails)
		return
	}

	_, err := h.engine.PlaceOrder(r.Context(), aurauth.PlaceOrderInput{
		UserID:  id.ID,
		Items:   req.Items,
		Amount:  req.Amount,
		Address: req.Address,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, Message: "Order Placed"})
}

func (h *handlers) orderRazorpay(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(r)
	if !ok {
		h.fail(w, aurauth.ErrUnauthorized)
		return
	}

	var req orderRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, aurauth.ErrMissingDetails)
		return
	}

	res, err := h.engine.PlaceOrderOnline(r.Context(), aurauth.PlaceOrderInput{
		UserID:  id.ID,
		Items:   req.Items,
		Amount:  req.Amount,
		Address: req.Address,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, Order: res})
}

func (h *handlers) orderVerifyRazorpay(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(r)
	if !ok {
		h.fail(w, aurauth.ErrUnauthorized)
		return
	}

	var req struct {
		GatewayOrderID string `json:"razorpay_order_id"`
	}
	if err := decode(r, &req); err != nil {
		h.fail(w, aurauth.ErrMissingDetails)
		return
	}

	if err := h.engine.VerifyOnlinePayment(r.Context(), id.ID, req.GatewayOrderID); err != nil {
		if errors.Is(err, aurauth.ErrPaymentFailed) {
			respond(w, http.StatusOK, envelope{Success: false, Message: "Payment Failed"})
			return
		}
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, Message: "Payment Successful"})
}

func (h *handlers) userOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(r)
	if !ok {
		h.fail(w, aurauth.ErrUnauthorized)
		return
	}

	orders, err := h.engine.UserOrders(r.Context(), id.ID)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, Orders: orders})
}

func (h *handlers) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.engine.AllOrders(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, Orders: orders})
}

func (h *handlers) orderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"orderId"`
		Status  string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		h.fail(w, aurauth.ErrMissingDetails)
		return
	}

	if err := h.engine.UpdateOrderStatus(r.Context(), req.OrderID, req.Status); err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, Message: "Status Updated"})
}
