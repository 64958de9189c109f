package aurauth

import (
	"context"
	"fmt"
	"time"

	"github.com/aura-labs/aurauth/internal"
	"go.uber.org/zap"
)

// PlaceOrder records a cash-on-delivery order and clears the user's
// cart. The items and amount are taken as submitted; pricing authority
// lives with the catalog service, not here.
func (e *Engine) PlaceOrder(ctx context.Context, in PlaceOrderInput) (string, error) {
	order, err := e.newOrder(in, PaymentCOD)
	if err != nil {
		return "", err
	}

	if err := e.orders.CreateOrder(ctx, order); err != nil {
		return "", err
	}

	e.clearCartAfterOrder(ctx, in.UserID, order.ID)
	e.emitAudit(ctx, auditEventOrderPlaced, true, in.UserID, "", nil, map[string]string{
		"order":  order.ID,
		"method": string(PaymentCOD),
	})
	return order.ID, nil
}

// PlaceOrderOnline records a pending order and opens a matching order at
// the payment gateway, keyed back to ours through the receipt field. The
// cart survives until the payment is verified.
func (e *Engine) PlaceOrderOnline(ctx context.Context, in PlaceOrderInput) (OnlineOrderResult, error) {
	if e.gateway == nil {
		return OnlineOrderResult{}, ErrEngineNotReady
	}

	order, err := e.newOrder(in, PaymentOnline)
	if err != nil {
		return OnlineOrderResult{}, err
	}

	gatewayID, err := e.gateway.CreateOrder(ctx, order.Amount, e.config.Order.Currency, order.ID)
	if err != nil {
		return OnlineOrderResult{}, fmt.Errorf("%w: %w", ErrPaymentUnavailable, err)
	}
	order.GatewayID = gatewayID

	if err := e.orders.CreateOrder(ctx, order); err != nil {
		return OnlineOrderResult{}, err
	}

	e.emitAudit(ctx, auditEventOrderPlaced, true, in.UserID, "", nil, map[string]string{
		"order":  order.ID,
		"method": string(PaymentOnline),
	})
	return OnlineOrderResult{
		OrderID:        order.ID,
		GatewayOrderID: gatewayID,
		Amount:         order.Amount,
		Currency:       e.config.Order.Currency,
	}, nil
}

// VerifyOnlinePayment asks the gateway for the order's settlement state.
// A paid order is marked paid and the cart cleared; anything else fails
// with ErrPaymentFailed and leaves the order pending.
func (e *Engine) VerifyOnlinePayment(ctx context.Context, userID, gatewayOrderID string) error {
	if e.orders == nil || e.gateway == nil {
		return ErrEngineNotReady
	}
	if gatewayOrderID == "" {
		return ErrMissingDetails
	}

	gw, err := e.gateway.FetchOrder(ctx, gatewayOrderID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPaymentUnavailable, err)
	}
	if gw.Status != GatewayStatusPaid {
		e.emitAudit(ctx, auditEventPaymentVerified, false, userID, "", ErrPaymentFailed, map[string]string{
			"order":  gw.Receipt,
			"status": gw.Status,
		})
		return ErrPaymentFailed
	}

	// The receipt carries our order id back from the gateway.
	if err := e.orders.MarkOrderPaid(ctx, gw.Receipt); err != nil {
		return err
	}

	e.clearCartAfterOrder(ctx, userID, gw.Receipt)
	e.emitAudit(ctx, auditEventPaymentVerified, true, userID, "", nil, map[string]string{
		"order": gw.Receipt,
	})
	return nil
}

// UserOrders lists the account's orders, newest first.
func (e *Engine) UserOrders(ctx context.Context, userID string) ([]Order, error) {
	if e.orders == nil {
		return nil, ErrEngineNotReady
	}
	if userID == "" {
		return nil, ErrMissingDetails
	}
	return e.orders.OrdersByUser(ctx, userID)
}

// AllOrders lists every order. Privileged callers only; the transport
// gates this behind VerifyAdmin.
func (e *Engine) AllOrders(ctx context.Context) ([]Order, error) {
	if e.orders == nil {
		return nil, ErrEngineNotReady
	}
	return e.orders.AllOrders(ctx)
}

// UpdateOrderStatus sets an order's fulfilment status. Privileged
// callers only.
func (e *Engine) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	if e.orders == nil {
		return ErrEngineNotReady
	}
	if orderID == "" || status == "" {
		return ErrMissingDetails
	}
	return e.orders.UpdateOrderStatus(ctx, orderID, status)
}

func (e *Engine) newOrder(in PlaceOrderInput, method PaymentMethod) (*Order, error) {
	if e.orders == nil {
		return nil, ErrEngineNotReady
	}
	if in.UserID == "" {
		return nil, ErrMissingDetails
	}
	if len(in.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if len(in.Address) == 0 {
		return nil, ErrAddressRequired
	}

	return &Order{
		ID:       internal.NewOrderID(),
		UserID:   in.UserID,
		Items:    in.Items,
		Amount:   in.Amount + e.config.Order.DeliveryCharge,
		Address:  in.Address,
		Status:   e.config.Order.InitialStatus,
		Method:   method,
		PlacedAt: time.Now().Unix(),
	}, nil
}

// clearCartAfterOrder empties the cart once an order is committed. A
// failure here is logged, not surfaced: the order already exists and the
// user can clear the cart manually.
func (e *Engine) clearCartAfterOrder(ctx context.Context, userID, orderID string) {
	if err := e.store.ClearCart(ctx, userID); err != nil {
		e.log().Warn("cart clear after order failed",
			zap.String("user", userID),
			zap.String("order", orderID),
			zap.Error(err))
	}
}
