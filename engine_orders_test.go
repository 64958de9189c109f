package aurauth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func testOrderInput(userID string) PlaceOrderInput {
	return PlaceOrderInput{
		UserID: userID,
		Items: []OrderItem{
			{ItemID: "shirt-1", Name: "Shirt", Size: "M", Quantity: 2, Price: 499},
		},
		Amount:  998,
		Address: json.RawMessage(`{"street":"1 Main St","city":"Pune"}`),
	}
}

func TestPlaceOrderCOD(t *testing.T) {
	env := newTestEngine(t, nil)
	res := registerUser(t, env, "alice@example.com")
	ctx := context.Background()

	if err := env.engine.AddToCart(ctx, res.UserID, "shirt-1", "M"); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}

	orderID, err := env.engine.PlaceOrder(ctx, testOrderInput(res.UserID))
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	order, err := env.store.FindOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("FindOrder failed: %v", err)
	}
	if order.Method != PaymentCOD {
		t.Fatalf("method = %s, want COD", order.Method)
	}
	if order.Paid {
		t.Fatal("COD order must start unpaid")
	}
	if order.Amount != 998+DefaultConfig().Order.DeliveryCharge {
		t.Fatalf("amount = %d, delivery charge not applied", order.Amount)
	}
	if order.Status != DefaultConfig().Order.InitialStatus {
		t.Fatalf("status = %q", order.Status)
	}

	cart, _ := env.engine.GetCart(ctx, res.UserID)
	if len(cart) != 0 {
		t.Fatalf("cart should be cleared after COD placement: %v", cart)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	env := newTestEngine(t, nil)
	res := registerUser(t, env, "alice@example.com")
	ctx := context.Background()

	empty := testOrderInput(res.UserID)
	empty.Items = nil
	if _, err := env.engine.PlaceOrder(ctx, empty); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}

	noAddr := testOrderInput(res.UserID)
	noAddr.Address = nil
	if _, err := env.engine.PlaceOrder(ctx, noAddr); !errors.Is(err, ErrAddressRequired) {
		t.Fatalf("expected ErrAddressRequired, got %v", err)
	}
}

func TestOnlineOrderFlow(t *testing.T) {
	env := newTestEngine(t, nil)
	res := registerUser(t, env, "alice@example.com")
	ctx := context.Background()

	if err := env.engine.AddToCart(ctx, res.UserID, "shirt-1", "M"); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}

	placed, err := env.engine.PlaceOrderOnline(ctx, testOrderInput(res.UserID))
	if err != nil {
		t.Fatalf("PlaceOrderOnline failed: %v", err)
	}
	if placed.GatewayOrderID == "" {
		t.Fatal("expected gateway order id")
	}

	// Cart survives until payment is verified.
	cart, _ := env.engine.GetCart(ctx, res.UserID)
	if len(cart) == 0 {
		t.Fatal("cart should survive a pending online order")
	}

	// Unpaid gateway order fails verification and changes nothing.
	err = env.engine.VerifyOnlinePayment(ctx, res.UserID, placed.GatewayOrderID)
	if !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("expected ErrPaymentFailed, got %v", err)
	}
	order, _ := env.store.FindOrder(ctx, placed.OrderID)
	if order.Paid {
		t.Fatal("order marked paid without settlement")
	}

	// Settle at the gateway, then verification succeeds.
	env.gateway.settle(t, placed.GatewayOrderID)
	if err := env.engine.VerifyOnlinePayment(ctx, res.UserID, placed.GatewayOrderID); err != nil {
		t.Fatalf("VerifyOnlinePayment failed: %v", err)
	}

	order, _ = env.store.FindOrder(ctx, placed.OrderID)
	if !order.Paid {
		t.Fatal("order should be marked paid")
	}
	cart, _ = env.engine.GetCart(ctx, res.UserID)
	if len(cart) != 0 {
		t.Fatalf("cart should be cleared after payment: %v", cart)
	}
}

func TestUserOrdersScopedToUser(t *testing.T) {
	env := newTestEngine(t, nil)
	alice := registerUser(t, env, "alice@example.com")
	bob := registerUser(t, env, "bob@example.com")
	ctx := context.Background()

	if _, err := env.engine.PlaceOrder(ctx, testOrderInput(alice.UserID)); err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if _, err := env.engine.PlaceOrder(ctx, testOrderInput(bob.UserID)); err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	aliceOrders, err := env.engine.UserOrders(ctx, alice.UserID)
	if err != nil {
		t.Fatalf("UserOrders failed: %v", err)
	}
	if len(aliceOrders) != 1 || aliceOrders[0].UserID != alice.UserID {
		t.Fatalf("unexpected orders for alice: %+v", aliceOrders)
	}

	all, err := env.engine.AllOrders(ctx)
	if err != nil {
		t.Fatalf("AllOrders failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders total, got %d", len(all))
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	env := newTestEngine(t, nil)
	res := registerUser(t, env, "alice@example.com")
	ctx := context.Background()

	orderID, err := env.engine.PlaceOrder(ctx, testOrderInput(res.UserID))
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	if err := env.engine.UpdateOrderStatus(ctx, orderID, "Shipped"); err != nil {
		t.Fatalf("UpdateOrderStatus failed: %v", err)
	}
	order, _ := env.store.FindOrder(ctx, orderID)
	if order.Status != "Shipped" {
		t.Fatalf("status = %q, want Shipped", order.Status)
	}

	if err := env.engine.UpdateOrderStatus(ctx, "missing", "Shipped"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
