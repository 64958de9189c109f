package aurauth

import "context"

// AddToCart increments the quantity for an (item, size) pair, creating
// the pair at quantity 1.
func (e *Engine) AddToCart(ctx context.Context, userID, itemID, size string) error {
	if e.store == nil {
		return ErrEngineNotReady
	}
	if userID == "" || itemID == "" || size == "" {
		return ErrMissingDetails
	}

	if err := e.store.AddCartItem(ctx, userID, itemID, size); err != nil {
		return err
	}

	e.emitAudit(ctx, auditEventCartUpdated, true, userID, "", nil, map[string]string{
		"action": "add",
		"item":   itemID,
		"size":   size,
	})
	return nil
}

// UpdateCart sets the quantity for an (item, size) pair. Zero or
// negative quantities remove the pair; item entries with no sizes left
// are pruned. Updating an absent pair is a no-op, not an error.
func (e *Engine) UpdateCart(ctx context.Context, userID, itemID, size string, quantity int) error {
	if e.store == nil {
		return ErrEngineNotReady
	}
	if userID == "" || itemID == "" || size == "" {
		return ErrMissingDetails
	}

	if err := e.store.SetCartQuantity(ctx, userID, itemID, size, quantity); err != nil {
		return err
	}

	e.emitAudit(ctx, auditEventCartUpdated, true, userID, "", nil, map[string]string{
		"action": "update",
		"item":   itemID,
		"size":   size,
	})
	return nil
}

// GetCart returns the account's cart. A missing cart is an empty map,
// never nil.
func (e *Engine) GetCart(ctx context.Context, userID string) (CartData, error) {
	if e.store == nil {
		return nil, ErrEngineNotReady
	}
	if userID == "" {
		return nil, ErrMissingDetails
	}

	cart, err := e.store.Cart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = CartData{}
	}
	return cart, nil
}
