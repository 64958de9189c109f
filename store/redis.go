package store

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	aurauth "github.com/aura-labs/aurauth"
)

const (
	defaultPrefix = "aura"

	// maxTxRetries bounds the optimistic-transaction retry loop. Losing
	// the WATCH race this many times in a row means pathological
	// contention on one account; surface it instead of spinning.
	maxTxRetries = 4
)

// Redis implements aurauth.CredentialStore and aurauth.OrderStore on a
// single Redis database.
type Redis struct {
	client *redis.Client
	prefix string
}

// New wraps a connected client. An empty prefix falls back to "aura".
func New(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (s *Redis) acctKey(id string) string       { return s.prefix + ":acct:" + id }
func (s *Redis) emailKey(email string) string   { return s.prefix + ":email:" + email }
func (s *Redis) orderKey(id string) string      { return s.prefix + ":order:" + id }
func (s *Redis) userOrdersKey(id string) string { return s.prefix + ":orders:" + id }
func (s *Redis) allOrdersKey() string           { return s.prefix + ":orders:all" }

func infraErr(err error) error {
	return fmt.Errorf("%w: %v", aurauth.ErrStoreUnavailable, err)
}

/*
====================================
ACCOUNTS
====================================
*/

// Create persists the account and claims its email atomically. The
// email index is the uniqueness authority: whoever writes it first owns
// the address.
func (s *Redis) Create(ctx context.Context, acc *aurauth.Account) error {
	encoded, err := json.Marshal(acc)
	if err != nil {
		return err
	}

	emailKey := s.emailKey(acc.Email)

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			_, err := tx.Get(ctx, emailKey).Result()
			if err == nil {
				return aurauth.ErrAccountExists
			}
			if !errors.Is(err, redis.Nil) {
				return infraErr(err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, emailKey, acc.ID, 0)
				pipe.Set(ctx, s.acctKey(acc.ID), encoded, 0)
				return nil
			})
			if err != nil {
				return infraErr(err)
			}
			return nil
		}, emailKey)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return infraErr(redis.TxFailedErr)
}

// FindByEmail resolves the email index, then loads the record.
func (s *Redis) FindByEmail(ctx context.Context, email string) (*aurauth.Account, error) {
	id, err := s.client.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, aurauth.ErrUserNotFound
		}
		return nil, infraErr(err)
	}
	return s.FindByID(ctx, id)
}

// FindByID loads one account record.
func (s *Redis) FindByID(ctx context.Context, id string) (*aurauth.Account, error) {
	data, err := s.client.Get(ctx, s.acctKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, aurauth.ErrUserNotFound
		}
		return nil, infraErr(err)
	}

	var acc aurauth.Account
	if err := json.Unmarshal(data, &acc); err != nil {
		return nil, infraErr(err)
	}
	return &acc, nil
}

// mutateAccount runs one optimistic read-modify-write on an account
// record. The mutate callback edits the decoded record in place; a
// sentinel error returned from it aborts the transaction untouched.
func (s *Redis) mutateAccount(ctx context.Context, id string, mutate func(*aurauth.Account) error) error {
	key := s.acctKey(id)

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return aurauth.ErrUserNotFound
				}
				return infraErr(err)
			}

			var acc aurauth.Account
			if err := json.Unmarshal(data, &acc); err != nil {
				return infraErr(err)
			}

			if err := mutate(&acc); err != nil {
				return err
			}

			encoded, err := json.Marshal(&acc)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				return nil
			})
			if err != nil {
				return infraErr(err)
			}
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return infraErr(redis.TxFailedErr)
}

// SetCode binds a code hash and expiry to the account's slot for the
// purpose, overwriting any outstanding code of that purpose.
func (s *Redis) SetCode(ctx context.Context, id string, purpose aurauth.Purpose, hash []byte, expiresAt time.Time) error {
	return s.mutateAccount(ctx, id, func(acc *aurauth.Account) error {
		slot := &aurauth.CodeSlot{Hash: hash, ExpiresAt: expiresAt.Unix()}
		if purpose == aurauth.PurposeReset {
			acc.ResetCode = slot
		} else {
			acc.VerifyCode = slot
		}
		return nil
	})
}

// ConsumeVerifyCode validates the hash against the verification slot
// and, in the same transaction, marks the account verified and clears
// the slot.
func (s *Redis) ConsumeVerifyCode(ctx context.Context, id string, hash []byte) error {
	return s.mutateAccount(ctx, id, func(acc *aurauth.Account) error {
		if err := checkSlot(acc.VerifyCode, hash); err != nil {
			return err
		}
		acc.Verified = true
		acc.VerifyCode = nil
		return nil
	})
}

// ConsumeResetCode validates the hash against the reset slot and, in the
// same transaction, installs the new password hash and clears the slot.
func (s *Redis) ConsumeResetCode(ctx context.Context, id string, hash []byte, newPasswordHash string) error {
	return s.mutateAccount(ctx, id, func(acc *aurauth.Account) error {
		if err := checkSlot(acc.ResetCode, hash); err != nil {
			return err
		}
		acc.PasswordHash = newPasswordHash
		acc.ResetCode = nil
		return nil
	})
}

// checkSlot decides whether a submitted code hash consumes the slot.
// Absent, expired, and mismatched all collapse into ErrCodeInvalid.
func checkSlot(slot *aurauth.CodeSlot, hash []byte) error {
	if slot.Expired(time.Now()) {
		return aurauth.ErrCodeInvalid
	}
	if subtle.ConstantTimeCompare(slot.Hash, hash) != 1 {
		return aurauth.ErrCodeInvalid
	}
	return nil
}

/*
====================================
CART
====================================
*/

// AddCartItem increments the (item, size) quantity, creating it at 1.
func (s *Redis) AddCartItem(ctx context.Context, id, itemID, size string) error {
	return s.mutateAccount(ctx, id, func(acc *aurauth.Account) error {
		if acc.Cart == nil {
			acc.Cart = aurauth.CartData{}
		}
		if acc.Cart[itemID] == nil {
			acc.Cart[itemID] = map[string]int{}
		}
		acc.Cart[itemID][size]++
		return nil
	})
}

// SetCartQuantity sets the (item, size) quantity. Zero or negative
// removes the pair; an item left with no sizes is pruned. Absent pairs
// are left untouched.
func (s *Redis) SetCartQuantity(ctx context.Context, id, itemID, size string, quantity int) error {
	return s.mutateAccount(ctx, id, func(acc *aurauth.Account) error {
		sizes, ok := acc.Cart[itemID]
		if !ok {
			return nil
		}
		if _, ok := sizes[size]; !ok {
			return nil
		}

		if quantity <= 0 {
			delete(sizes, size)
			if len(sizes) == 0 {
				delete(acc.Cart, itemID)
			}
			return nil
		}
		sizes[size] = quantity
		return nil
	})
}

// Cart returns the account's cart, never nil.
func (s *Redis) Cart(ctx context.Context, id string) (aurauth.CartData, error) {
	acc, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acc.Cart == nil {
		return aurauth.CartData{}, nil
	}
	return acc.Cart, nil
}

// ClearCart empties the account's cart.
func (s *Redis) ClearCart(ctx context.Context, id string) error {
	return s.mutateAccount(ctx, id, func(acc *aurauth.Account) error {
		acc.Cart = aurauth.CartData{}
		return nil
	})
}

/*
====================================
ORDERS
====================================
*/

// CreateOrder persists the order and appends it to the per-user and
// global indexes.
func (s *Redis) CreateOrder(ctx context.Context, o *aurauth.Order) error {
	encoded, err := json.Marshal(o)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.orderKey(o.ID), encoded, 0)
		pipe.RPush(ctx, s.userOrdersKey(o.UserID), o.ID)
		pipe.RPush(ctx, s.allOrdersKey(), o.ID)
		return nil
	})
	if err != nil {
		return infraErr(err)
	}
	return nil
}

// FindOrder loads one order record.
func (s *Redis) FindOrder(ctx context.Context, id string) (*aurauth.Order, error) {
	data, err := s.client.Get(ctx, s.orderKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, aurauth.ErrOrderNotFound
		}
		return nil, infraErr(err)
	}

	var o aurauth.Order
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, infraErr(err)
	}
	return &o, nil
}

// MarkOrderPaid flips the payment flag.
func (s *Redis) MarkOrderPaid(ctx context.Context, id string) error {
	return s.mutateOrder(ctx, id, func(o *aurauth.Order) error {
		o.Paid = true
		return nil
	})
}

// UpdateOrderStatus sets the fulfilment status.
func (s *Redis) UpdateOrderStatus(ctx context.Context, id, status string) error {
	return s.mutateOrder(ctx, id, func(o *aurauth.Order) error {
		o.Status = status
		return nil
	})
}

func (s *Redis) mutateOrder(ctx context.Context, id string, mutate func(*aurauth.Order) error) error {
	key := s.orderKey(id)

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return aurauth.ErrOrderNotFound
				}
				return infraErr(err)
			}

			var o aurauth.Order
			if err := json.Unmarshal(data, &o); err != nil {
				return infraErr(err)
			}

			if err := mutate(&o); err != nil {
				return err
			}

			encoded, err := json.Marshal(&o)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				return nil
			})
			if err != nil {
				return infraErr(err)
			}
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return infraErr(redis.TxFailedErr)
}

// OrdersByUser lists the account's orders, newest first.
func (s *Redis) OrdersByUser(ctx context.Context, userID string) ([]aurauth.Order, error) {
	return s.ordersFromIndex(ctx, s.userOrdersKey(userID))
}

// AllOrders lists every order, newest first.
func (s *Redis) AllOrders(ctx context.Context) ([]aurauth.Order, error) {
	return s.ordersFromIndex(ctx, s.allOrdersKey())
}

func (s *Redis) ordersFromIndex(ctx context.Context, indexKey string) ([]aurauth.Order, error) {
	ids, err := s.client.LRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, infraErr(err)
	}

	orders := make([]aurauth.Order, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		o, err := s.FindOrder(ctx, ids[i])
		if err != nil {
			if errors.Is(err, aurauth.ErrOrderNotFound) {
				continue
			}
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}
