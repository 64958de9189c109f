package aurauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"
)

// memStore is an in-memory CredentialStore + OrderStore with the same
// error contract as the Redis implementation.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
	byEmail  map[string]string
	orders   map[string]*Order
	orderSeq []string
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]*Account{},
		byEmail:  map[string]string{},
		orders:   map[string]*Order{},
	}
}

func (s *memStore) Create(_ context.Context, acc *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[acc.Email]; ok {
		return ErrAccountExists
	}
	cp := *acc
	s.accounts[acc.ID] = &cp
	s.byEmail[acc.Email] = acc.ID
	return nil
}

func (s *memStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	s.mu.Lock()
	id, ok := s.byEmail[email]
	s.mu.Unlock()
	if !ok {
		return nil, ErrUserNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *memStore) FindByID(_ context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *acc
	return &cp, nil
}

func (s *memStore) SetCode(_ context.Context, id string, purpose Purpose, hash []byte, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return ErrUserNotFound
	}
	slot := &CodeSlot{Hash: hash, ExpiresAt: expiresAt.Unix()}
	if purpose == PurposeReset {
		acc.ResetCode = slot
	} else {
		acc.VerifyCode = slot
	}
	return nil
}

func checkTestSlot(slot *CodeSlot, hash []byte) error {
	if slot.Expired(time.Now()) {
		return ErrCodeInvalid
	}
	if subtle.ConstantTimeCompare(slot.Hash, hash) != 1 {
		return ErrCodeInvalid
	}
	return nil
}

func (s *memStore) ConsumeVerifyCode(_ context.Context, id string, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return ErrUserNotFound
	}
	if err := checkTestSlot(acc.VerifyCode, hash); err != nil {
		return err
	}
	acc.Verified = true
	acc.VerifyCode = nil
	return nil
}

func (s *memStore) ConsumeResetCode(_ context.Context, id string, hash []byte, newPasswordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return ErrUserNotFound
	}
	if err := checkTestSlot(acc.ResetCode, hash); err != nil {
		return err
	}
	acc.PasswordHash = newPasswordHash
	acc.ResetCode = nil
	return nil
}

func (s *memStore) AddCartItem(_ context.Context, id, itemID, size string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return ErrUserNotFound
	}
	if acc.Cart == nil {
		acc.Cart = CartData{}
	}
	if acc.Cart[itemID] == nil {
		acc.Cart[itemID] = map[string]int{}
	}
	acc.Cart[itemID][size]++
	return nil
}

func (s *memStore) SetCartQuantity(_ context.Context, id, itemID, size string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return ErrUserNotFound
	}
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
}

func (s *memStore) Cart(_ context.Context, id string) (CartData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if acc.Cart == nil {
		return CartData{}, nil
	}
	return acc.Cart, nil
}

func (s *memStore) ClearCart(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return ErrUserNotFound
	}
	acc.Cart = CartData{}
	return nil
}

func (s *memStore) CreateOrder(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	s.orders[o.ID] = &cp
	s.orderSeq = append(s.orderSeq, o.ID)
	return nil
}

func (s *memStore) FindOrder(_ context.Context, id string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) MarkOrderPaid(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Paid = true
	return nil
}

func (s *memStore) UpdateOrderStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (s *memStore) OrdersByUser(_ context.Context, userID string) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for i := len(s.orderSeq) - 1; i >= 0; i-- {
		if o := s.orders[s.orderSeq[i]]; o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *memStore) AllOrders(_ context.Context) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, 0, len(s.orderSeq))
	for i := len(s.orderSeq) - 1; i >= 0; i-- {
		out = append(out, *s.orders[s.orderSeq[i]])
	}
	return out, nil
}

// setSlotExpiry rewrites a code slot's expiry for expiry tests.
func (s *memStore) setSlotExpiry(t *testing.T, id string, purpose Purpose, at time.Time) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		t.Fatalf("no account %s", id)
	}
	slot := acc.VerifyCode
	if purpose == PurposeReset {
		slot = acc.ResetCode
	}
	if slot == nil {
		t.Fatalf("no %s code on account %s", purpose, id)
	}
	slot.ExpiresAt = at.Unix()
}

// memMailer records sent messages; the first failN sends fail.
type memMailer struct {
	mu    sync.Mutex
	sent  []Message
	failN int
}

var errMailDown = errors.New("relay down")

func (m *memMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failN > 0 {
		m.failN--
		return errMailDown
	}
	m.sent = append(m.sent, msg)
	return nil
}

var otpPattern = regexp.MustCompile(`\b\d{6}\b`)

// lastOTP pulls the six-digit code out of the most recent code-bearing
// message. Best-effort notices may interleave, so scan backwards.
func (m *memMailer) lastOTP(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if code := otpPattern.FindString(m.sent[i].Text); code != "" {
			return code
		}
	}
	t.Fatal("no otp in any sent message")
	return ""
}

// memGateway fakes the payment provider with in-memory orders.
type memGateway struct {
	mu     sync.Mutex
	orders map[string]GatewayOrder
	failed bool
}

func newMemGateway() *memGateway {
	return &memGateway{orders: map[string]GatewayOrder{}}
}

func (g *memGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failed {
		return "", errors.New("gateway down")
	}
	id := "gw_" + receipt
	g.orders[id] = GatewayOrder{ID: id, Receipt: receipt, Status: "created"}
	return id, nil
}

func (g *memGateway) FetchOrder(_ context.Context, gatewayOrderID string) (GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[gatewayOrderID]
	if !ok {
		return GatewayOrder{}, errors.New("gateway order not found")
	}
	return o, nil
}

func (g *memGateway) settle(t *testing.T, gatewayOrderID string) {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[gatewayOrderID]
	if !ok {
		t.Fatalf("no gateway order %s", gatewayOrderID)
	}
	o.Status = GatewayStatusPaid
	g.orders[gatewayOrderID] = o
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("test-secret")
	cfg.Admin.Email = "admin@example.com"
	cfg.Admin.Password = "admin-secret"
	cfg.Mail.SendTimeout = time.Second
	cfg.Mail.RetryBackoff = time.Millisecond
	return cfg
}

type testEnv struct {
	engine  *Engine
	store   *memStore
	mailer  *memMailer
	gateway *memGateway
}

func newTestEngine(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	st := newMemStore()
	mailer := &memMailer{}
	gateway := newMemGateway()

	engine, err := New().
		WithConfig(cfg).
		WithCredentialStore(st).
		WithOrderStore(st).
		WithPaymentGateway(gateway).
		WithMailer(mailer).
		WithPasswordCost(4).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEnv{engine: engine, store: st, mailer: mailer, gateway: gateway}
}

func registerUser(t *testing.T, env *testEnv, email string) RegisterResult {
	t.Helper()
	res, err := env.engine.Register(context.Background(), "Test User", email, "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return res
}

// seedUser inserts an account directly, skipping Register and its
// best-effort welcome mail. Tests that count or fail mailer sends use
// this to keep the mailer deterministic.
func seedUser(t *testing.T, env *testEnv, email string) *Account {
	t.Helper()
	hash, err := env.engine.passwordHash.Hash("password123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	acc := &Account{
		ID:           "seeded-" + email,
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().Unix(),
	}
	if err := env.store.Create(context.Background(), acc); err != nil {
		t.Fatalf("seed Create failed: %v", err)
	}
	return acc
}
