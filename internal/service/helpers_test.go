package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	"github.com/unseen32online/UNSEEN.IL/internal/payment"
	"github.com/unseen32online/UNSEEN.IL/internal/repository"
	"github.com/unseen32online/UNSEEN.IL/internal/repository/memory"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var hoodie = domain.Product{
	ID: "unseen-hoodie-black", Name: "UNSEEN Oversized Hoodie", Price: decimal.RequireFromString("449"),
	Sizes: []string{"S", "M", "L"}, Colors: []string{"black", "bone"}, InStock: true,
}

var tee = domain.Product{
	ID: "unseen-tee-white", Name: "UNSEEN Heavyweight Tee", Price: decimal.RequireFromString("129.90"),
	Sizes: []string{"M"}, Colors: []string{"white"}, InStock: true,
}

var sixPanelCap = domain.Product{
	ID: "unseen-cap-black", Name: "UNSEEN Six Panel Cap", Price: decimal.RequireFromString("149"),
	Colors: []string{"black"}, InStock: true,
}

var jacket = domain.Product{
	ID: "unseen-jacket-coach", Name: "UNSEEN Coach Jacket", Price: decimal.RequireFromString("599"),
	Sizes: []string{"M"}, Colors: []string{"black"}, InStock: false,
}

func testCatalog() *memory.ProductRepository {
	return memory.NewProductRepository([]domain.Product{hoodie, tee, sixPanelCap, jacket})
}

func randomCustomer() domain.CustomerInfo {
	return domain.CustomerInfo{
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Email:     gofakeit.Email(),
		Phone:     gofakeit.Phone(),
	}
}

func randomAddress() domain.Address {
	return domain.Address{
		Street:     gofakeit.Street(),
		City:       gofakeit.City(),
		PostalCode: gofakeit.Zip(),
	}
}

func validCard() domain.PaymentInstrument {
	return domain.PaymentInstrument{
		CardNumber:     "4242 4242 4242 4242",
		CardholderName: gofakeit.Name(),
		Expiry:         "12/29",
		CVV:            "123",
	}
}

func validInput() CheckoutInput {
	return CheckoutInput{
		Customer:       randomCustomer(),
		Address:        randomAddress(),
		ShippingMethod: domain.ShippingStandard,
		Payment:        validCard(),
	}
}

// gatewayFunc adapts a function to payment.Gateway.
type gatewayFunc func(ctx context.Context, c payment.Charge) (domain.PaymentOutcome, error)

func (f gatewayFunc) Name() string { return "test" }

func (f gatewayFunc) Process(ctx context.Context, c payment.Charge) (domain.PaymentOutcome, error) {
	return f(ctx, c)
}

func approveAll() gatewayFunc {
	return func(context.Context, payment.Charge) (domain.PaymentOutcome, error) {
		return domain.PaymentOutcome{Success: true, Message: "approved", TransactionID: "TXN-" + gofakeit.HexUint(32)[2:]}, nil
	}
}

func declineAll(msg string) gatewayFunc {
	return func(context.Context, payment.Charge) (domain.PaymentOutcome, error) {
		return domain.PaymentOutcome{Message: msg}, nil
	}
}

// failingCartStore fails every call with err.
type failingCartStore struct{ err error }

func (s failingCartStore) Load(context.Context, string) ([]byte, error) { return nil, s.err }
func (s failingCartStore) Save(context.Context, string, []byte) error { return s.err }
func (s failingCartStore) Delete(context.Context, string) error { return s.err }

var errStoreDown = errors.New("connection refused")

// mockOrderRepository lets tests inject store failures.
type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, f repository.OrderFilter) ([]domain.Order, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, c repository.StatusChange) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockOrderRepository) UpdateDetails(ctx context.Context, id string, u repository.DetailsUpdate) error {
	return m.Called(ctx, id, u).Error(0)
}

// recordingEvents captures lifecycle notifications.
type recordingEvents struct {
	created  []string
	changed  []domain.OrderStatus
	failures []string
}

func (r *recordingEvents) OrderCreated(_ context.Context, o *domain.Order) error {
	r.created = append(r.created, o.OrderNumber)
	return nil
}

func (r *recordingEvents) StatusChanged(_ context.Context, o *domain.Order, _ domain.OrderStatus) error {
	r.changed = append(r.changed, o.Status)
	return nil
}

func (r *recordingEvents) PaymentFailed(_ context.Context, _ *domain.Order, reason string) error {
	r.failures = append(r.failures, reason)
	return nil
}

type fixture struct {
	carts     *CartService
	cartStore *memory.CartStore
	orders    *OrderService
	orderRepo *memory.OrderRepository
	events    *recordingEvents
	checkout  *CheckoutService
}

func newFixture(t *testing.T, gateway payment.Gateway, timeout time.Duration) *fixture {
	t.Helper()
	logger := newTestLogger()

	f := &fixture{
		cartStore: memory.NewCartStore(),
		orderRepo: memory.NewOrderRepository(),
		events:    &recordingEvents{},
	}
	f.carts = NewCartService(f.cartStore, testCatalog(), logger)
	f.orders = NewOrderService(f.orderRepo, NewOrderNumberGenerator("ORD", memory.NewSequence()), f.events, logger)
	compiler := NewCompiler(domain.DefaultShippingRates(), "ILS")
	f.checkout = NewCheckoutService(f.carts, compiler, f.orders, gateway, timeout, logger)
	return f
}

// fillCart adds p to the session cart n times.
func (f *fixture) fillCart(t *testing.T, session string, p domain.Product, size, color string, n int) {
	t.Helper()
	for range n {
		_, err := f.carts.AddItem(context.Background(), session, p.ID, size, color)
		require.NoError(t, err)
	}
}

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
