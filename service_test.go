package orderdebug

import (
	"context"
	stderrs "errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	values  map[string][]byte
	getErr  error
	setErr  error
	setCall int
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string][]byte)}
}

func (m *memStore) GetOption(_ context.Context, name string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.values[name]
	return v, ok, nil
}

func (m *memStore) SetOption(_ context.Context, name string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCall++
	if m.setErr != nil {
		return m.setErr
	}
	m.values[name] = append([]byte(nil), value...)
	return nil
}

type probeFunc func(ctx context.Context) error

func (f probeFunc) Probe(ctx context.Context) error { return f(ctx) }

func newTestService(t *testing.T, store OptionStore) *Service {
	t.Helper()
	s := &Service{
		LogFile:   filepath.Join(t.TempDir(), "logs", "wc-order-debug.log"),
		Store:     store,
		Formatter: newTestFormatter(fixedStack{{File: "listeners.go", Line: 1, Qualifier: "orderdebug.(*Service).", Function: "OnNewOrder"}}),
	}
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func readLog(t *testing.T, s *Service) string {
	t.Helper()
	data, err := os.ReadFile(s.LogFile)
	if stderrs.Is(err, os.ErrNotExist) {
		return ""
	}
	require.NoError(t, err)
	return string(data)
}

func disable(t *testing.T, s *Service, cats ...Category) {
	t.Helper()
	settings := s.Settings()
	for _, c := range cats {
		settings.Set(c, false)
	}
	require.NoError(t, s.UpdateSettings(context.Background(), settings))
}

func TestService_Initialize(t *testing.T) {
	t.Run("nil service", func(t *testing.T) {
		var s *Service
		assert.Error(t, s.Initialize(context.Background()))
	})

	t.Run("missing log file", func(t *testing.T) {
		s := &Service{}
		assert.Error(t, s.Initialize(context.Background()))
		assert.False(t, s.Active())
	})

	t.Run("creates the log directory", func(t *testing.T) {
		s := newTestService(t, nil)
		assert.True(t, s.Active())
		assert.DirExists(t, filepath.Dir(s.LogFile))
		assert.NoError(t, s.Initialize(context.Background()))
	})

	t.Run("settings come from the store", func(t *testing.T) {
		store := newMemStore()
		store.values[SettingsOptionName] = []byte(`{"log_cart":"0","log_filters":["woocommerce_get_price"]}`)
		s := newTestService(t, store)
		assert.False(t, s.Settings().Cart)
		assert.True(t, s.Settings().Payment)
		assert.Equal(t, []string{"woocommerce_get_price"}, s.Settings().Filters)
	})

	t.Run("unreadable store falls back to defaults", func(t *testing.T) {
		store := newMemStore()
		store.getErr = stderrs.New("database is locked")
		s := newTestService(t, store)
		assert.Equal(t, DefaultSettings(), s.Settings())
	})

	t.Run("failed probe disables everything", func(t *testing.T) {
		ops, buf := newBufferLogger(t)
		s := &Service{
			LogFile: filepath.Join(t.TempDir(), "debug.log"),
			Logger:  ops,
			Probe:   probeFunc(func(context.Context) error { return stderrs.New("no order system") }),
		}
		require.NoError(t, s.Initialize(context.Background()))
		assert.False(t, s.Active())
		assert.Contains(t, buf.String(), "requires the order management system")

		bus := NewBus()
		assert.Equal(t, 0, s.Register(bus))
		for _, k := range EventKinds() {
			assert.Equal(t, 0, bus.Handlers(k))
		}
		s.handle(context.Background(), NewOrder{OrderID: 1})
		assert.Empty(t, readLog(t, s))
	})
}

func TestService_Register(t *testing.T) {
	s := newTestService(t, nil)
	bus := NewBus()
	assert.Equal(t, len(EventKinds()), s.Register(bus))
	for _, k := range EventKinds() {
		assert.Equal(t, 1, bus.Handlers(k), k)
	}
	assert.Equal(t, 0, s.Register(nil))

	bus.Publish(context.Background(), PaymentComplete{OrderID: 9, Order: &Order{Status: "processing", PaymentMethod: "bacs"}})
	assert.Contains(t, readLog(t, s), "Payment completed for order: #9")

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	bus.Publish(context.Background(), PaymentComplete{OrderID: 10})
	assert.NotContains(t, readLog(t, s), "#10")
}

func TestService_DuplicateOrder(t *testing.T) {
	s := newTestService(t, nil)
	disable(t, s, CategoryBacktrace)
	order := &Order{ID: 101, Type: "shop_order", PaymentMethod: "cod"}

	s.OnNewOrder(NewOrder{OrderID: 101, Order: order})
	s.OnNewOrder(NewOrder{OrderID: 101, Order: order})

	want := "[2026-01-02 15:04:05] [INFO] New order created: #101\n" +
		"Data:\n" +
		"  order_type: shop_order\n" +
		"  payment_method: cod\n" +
		"  items: []\n" +
		Separator + "\n" +
		"[2026-01-02 15:04:05] [ERROR] DUPLICATE ORDER DETECTED: #101\n" +
		"Data:\n" +
		"  order_type: shop_order\n" +
		"  payment_method: cod\n" +
		"  items: []\n" +
		Separator + "\n"
	assert.Equal(t, want, readLog(t, s))
	assert.Equal(t, 1, s.SeenOrders())
}

func TestService_DuplicatesDisabled(t *testing.T) {
	s := newTestService(t, nil)
	disable(t, s, CategoryDuplicates)

	s.OnNewOrder(NewOrder{OrderID: 5})
	s.OnNewOrder(NewOrder{OrderID: 5})

	log := readLog(t, s)
	assert.Equal(t, 2, strings.Count(log, "[INFO] New order created: #5"))
	assert.NotContains(t, log, "DUPLICATE")
	assert.Contains(t, log, "order_type: unknown")
}

func TestService_BacktraceFollowsSetting(t *testing.T) {
	s := newTestService(t, nil)
	s.OnOrderProcessed(OrderProcessed{OrderID: 1})
	assert.Contains(t, readLog(t, s), "Backtrace:\n#1 listeners.go:1 - orderdebug.(*Service).OnNewOrder()\n")

	require.NoError(t, s.ClearLog())
	disable(t, s, CategoryBacktrace)
	s.OnOrderProcessed(OrderProcessed{OrderID: 2})
	assert.NotContains(t, readLog(t, s), "Backtrace:")
}

func TestService_CategorySwitches(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		category Category
		event    Event
	}{
		{CategoryPayment, PaymentComplete{OrderID: 1}},
		{CategoryStatusChanges, StatusChanged{OrderID: 1, OldStatus: "pending", NewStatus: "processing"}},
		{CategoryCart, AddToCart{ProductID: 3, Quantity: 1}},
		{CategoryCheckout, CheckoutValidated{}},
		{CategoryEmails, EmailSent{Email: Email{ID: "new_order"}}},
		{CategoryMetaChanges, MetaUpdated{PostID: 1, PostType: OrderPostType, MetaKey: "_paid_date"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			s := newTestService(t, nil)
			disable(t, s, tt.category)
			s.handle(ctx, tt.event)
			assert.Empty(t, readLog(t, s))

			settings := s.Settings()
			settings.Set(tt.category, true)
			require.NoError(t, s.UpdateSettings(ctx, settings))
			s.handle(ctx, tt.event)
			assert.NotEmpty(t, readLog(t, s))
		})
	}
}

func TestService_OrderProcessedIgnoresSwitches(t *testing.T) {
	s := newTestService(t, nil)
	all := s.Settings()
	for _, c := range Categories() {
		all.Set(c, false)
	}
	require.NoError(t, s.UpdateSettings(context.Background(), all))

	s.OnOrderProcessed(OrderProcessed{
		OrderID:    42,
		PostedData: map[string]any{"billing_email": "a@b.c"},
		Order:      &Order{Type: "shop_order", PaymentMethod: "cod", Items: []LineItem{{ProductID: 8, Name: "Cap", Quantity: 1}}},
	})
	want := "[2026-01-02 15:04:05] [INFO] Order processed: #42\n" +
		"Data:\n" +
		"  posted_data:\n" +
		"    billing_email: a@b.c\n" +
		"  order_type: shop_order\n" +
		"  payment_method: cod\n" +
		"  items:\n" +
		"    [0]:\n" +
		"      product_id: 8\n" +
		"      name: Cap\n" +
		"      type: unknown\n" +
		"      quantity: 1\n" +
		Separator + "\n"
	assert.Equal(t, want, readLog(t, s))
}

func TestService_StatusChanged(t *testing.T) {
	s := newTestService(t, nil)
	disable(t, s, CategoryBacktrace)
	s.OnStatusChanged(StatusChanged{OrderID: 12, OldStatus: "pending", NewStatus: "completed", Order: &Order{Type: "shop_order", PaymentMethod: "paypal"}})
	assert.Contains(t, readLog(t, s), "[INFO] Order status changed: #12 from pending to completed\nData:\n  order_type: shop_order\n  payment_method: paypal\n")
}

func TestService_CheckoutValidated(t *testing.T) {
	s := newTestService(t, nil)
	disable(t, s, CategoryBacktrace)
	s.OnCheckoutValidated(CheckoutValidated{
		Cart:   []CartItem{{Product: Product{ID: 3, Name: "Tee", Type: "variable"}, Quantity: 2}},
		Errors: []string{"Billing email is required."},
	})
	log := readLog(t, s)
	assert.Contains(t, log, "Checkout validation\n")
	assert.Contains(t, log, "  has_errors: true\n  error_messages:\n    [0]: Billing email is required.\n")
	assert.Contains(t, log, "      type: variable\n")

	require.NoError(t, s.ClearLog())
	s.OnCheckoutValidated(CheckoutValidated{})
	assert.Contains(t, readLog(t, s), "  cart_items: []\n  has_errors: false\n  error_messages: []\n")
}

func TestService_AddToCart(t *testing.T) {
	s := newTestService(t, nil)
	disable(t, s, CategoryBacktrace)
	s.OnAddToCart(AddToCart{ProductID: 3, Quantity: 2, VariationID: 31, Product: &Product{ID: 3, Name: "Tee", Type: "variable"}})
	want := "[2026-01-02 15:04:05] [INFO] Product added to cart\n" +
		"Data:\n" +
		"  product_id: 3\n" +
		"  name: Tee\n" +
		"  type: variable\n" +
		"  quantity: 2\n" +
		"  variation_id: 31\n" +
		"  cart_item_data: {}\n" +
		Separator + "\n"
	assert.Equal(t, want, readLog(t, s))
}

func TestService_EmailSent(t *testing.T) {
	s := newTestService(t, nil)
	disable(t, s, CategoryBacktrace)
	s.OnEmailSent(EmailSent{
		SentToAdmin: true,
		Order:       &Order{ID: 77, Status: "processing", BillingEmail: "jo@example.com", BillingName: "Jo Doe"},
		Email:       Email{ID: "new_order", Recipient: "shop@example.com", Subject: "New order #77"},
	})
	log := readLog(t, s)
	assert.True(t, strings.HasPrefix(log, "[2026-01-02 15:04:05] [EMAIL] Email sent: new_order for order #77\n"))
	assert.Contains(t, log, "  sent_to_admin: true\n")
	assert.Contains(t, log, "  headers: \"\"\n")
	assert.Contains(t, log, "  attachments: []\n")
	assert.Contains(t, log, "  customer_name: Jo Doe\n")
}

func TestService_MetaUpdated(t *testing.T) {
	s := newTestService(t, nil)
	s.OnMetaUpdated(MetaUpdated{PostID: 4, PostType: "product", MetaKey: "_price", MetaValue: "9.99"})
	assert.Empty(t, readLog(t, s))

	s.OnMetaUpdated(MetaUpdated{PostID: 4, PostType: OrderPostType, MetaKey: "_paid_date", MetaValue: "2026-01-02"})
	assert.Contains(t, readLog(t, s), "Order meta updated: #4\nData:\n  meta_key: _paid_date\n  meta_value: 2026-01-02\n")
}

func TestService_HookFired(t *testing.T) {
	s := newTestService(t, nil)
	s.OnHookFired(HookFired{Hook: HookAction, Name: "woocommerce_cart_emptied"})
	assert.Empty(t, readLog(t, s))

	settings := s.Settings()
	settings.Actions = []string{"woocommerce_cart_emptied"}
	settings.Filters = []string{"woocommerce_get_price"}
	settings.Backtrace = false
	require.NoError(t, s.UpdateSettings(context.Background(), settings))

	s.OnHookFired(HookFired{Hook: HookAction, Name: "woocommerce_cart_emptied"})
	s.OnHookFired(HookFired{Hook: HookFilter, Name: "woocommerce_get_price", Args: []any{"9.99"}})
	s.OnHookFired(HookFired{Hook: HookAction, Name: "woocommerce_get_price"})

	log := readLog(t, s)
	assert.Contains(t, log, "Action fired: woocommerce_cart_emptied\nData:\n  hook: action\n  name: woocommerce_cart_emptied\n  args: []\n")
	assert.Contains(t, log, "Filter applied: woocommerce_get_price\n")
	assert.Equal(t, 2, strings.Count(log, Separator))
}

func TestService_UpdateSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("persisted", func(t *testing.T) {
		store := newMemStore()
		s := newTestService(t, store)
		next := s.Settings()
		next.Emails = false
		require.NoError(t, s.UpdateSettings(ctx, next))
		assert.False(t, s.Settings().Emails)

		reloaded, err := DecodeSettings(store.values[SettingsOptionName])
		require.NoError(t, err)
		assert.False(t, reloaded.Emails)
		assert.True(t, reloaded.Cart)
	})

	t.Run("failed store leaves switches unchanged", func(t *testing.T) {
		store := newMemStore()
		s := newTestService(t, store)
		store.setErr = stderrs.New("disk full")

		next := s.Settings()
		next.Cart = false
		assert.Error(t, s.UpdateSettings(ctx, next))
		assert.True(t, s.Settings().Cart)
		assert.Equal(t, 1, store.setCall)
	})

	t.Run("not initialized", func(t *testing.T) {
		s := &Service{}
		assert.Error(t, s.UpdateSettings(ctx, DefaultSettings()))
		assert.Equal(t, DefaultSettings(), s.Settings())
	})
}

func TestService_ClearThenAppend(t *testing.T) {
	s := newTestService(t, nil)
	disable(t, s, CategoryBacktrace)
	s.OnPaymentComplete(PaymentComplete{OrderID: 1})
	s.OnPaymentComplete(PaymentComplete{OrderID: 2})

	require.NoError(t, s.ClearLog())
	_, err := s.LogContents()
	assert.ErrorIs(t, err, ErrNoEntries)

	s.OnPaymentComplete(PaymentComplete{OrderID: 3})
	got, err := s.LogContents()
	require.NoError(t, err)
	assert.Equal(t, "[2026-01-02 15:04:05] [INFO] Payment completed for order: #3\nData:\n  order_status: \"\"\n  payment_method: \"\"\n"+Separator+"\n", got)
}

func TestService_ConcurrentEvents(t *testing.T) {
	s := newTestService(t, nil)
	bus := NewBus()
	s.Register(bus)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			bus.Publish(context.Background(), NewOrder{OrderID: id % 10})
		}(int64(i))
	}
	wg.Wait()

	log := readLog(t, s)
	assert.Equal(t, 10, s.SeenOrders())
	assert.Equal(t, 10, strings.Count(log, "New order created"))
	assert.Equal(t, 10, strings.Count(log, "DUPLICATE ORDER DETECTED"))
}

func TestService_ListenerPanicIsContained(t *testing.T) {
	ops, buf := newBufferLogger(t)
	s := &Service{
		LogFile:   filepath.Join(t.TempDir(), "debug.log"),
		Logger:    ops,
		Formatter: &Formatter{Stack: panicStack{}},
	}
	require.NoError(t, s.Initialize(context.Background()))

	assert.NotPanics(t, func() { s.handle(context.Background(), PaymentComplete{OrderID: 1}) })
	assert.Contains(t, buf.String(), "listener panicked")
}

type panicStack struct{}

func (panicStack) Capture(int) []Frame { panic("stack unavailable") }
