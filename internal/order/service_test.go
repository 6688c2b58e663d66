package order

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"pawmart-be/internal/cache"
	"pawmart-be/internal/fraud"
	"pawmart-be/internal/notification"
	"pawmart-be/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter ListFilter) ([]*Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) History(ctx context.Context, phone, address string, excludeID int64, before time.Time) ([]HistoryEntry, error) {
	args := m.Called(ctx, phone, address, excludeID, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]HistoryEntry), args.Error(1)
}

func (m *MockRepository) Transition(ctx context.Context, req TransitionRequest) (*Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) Trash(ctx context.Context, id int64) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) Restore(ctx context.Context, id int64) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[Status]int64), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type MockDrafts struct {
	mock.Mock
}

func (m *MockDrafts) MarkConverted(ctx context.Context, sessionID string, orderID int64) error {
	args := m.Called(ctx, sessionID, orderID)
	return args.Error(0)
}

type recordingInvalidator struct {
	calls [][]string
	err   error
}

func (r *recordingInvalidator) Invalidate(_ context.Context, keys ...string) error {
	r.calls = append(r.calls, keys)
	return r.err
}

// memoryViews is an in-process ViewStore.
type memoryViews struct {
	entries  map[string]any
	versions map[string]uint64
	sets     int
}

func newMemoryViews() *memoryViews {
	return &memoryViews{entries: map[string]any{}, versions: map[string]uint64{}}
}

// bump stands in for an invalidation arriving from another request.
func (m *memoryViews) bump(view string) {
	m.versions[view]++
	for key := range m.entries {
		if strings.HasPrefix(key, view) {
			delete(m.entries, key)
		}
	}
}

func (m *memoryViews) Get(_ context.Context, key string, dest any) error {
	v, ok := m.entries[key]
	if !ok {
		return cache.ErrMiss
	}
	switch d := dest.(type) {
	case *OrderPage:
		*d = *(v.(*OrderPage))
	case *map[Status]int64:
		*d = v.(map[Status]int64)
	}
	return nil
}

func (m *memoryViews) Version(_ context.Context, view string) (uint64, error) {
	return m.versions[view], nil
}

func (m *memoryViews) SetIfVersion(_ context.Context, key, view string, version uint64, value any) (bool, error) {
	if m.versions[view] != version {
		return false, nil
	}
	m.entries[key] = value
	m.sets++
	return true, nil
}

type fixture struct {
	repo     *MockRepository
	notifier *MockNotifier
	drafts   *MockDrafts
	inval    *recordingInvalidator
	views    *memoryViews
	svc      Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(MockRepository),
		notifier: new(MockNotifier),
		drafts:   new(MockDrafts),
		inval:    &recordingInvalidator{},
		views:    newMemoryViews(),
	}
	f.svc = NewService(f.repo, f.notifier, f.views, f.inval, f.drafts)
	return f
}

func ownedOrder(id int64, status Status) *Order {
	uid := int64(5)
	return &Order{
		ID:              id,
		UserID:          &uid,
		CustomerName:    "Ayesha Rahman",
		CustomerPhone:   "01712345678",
		ShippingAddress: "House 12, Road 5, Dhanmondi, Dhaka",
		TotalAmount:     1500,
		Status:          status,
		CreatedAt:       time.Now(),
	}
}

// --- Accept ---

func TestService_AcceptOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success notifies owner once and invalidates views", func(t *testing.T) {
		f := newFixture()
		updated := ownedOrder(101, StatusProcessing)
		updated.TrackingID = utils.StrPtr("15BAEB8A")

		f.repo.On("Transition", ctx, mock.MatchedBy(func(req TransitionRequest) bool {
			return req.OrderID == 101 &&
				req.From == StatusPending &&
				req.To == StatusProcessing &&
				*req.TrackingID == "15BAEB8A" &&
				req.ConsignmentID == nil
		})).Return(updated, nil).Once()
		f.notifier.On("Notify", ctx, notification.Notification{
			UserID: 5, OrderID: 101, Status: "processing", OrderTotal: 1500,
		}).Return(nil).Once()

		o, err := f.svc.AcceptOrder(ctx, 101, AcceptInput{TrackingID: " 15BAEB8A "})

		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, o.Status)
		f.repo.AssertExpectations(t)
		f.notifier.AssertNumberOfCalls(t, "Notify", 1)
		require.Len(t, f.inval.calls, 1)
		assert.Equal(t, []string{"admin:orders", "admin:pending_counts", "user:5:orders"}, f.inval.calls[0])
	})

	t.Run("Consignment id is passed through", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Transition", ctx, mock.MatchedBy(func(req TransitionRequest) bool {
			return req.ConsignmentID != nil && *req.ConsignmentID == "CN-77"
		})).Return(ownedOrder(101, StatusProcessing), nil)
		f.notifier.On("Notify", ctx, mock.Anything).Return(nil)

		_, err := f.svc.AcceptOrder(ctx, 101, AcceptInput{TrackingID: "AB12CD34", ConsignmentID: "CN-77"})

		assert.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("Empty tracking id never reaches storage", func(t *testing.T) {
		f := newFixture()
		in := AcceptInput{TrackingID: "   ", ConsignmentID: "CN-1"}

		o, err := f.svc.AcceptOrder(ctx, 101, in)

		assert.Nil(t, o)
		assert.ErrorIs(t, err, ErrTrackingIDRequired)
		assert.True(t, IsValidation(err))

		var actionErr *ActionError
		require.ErrorAs(t, err, &actionErr)
		assert.Equal(t, OpAccept, actionErr.Op)
		assert.Equal(t, in, actionErr.Draft)

		f.repo.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything)
		f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
		assert.Empty(t, f.inval.calls)
	})

	t.Run("Persistence failure skips notification and keeps draft", func(t *testing.T) {
		f := newFixture()
		in := AcceptInput{TrackingID: "15BAEB8A"}
		f.repo.On("Transition", ctx, mock.Anything).Return(nil, errors.New("connection refused"))

		o, err := f.svc.AcceptOrder(ctx, 101, in)

		assert.Nil(t, o)
		var actionErr *ActionError
		require.ErrorAs(t, err, &actionErr)
		assert.Equal(t, in, actionErr.Draft)
		assert.Equal(t, int64(101), actionErr.OrderID)
		f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
		assert.Empty(t, f.inval.calls)
	})

	t.Run("Concurrent decision loses with conflict", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Transition", ctx, mock.Anything).Return(nil, ErrStatusConflict)

		_, err := f.svc.AcceptOrder(ctx, 101, AcceptInput{TrackingID: "15BAEB8A"})

		assert.ErrorIs(t, err, ErrStatusConflict)
		assert.False(t, IsValidation(err))
		f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})

	t.Run("Notification failure is swallowed", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Transition", ctx, mock.Anything).Return(ownedOrder(101, StatusProcessing), nil)
		f.notifier.On("Notify", ctx, mock.Anything).Return(errors.New("smtp down")).Once()

		o, err := f.svc.AcceptOrder(ctx, 101, AcceptInput{TrackingID: "15BAEB8A"})

		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, o.Status)
		f.notifier.AssertNumberOfCalls(t, "Notify", 1)
		assert.Len(t, f.inval.calls, 1)
	})

	t.Run("Guest order skips notification", func(t *testing.T) {
		f := newFixture()
		guest := ownedOrder(101, StatusProcessing)
		guest.UserID = nil
		f.repo.On("Transition", ctx, mock.Anything).Return(guest, nil)

		_, err := f.svc.AcceptOrder(ctx, 101, AcceptInput{TrackingID: "15BAEB8A"})

		require.NoError(t, err)
		f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
		assert.Equal(t, []string{"admin:orders", "admin:pending_counts"}, f.inval.calls[0])
	})

	t.Run("Invalidation failure does not fail the action", func(t *testing.T) {
		f := newFixture()
		f.inval.err = errors.New("redis down")
		f.repo.On("Transition", ctx, mock.Anything).Return(ownedOrder(101, StatusProcessing), nil)
		f.notifier.On("Notify", ctx, mock.Anything).Return(nil)

		_, err := f.svc.AcceptOrder(ctx, 101, AcceptInput{TrackingID: "15BAEB8A"})

		assert.NoError(t, err)
	})
}

// --- Reject ---

func TestService_RejectOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		updated := ownedOrder(102, StatusCancelled)
		updated.RejectionReason = utils.StrPtr("Out of stock")

		f.repo.On("Transition", ctx, mock.MatchedBy(func(req TransitionRequest) bool {
			return req.OrderID == 102 &&
				req.From == StatusPending &&
				req.To == StatusCancelled &&
				*req.RejectionReason == "Out of stock" &&
				req.TrackingID == nil
		})).Return(updated, nil).Once()
		f.notifier.On("Notify", ctx, notification.Notification{
			UserID: 5, OrderID: 102, Status: "cancelled", OrderTotal: 1500,
		}).Return(nil).Once()

		o, err := f.svc.RejectOrder(ctx, 102, RejectInput{Reason: "Out of stock"})

		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, o.Status)
		f.repo.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("Empty reason blocked", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.RejectOrder(ctx, 102, RejectInput{Reason: "\t"})

		assert.ErrorIs(t, err, ErrReasonRequired)
		f.repo.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything)
		f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})

	t.Run("Missing order", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Transition", ctx, mock.Anything).Return(nil, ErrOrderNotFound)

		_, err := f.svc.RejectOrder(ctx, 999, RejectInput{Reason: "Duplicate"})

		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

// --- Advance / trash / restore ---

func TestService_AdvanceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Processing becomes shipped", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", ctx, int64(7)).Return(ownedOrder(7, StatusProcessing), nil)
		f.repo.On("Transition", ctx, TransitionRequest{OrderID: 7, From: StatusProcessing, To: StatusShipped}).
			Return(ownedOrder(7, StatusShipped), nil)
		f.notifier.On("Notify", ctx, mock.MatchedBy(func(n notification.Notification) bool {
			return n.Status == "shipped"
		})).Return(nil).Once()

		o, err := f.svc.AdvanceOrder(ctx, 7)

		require.NoError(t, err)
		assert.Equal(t, StatusShipped, o.Status)
		f.notifier.AssertExpectations(t)
	})

	t.Run("Pending cannot be advanced", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", ctx, int64(7)).Return(ownedOrder(7, StatusPending), nil)

		_, err := f.svc.AdvanceOrder(ctx, 7)

		assert.ErrorIs(t, err, ErrInvalidTransition)
		f.repo.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything)
	})

	t.Run("Trashed order", func(t *testing.T) {
		f := newFixture()
		o := ownedOrder(7, StatusProcessing)
		now := time.Now()
		o.TrashedAt = &now
		f.repo.On("GetByID", ctx, int64(7)).Return(o, nil)

		_, err := f.svc.AdvanceOrder(ctx, 7)

		assert.ErrorIs(t, err, ErrOrderTrashed)
	})
}

func TestService_TrashAndRestore(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	trashed := ownedOrder(8, StatusPending)
	now := time.Now()
	trashed.TrashedAt = &now

	f.repo.On("Trash", ctx, int64(8)).Return(trashed, nil)
	f.repo.On("Restore", ctx, int64(8)).Return(ownedOrder(8, StatusPending), nil)
	f.repo.On("Restore", ctx, int64(9)).Return(nil, ErrOrderNotTrashed)

	o, err := f.svc.TrashOrder(ctx, 8)
	require.NoError(t, err)
	assert.True(t, o.Trashed())

	o, err = f.svc.RestoreOrder(ctx, 8)
	require.NoError(t, err)
	assert.False(t, o.Trashed())

	_, err = f.svc.RestoreOrder(ctx, 9)
	assert.ErrorIs(t, err, ErrOrderNotTrashed)

	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	assert.Len(t, f.inval.calls, 2)
}

// --- Read side ---

func TestService_GetOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Scores against history", func(t *testing.T) {
		f := newFixture()
		o := ownedOrder(11, StatusPending)
		f.repo.On("GetByID", ctx, int64(11)).Return(o, nil)
		f.repo.On("History", ctx, o.CustomerPhone, o.ShippingAddress, int64(11), o.CreatedAt).Return([]HistoryEntry{
			{OrderID: 1, Status: StatusCancelled, CreatedAt: time.Now().Add(-72 * time.Hour)},
			{OrderID: 2, Status: StatusCancelled, CreatedAt: time.Now().Add(-48 * time.Hour)},
			{OrderID: 3, Status: StatusCancelled, CreatedAt: time.Now().Add(-24 * time.Hour)},
		}, nil)

		review, err := f.svc.GetOrder(ctx, 11)

		require.NoError(t, err)
		require.NotNil(t, review.Risk)
		assert.True(t, review.Risk.Has(fraud.CategoryRepeat))
		assert.Equal(t, o, review.Order)
	})

	t.Run("History failure", func(t *testing.T) {
		f := newFixture()
		o := ownedOrder(11, StatusPending)
		f.repo.On("GetByID", ctx, int64(11)).Return(o, nil)
		f.repo.On("History", ctx, mock.Anything, mock.Anything, int64(11), mock.Anything).Return(nil, errors.New("timeout"))

		_, err := f.svc.GetOrder(ctx, 11)

		assert.ErrorContains(t, err, "load history")
	})

	t.Run("Not found", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", ctx, int64(404)).Return(nil, ErrOrderNotFound)

		_, err := f.svc.AnalyzeOrder(ctx, 404)

		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestService_ListOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	filter := ListFilter{Statuses: []Status{StatusPending}, IncludeRisk: true}
	normalized := filter.Normalize()
	o := ownedOrder(21, StatusPending)

	f.repo.On("List", ctx, normalized).Return([]*Order{o}, nil).Once()
	f.repo.On("Count", ctx, normalized).Return(int64(1), nil).Once()
	f.repo.On("History", ctx, o.CustomerPhone, o.ShippingAddress, int64(21), o.CreatedAt).Return([]HistoryEntry{}, nil).Once()

	page, err := f.svc.ListOrders(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 20, page.Limit)
	require.Len(t, page.Items, 1)
	require.NotNil(t, page.Items[0].Risk)
	assert.Equal(t, fraud.LevelLow, page.Items[0].Risk.Level)

	// served from the view cache
	again, err := f.svc.ListOrders(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, page.Total, again.Total)
	f.repo.AssertExpectations(t)
	assert.Equal(t, 1, f.views.sets)
}

func TestService_ListOrders_InvalidatedDuringRebuild(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	filter := ListFilter{Statuses: []Status{StatusPending}}.Normalize()

	stale := ownedOrder(21, StatusPending)
	fresh := ownedOrder(21, StatusProcessing)

	// an accept commits and invalidates while the first read is in flight
	f.repo.On("List", ctx, filter).Return([]*Order{stale}, nil).Once().
		Run(func(mock.Arguments) { f.views.bump(cache.ViewAdminOrders) })
	f.repo.On("Count", ctx, filter).Return(int64(1), nil).Once()

	page, err := f.svc.ListOrders(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, page.Items[0].Order.Status)
	assert.Equal(t, 0, f.views.sets)

	f.repo.On("List", ctx, filter).Return([]*Order{fresh}, nil).Once()
	f.repo.On("Count", ctx, filter).Return(int64(1), nil).Once()

	page, err = f.svc.ListOrders(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, page.Items[0].Order.Status)
	assert.Equal(t, 1, f.views.sets)
	f.repo.AssertExpectations(t)
}

func TestService_PendingCounts_InvalidatedDuringRebuild(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.repo.On("CountByStatus", ctx).Return(map[Status]int64{StatusPending: 3}, nil).Once().
		Run(func(mock.Arguments) { f.views.bump(cache.ViewAdminPendingCounts) })
	f.repo.On("CountByStatus", ctx).Return(map[Status]int64{StatusPending: 2}, nil).Once()

	_, err := f.svc.PendingCounts(ctx)
	require.NoError(t, err)

	got, err := f.svc.PendingCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got[StatusPending])
	f.repo.AssertExpectations(t)
}

func TestListKey(t *testing.T) {
	uid := int64(5)

	admin := listKey(ListFilter{Page: 1, Limit: 20})
	user := listKey(ListFilter{Page: 1, Limit: 20, UserID: &uid})

	assert.Contains(t, admin, "admin:orders:")
	assert.Contains(t, user, "user:5:orders:")
	assert.NotEqual(t, admin, listKey(ListFilter{Page: 2, Limit: 20}))
	assert.Equal(t, admin, listKey(ListFilter{Page: 1, Limit: 20}))
}

func TestService_PendingCounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	counts := map[Status]int64{StatusPending: 3, StatusProcessing: 1}
	f.repo.On("CountByStatus", ctx).Return(counts, nil).Once()

	got, err := f.svc.PendingCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got[StatusPending])

	got, err = f.svc.PendingCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, counts, got)
	f.repo.AssertExpectations(t)
}

// --- Checkout ---

func TestService_PlaceOrder(t *testing.T) {
	input := PlaceOrderInput{
		SessionID:       "sess-1",
		CustomerName:    "Ayesha Rahman",
		CustomerPhone:   "01712345678",
		ShippingAddress: "House 12, Road 5, Dhanmondi, Dhaka",
		City:            "Dhaka",
		ShippingFee:     60,
		Items: []PlaceOrderItem{
			{ProductID: 1, ProductName: "Cat food 1kg", Quantity: 2, Price: 450},
			{ProductID: 2, ProductName: "Litter", Quantity: 1, Price: 300},
		},
	}

	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		ctx := utils.SetUserContext(context.Background(), 5, "ayesha@example.com", utils.RoleUser)

		f.repo.On("Create", ctx, mock.MatchedBy(func(o *Order) bool {
			return o.TotalAmount == 1260 &&
				o.Status == StatusPending &&
				o.UserID != nil && *o.UserID == 5 &&
				len(o.Items) == 2
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*Order).ID = 31
		}).Return(nil).Once()
		f.drafts.On("MarkConverted", ctx, "sess-1", int64(31)).Return(nil).Once()
		f.repo.On("History", ctx, input.CustomerPhone, input.ShippingAddress, int64(31), mock.Anything).Return([]HistoryEntry{}, nil)

		o, err := f.svc.PlaceOrder(ctx, input)

		require.NoError(t, err)
		assert.Equal(t, int64(31), o.ID)
		f.repo.AssertExpectations(t)
		f.drafts.AssertExpectations(t)
		assert.Equal(t, []string{"admin:orders", "admin:pending_counts", "user:5:orders"}, f.inval.calls[0])
	})

	t.Run("Guest checkout", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()
		guest := input
		guest.SessionID = ""

		f.repo.On("Create", ctx, mock.MatchedBy(func(o *Order) bool {
			return o.UserID == nil && o.CheckoutSessionID == nil
		})).Return(nil)
		f.repo.On("History", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]HistoryEntry{}, nil)

		_, err := f.svc.PlaceOrder(ctx, guest)

		require.NoError(t, err)
		f.drafts.AssertNotCalled(t, "MarkConverted", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Invalid input", func(t *testing.T) {
		cases := map[string]func(*PlaceOrderInput){
			"no phone":      func(in *PlaceOrderInput) { in.CustomerPhone = " " },
			"no items":      func(in *PlaceOrderInput) { in.Items = nil },
			"zero quantity": func(in *PlaceOrderInput) { in.Items = []PlaceOrderItem{{ProductID: 1, Price: 10}} },
			"negative fee":  func(in *PlaceOrderInput) { in.ShippingFee = -1 },
			"no name":       func(in *PlaceOrderInput) { in.CustomerName = "" },
			"no address":    func(in *PlaceOrderInput) { in.ShippingAddress = "" },
			"total overflows": func(in *PlaceOrderInput) {
				in.Items = []PlaceOrderItem{{ProductID: 1, Quantity: 2, Price: math.MaxInt64/2 + 1}}
			},
			"fee pushes total over": func(in *PlaceOrderInput) {
				in.ShippingFee = 100
				in.Items = []PlaceOrderItem{{ProductID: 1, Quantity: 1, Price: math.MaxInt64 - 50}}
			},
			"quantity out of range": func(in *PlaceOrderInput) {
				in.Items = []PlaceOrderItem{{ProductID: 1, Quantity: math.MaxInt32 + 1, Price: 1}}
			},
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				f := newFixture()
				in := input
				in.Items = append([]PlaceOrderItem(nil), input.Items...)
				mutate(&in)

				_, err := f.svc.PlaceOrder(context.Background(), in)

				assert.ErrorIs(t, err, ErrInvalidOrder)
				f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			})
		}
	})
}
