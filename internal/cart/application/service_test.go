package application

import (
	"context"
	"errors"
	"testing"

	"github.com/dmehra2102/storefront/internal/cart/domain"
	"github.com/dmehra2102/storefront/pkg/bus"
)

type fakeRepo struct {
	carts map[string]map[string]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{carts: make(map[string]map[string]int)}
}

func (r *fakeRepo) EnsureCart(_ context.Context, userID string) error {
	if _, ok := r.carts[userID]; !ok {
		r.carts[userID] = make(map[string]int)
	}
	return nil
}

func (r *fakeRepo) Get(_ context.Context, userID string) (domain.Cart, error) {
	cart := domain.Cart{UserID: userID}
	for pid, qty := range r.carts[userID] {
		cart.Items = append(cart.Items, domain.CartItem{ProductID: pid, Quantity: qty})
	}
	return cart, nil
}

func (r *fakeRepo) ItemQuantity(_ context.Context, userID, productID string) (int, error) {
	return r.carts[userID][productID], nil
}

func (r *fakeRepo) AddItemQuantity(_ context.Context, userID, productID string, quantity int) error {
	r.carts[userID][productID] += quantity
	return nil
}

func (r *fakeRepo) ApplyItemDelta(_ context.Context, userID, productID string, delta int) (int, error) {
	items, ok := r.carts[userID]
	if !ok {
		return 0, nil
	}
	if _, ok := items[productID]; !ok && delta <= 0 {
		return 0, nil
	}
	next := items[productID] + delta
	if next <= 0 {
		delete(items, productID)
		return 0, nil
	}
	items[productID] = next
	return next, nil
}

func (r *fakeRepo) RemoveItem(_ context.Context, userID, productID string) error {
	delete(r.carts[userID], productID)
	return nil
}

func (r *fakeRepo) Clear(_ context.Context, userID string) error {
	r.carts[userID] = make(map[string]int)
	return nil
}

type fakeStock struct {
	available map[string]int
	err       error
}

func (s *fakeStock) AvailableQuantity(_ context.Context, productID string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.available[productID], nil
}

func TestAddItemAdmitsAgainstResultingTotal(t *testing.T) {
	repo := newFakeRepo()
	stock := &fakeStock{available: map[string]int{"p1": 5}}
	svc := NewService(repo, stock)
	ctx := context.Background()

	if err := svc.AddItem(ctx, "u1", "p1", 3); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if got := repo.carts["u1"]["p1"]; got != 3 {
		t.Fatalf("quantity after first add = %d, want 3", got)
	}

	// 3 already in cart, adding 3 more would need 6 of 5 available.
	err := svc.AddItem(ctx, "u1", "p1", 3)
	var insufficient *domain.StockInsufficientError
	if !errors.As(err, &insufficient) {
		t.Fatalf("second add err = %v, want StockInsufficientError", err)
	}
	if insufficient.Requested != 6 || insufficient.Available != 5 {
		t.Fatalf("insufficient = %+v, want requested 6 available 5", insufficient)
	}
	if got := repo.carts["u1"]["p1"]; got != 3 {
		t.Fatalf("quantity after rejected add = %d, want unchanged 3", got)
	}
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeStock{})
	for _, qty := range []int{0, -2} {
		if err := svc.AddItem(context.Background(), "u1", "p1", qty); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("AddItem(%d) err = %v, want ErrInvalidQuantity", qty, err)
		}
	}
}

func TestAddItemCreatesCartLazily(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeStock{available: map[string]int{"p1": 1}})

	if err := svc.AddItem(context.Background(), "u9", "p1", 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, ok := repo.carts["u9"]; !ok {
		t.Fatal("cart was not created for new user")
	}
}

func TestChangeQuantityOnlyAcceptsUnitDelta(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeStock{})
	for _, delta := range []int{0, 2, -3} {
		if err := svc.ChangeQuantity(context.Background(), "u1", "p1", delta); !errors.Is(err, ErrInvalidDelta) {
			t.Fatalf("ChangeQuantity(%d) err = %v, want ErrInvalidDelta", delta, err)
		}
	}
}

func TestChangeQuantityIncrementChecksStock(t *testing.T) {
	repo := newFakeRepo()
	repo.carts["u1"] = map[string]int{"p1": 2}
	stock := &fakeStock{available: map[string]int{"p1": 2}}
	svc := NewService(repo, stock)

	err := svc.ChangeQuantity(context.Background(), "u1", "p1", 1)
	var insufficient *domain.StockInsufficientError
	if !errors.As(err, &insufficient) {
		t.Fatalf("increment err = %v, want StockInsufficientError", err)
	}

	// Decrements never consult stock.
	stock.err = errors.New("stock service unreachable")
	if err := svc.ChangeQuantity(context.Background(), "u1", "p1", -1); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if got := repo.carts["u1"]["p1"]; got != 1 {
		t.Fatalf("quantity after decrement = %d, want 1", got)
	}
}

func TestChangeQuantityDecrementToZeroRemovesItem(t *testing.T) {
	repo := newFakeRepo()
	repo.carts["u1"] = map[string]int{"p1": 1}
	svc := NewService(repo, &fakeStock{})

	if err := svc.ChangeQuantity(context.Background(), "u1", "p1", -1); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if _, ok := repo.carts["u1"]["p1"]; ok {
		t.Fatal("item should be removed when quantity reaches zero")
	}
}

func TestStockCheckTimeoutIsNotInsufficientStock(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeStock{err: bus.ErrTimeout})

	err := svc.AddItem(context.Background(), "u1", "p1", 1)
	if !errors.Is(err, bus.ErrTimeout) {
		t.Fatalf("err = %v, want bus.ErrTimeout passed through", err)
	}
	var insufficient *domain.StockInsufficientError
	if errors.As(err, &insufficient) {
		t.Fatal("timeout must not surface as insufficient stock")
	}
	if got := repo.carts["u1"]["p1"]; got != 0 {
		t.Fatalf("quantity after failed check = %d, want 0", got)
	}
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	repo.carts["u1"] = map[string]int{"p1": 2}
	svc := NewService(repo, &fakeStock{})
	ctx := context.Background()

	if err := svc.RemoveItem(ctx, "u1", "p1"); err != nil {
		t.Fatalf("first remove: %v", err)
	}
	if err := svc.RemoveItem(ctx, "u1", "p1"); err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if err := svc.RemoveItem(ctx, "u1", "never-added"); err != nil {
		t.Fatalf("remove of absent item: %v", err)
	}
}

func TestClearEmptiesCart(t *testing.T) {
	repo := newFakeRepo()
	repo.carts["u1"] = map[string]int{"p1": 2, "p2": 1}
	svc := NewService(repo, &fakeStock{})

	if err := svc.Clear(context.Background(), "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(repo.carts["u1"]) != 0 {
		t.Fatalf("cart has %d items after clear, want 0", len(repo.carts["u1"]))
	}
}
