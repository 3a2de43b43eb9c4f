package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/snapkartapp/snapkart/internal/db"
	"github.com/snapkartapp/snapkart/internal/models"
)

type stubCartSaver struct {
	stubCartStore
	saved *db.Cart
}

func (s *stubCartSaver) Save(ctx context.Context, cart *db.Cart) error {
	s.saved = cart
	return nil
}

type stubProductStore struct {
	product *db.Product
	err     error
}

func (s *stubProductStore) GetByID(ctx context.Context, id uuid.UUID) (*db.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.product, nil
}

func TestCartService_Get_EmptyWhenMissing(t *testing.T) {
	t.Parallel()

	carts := &stubCartSaver{stubCartStore: stubCartStore{getErr: db.ErrCartNotFound}}
	svc := NewCartService(carts, &stubProductStore{}, testLogger())

	customerID := uuid.New()
	cart, err := svc.Get(context.Background(), customerID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !cart.IsEmpty() {
		t.Error("expected an empty cart")
	}
	if cart.CustomerID != customerID {
		t.Errorf("customer id = %v, want %v", cart.CustomerID, customerID)
	}
}

func TestCartService_AddItem(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	product := &db.Product{
		ID:                 productID,
		Name:               "Backpack",
		PricePaise:         50000,
		AllowOnlinePayment: true,
		AllowCOD:           false,
	}

	t.Run("snapshots product fields", func(t *testing.T) {
		t.Parallel()

		carts := &stubCartSaver{stubCartStore: stubCartStore{getErr: db.ErrCartNotFound}}
		svc := NewCartService(carts, &stubProductStore{product: product}, testLogger())

		cart, err := svc.AddItem(context.Background(), uuid.New(), productID, 2)
		if err != nil {
			t.Fatalf("AddItem() error = %v", err)
		}
		if len(cart.Items) != 1 {
			t.Fatalf("items = %d, want 1", len(cart.Items))
		}
		item := cart.Items[0]
		if item.UnitPricePaise != 50000 || item.Quantity != 2 {
			t.Errorf("item = %+v, want price 50000 quantity 2", item)
		}
		if item.AllowOnlinePayment != true || item.AllowCOD != false {
			t.Error("payment-method flags must be copied from the product")
		}
		if carts.saved == nil {
			t.Fatal("cart should be persisted")
		}
		if carts.saved.Items[0].LineTotalPaise() != 100000 {
			t.Errorf("line total = %d, want 100000", carts.saved.Items[0].LineTotalPaise())
		}
	})

	t.Run("merges quantity for existing line", func(t *testing.T) {
		t.Parallel()

		existing := cartWith(models.CartItem{ProductID: productID, Name: "Backpack", UnitPricePaise: 50000, Quantity: 1})
		carts := &stubCartSaver{stubCartStore: stubCartStore{cart: existing}}
		svc := NewCartService(carts, &stubProductStore{product: product}, testLogger())

		cart, err := svc.AddItem(context.Background(), existing.CustomerID, productID, 3)
		if err != nil {
			t.Fatalf("AddItem() error = %v", err)
		}
		if len(cart.Items) != 1 {
			t.Fatalf("items = %d, want 1 merged line", len(cart.Items))
		}
		if cart.Items[0].Quantity != 4 {
			t.Errorf("quantity = %d, want 4", cart.Items[0].Quantity)
		}
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		t.Parallel()

		svc := NewCartService(&stubCartSaver{}, &stubProductStore{product: product}, testLogger())

		_, err := svc.AddItem(context.Background(), uuid.New(), productID, 0)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		t.Parallel()

		svc := NewCartService(&stubCartSaver{}, &stubProductStore{err: db.ErrProductNotFound}, testLogger())

		_, err := svc.AddItem(context.Background(), uuid.New(), productID, 1)
		if !errors.Is(err, db.ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})
}

func TestCartService_RemoveItem(t *testing.T) {
	t.Parallel()

	keepID := uuid.New()
	dropID := uuid.New()
	existing := cartWith(
		models.CartItem{ProductID: keepID, Name: "Backpack", UnitPricePaise: 50000, Quantity: 1},
		models.CartItem{ProductID: dropID, Name: "Running Shoes", UnitPricePaise: 25000, Quantity: 2},
	)
	carts := &stubCartSaver{stubCartStore: stubCartStore{cart: existing}}
	svc := NewCartService(carts, &stubProductStore{}, testLogger())

	cart, err := svc.RemoveItem(context.Background(), existing.CustomerID, dropID)
	if err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(cart.Items))
	}
	if cart.Items[0].ProductID != keepID {
		t.Errorf("remaining product = %v, want %v", cart.Items[0].ProductID, keepID)
	}
}
