package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAddItemAccumulatesTotal(t *testing.T) {
	o := NewOrder("user-1")

	o.AddItem(OrderItem{ProductID: "p1", Quantity: 2, Price: decimal.NewFromFloat(9.99)})
	o.AddItem(OrderItem{ProductID: "p2", Quantity: 1, Price: decimal.NewFromInt(100)})

	want := decimal.NewFromFloat(119.98)
	if !o.TotalPrice.Equal(want) {
		t.Errorf("total = %s, want %s", o.TotalPrice, want)
	}
	if len(o.Items) != 2 {
		t.Errorf("items = %d, want 2", len(o.Items))
	}
}

func TestPriceSnapshotIndependentOfProduct(t *testing.T) {
	p, err := NewProduct("item", "", decimal.NewFromInt(50), 10)
	if err != nil {
		t.Fatalf("NewProduct: %v", err)
	}

	o := NewOrder("user-1")
	o.AddItem(OrderItem{ProductID: p.ID, Quantity: 1, Price: p.Price})

	// 下单后改价不影响已有订单项
	if err := p.UpdateInfo(p.Name, p.Description, decimal.NewFromInt(80)); err != nil {
		t.Fatalf("UpdateInfo: %v", err)
	}
	if !o.Items[0].Price.Equal(decimal.NewFromInt(50)) {
		t.Errorf("snapshot price = %s, want 50", o.Items[0].Price)
	}
	if !o.TotalPrice.Equal(decimal.NewFromInt(50)) {
		t.Errorf("total = %s, want 50", o.TotalPrice)
	}
}

func TestOrderLifecycle(t *testing.T) {
	o := NewOrder("user-1")
	if o.Status != OrderPending {
		t.Fatalf("new order status = %s, want PENDING", o.Status)
	}

	if err := o.MarkPaid(); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if err := o.MarkShipping(); err != nil {
		t.Fatalf("MarkShipping: %v", err)
	}
	if err := o.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if o.Status != OrderCompleted {
		t.Errorf("status = %s, want COMPLETED", o.Status)
	}
}

func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		run  func(o *Order) error
	}{
		{"ship before pay", func(o *Order) error { return o.MarkShipping() }},
		{"complete before ship", func(o *Order) error {
			o.MarkPaid()
			return o.Complete()
		}},
		{"pay twice", func(o *Order) error {
			o.MarkPaid()
			return o.MarkPaid()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrder("user-1")
			if err := tt.run(o); !errors.Is(err, ErrInvalidStatusTransition) {
				t.Errorf("err = %v, want ErrInvalidStatusTransition", err)
			}
		})
	}
}

func TestCancel(t *testing.T) {
	t.Run("from pending", func(t *testing.T) {
		o := NewOrder("user-1")
		if err := o.Cancel(); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if o.Status != OrderCancelled {
			t.Errorf("status = %s, want CANCELLED", o.Status)
		}
	})

	t.Run("from paid", func(t *testing.T) {
		o := NewOrder("user-1")
		o.MarkPaid()
		if err := o.Cancel(); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
	})

	t.Run("from shipping rejected", func(t *testing.T) {
		o := NewOrder("user-1")
		o.MarkPaid()
		o.MarkShipping()
		if err := o.Cancel(); !errors.Is(err, ErrInvalidStatusTransition) {
			t.Errorf("err = %v, want ErrInvalidStatusTransition", err)
		}
	})

	t.Run("cancel twice rejected", func(t *testing.T) {
		o := NewOrder("user-1")
		o.Cancel()
		if err := o.Cancel(); !errors.Is(err, ErrInvalidStatusTransition) {
			t.Errorf("err = %v, want ErrInvalidStatusTransition", err)
		}
	})
}
