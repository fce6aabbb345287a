package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Line represents one distinct product held in the cart.
type Line struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal returns quantity * unit price for the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Lines is the ordered cart state. Insertion order is kept for display.
type Lines []Line

// FindIndex returns the index of the line holding the given product ID, or -1.
func (ls Lines) FindIndex(productID string) int {
	for i := range ls {
		if ls[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares no backing array with ls.
func (ls Lines) Clone() Lines {
	out := make(Lines, len(ls))
	copy(out, ls)
	return out
}

// TotalItemCount returns the sum of quantities across all lines.
func (ls Lines) TotalItemCount() int {
	var count int
	for _, l := range ls {
		count += l.Quantity
	}
	return count
}

// TotalPrice returns the sum of quantity * price across all lines.
func (ls Lines) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range ls {
		total = total.Add(l.Subtotal())
	}
	return total
}

// OutOfStock returns the lines whose product has no stock left.
func (ls Lines) OutOfStock() Lines {
	out := Lines{}
	for _, l := range ls {
		if l.Product.Stock == 0 {
			out = append(out, l)
		}
	}
	return out
}

// OverStocked returns the lines requesting more units than their product snapshot
// has in stock. The cart surfaces these but never corrects them.
func (ls Lines) OverStocked() Lines {
	out := Lines{}
	for _, l := range ls {
		if l.Quantity > l.Product.Stock {
			out = append(out, l)
		}
	}
	return out
}

// ProblemKind classifies a validation problem.
type ProblemKind string

const (
	ProblemOutOfStock  ProblemKind = "out_of_stock"
	ProblemOverStocked ProblemKind = "insufficient_stock"
)

// Problem describes why a single line blocks checkout.
type Problem struct {
	ProductID string      `json:"product_id"`
	Kind      ProblemKind `json:"kind"`
	Available int         `json:"available"`
	Message   string      `json:"message"`
}

// Validation is the read-only verdict used to gate checkout.
type Validation struct {
	Valid    bool      `json:"valid"`
	Problems []Problem `json:"problems"`
}

// Messages returns the human-readable problem descriptions.
func (v Validation) Messages() []string {
	msgs := make([]string, len(v.Problems))
	for i, p := range v.Problems {
		msgs[i] = p.Message
	}
	return msgs
}

// Validate reports one problem per line that is out of stock or exceeds the
// available stock. It never mutates the cart.
func (ls Lines) Validate() Validation {
	problems := []Problem{}
	for _, l := range ls {
		switch {
		case l.Product.Stock == 0:
			problems = append(problems, Problem{
				ProductID: l.Product.ID,
				Kind:      ProblemOutOfStock,
				Message:   fmt.Sprintf("%s is out of stock", l.Product.Name),
			})
		case l.Quantity > l.Product.Stock:
			problems = append(problems, Problem{
				ProductID: l.Product.ID,
				Kind:      ProblemOverStocked,
				Available: l.Product.Stock,
				Message:   fmt.Sprintf("Only %d items available for %s", l.Product.Stock, l.Product.Name),
			})
		}
	}
	return Validation{
		Valid:    len(problems) == 0,
		Problems: problems,
	}
}
