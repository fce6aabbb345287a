package domain

// Action is a cart mutation. The set of implementations is closed.
type Action interface {
	Name() string
	action()
}

// AddItem adds quantity units of product, merging into an existing line.
type AddItem struct {
	Product  Product
	Quantity int
}

// RemoveItem drops the line for ProductID if present.
type RemoveItem struct {
	ProductID string
}

// SetQuantity overwrites the quantity of an existing line. Zero or less removes it.
type SetQuantity struct {
	ProductID string
	Quantity  int
}

// Clear empties the cart.
type Clear struct{}

// MergeRemote folds a remote cart into the local one. Local snapshots win.
type MergeRemote struct {
	Lines Lines
}

// Load replaces the state wholesale with a restored copy. Lines without a
// product id or with a quantity below one are dropped and repeated product ids
// are folded into the first line carrying them.
type Load struct {
	Lines Lines
}

// RemoveOrdered takes the quantities of a placed order out of the cart. Lines
// added or raised after the order was taken keep the difference.
type RemoveOrdered struct {
	Lines Lines
}

func (AddItem) Name() string       { return "add_item" }
func (RemoveItem) Name() string    { return "remove_item" }
func (SetQuantity) Name() string   { return "set_quantity" }
func (Clear) Name() string         { return "clear" }
func (MergeRemote) Name() string   { return "merge_remote" }
func (Load) Name() string          { return "load" }
func (RemoveOrdered) Name() string { return "remove_ordered" }

func (AddItem) action()       {}
func (RemoveItem) action()    {}
func (SetQuantity) action()   {}
func (Clear) action()         {}
func (MergeRemote) action()   {}
func (Load) action()          {}
func (RemoveOrdered) action() {}

// Adjustment records a merged line whose quantity was clamped to local stock.
type Adjustment struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Granted   int    `json:"granted"`
}

// Apply is the cart transition function. It never modifies state in place.
// A rejected mutation returns state unchanged together with a *StockLimitError.
func Apply(state Lines, a Action) (Lines, error) {
	switch act := a.(type) {
	case AddItem:
		return addItem(state, act.Product, act.Quantity)
	case RemoveItem:
		return removeItem(state, act.ProductID), nil
	case SetQuantity:
		return setQuantity(state, act.ProductID, act.Quantity)
	case Clear:
		return Lines{}, nil
	case MergeRemote:
		merged, _ := Merge(state, act.Lines)
		return merged, nil
	case Load:
		return load(act.Lines), nil
	case RemoveOrdered:
		return removeOrdered(state, act.Lines), nil
	default:
		return state, nil
	}
}

func addItem(state Lines, p Product, qty int) (Lines, error) {
	idx := state.FindIndex(p.ID)
	if idx >= 0 {
		newQty := state[idx].Quantity + qty
		if newQty > p.Stock {
			return state, &StockLimitError{ProductID: p.ID, Requested: newQty, Available: p.Stock}
		}
		next := state.Clone()
		next[idx] = Line{Product: p, Quantity: newQty}
		return next, nil
	}

	if qty > p.Stock {
		return state, &StockLimitError{ProductID: p.ID, Requested: qty, Available: p.Stock}
	}
	next := make(Lines, 0, len(state)+1)
	next = append(next, state...)
	return append(next, Line{Product: p, Quantity: qty}), nil
}

func removeItem(state Lines, productID string) Lines {
	next := make(Lines, 0, len(state))
	for _, l := range state {
		if l.Product.ID != productID {
			next = append(next, l)
		}
	}
	return next
}

func load(saved Lines) Lines {
	next := make(Lines, 0, len(saved))
	for _, l := range saved {
		if l.Product.ID == "" || l.Quantity < 1 {
			continue
		}
		if idx := next.FindIndex(l.Product.ID); idx >= 0 {
			next[idx].Quantity += l.Quantity
			continue
		}
		next = append(next, l)
	}
	return next
}

func removeOrdered(state, ordered Lines) Lines {
	next := make(Lines, 0, len(state))
	for _, l := range state {
		if idx := ordered.FindIndex(l.Product.ID); idx >= 0 {
			l.Quantity -= ordered[idx].Quantity
			if l.Quantity <= 0 {
				continue
			}
		}
		next = append(next, l)
	}
	return next
}

func setQuantity(state Lines, productID string, qty int) (Lines, error) {
	if qty <= 0 {
		return removeItem(state, productID), nil
	}

	idx := state.FindIndex(productID)
	if idx < 0 {
		return state.Clone(), nil
	}
	if stock := state[idx].Product.Stock; qty > stock {
		return state, &StockLimitError{ProductID: productID, Requested: qty, Available: stock}
	}

	next := state.Clone()
	next[idx].Quantity = qty
	return next, nil
}

// Merge folds remote into local in remote order and reports every line whose
// summed quantity was clamped to the local snapshot's stock.
func Merge(local, remote Lines) (Lines, []Adjustment) {
	merged := local.Clone()
	var adjustments []Adjustment

	for _, r := range remote {
		idx := merged.FindIndex(r.Product.ID)
		if idx < 0 {
			merged = append(merged, r)
			continue
		}
		want := merged[idx].Quantity + r.Quantity
		got := min(want, merged[idx].Product.Stock)
		if got != want {
			adjustments = append(adjustments, Adjustment{
				ProductID: r.Product.ID,
				Requested: want,
				Granted:   got,
			})
		}
		merged[idx].Quantity = got
	}

	return merged, adjustments
}
