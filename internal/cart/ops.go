package cart

import "context"

// AddItem adds qty units of item. qty <= 0 is a no-op: nothing is written and nobody is
// notified. An item already in the cart has its quantity increased.
func AddItem(ctx context.Context, s Store, item LineItem, qty int) error {
	if qty <= 0 {
		return nil
	}
	if err := item.validate(); err != nil {
		return err
	}
	_, err := update(ctx, s, opAdd, func(c Cart) (Cart, bool) { return c.Add(item, qty) })
	return err
}

// RemoveItem deletes id from the cart. Unknown ids are a no-op.
func RemoveItem(ctx context.Context, s Store, id string) error {
	_, err := update(ctx, s, opRemove, func(c Cart) (Cart, bool) { return c.Remove(id) })
	return err
}

// SetQuantity replaces the quantity of id; qty <= 0 removes it.
func SetQuantity(ctx context.Context, s Store, id string, qty int) error {
	_, err := update(ctx, s, opSetQuantity, func(c Cart) (Cart, bool) { return c.SetQuantity(id, qty) })
	return err
}

// Update runs fn against the latest persisted cart and saves the result when fn reports a
// change. Subscribers are notified after the update has committed and its locks are released,
// so they may read the store. It returns the cart as it stands after the call.
func Update(ctx context.Context, s Store, fn func(Cart) (Cart, bool)) (Cart, error) {
	return update(ctx, s, opUpdate, fn)
}

func update(ctx context.Context, s Store, op string, fn func(Cart) (Cart, bool)) (Cart, error) {
	tx, ok := s.(transactional)
	if !ok {
		next, changed := fn(s.Load(ctx))
		if !changed {
			return next, nil
		}
		return next, s.Save(ctx, next)
	}

	next, changed, err := tx.update(ctx, op, fn)
	if err != nil {
		return next, err
	}
	if changed {
		tx.notify()
	}
	return next, nil
}
