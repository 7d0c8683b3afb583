package store

import "context"

// RecordsFunc receives a fresh, ordered snapshot of transfer rows.
type RecordsFunc func([]TransferRecord)

// ServicesFunc receives a fresh, ascending snapshot of distinct service labels.
type ServicesFunc func([]string)

// Subscription is the handle returned by the Observe* registrations. Closing
// it stops further deliveries; it is safe to close more than once.
type Subscription struct {
	store *Store
	id    int
}

// Close deregisters the subscription.
func (sub *Subscription) Close() {
	if sub == nil || sub.store == nil {
		return
	}
	sub.store.mu.Lock()
	delete(sub.store.subs, sub.id)
	sub.store.mu.Unlock()
	sub.store = nil
}

type subscriber struct {
	refresh func(ctx context.Context) error
}

// ObserveAll registers a live query over every transfer, ordered by creation
// time descending. The callback runs synchronously with the current snapshot
// before ObserveAll returns, and again after each committed insert or delete.
// Callbacks execute under the store's write lock and must not call back into
// the store.
func (s *Store) ObserveAll(ctx context.Context, fn RecordsFunc) (*Subscription, error) {
	return s.subscribe(ctx, func(ctx context.Context) error {
		records, err := s.selectAll(ctx)
		if err != nil {
			return err
		}
		fn(records)
		return nil
	})
}

// ObserveFiltered registers a live query with a fixed service filter and text
// query; changing either means closing the handle and registering again. A
// nil serviceFilter admits all services, an empty query applies no text
// filter, and both conditions combine with AND.
func (s *Store) ObserveFiltered(ctx context.Context, serviceFilter *string, query string, fn RecordsFunc) (*Subscription, error) {
	var filter *string
	if serviceFilter != nil {
		clone := *serviceFilter
		filter = &clone
	}
	return s.subscribe(ctx, func(ctx context.Context) error {
		records, err := s.selectFiltered(ctx, filter, query)
		if err != nil {
			return err
		}
		fn(records)
		return nil
	})
}

// ObserveDistinctServices registers a live projection of the distinct service
// labels, ascending lexicographically. It feeds filter dropdowns in history
// views.
func (s *Store) ObserveDistinctServices(ctx context.Context, fn ServicesFunc) (*Subscription, error) {
	return s.subscribe(ctx, func(ctx context.Context) error {
		labels, err := s.selectDistinctServices(ctx)
		if err != nil {
			return err
		}
		fn(labels)
		return nil
	})
}

func (s *Store) subscribe(ctx context.Context, refresh func(context.Context) error) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Initial snapshot is delivered before the registration is visible, so a
	// concurrent mutation cannot produce a duplicate first emission.
	if err := refresh(ctx); err != nil {
		return nil, err
	}

	s.nextSub++
	id := s.nextSub
	s.subs[id] = &subscriber{refresh: refresh}
	return &Subscription{store: s, id: id}, nil
}

// notifyLocked re-evaluates every registered query against the just-committed
// state. Callers hold s.mu, which makes the commit and the re-emission atomic
// with respect to other writers.
func (s *Store) notifyLocked(ctx context.Context) {
	for id, sub := range s.subs {
		if err := sub.refresh(ctx); err != nil {
			// Keep the subscription; the previous snapshot stands and the
			// next mutation retries the query.
			s.log.Error().Err(err).Int("subscription", id).Msg("live query refresh failed")
		}
	}
}
