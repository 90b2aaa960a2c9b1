package jobs

import (
	"context"
	"slices"
	"sync"

	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
	"github.com/vibast-solutions/ms-go-dispatcher/app/repository"
)

// memStore is a record store whose flag updates are compare-and-set, like the
// conditional UPDATE statements in the repository package.
type memStore struct {
	mu         sync.Mutex
	recipients map[int64]*entity.Recipient
	orders     map[int64]*entity.Order
	products   []entity.Product
	flagWrites map[int64]int
}

func newMemStore() *memStore {
	return &memStore{
		recipients: map[int64]*entity.Recipient{},
		orders:     map[int64]*entity.Order{},
		flagWrites: map[int64]int{},
	}
}

func (s *memStore) addRecipient(r entity.Recipient) {
	s.recipients[r.ID] = &r
}

func (s *memStore) addOrder(o entity.Order) {
	s.orders[o.ID] = &o
}

func (s *memStore) ListPendingWelcome(context.Context) ([]entity.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Recipient
	for _, id := range sortedKeys(s.recipients) {
		r := s.recipients[id]
		if r.Active && r.WelcomeStatus == entity.WelcomeStatusPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memStore) ListActive(context.Context) ([]entity.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Recipient
	for _, id := range sortedKeys(s.recipients) {
		if r := s.recipients[id]; r.Active {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memStore) FindByID(_ context.Context, id int64) (*entity.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipients[id]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *memStore) MarkWelcomeSent(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipients[id]
	if !ok || r.WelcomeStatus != entity.WelcomeStatusPending {
		return false, nil
	}
	r.WelcomeStatus = entity.WelcomeStatusSent
	s.flagWrites[id]++
	return true, nil
}

func (s *memStore) welcomeStatus(id int64) entity.WelcomeStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recipients[id].WelcomeStatus
}

func (s *memStore) writes(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flagWrites[id]
}

type orderView struct{ s *memStore }

func (v orderView) ListUnflagged(_ context.Context, flag repository.NotificationFlag, statuses ...entity.FulfillmentStatus) ([]entity.Order, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []entity.Order
	for _, id := range sortedKeys(v.s.orders) {
		o := v.s.orders[id]
		if !orderFlag(o, flag) && slices.Contains(statuses, o.Status) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (v orderView) FindByID(_ context.Context, id int64) (*entity.Order, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	o, ok := v.s.orders[id]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	copied := *o
	return &copied, nil
}

func (v orderView) MarkFlag(_ context.Context, flag repository.NotificationFlag, id int64) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	o, ok := v.s.orders[id]
	if !ok || orderFlag(o, flag) {
		return false, nil
	}
	if flag == repository.FlagDeliveredNotice {
		o.DeliveredNoticeSent = true
	} else {
		o.PendingReminderSent = true
	}
	v.s.flagWrites[id]++
	return true, nil
}

func (v orderView) order(id int64) entity.Order {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return *v.s.orders[id]
}

func (s *memStore) SampleActive(_ context.Context, limit int) ([]entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.products) <= limit {
		return slices.Clone(s.products), nil
	}
	return slices.Clone(s.products[:limit]), nil
}

func orderFlag(o *entity.Order, flag repository.NotificationFlag) bool {
	if flag == repository.FlagDeliveredNotice {
		return o.DeliveredNoticeSent
	}
	return o.PendingReminderSent
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
