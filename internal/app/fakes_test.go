package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub019/internal/domain"
)

// fakeLedger mirrors the guarded-update semantics of the Postgres ledger:
// every movement either applies in full or fails without touching counts.
type fakeLedger struct {
	mu    sync.Mutex
	slots map[string]*domain.InventorySlot
}

func newFakeLedger(slots ...domain.InventorySlot) *fakeLedger {
	l := &fakeLedger{slots: make(map[string]*domain.InventorySlot)}
	for _, slot := range slots {
		s := slot
		l.slots[s.ID] = &s
	}
	return l
}

func (l *fakeLedger) slotCopy(id string) domain.InventorySlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.slots[id]
}

func (l *fakeLedger) GetSlot(_ context.Context, orgID, showID string, airDate time.Time, placement domain.PlacementType) (domain.InventorySlot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, slot := range l.slots {
		if slot.OrgID == orgID && slot.ShowID == showID && slot.AirDate.Equal(airDate) && slot.PlacementType == placement {
			return *slot, nil
		}
	}
	return domain.InventorySlot{}, domain.ErrSlotNotFound
}

func (l *fakeLedger) ReserveSpots(_ context.Context, slotID string, count int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[slotID]
	if !ok {
		return domain.ErrSlotNotFound
	}
	if slot.AvailableSpots < count {
		return domain.ErrInsufficientInventory
	}
	slot.AvailableSpots -= count
	slot.ReservedSpots += count
	return nil
}

func (l *fakeLedger) ReleaseSpots(_ context.Context, slotID string, count int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[slotID]
	if !ok {
		return domain.ErrSlotNotFound
	}
	if slot.ReservedSpots < count {
		return domain.ErrInvalidSlotState
	}
	slot.ReservedSpots -= count
	slot.AvailableSpots += count
	return nil
}

func (l *fakeLedger) BookSpots(_ context.Context, slotID string, count int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[slotID]
	if !ok {
		return domain.ErrSlotNotFound
	}
	if slot.ReservedSpots < count {
		return domain.ErrInvalidSlotState
	}
	slot.ReservedSpots -= count
	slot.BookedSpots += count
	return nil
}

func (l *fakeLedger) UnbookSpots(_ context.Context, slotID string, count int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[slotID]
	if !ok {
		return domain.ErrSlotNotFound
	}
	if slot.BookedSpots < count {
		return domain.ErrInvalidSlotState
	}
	slot.BookedSpots -= count
	slot.ReservedSpots += count
	return nil
}

// checkAll verifies the counts invariant on every slot.
func (l *fakeLedger) checkAll() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, slot := range l.slots {
		if err := slot.CheckCounts(); err != nil {
			return fmt.Errorf("slot %s: %w", id, err)
		}
	}
	return nil
}

// fakeStore keeps reservations in memory with the same status-guarded
// transition behaviour as the Postgres store. Transactions are not rolled
// back; tests that need rollback semantics assert on the error instead.
type fakeStore struct {
	mu           sync.Mutex
	reservations map[string]*domain.Reservation
	history      []domain.StatusChange
}

func newFakeStore(seed ...domain.Reservation) *fakeStore {
	s := &fakeStore{reservations: make(map[string]*domain.Reservation)}
	for _, res := range seed {
		r := res
		s.reservations[r.ID] = &r
	}
	return s
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *fakeStore) CreateReservation(_ context.Context, res domain.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := res
	s.reservations[r.ID] = &r
	return nil
}

func (s *fakeStore) get(orgID, id string) (*domain.Reservation, error) {
	res, ok := s.reservations[id]
	if !ok || res.OrgID != orgID {
		return nil, domain.ErrReservationNotFound
	}
	return res, nil
}

func (s *fakeStore) GetReservation(_ context.Context, orgID, id string) (domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.get(orgID, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	return cloneReservation(*res), nil
}

func (s *fakeStore) GetReservationForUpdate(_ context.Context, orgID, id string) (domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.get(orgID, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	return cloneReservation(*res), nil
}

func (s *fakeStore) TransitionStatus(_ context.Context, id string, from, to domain.ReservationStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok || res.Status != from {
		return false, nil
	}
	res.Status = to
	return true, nil
}

func (s *fakeStore) ClaimForExpiry(_ context.Context, id string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok || res.Status != domain.ReservationStatusHeld || !res.ExpiresAt.Before(now) {
		return false, nil
	}
	res.Status = domain.ReservationStatusExpired
	return true, nil
}

func (s *fakeStore) SaveHeldChanges(_ context.Context, res domain.Reservation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.reservations[res.ID]
	if !ok || cur.Status != domain.ReservationStatusHeld {
		return false, nil
	}
	cur.CampaignID = res.CampaignID
	cur.Priority = res.Priority
	cur.Notes = res.Notes
	cur.HoldDurationHours = res.HoldDurationHours
	cur.ExpiresAt = res.ExpiresAt
	return true, nil
}

func (s *fakeStore) ListItems(_ context.Context, reservationID string) ([]domain.ReservationItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[reservationID]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	return append([]domain.ReservationItem(nil), res.Items...), nil
}

func (s *fakeStore) SetItemStatuses(_ context.Context, reservationID string, status domain.ItemStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[reservationID]
	if !ok {
		return domain.ErrReservationNotFound
	}
	for i := range res.Items {
		res.Items[i].Status = status
	}
	return nil
}

func (s *fakeStore) AppendStatusChange(_ context.Context, ch domain.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, ch)
	return nil
}

func (s *fakeStore) ListDueForExpiry(_ context.Context, orgID string, now time.Time, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type due struct {
		id string
		at time.Time
	}
	var dues []due
	for _, res := range s.reservations {
		if res.Status != domain.ReservationStatusHeld {
			continue
		}
		if orgID != "" && res.OrgID != orgID {
			continue
		}
		if !res.ExpiresAt.Before(now) {
			continue
		}
		dues = append(dues, due{id: res.ID, at: res.ExpiresAt})
	}
	sort.Slice(dues, func(a, b int) bool { return dues[a].at.Before(dues[b].at) })
	if limit > 0 && len(dues) > limit {
		dues = dues[:limit]
	}
	ids := make([]string, len(dues))
	for i, d := range dues {
		ids[i] = d.id
	}
	return ids, nil
}

func (s *fakeStore) List(_ context.Context, orgID string, f domain.ReservationFilter) ([]domain.Reservation, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []domain.Reservation
	for _, res := range s.reservations {
		if res.OrgID != orgID {
			continue
		}
		if f.Status != "" && res.Status != f.Status {
			continue
		}
		if f.AdvertiserID != "" && res.AdvertiserID != f.AdvertiserID {
			continue
		}
		if f.CampaignID != "" && res.CampaignID != f.CampaignID {
			continue
		}
		matched = append(matched, cloneReservation(*res))
	}
	sort.Slice(matched, func(a, b int) bool { return matched[a].CreatedAt.After(matched[b].CreatedAt) })
	total := len(matched)

	start := (f.Page - 1) * f.Limit
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *fakeStore) reservation(id string) domain.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneReservation(*s.reservations[id])
}

func (s *fakeStore) historyFor(id string) []domain.StatusChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.StatusChange
	for _, ch := range s.history {
		if ch.ReservationID == id {
			out = append(out, ch)
		}
	}
	return out
}

func cloneReservation(res domain.Reservation) domain.Reservation {
	res.Items = append([]domain.ReservationItem(nil), res.Items...)
	return res
}

// fakeOrderStore hands out sequential order numbers and keeps created orders
// keyed by reservation.
type fakeOrderStore struct {
	mu     sync.Mutex
	next   int
	orders map[string]domain.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{next: 100001, orders: make(map[string]domain.Order)}
}

func (s *fakeOrderStore) NextOrderNumber(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.next
	s.next++
	return fmt.Sprintf("ORD-%06d", n), nil
}

func (s *fakeOrderStore) CreateOrder(_ context.Context, order domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.ReservationID]; exists {
		return domain.ErrInvalidStateTransition
	}
	s.orders[order.ReservationID] = order
	return nil
}

func (s *fakeOrderStore) GetOrderByReservationID(_ context.Context, reservationID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[reservationID]
	if !ok {
		return nil, nil
	}
	return &order, nil
}
