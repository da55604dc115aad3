package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

// memStore хранилище в памяти: одна транзакция за раз, записи видны только после commit
type memStore struct {
	mu           sync.Mutex
	slots        map[int64]model.SlotRecord
	ledgers      map[int64]model.SessionLedger
	names        map[int64]string
	nextSlotID   int64
	nextLedgerID int64
	writes       []string
	calls        []string // блокировки и чтения FOR UPDATE по порядку, включая откаченные транзакции
	snapshots    int
	failOn       map[string]error
}

func trainerCaller(id int64) model.Caller { return model.Caller{ID: id, Role: model.RoleTrainer} }
func traineeCaller(id int64) model.Caller { return model.Caller{ID: id, Role: model.RoleTrainee} }

func newMemStore() *memStore {
	return &memStore{
		slots:   make(map[int64]model.SlotRecord),
		ledgers: make(map[int64]model.SessionLedger),
		names:   make(map[int64]string),
		failOn:  make(map[string]error),
	}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		store:        m,
		slots:        make(map[int64]model.SlotRecord, len(m.slots)),
		ledgers:      make(map[int64]model.SessionLedger, len(m.ledgers)),
		nextSlotID:   m.nextSlotID,
		nextLedgerID: m.nextLedgerID,
	}
	for id, s := range m.slots {
		tx.slots[id] = s
	}
	for id, l := range m.ledgers {
		tx.ledgers[id] = l
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	m.slots = tx.slots
	m.ledgers = tx.ledgers
	m.nextSlotID = tx.nextSlotID
	m.nextLedgerID = tx.nextLedgerID
	m.writes = append(m.writes, tx.writes...)
	return nil
}

// WithinSnapshot в памяти транзакции и так изолированы мьютексом
func (m *memStore) WithinSnapshot(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	m.mu.Lock()
	m.snapshots++
	m.mu.Unlock()
	return m.WithinTx(ctx, fn)
}

func (m *memStore) FindScheduleEntries(_ context.Context, trainerID int64, from, to time.Time) ([]model.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []model.ScheduleEntry
	for _, s := range m.slots {
		if s.TrainerID != trainerID || s.StartAt.Before(from) || !s.StartAt.Before(to) {
			continue
		}
		entry := model.ScheduleEntry{Slot: s}
		if s.LedgerID != nil {
			l := m.ledgers[*s.LedgerID]
			traineeID := l.TraineeID
			entry.TraineeID = &traineeID
			entry.TraineeName = m.names[traineeID]
		}
		entries = append(entries, entry)
	}
	// порядок из map случаен, проекция обязана отсортировать сама
	return entries, nil
}

// seedLedger создаёт контракт напрямую, минуя сервисы
func (m *memStore) seedLedger(trainerID, traineeID int64, total, used int) *model.SessionLedger {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextLedgerID++
	l := model.SessionLedger{ID: m.nextLedgerID, TrainerID: trainerID, TraineeID: traineeID, TotalSession: total, UsedSession: used}
	m.ledgers[l.ID] = l
	return &l
}

// seedSlot создаёт слот напрямую
func (m *memStore) seedSlot(trainerID int64, startAt time.Time, status model.SlotStatus, ledgerID *int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSlotID++
	m.slots[m.nextSlotID] = model.SlotRecord{
		ID:        m.nextSlotID,
		TrainerID: trainerID,
		StartAt:   startAt,
		EndAt:     startAt.Add(model.SlotDuration),
		Status:    status,
		LedgerID:  ledgerID,
	}
	return m.nextSlotID
}

func (m *memStore) slot(id int64) (model.SlotRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	return s, ok
}

func (m *memStore) ledger(id int64) model.SessionLedger {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledgers[id]
}

func (m *memStore) slotCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

func (m *memStore) slotsSorted() []model.SlotRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.SlotRecord, 0, len(m.slots))
	for _, s := range m.slots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out
}

func (m *memStore) fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn[op] = err
}

// assertInvariants status == open <=> ledger == nil; 0 <= used <= total;
// used совпадает с числом забронированных слотов
func (m *memStore) assertInvariants(t *testing.T) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	booked := make(map[int64]int)
	for _, s := range m.slots {
		assert.True(t, s.Consistent(), "slot %d inconsistent: %s ledger=%v", s.ID, s.Status, s.LedgerID)
		if s.LedgerID != nil {
			booked[*s.LedgerID]++
		}
	}
	for _, l := range m.ledgers {
		assert.True(t, l.WithinCapacity(), "ledger %d out of capacity: %d/%d", l.ID, l.UsedSession, l.TotalSession)
		assert.Equal(t, booked[l.ID], l.UsedSession, "ledger %d drift", l.ID)
	}
}

type memTx struct {
	store        *memStore
	slots        map[int64]model.SlotRecord
	ledgers      map[int64]model.SessionLedger
	nextSlotID   int64
	nextLedgerID int64
	writes       []string
}

func (tx *memTx) Slots() SlotStore     { return memSlots{tx} }
func (tx *memTx) Ledgers() LedgerStore { return memLedgers{tx} }

func (tx *memTx) LockTrainer(_ context.Context, trainerID int64) error {
	tx.store.calls = append(tx.store.calls, fmt.Sprintf("lock.trainer:%d", trainerID))
	return nil
}

func (tx *memTx) check(op string) error {
	if err, ok := tx.store.failOn[op]; ok {
		return err
	}
	tx.writes = append(tx.writes, op)
	return nil
}

type memSlots struct{ tx *memTx }

func (s memSlots) GetForUpdate(_ context.Context, id int64) (*model.SlotRecord, error) {
	slot, ok := s.tx.slots[id]
	if !ok {
		return nil, nil
	}
	return &slot, nil
}

func (s memSlots) GetManyForUpdate(_ context.Context, ids []int64) ([]*model.SlotRecord, error) {
	s.tx.store.calls = append(s.tx.store.calls, "slots.get_many")
	var out []*model.SlotRecord
	for _, id := range ids {
		if slot, ok := s.tx.slots[id]; ok {
			out = append(out, &slot)
		}
	}
	return out, nil
}

func (s memSlots) FindByTrainerAndTimeRange(_ context.Context, trainerID int64, from, to time.Time) ([]*model.SlotRecord, error) {
	var out []*model.SlotRecord
	for _, slot := range s.tx.slots {
		if slot.TrainerID == trainerID && !slot.StartAt.Before(from) && slot.StartAt.Before(to) {
			slot := slot
			out = append(out, &slot)
		}
	}
	return out, nil
}

func (s memSlots) CreateMany(_ context.Context, slots []*model.SlotRecord) error {
	if err := s.tx.check("slots.create"); err != nil {
		return err
	}
	for _, slot := range slots {
		for _, existing := range s.tx.slots {
			if existing.TrainerID == slot.TrainerID && existing.StartAt.Equal(slot.StartAt) {
				return model.ErrScheduleAlreadyExists
			}
		}
		s.tx.nextSlotID++
		slot.ID = s.tx.nextSlotID
		s.tx.slots[slot.ID] = *slot
	}
	return nil
}

func (s memSlots) Update(_ context.Context, slot *model.SlotRecord) error {
	if err := s.tx.check("slots.update"); err != nil {
		return err
	}
	if _, ok := s.tx.slots[slot.ID]; !ok {
		return errors.New("slot not found")
	}
	s.tx.slots[slot.ID] = *slot
	return nil
}

func (s memSlots) DeleteMany(_ context.Context, ids []int64) error {
	if err := s.tx.check("slots.delete"); err != nil {
		return err
	}
	for _, id := range ids {
		delete(s.tx.slots, id)
	}
	return nil
}

func (s memSlots) CountBookedByLedger(_ context.Context, ledgerID int64) (int, error) {
	n := 0
	for _, slot := range s.tx.slots {
		if slot.LedgerID != nil && *slot.LedgerID == ledgerID && slot.Status.IsBooked() {
			n++
		}
	}
	return n, nil
}

type memLedgers struct{ tx *memTx }

func (l memLedgers) GetForUpdate(_ context.Context, id int64) (*model.SessionLedger, error) {
	ledger, ok := l.tx.ledgers[id]
	if !ok {
		return nil, nil
	}
	return &ledger, nil
}

func (l memLedgers) FindActiveForUpdate(_ context.Context, trainerID, traineeID int64) (*model.SessionLedger, error) {
	for _, ledger := range l.tx.ledgers {
		if ledger.TrainerID == trainerID && ledger.TraineeID == traineeID && !ledger.Terminated {
			return &ledger, nil
		}
	}
	return nil, nil
}

func (l memLedgers) ListActive(_ context.Context) ([]*model.SessionLedger, error) {
	var out []*model.SessionLedger
	for _, ledger := range l.tx.ledgers {
		if !ledger.Terminated {
			ledger := ledger
			out = append(out, &ledger)
		}
	}
	return out, nil
}

func (l memLedgers) ListByTrainee(_ context.Context, traineeID int64) ([]*model.SessionLedger, error) {
	var out []*model.SessionLedger
	for _, ledger := range l.tx.ledgers {
		if ledger.TraineeID == traineeID && !ledger.Terminated {
			ledger := ledger
			out = append(out, &ledger)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (l memLedgers) Create(_ context.Context, ledger *model.SessionLedger) error {
	if err := l.tx.check("ledgers.create"); err != nil {
		return err
	}
	l.tx.nextLedgerID++
	ledger.ID = l.tx.nextLedgerID
	l.tx.ledgers[ledger.ID] = *ledger
	return nil
}

func (l memLedgers) Update(_ context.Context, ledger *model.SessionLedger) error {
	if err := l.tx.check("ledgers.update"); err != nil {
		return err
	}
	l.tx.ledgers[ledger.ID] = *ledger
	return nil
}

type sentNotification struct {
	RecipientID int64
	Title       string
	Body        string
	EventDate   time.Time
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (f *fakeNotifier) Dispatch(_ context.Context, recipientID int64, title, body string, eventDate time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentNotification{RecipientID: recipientID, Title: title, Body: body, EventDate: eventDate})
	return nil
}

func (f *fakeNotifier) all() []sentNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentNotification(nil), f.sent...)
}

const (
	trainerID = int64(1)
	traineeA  = int64(10)
	traineeB  = int64(11)
)

type testEnv struct {
	store    *memStore
	notifier *fakeNotifier
	booking  *BookingService
	batch    *BatchService
	schedule *ScheduleService
	ledgers  *LedgerService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := newMemStore()
	notifier := &fakeNotifier{}

	return &testEnv{
		store:    store,
		notifier: notifier,
		booking:  NewBookingService(store, notifier, time.UTC, logger),
		batch:    NewBatchService(store, notifier, time.UTC, logger),
		schedule: NewScheduleService(store, time.UTC, logger),
		ledgers:  NewLedgerService(store, logger),
	}
}

func at(day, hour int) time.Time {
	return time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC)
}
