// Package memory holds in-memory implementations of the booking repositories.
// They back the service tests and local runs without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"delegatebooking/internal/domain"
)

type state struct {
	carts         map[string]domain.Cart
	cartDelegates map[string]domain.CartDelegate
	bookings      map[int64]domain.Booking
	nextBookingID int64
	delegates     map[string]domain.Delegate
	delegateOrder []string
	receipts      map[string]domain.Receipt
	receiptOrder  []string
}

func newState() state {
	return state{
		carts:         make(map[string]domain.Cart),
		cartDelegates: make(map[string]domain.CartDelegate),
		bookings:      make(map[int64]domain.Booking),
		delegates:     make(map[string]domain.Delegate),
		receipts:      make(map[string]domain.Receipt),
	}
}

func (s state) clone() state {
	c := state{
		carts:         make(map[string]domain.Cart, len(s.carts)),
		cartDelegates: make(map[string]domain.CartDelegate, len(s.cartDelegates)),
		bookings:      make(map[int64]domain.Booking, len(s.bookings)),
		nextBookingID: s.nextBookingID,
		delegates:     make(map[string]domain.Delegate, len(s.delegates)),
		delegateOrder: append([]string(nil), s.delegateOrder...),
		receipts:      make(map[string]domain.Receipt, len(s.receipts)),
		receiptOrder:  append([]string(nil), s.receiptOrder...),
	}
	for k, v := range s.carts {
		c.carts[k] = cloneCart(v)
	}
	for k, v := range s.cartDelegates {
		v.Choices = append([]domain.CartChoice(nil), v.Choices...)
		c.cartDelegates[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.delegates {
		v.Choices = append([]domain.CartChoice(nil), v.Choices...)
		c.delegates[k] = v
	}
	for k, v := range s.receipts {
		c.receipts[k] = v
	}
	return c
}

func cloneCart(c domain.Cart) domain.Cart {
	ids := make(map[int]string, len(c.DelegateIDs))
	for k, v := range c.DelegateIDs {
		ids[k] = v
	}
	c.DelegateIDs = ids
	return c
}

// Store keeps events, carts, bookings, delegates and receipts in maps.
// One Store implements every repository the services need.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data state

	events       map[string]*domain.Event
	packages     map[string]*domain.Package
	coordinators map[string]*domain.Coordinator

	now func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		data:         newState(),
		events:       make(map[string]*domain.Event),
		packages:     make(map[string]*domain.Package),
		coordinators: make(map[string]*domain.Coordinator),
		now:          time.Now,
	}
}

// AddEvent registers an event and its coordinator.
func (s *Store) AddEvent(e *domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
	if e.Coordinator != nil {
		s.coordinators[e.Coordinator.Prefix] = e.Coordinator
	}
}

// AddPackage registers a package.
func (s *Store) AddPackage(p *domain.Package) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packages[p.ID] = p
}

// Stores returns the repositories backed by s.
func (s *Store) Stores() domain.TxStores {
	return domain.TxStores{
		Carts:     (*cartRepo)(s),
		Bookings:  (*bookingRepo)(s),
		Delegates: (*delegateRepo)(s),
		Receipts:  (*receiptRepo)(s),
	}
}

// RunInTx serialises transactions and restores the previous state when fn fails.
func (s *Store) RunInTx(ctx context.Context, fn func(stores domain.TxStores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(s.Stores()); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// Counts reports the number of stored bookings, delegates and receipts.
func (s *Store) Counts() (bookings, delegates, receipts int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.bookings), len(s.data.delegates), len(s.data.receipts)
}

// CartRows reports the number of cart containers and staged delegates.
func (s *Store) CartRows() (carts, delegates int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.carts), len(s.data.cartDelegates)
}

// GetByID implements domain.EventRepository.
func (s *Store) GetByID(_ context.Context, id string) (*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *e
	return &out, nil
}

// GetPackage implements domain.EventRepository.
func (s *Store) GetPackage(_ context.Context, id string) (*domain.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.packages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *p
	return &out, nil
}

// GetCoordinatorByPrefix implements domain.EventRepository.
func (s *Store) GetCoordinatorByPrefix(_ context.Context, prefix string) (*domain.Coordinator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.coordinators[prefix]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *c
	return &out, nil
}

type cartRepo Store

func (r *cartRepo) CreateCart(_ context.Context, c *domain.Cart) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.data.carts[c.ID] = cloneCart(*c)
	return nil
}

func (r *cartRepo) DeleteCart(_ context.Context, id string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.carts, id)
	return nil
}

func (r *cartRepo) CreateDelegate(_ context.Context, d *domain.CartDelegate) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.carts[d.CartID]; !ok {
		return domain.ErrNotFound
	}
	d.ID = uuid.NewString()
	d.CreatedAt = s.now()
	for i := range d.Choices {
		d.Choices[i].ID = uuid.NewString()
		d.Choices[i].CartDelegateID = d.ID
	}
	row := *d
	row.Choices = append([]domain.CartChoice(nil), d.Choices...)
	s.data.cartDelegates[d.ID] = row
	return nil
}

func (r *cartRepo) UpdateDelegate(_ context.Context, d *domain.CartDelegate) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.data.cartDelegates[d.ID]
	if !ok || row.CartID != d.CartID {
		return domain.ErrNotFound
	}
	row.DelegateDetails = d.DelegateDetails
	row.Package = d.Package
	s.data.cartDelegates[d.ID] = row
	return nil
}

func (r *cartRepo) GetDelegate(_ context.Context, cartID, id string) (*domain.CartDelegate, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.data.cartDelegates[id]
	if !ok || row.CartID != cartID {
		return nil, domain.ErrNotFound
	}
	row.Choices = append([]domain.CartChoice(nil), row.Choices...)
	return &row, nil
}

func (r *cartRepo) ListDelegates(_ context.Context, cartID string) ([]*domain.CartDelegate, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.CartDelegate, 0)
	for _, row := range s.data.cartDelegates {
		if row.CartID != cartID {
			continue
		}
		row.Choices = append([]domain.CartChoice(nil), row.Choices...)
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Forename != out[j].Forename {
			return out[i].Forename < out[j].Forename
		}
		if out[i].Surname != out[j].Surname {
			return out[i].Surname < out[j].Surname
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *cartRepo) DeleteDelegate(_ context.Context, cartID, id string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.data.cartDelegates[id]; ok && row.CartID == cartID {
		delete(s.data.cartDelegates, id)
	}
	return nil
}

func (r *cartRepo) DeleteDelegates(_ context.Context, cartID string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, row := range s.data.cartDelegates {
		if row.CartID == cartID {
			delete(s.data.cartDelegates, id)
		}
	}
	return nil
}

func (r *cartRepo) DeleteChoices(_ context.Context, cartID string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, row := range s.data.cartDelegates {
		if row.CartID == cartID {
			row.Choices = nil
			s.data.cartDelegates[id] = row
		}
	}
	return nil
}

type bookingRepo Store

func (r *bookingRepo) Create(_ context.Context, b *domain.Booking) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.nextBookingID++
	now := s.now()
	b.ID = s.data.nextBookingID
	b.Version = 0
	b.CreatedAt = now
	b.UpdatedAt = now
	row := *b
	row.Delegates = nil
	s.data.bookings[b.ID] = row
	return nil
}

func (r *bookingRepo) UpdateIfVersion(_ context.Context, b *domain.Booking, expected int) (domain.VersionCheck, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.data.bookings[b.ID]
	if !ok || stored.Version != expected {
		return domain.VersionConflict, nil
	}
	b.Version = expected + 1
	b.PasswordHash = stored.PasswordHash
	b.CreatedAt = stored.CreatedAt
	b.UpdatedAt = s.now()
	row := *b
	row.Delegates = nil
	s.data.bookings[b.ID] = row
	return domain.VersionApplied, nil
}

func (r *bookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.data.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (r *bookingRepo) GetForEvent(ctx context.Context, eventID string, id int64) (*domain.Booking, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.EventID != eventID {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (r *bookingRepo) UpdateBilling(_ context.Context, id int64, billing domain.BillingDetails) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.Billing = billing
	b.UpdatedAt = s.now()
	s.data.bookings[id] = b
	return nil
}

type delegateRepo Store

func (r *delegateRepo) SaveFromCart(_ context.Context, bookingID int64, staged *domain.CartDelegate) (*domain.Delegate, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	d := domain.Delegate{
		BookingID:       bookingID,
		DelegateDetails: staged.DelegateDetails,
		Package:         staged.Package,
		CreatedAt:       s.now(),
	}
	if existing, ok := s.data.delegates[staged.SourceDelegateID]; ok && existing.BookingID == bookingID {
		d.ID = existing.ID
		d.CreatedAt = existing.CreatedAt
	} else {
		d.ID = uuid.NewString()
		s.data.delegateOrder = append(s.data.delegateOrder, d.ID)
	}
	d.Choices = make([]domain.CartChoice, len(staged.Choices))
	for i, c := range staged.Choices {
		d.Choices[i] = domain.CartChoice{ID: uuid.NewString(), CartDelegateID: d.ID, OptionID: c.OptionID, Price: c.Price}
	}
	s.data.delegates[d.ID] = d
	out := d
	out.Choices = append([]domain.CartChoice(nil), d.Choices...)
	return &out, nil
}

func (r *delegateRepo) ListByBooking(_ context.Context, bookingID int64) ([]*domain.Delegate, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Delegate, 0)
	for _, id := range s.data.delegateOrder {
		d, ok := s.data.delegates[id]
		if !ok || d.BookingID != bookingID {
			continue
		}
		d.Choices = append([]domain.CartChoice(nil), d.Choices...)
		out = append(out, &d)
	}
	return out, nil
}

type receiptRepo Store

func (r *receiptRepo) Create(_ context.Context, rc *domain.Receipt) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	rc.ID = uuid.NewString()
	if rc.CreatedAt.IsZero() {
		rc.CreatedAt = s.now()
	}
	s.data.receipts[rc.ID] = *rc
	s.data.receiptOrder = append(s.data.receiptOrder, rc.ID)
	return nil
}

func (r *receiptRepo) Update(_ context.Context, rc *domain.Receipt) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.receipts[rc.ID]; !ok {
		return domain.ErrNotFound
	}
	s.data.receipts[rc.ID] = *rc
	return nil
}

func (r *receiptRepo) ListByBooking(_ context.Context, bookingID int64) ([]*domain.Receipt, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Receipt, 0)
	for _, id := range s.data.receiptOrder {
		rc, ok := s.data.receipts[id]
		if !ok || rc.BookingID != bookingID {
			continue
		}
		out = append(out, &rc)
	}
	return out, nil
}
