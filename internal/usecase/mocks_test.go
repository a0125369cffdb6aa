//go:build !integration

package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-job-alerts/internal/domain"
	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/domain/ports/repository"
)

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

//
// ---------------- in-memory infra mocks (repos/tx) ----------------
//

type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

type memUserRepo struct {
	mu   sync.Mutex
	byID map[string]*model.User

	errSave error
	errFind error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*model.User{}}
}

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.errSave != nil {
		return m.errSave
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	if m.errFind != nil {
		return nil, m.errFind
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.TelegramID == tgID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if m.errFind != nil {
		return nil, m.errFind
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	return m.FindByID(ctx, tx, id)
}

func (m *memUserRepo) FindPremium(ctx context.Context, tx repository.Tx) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, u := range m.byID {
		if u.Tier == model.TierPremium {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUserRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUserRepo) CountByTier(ctx context.Context, tx repository.Tx) (map[model.Tier]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[model.Tier]int{}
	for _, u := range m.byID {
		out[u.Tier]++
	}
	return out, nil
}

func (m *memUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID), nil
}

func (m *memUserRepo) CountActiveSince(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.byID {
		if !u.LastActiveAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type memLedgerRepo struct {
	mu      sync.Mutex
	entries map[string]map[string]*model.LedgerEntry // userID -> listingID
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{entries: map[string]map[string]*model.LedgerEntry{}}
}

func (m *memLedgerRepo) Record(ctx context.Context, tx repository.Tx, userID string, listingIDs []string, ch model.DeliveryChannel, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[userID] == nil {
		m.entries[userID] = map[string]*model.LedgerEntry{}
	}
	recorded := 0
	for _, lid := range listingIDs {
		if _, ok := m.entries[userID][lid]; ok {
			continue
		}
		m.entries[userID][lid] = &model.LedgerEntry{UserID: userID, ListingID: lid, Channel: ch, DeliveredAt: at}
		recorded++
	}
	return recorded, nil
}

func (m *memLedgerRepo) Exists(ctx context.Context, tx repository.Tx, userID, listingID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[userID][listingID]
	return ok, nil
}

func (m *memLedgerRepo) CountAll(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, byListing := range m.entries {
		n += len(byListing)
	}
	return n, nil
}

func (m *memLedgerRepo) CountSince(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, byListing := range m.entries {
		for _, e := range byListing {
			if !e.DeliveredAt.Before(since) {
				n++
			}
		}
	}
	return n, nil
}

type memAlertRepo struct {
	mu      sync.Mutex
	pending map[string]map[string]*model.PendingAlert // userID -> listingID
	ledger  *memLedgerRepo

	errEnqueue error
}

func newMemAlertRepo(ledger *memLedgerRepo) *memAlertRepo {
	return &memAlertRepo{pending: map[string]map[string]*model.PendingAlert{}, ledger: ledger}
}

func (m *memAlertRepo) Enqueue(ctx context.Context, tx repository.Tx, userID, listingID string) (bool, error) {
	if m.errEnqueue != nil {
		return false, m.errEnqueue
	}
	if m.ledger != nil {
		if ok, _ := m.ledger.Exists(ctx, tx, userID, listingID); ok {
			return false, nil
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending[userID] == nil {
		m.pending[userID] = map[string]*model.PendingAlert{}
	}
	if _, ok := m.pending[userID][listingID]; ok {
		return false, nil
	}
	m.pending[userID][listingID] = &model.PendingAlert{UserID: userID, ListingID: listingID, EnqueuedAt: time.Now()}
	return true, nil
}

func (m *memAlertRepo) FindDue(ctx context.Context, tx repository.Tx) (map[string][]*model.PendingAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string][]*model.PendingAlert{}
	for uid, byListing := range m.pending {
		for _, a := range byListing {
			cp := *a
			out[uid] = append(out[uid], &cp)
		}
		sort.Slice(out[uid], func(i, j int) bool { return out[uid][i].ListingID < out[uid][j].ListingID })
	}
	return out, nil
}

func (m *memAlertRepo) Remove(ctx context.Context, tx repository.Tx, userID string, listingIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, lid := range listingIDs {
		delete(m.pending[userID], lid)
	}
	if len(m.pending[userID]) == 0 {
		delete(m.pending, userID)
	}
	return nil
}

func (m *memAlertRepo) CountPending(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, byListing := range m.pending {
		n += len(byListing)
	}
	return n, nil
}

type memListingRepo struct {
	mu       sync.Mutex
	byID     map[string]*model.Listing
	byNative map[[2]string]string // (source, nativeID) -> id
	ledger   *memLedgerRepo
	alerts   *memAlertRepo
}

func newMemListingRepo(ledger *memLedgerRepo, alerts *memAlertRepo) *memListingRepo {
	return &memListingRepo{
		byID:     map[string]*model.Listing{},
		byNative: map[[2]string]string{},
		ledger:   ledger,
		alerts:   alerts,
	}
}

func (m *memListingRepo) Insert(ctx context.Context, tx repository.Tx, l *model.Listing) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{l.Source, l.SourceNativeID}
	if _, ok := m.byNative[key]; ok {
		return false, nil
	}
	cp := *l
	m.byID[l.ID] = &cp
	m.byNative[key] = l.ID
	return true, nil
}

func (m *memListingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memListingRepo) FindByIDs(ctx context.Context, tx repository.Tx, ids []string) ([]*model.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Listing
	for _, id := range ids {
		if l, ok := m.byID[id]; ok {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memListingRepo) FindUndelivered(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Listing
	for _, l := range m.byID {
		delivered := false
		if m.ledger != nil {
			delivered, _ = m.ledger.Exists(ctx, tx, userID, l.ID)
		}
		if !delivered {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PostedAt.Equal(out[j].PostedAt) {
			return out[i].PostedAt.After(out[j].PostedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memListingRepo) HasUndelivered(ctx context.Context, tx repository.Tx, userID string) (bool, error) {
	found, err := m.FindUndelivered(ctx, tx, userID, 1)
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

func (m *memListingRepo) PurgeStale(ctx context.Context, tx repository.Tx, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	purged := 0
	for id, l := range m.byID {
		if !l.FetchedAt.Before(cutoff) {
			continue
		}
		if m.alerts != nil && m.alerts.referenced(id) {
			continue
		}
		delete(m.byID, id)
		delete(m.byNative, [2]string{l.Source, l.SourceNativeID})
		purged++
	}
	return purged, nil
}

func (m *memAlertRepo) referenced(listingID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, byListing := range m.pending {
		if _, ok := byListing[listingID]; ok {
			return true
		}
	}
	return false
}

func (m *memListingRepo) CountByPlatform(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int{}
	for _, l := range m.byID {
		out[l.Platform]++
	}
	return out, nil
}

func (m *memListingRepo) LastFetchedAt(ctx context.Context, tx repository.Tx) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last *time.Time
	for _, l := range m.byID {
		if last == nil || l.FetchedAt.After(*last) {
			t := l.FetchedAt
			last = &t
		}
	}
	return last, nil
}

//
// ---------------- fake gateway and sources ----------------
//

type sentBatch struct {
	tgID     int64
	listings []*model.Listing
}

type fakeGateway struct {
	mu      sync.Mutex
	batches []sentBatch
	texts   []string

	// failFor makes SendBatch fail n times for the given chat.
	failFor map[int64]int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{failFor: map[int64]int{}}
}

func (g *fakeGateway) SendBatch(ctx context.Context, tgID int64, listings []*model.Listing) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n := g.failFor[tgID]; n > 0 {
		g.failFor[tgID] = n - 1
		return domain.ErrDeliveryFailed
	}
	g.batches = append(g.batches, sentBatch{tgID: tgID, listings: listings})
	return nil
}

func (g *fakeGateway) SendText(ctx context.Context, tgID int64, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, text)
	return nil
}

func (g *fakeGateway) sentTo(tgID int64) []sentBatch {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []sentBatch
	for _, b := range g.batches {
		if b.tgID == tgID {
			out = append(out, b)
		}
	}
	return out
}

type fakeSource struct {
	name     string
	listings []*model.Listing
	err      error
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Fetch(ctx context.Context) ([]*model.Listing, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.listings, nil
}

//
// ---------------- builders ----------------
//

func newTestListing(source, nativeID, title string, postedAt time.Time) *model.Listing {
	return &model.Listing{
		ID:             postedAt.UTC().Format("20060102T150405") + "-" + nativeID,
		Source:         source,
		SourceNativeID: nativeID,
		Title:          title,
		Platform:       source,
		PostedAt:       postedAt,
		FetchedAt:      postedAt,
	}
}

func newTestUser(id string, tgID int64, tier model.Tier) *model.User {
	return &model.User{
		ID:           id,
		TelegramID:   tgID,
		Username:     "u",
		Tier:         tier,
		RegisteredAt: time.Now(),
		LastActiveAt: time.Now(),
	}
}
