package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lh20005/geo-xi-tong-sub000/config"
	"github.com/lh20005/geo-xi-tong-sub000/models"
	"github.com/lh20005/geo-xi-tong-sub000/repositories"

	"gorm.io/gorm"
)

func setTestConfig() {
	config.AppConfig = &config.Config{
		Accounting: config.AccountingConfig{
			DefaultQuotaBytes:     10 * 1024 * 1024 * 1024,
			CacheTTLSeconds:       300,
			MaxImageBytes:         50 * 1024 * 1024,
			MaxDocumentBytes:      100 * 1024 * 1024,
			MaxArticleBytes:       10 * 1024 * 1024,
			AlertCooldownHours:    24,
			AlertRetentionDays:    90,
			SnapshotRetentionDays: 365,
			DefaultHistoryDays:    30,
		},
		Pagination: config.PaginationConfig{DefaultPageSize: 20, MaxPageSize: 100},
	}
}

type fakeTxManager struct {
	onRollback func()
}

func (m *fakeTxManager) WithTransaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	if err := fn(nil); err != nil {
		if m.onRollback != nil {
			m.onRollback()
		}
		return err
	}
	return nil
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uint]models.StorageAccount
	nextID   uint

	getErr          error
	ensureErr       error
	addUsageErr     error
	updateQuotaErr  error
	addPurchasedErr error
	listErr         error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[uint]models.StorageAccount{}, nextID: 1}
}

func (r *fakeAccountRepo) put(account models.StorageAccount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account.ID == 0 {
		account.ID = r.nextID
		r.nextID++
	}
	r.accounts[account.UserID] = account
}

func (r *fakeAccountRepo) get(userID uint) models.StorageAccount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[userID]
}

func (r *fakeAccountRepo) GetByUserID(_ context.Context, _ *gorm.DB, userID uint) (models.StorageAccount, error) {
	if r.getErr != nil {
		return models.StorageAccount{}, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[userID]
	if !ok {
		return models.StorageAccount{}, gorm.ErrRecordNotFound
	}
	return account, nil
}

func (r *fakeAccountRepo) EnsureExists(_ context.Context, _ *gorm.DB, account *models.StorageAccount) error {
	if r.ensureErr != nil {
		return r.ensureErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.UserID]; ok {
		return nil
	}
	account.ID = r.nextID
	r.nextID++
	r.accounts[account.UserID] = *account
	return nil
}

func (r *fakeAccountRepo) AddUsage(_ context.Context, _ *gorm.DB, userID uint, resourceType string, deltaBytes int64, deltaCount int64) error {
	if r.addUsageErr != nil {
		return r.addUsageErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	floor := func(v int64) int64 {
		if v < 0 {
			return 0
		}
		return v
	}
	switch resourceType {
	case models.ResourceTypeImage:
		account.ImageBytes = floor(account.ImageBytes + deltaBytes)
		account.ImageCount = floor(account.ImageCount + deltaCount)
	case models.ResourceTypeDocument:
		account.DocumentBytes = floor(account.DocumentBytes + deltaBytes)
		account.DocumentCount = floor(account.DocumentCount + deltaCount)
	case models.ResourceTypeArticle:
		account.ArticleBytes = floor(account.ArticleBytes + deltaBytes)
		account.ArticleCount = floor(account.ArticleCount + deltaCount)
	default:
		return errors.New("unknown resource type")
	}
	account.LastUpdatedAt = time.Now()
	r.accounts[userID] = account
	return nil
}

func (r *fakeAccountRepo) UpdateQuotaBase(_ context.Context, _ *gorm.DB, userID uint, quotaBytes int64) error {
	if r.updateQuotaErr != nil {
		return r.updateQuotaErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	account.QuotaBaseBytes = quotaBytes
	r.accounts[userID] = account
	return nil
}

func (r *fakeAccountRepo) AddPurchased(_ context.Context, _ *gorm.DB, userID uint, deltaBytes int64) error {
	if r.addPurchasedErr != nil {
		return r.addPurchasedErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	account.PurchasedBytes += deltaBytes
	r.accounts[userID] = account
	return nil
}

func (r *fakeAccountRepo) ListUserIDs(_ context.Context, _ *gorm.DB) ([]uint, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint, 0, len(r.accounts))
	for id := range r.accounts {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeTransactionRepo struct {
	mu        sync.Mutex
	records   []models.StorageTransaction
	nextID    uint
	createErr error
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{nextID: 1}
}

func (r *fakeTransactionRepo) Create(_ context.Context, _ *gorm.DB, record *models.StorageTransaction) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	record.ID = r.nextID
	record.CreatedAt = time.Now()
	r.nextID++
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeTransactionRepo) CountByUser(_ context.Context, _ *gorm.DB, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, record := range r.records {
		if record.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *fakeTransactionRepo) ListByUser(_ context.Context, _ *gorm.DB, in repositories.TransactionListInput) ([]models.StorageTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []models.StorageTransaction
	for _, record := range r.records {
		if record.UserID == in.UserID {
			matched = append(matched, record)
		}
	}
	// newest first, like the real repository
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	if in.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[in.Offset:]
	if in.Limit < len(matched) {
		matched = matched[:in.Limit]
	}
	return matched, nil
}

type fakeUsageCache struct {
	mu              sync.Mutex
	entries         map[uint]models.StorageAccount
	setCalls        int
	invalidateCalls int

	getErr        error
	setErr        error
	invalidateErr error
}

func newFakeUsageCache() *fakeUsageCache {
	return &fakeUsageCache{entries: map[uint]models.StorageAccount{}}
}

func (c *fakeUsageCache) GetAccount(_ context.Context, userID uint) (models.StorageAccount, bool, error) {
	if c.getErr != nil {
		return models.StorageAccount{}, false, c.getErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	account, ok := c.entries[userID]
	return account, ok, nil
}

func (c *fakeUsageCache) SetAccount(_ context.Context, account models.StorageAccount, _ time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCalls++
	c.entries[account.UserID] = account
	return nil
}

func (c *fakeUsageCache) Invalidate(_ context.Context, userID uint) error {
	c.mu.Lock()
	c.invalidateCalls++
	c.mu.Unlock()
	if c.invalidateErr != nil {
		return c.invalidateErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}

type capturingNotifier struct {
	mu           sync.Mutex
	usageUpdated []uint
	quotaChanged []int64
	alertEvents  []models.StorageAlert
}

func (n *capturingNotifier) UsageUpdated(_ context.Context, userID uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.usageUpdated = append(n.usageUpdated, userID)
}

func (n *capturingNotifier) QuotaChanged(_ context.Context, _ uint, effectiveQuotaBytes int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.quotaChanged = append(n.quotaChanged, effectiveQuotaBytes)
}

func (n *capturingNotifier) AlertCreated(_ context.Context, alert models.StorageAlert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alertEvents = append(n.alertEvents, alert)
}

type fakeAlertChecker struct {
	checked chan uint
}

func (c *fakeAlertChecker) CheckAndCreateAlerts(_ context.Context, userID uint) ([]models.StorageAlert, error) {
	if c.checked != nil {
		c.checked <- userID
	}
	return nil, nil
}

func newTestUsageService(accounts *fakeAccountRepo, transactions *fakeTransactionRepo, cache *fakeUsageCache) UsageService {
	var usageCache repositories.UsageCache
	if cache != nil {
		usageCache = cache
	}
	return NewUsageService(&fakeTxManager{}, accounts, transactions, usageCache, nil, NewNoopNotifier())
}

func TestUsageServiceRecordUsageAddsCounters(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	transactions := newFakeTransactionRepo()
	svc := newTestUsageService(accounts, transactions, nil)

	err := svc.RecordUsage(context.Background(), RecordUsageInput{
		UserID:       1,
		ResourceType: models.ResourceTypeImage,
		ResourceID:   42,
		SizeBytes:    2048,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	account := accounts.get(1)
	if account.ImageBytes != 2048 || account.ImageCount != 1 {
		t.Fatalf("unexpected image counters: %+v", account)
	}
	if account.DocumentBytes != 0 || account.ArticleBytes != 0 {
		t.Fatalf("other counters must stay untouched: %+v", account)
	}

	if len(transactions.records) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(transactions.records))
	}
	record := transactions.records[0]
	if record.Operation != models.OperationAdd || record.SizeBytes != 2048 || record.ResourceID != 42 {
		t.Fatalf("unexpected transaction: %+v", record)
	}
	if record.PublicID == "" {
		t.Fatalf("transaction must carry a public id")
	}
}

func TestUsageServiceRemoveUsageSubtractsCounters(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	accounts.put(models.StorageAccount{UserID: 1, DocumentBytes: 5000, DocumentCount: 2, QuotaBaseBytes: 10000})
	transactions := newFakeTransactionRepo()
	svc := newTestUsageService(accounts, transactions, nil)

	err := svc.RemoveUsage(context.Background(), RecordUsageInput{
		UserID:       1,
		ResourceType: models.ResourceTypeDocument,
		SizeBytes:    3000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	account := accounts.get(1)
	if account.DocumentBytes != 2000 || account.DocumentCount != 1 {
		t.Fatalf("unexpected document counters: %+v", account)
	}
	if transactions.records[0].Operation != models.OperationRemove {
		t.Fatalf("expected remove operation, got %s", transactions.records[0].Operation)
	}
}

func TestUsageServiceRemoveUsageFloorsAtZero(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	accounts.put(models.StorageAccount{UserID: 1, ArticleBytes: 100, ArticleCount: 1, QuotaBaseBytes: 10000})
	svc := newTestUsageService(accounts, newFakeTransactionRepo(), nil)

	err := svc.RemoveUsage(context.Background(), RecordUsageInput{
		UserID:       1,
		ResourceType: models.ResourceTypeArticle,
		SizeBytes:    5000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	account := accounts.get(1)
	if account.ArticleBytes != 0 {
		t.Fatalf("expected article bytes floored at 0, got %d", account.ArticleBytes)
	}
	if account.ArticleCount != 0 {
		t.Fatalf("expected article count floored at 0, got %d", account.ArticleCount)
	}
}

func TestUsageServiceRecordUsageRejectsUnknownType(t *testing.T) {
	setTestConfig()
	svc := newTestUsageService(newFakeAccountRepo(), newFakeTransactionRepo(), nil)

	err := svc.RecordUsage(context.Background(), RecordUsageInput{
		UserID:       1,
		ResourceType: "video",
		SizeBytes:    100,
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	appErr, ok := err.(*AppError)
	if !ok || appErr.HTTPCode != 400 {
		t.Fatalf("expected HTTP 400 AppError, got %v", err)
	}
}

func TestUsageServiceRecordUsageRejectsNegativeSize(t *testing.T) {
	setTestConfig()
	svc := newTestUsageService(newFakeAccountRepo(), newFakeTransactionRepo(), nil)

	err := svc.RecordUsage(context.Background(), RecordUsageInput{
		UserID:       1,
		ResourceType: models.ResourceTypeImage,
		SizeBytes:    -1,
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if appErr, ok := err.(*AppError); !ok || appErr.HTTPCode != 400 {
		t.Fatalf("expected HTTP 400 AppError, got %v", err)
	}
}

func TestUsageServiceRollsBackCountersWhenLogInsertFails(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	accounts.put(models.StorageAccount{UserID: 1, ImageBytes: 500, ImageCount: 1, QuotaBaseBytes: 10000})
	transactions := newFakeTransactionRepo()
	transactions.createErr = errors.New("log insert failed")

	before := accounts.get(1)
	txManager := &fakeTxManager{onRollback: func() {
		accounts.put(before)
	}}
	svc := NewUsageService(txManager, accounts, transactions, nil, nil, NewNoopNotifier())

	err := svc.RecordUsage(context.Background(), RecordUsageInput{
		UserID:       1,
		ResourceType: models.ResourceTypeImage,
		SizeBytes:    1000,
	})
	if err == nil {
		t.Fatalf("expected error when log insert fails")
	}
	if appErr, ok := err.(*AppError); !ok || appErr.HTTPCode != 500 {
		t.Fatalf("expected HTTP 500 AppError, got %v", err)
	}

	account := accounts.get(1)
	if account.ImageBytes != 500 || account.ImageCount != 1 {
		t.Fatalf("counters must be unchanged after rollback: %+v", account)
	}
	if len(transactions.records) != 0 {
		t.Fatalf("no transaction row may survive a rollback")
	}
}

func TestUsageServiceConcurrentRecords(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	accounts.put(models.StorageAccount{UserID: 1, QuotaBaseBytes: models.UnlimitedQuota})
	svc := newTestUsageService(accounts, newFakeTransactionRepo(), nil)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if err := svc.RecordUsage(context.Background(), RecordUsageInput{
				UserID:       1,
				ResourceType: models.ResourceTypeImage,
				SizeBytes:    100,
			}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	account := accounts.get(1)
	if account.ImageBytes != workers*100 {
		t.Fatalf("expected %d image bytes, got %d", workers*100, account.ImageBytes)
	}
	if account.ImageCount != workers {
		t.Fatalf("expected %d images, got %d", workers, account.ImageCount)
	}
}

func TestUsageServiceGetUsageReadsThroughCache(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	accounts.put(models.StorageAccount{UserID: 1, ImageBytes: 1000, QuotaBaseBytes: 10000})
	cache := newFakeUsageCache()
	svc := newTestUsageService(accounts, newFakeTransactionRepo(), cache)

	out, err := svc.GetUsage(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.TotalBytes != 1000 {
		t.Fatalf("expected 1000 total bytes, got %d", out.TotalBytes)
	}
	if cache.setCalls != 1 {
		t.Fatalf("expected cache to be populated once, got %d writes", cache.setCalls)
	}

	// Mutate the store behind the cache. A cached read must still serve the
	// old value; a fresh read must see the new one.
	accounts.put(models.StorageAccount{ID: 1, UserID: 1, ImageBytes: 9999, QuotaBaseBytes: 10000})

	cached, err := svc.GetUsage(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached.TotalBytes != 1000 {
		t.Fatalf("expected cached total 1000, got %d", cached.TotalBytes)
	}

	fresh, err := svc.GetUsageFresh(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh.TotalBytes != 9999 {
		t.Fatalf("expected fresh total 9999, got %d", fresh.TotalBytes)
	}
}

func TestUsageServiceCacheErrorFallsBackToStore(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	accounts.put(models.StorageAccount{UserID: 1, ImageBytes: 777, QuotaBaseBytes: 10000})
	cache := newFakeUsageCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	svc := newTestUsageService(accounts, newFakeTransactionRepo(), cache)

	out, err := svc.GetUsage(context.Background(), 1)
	if err != nil {
		t.Fatalf("cache failure must not fail the read: %v", err)
	}
	if out.TotalBytes != 777 {
		t.Fatalf("expected 777 total bytes, got %d", out.TotalBytes)
	}
}

func TestUsageServiceRecordInvalidatesCache(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	accounts.put(models.StorageAccount{UserID: 1, QuotaBaseBytes: 10000})
	cache := newFakeUsageCache()
	cache.entries[1] = models.StorageAccount{UserID: 1, ImageBytes: 1}
	svc := newTestUsageService(accounts, newFakeTransactionRepo(), cache)

	err := svc.RecordUsage(context.Background(), RecordUsageInput{
		UserID:       1,
		ResourceType: models.ResourceTypeImage,
		SizeBytes:    100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.invalidateCalls != 1 {
		t.Fatalf("expected 1 cache invalidation, got %d", cache.invalidateCalls)
	}
	if _, ok := cache.entries[1]; ok {
		t.Fatalf("cache entry must be gone after a write")
	}
}

func TestUsageServiceRecordTriggersAlertCheck(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	accounts.put(models.StorageAccount{UserID: 7, QuotaBaseBytes: 10000})
	checker := &fakeAlertChecker{checked: make(chan uint, 1)}
	svc := NewUsageService(&fakeTxManager{}, accounts, newFakeTransactionRepo(), nil, checker, NewNoopNotifier())

	err := svc.RecordUsage(context.Background(), RecordUsageInput{
		UserID:       7,
		ResourceType: models.ResourceTypeImage,
		SizeBytes:    100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case userID := <-checker.checked:
		if userID != 7 {
			t.Fatalf("alert check ran for wrong user: %d", userID)
		}
	case <-time.After(time.Second):
		t.Fatalf("alert check never ran")
	}
}

func TestUsageServiceRemoveDoesNotTriggerAlertCheck(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	accounts.put(models.StorageAccount{UserID: 7, ImageBytes: 500, ImageCount: 1, QuotaBaseBytes: 10000})
	checker := &fakeAlertChecker{checked: make(chan uint, 1)}
	svc := NewUsageService(&fakeTxManager{}, accounts, newFakeTransactionRepo(), nil, checker, NewNoopNotifier())

	err := svc.RemoveUsage(context.Background(), RecordUsageInput{
		UserID:       7,
		ResourceType: models.ResourceTypeImage,
		SizeBytes:    100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-checker.checked:
		t.Fatalf("removal must not trigger an alert check")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUsageServiceLazyAccountCreation(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	svc := newTestUsageService(accounts, newFakeTransactionRepo(), nil)

	out, err := svc.GetUsage(context.Background(), 55)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.TotalBytes != 0 {
		t.Fatalf("fresh account must start empty, got %d", out.TotalBytes)
	}
	if out.QuotaBaseBytes != config.AppConfig.Accounting.DefaultQuotaBytes {
		t.Fatalf("fresh account must carry the default quota, got %d", out.QuotaBaseBytes)
	}
}

func TestUsageServiceUsagePercentageRounding(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	accounts.put(models.StorageAccount{UserID: 1, ImageBytes: 1, QuotaBaseBytes: 3})
	svc := newTestUsageService(accounts, newFakeTransactionRepo(), nil)

	out, err := svc.GetUsage(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.UsagePercentage != 33.33 {
		t.Fatalf("expected 33.33 percent, got %f", out.UsagePercentage)
	}
}

func TestUsageServiceUnlimitedAccountUsage(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	accounts.put(models.StorageAccount{UserID: 1, ImageBytes: 123456, QuotaBaseBytes: models.UnlimitedQuota})
	svc := newTestUsageService(accounts, newFakeTransactionRepo(), nil)

	out, err := svc.GetUsage(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AvailableBytes != models.UnlimitedQuota {
		t.Fatalf("unlimited account must report the sentinel, got %d", out.AvailableBytes)
	}
	if out.UsagePercentage != 0 {
		t.Fatalf("unlimited account must report 0 percent, got %f", out.UsagePercentage)
	}
}

func TestUsageServiceGetBreakdownPercentages(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	accounts.put(models.StorageAccount{
		UserID:         1,
		ImageBytes:     500,
		DocumentBytes:  300,
		ArticleBytes:   200,
		ImageCount:     5,
		DocumentCount:  3,
		ArticleCount:   2,
		QuotaBaseBytes: 10000,
	})
	svc := newTestUsageService(accounts, newFakeTransactionRepo(), nil)

	out, err := svc.GetBreakdown(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Images.Percentage != 50 || out.Documents.Percentage != 30 || out.Articles.Percentage != 20 {
		t.Fatalf("unexpected percentages: %+v", out)
	}
	if out.Images.Count != 5 {
		t.Fatalf("expected 5 images, got %d", out.Images.Count)
	}
}

func TestUsageServiceGetBreakdownEmptyAccount(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	accounts.put(models.StorageAccount{UserID: 1, QuotaBaseBytes: 10000})
	svc := newTestUsageService(accounts, newFakeTransactionRepo(), nil)

	out, err := svc.GetBreakdown(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Images.Percentage != 0 || out.Documents.Percentage != 0 || out.Articles.Percentage != 0 {
		t.Fatalf("empty account must report zero percentages: %+v", out)
	}
}

func TestUsageServiceListTransactionsPagination(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	accounts.put(models.StorageAccount{UserID: 1, QuotaBaseBytes: models.UnlimitedQuota})
	transactions := newFakeTransactionRepo()
	svc := newTestUsageService(accounts, transactions, nil)

	for i := 0; i < 25; i++ {
		if err := svc.RecordUsage(context.Background(), RecordUsageInput{
			UserID:       1,
			ResourceType: models.ResourceTypeImage,
			SizeBytes:    int64(i + 1),
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	out, err := svc.ListTransactions(context.Background(), 1, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Transactions) != 10 {
		t.Fatalf("expected 10 transactions on page 2, got %d", len(out.Transactions))
	}
	if out.Pagination.Total != 25 || out.Pagination.TotalPages != 3 {
		t.Fatalf("unexpected pagination: %+v", out.Pagination)
	}
	if !out.Pagination.HasNext || !out.Pagination.HasPrev {
		t.Fatalf("page 2 of 3 must have both neighbours: %+v", out.Pagination)
	}
	// newest first: page 2 starts at the 11th newest entry (size 15)
	if out.Transactions[0].SizeBytes != 15 {
		t.Fatalf("expected newest-first ordering, got first size %d", out.Transactions[0].SizeBytes)
	}
}

func TestUsageServiceListTransactionsClampsPageSize(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	accounts.put(models.StorageAccount{UserID: 1, QuotaBaseBytes: 10000})
	svc := newTestUsageService(accounts, newFakeTransactionRepo(), nil)

	out, err := svc.ListTransactions(context.Background(), 1, 0, 9999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Pagination.Page != 1 {
		t.Fatalf("page must clamp to 1, got %d", out.Pagination.Page)
	}
	if out.Pagination.PageSize != config.AppConfig.Pagination.DefaultPageSize {
		t.Fatalf("oversized page size must fall back to default, got %d", out.Pagination.PageSize)
	}
}

func TestUsageServiceInitializeAccount(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	svc := newTestUsageService(accounts, newFakeTransactionRepo(), nil)

	quota := int64(5000)
	if err := svc.InitializeAccount(context.Background(), 9, &quota); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accounts.get(9).QuotaBaseBytes != 5000 {
		t.Fatalf("expected custom quota 5000, got %d", accounts.get(9).QuotaBaseBytes)
	}

	// repeated initialization must not reset an existing account
	other := int64(1)
	if err := svc.InitializeAccount(context.Background(), 9, &other); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accounts.get(9).QuotaBaseBytes != 5000 {
		t.Fatalf("re-initialization must be a no-op, got %d", accounts.get(9).QuotaBaseBytes)
	}
}

func TestUsageServiceInitializeAccountRejectsBadQuota(t *testing.T) {
	setTestConfig()
	svc := newTestUsageService(newFakeAccountRepo(), newFakeTransactionRepo(), nil)

	quota := int64(-2)
	err := svc.InitializeAccount(context.Background(), 9, &quota)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if appErr, ok := err.(*AppError); !ok || appErr.HTTPCode != 400 {
		t.Fatalf("expected HTTP 400 AppError, got %v", err)
	}
}
