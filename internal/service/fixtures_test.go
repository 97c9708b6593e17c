package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/dto"
	"github.com/CJosueA/Sistema-Facturacion/internal/infra"
	"github.com/CJosueA/Sistema-Facturacion/internal/model"
	"github.com/CJosueA/Sistema-Facturacion/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2025, 1, 14, 10, 30, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection: concurrent units of work queue up at BEGIN.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, infra.RunMigrations(db))
	return db
}

type fixture struct {
	db        *gorm.DB
	products  repository.ProductRepository
	movements repository.MovementRepository
	invoices  repository.InvoiceRepository
	documents repository.DocumentRepository
	history   repository.PriceHistoryRepository
	ledger    StockLedger
	catalog   *Catalog
	assembler *Assembler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		db:        db,
		products:  repository.NewProductRepository(db),
		movements: repository.NewMovementRepository(db),
		invoices:  repository.NewInvoiceRepository(db),
		documents: repository.NewDocumentRepository(db),
		history:   repository.NewPriceHistoryRepository(db),
		assembler: NewAssembler(func() time.Time { return fixedNow }),
	}
	f.ledger = NewStockLedger(f.products, f.movements)
	f.catalog = NewCatalog(f.products)
	return f
}

func (f *fixture) invoiceService(ledger StockLedger, dispatcher JobDispatcher, events EventPublisher) InvoiceService {
	if ledger == nil {
		ledger = f.ledger
	}
	return NewInvoiceService(f.invoices, f.documents, f.catalog, ledger, f.assembler, nil, dispatcher, events)
}

func (f *fixture) seedProduct(t *testing.T, code, price string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		Code:     code,
		Name:     "Product " + code,
		Category: "general",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Active:   true,
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *fixture) seedCustomer(t *testing.T) *model.Customer {
	t.Helper()
	c := &model.Customer{FullName: "Ana Torres", Identification: "1-1111-1111"}
	require.NoError(t, f.db.Create(c).Error)
	return c
}

func (f *fixture) stockOf(t *testing.T, id uint) int {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}

func invoiceReq(customerID uint, lines ...dto.InvoiceLineRequest) dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{CustomerID: customerID, PaymentTerms: "Cash", Lines: lines}
}

func line(productID uint, qty int) dto.InvoiceLineRequest {
	return dto.InvoiceLineRequest{ProductID: productID, Quantity: qty}
}

// failingLedger delegates to a real ledger and fails the Nth call.
type failingLedger struct {
	StockLedger
	failOn int
	calls  int
}

func (l *failingLedger) ApplyDelta(ctx context.Context, tx *gorm.DB, productID uint, signedQty int, observation string) (*model.Movement, error) {
	l.calls++
	if l.calls == l.failOn {
		return nil, fmt.Errorf("simulated storage failure on call %d", l.calls)
	}
	return l.StockLedger.ApplyDelta(ctx, tx, productID, signedQty, observation)
}

type recordingDispatcher struct {
	mu  sync.Mutex
	ids []uint
	err error
}

func (d *recordingDispatcher) EnqueueInvoiceRender(_ context.Context, invoiceID uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, invoiceID)
	return d.err
}

func (d *recordingDispatcher) calls() []uint {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uint(nil), d.ids...)
}

type channelPublisher struct {
	published chan string
}

func newChannelPublisher() *channelPublisher {
	return &channelPublisher{published: make(chan string, 16)}
}

func (p *channelPublisher) PublishInvoiceCreated(_ context.Context, inv *model.Invoice) error {
	p.published <- inv.Number
	return nil
}
