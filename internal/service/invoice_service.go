package service

import (
	"context"
	"errors"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/dto"
	"github.com/CJosueA/Sistema-Facturacion/internal/model"
	"github.com/CJosueA/Sistema-Facturacion/internal/repository"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("github.com/CJosueA/Sistema-Facturacion/internal/service")

const (
	eventPublishTimeout = 10 * time.Second
	// firstRenderCheck is when the retry cron first looks at a document the
	// render worker has not picked up, e.g. because the enqueue was lost.
	firstRenderCheck = 2 * time.Minute
)

type txState int

const (
	txStarted txState = iota
	txLinesValidated
	txStockReserved
	txPersisted
	txCommitted
	txRolledBack
)

func (s txState) String() string {
	switch s {
	case txStarted:
		return "Started"
	case txLinesValidated:
		return "LinesValidated"
	case txStockReserved:
		return "StockReserved"
	case txPersisted:
		return "Persisted"
	case txCommitted:
		return "Committed"
	case txRolledBack:
		return "RolledBack"
	default:
		return "Unknown"
	}
}

// JobDispatcher queues background work for committed invoices.
type JobDispatcher interface {
	EnqueueInvoiceRender(ctx context.Context, invoiceID uint) error
}

// EventPublisher announces committed invoices to other systems.
type EventPublisher interface {
	PublishInvoiceCreated(ctx context.Context, inv *model.Invoice) error
}

type InvoiceService interface {
	// CreateInvoice issues an invoice and decrements stock for every line in a
	// single unit of work. Errors are *ValidationError, *InsufficientStockError
	// or *TransactionFailure.
	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*model.Invoice, error)
	GetInvoice(ctx context.Context, id uint) (*model.InvoiceView, error)
	ListInvoices(ctx context.Context, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error)
	// GetDocument returns the rendered PDF record, or ErrDocumentNotReady.
	GetDocument(ctx context.Context, invoiceID uint) (*model.InvoiceDocument, error)
}

type invoiceService struct {
	invoices   repository.InvoiceRepository
	documents  repository.DocumentRepository
	catalog    *Catalog
	ledger     StockLedger
	assembler  *Assembler
	cache      *ProductCache
	dispatcher JobDispatcher
	events     EventPublisher
}

// NewInvoiceService wires the coordinator. cache, dispatcher and events are
// optional; a nil value disables that post-commit step.
func NewInvoiceService(
	invoices repository.InvoiceRepository,
	documents repository.DocumentRepository,
	catalog *Catalog,
	ledger StockLedger,
	assembler *Assembler,
	cache *ProductCache,
	dispatcher JobDispatcher,
	events EventPublisher,
) InvoiceService {
	return &invoiceService{
		invoices:   invoices,
		documents:  documents,
		catalog:    catalog,
		ledger:     ledger,
		assembler:  assembler,
		cache:      cache,
		dispatcher: dispatcher,
		events:     events,
	}
}

// runTx executes fn inside a GORM transaction. The transaction is rolled back
// when fn returns an error or panics.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// ── CreateInvoice ────────────────────────────────────────────────────────────
//   1. BEGIN
//   2. Build: validate lines, lock and check stock, snapshot prices, totals, number
//   3. ApplyDelta(-qty) per line, each with its Exit movement
//   4. Persist header, lines and the pending document record
//   5. COMMIT
//   6. (best effort) invalidate cache, enqueue render, publish invoice.created

func (s *invoiceService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*model.Invoice, error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.CreateInvoice")
	defer span.End()

	state := txStarted
	logger := log.With().Uint("customer_id", req.CustomerID).Int("lines", len(req.Lines)).Logger()
	advance := func(next txState) {
		state = next
		span.AddEvent(next.String())
		logger.Debug().Str("state", next.String()).Msg("invoice tx")
	}

	var inv *model.Invoice
	err := runTx(ctx, s.invoices.DB(), func(tx *gorm.DB) error {
		numbers := NumberSourceFunc(func(context.Context) (int64, error) {
			return s.invoices.NextNumberTx(tx)
		})
		built, err := s.assembler.Build(ctx, s.catalog.WithTx(tx), numbers, req)
		if err != nil {
			return err
		}
		advance(txLinesValidated)

		observation := "Sale - Invoice " + built.Number
		for _, line := range built.Lines {
			if _, err := s.ledger.ApplyDelta(ctx, tx, line.ProductID, -line.Quantity, observation); err != nil {
				return err
			}
		}
		advance(txStockReserved)

		if err := s.invoices.CreateTx(tx, built); err != nil {
			return err
		}
		next := built.IssuedAt.Add(firstRenderCheck)
		if err := s.documents.CreateTx(tx, &model.InvoiceDocument{
			InvoiceID:   built.ID,
			Status:      model.DocumentPending,
			NextRetryAt: &next,
		}); err != nil {
			return err
		}
		advance(txPersisted)

		inv = built
		return nil
	})
	if err != nil {
		failedAt := state
		state = txRolledBack
		err = classifyTxError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("invoice.state", state.String()))

		evt := logger.Warn()
		var tf *TransactionFailure
		if errors.As(err, &tf) {
			evt = logger.Error()
		}
		evt.Err(err).Str("state", state.String()).Str("failed_after", failedAt.String()).Msg("invoice rolled back")
		return nil, err
	}

	advance(txCommitted)
	span.SetAttributes(
		attribute.String("invoice.number", inv.Number),
		attribute.String("invoice.state", state.String()),
	)
	logger.Info().Str("number", inv.Number).Str("total", inv.Total.StringFixed(2)).Msg("invoice committed")

	s.afterCommit(ctx, inv)
	return inv, nil
}

// afterCommit runs side effects that must not change the outcome of an
// already committed invoice. Failures are only logged.
func (s *invoiceService) afterCommit(ctx context.Context, inv *model.Invoice) {
	bg := context.WithoutCancel(ctx)

	ids := make([]uint, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		ids = append(ids, l.ProductID)
	}
	s.cache.Invalidate(bg, ids...)

	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueInvoiceRender(bg, inv.ID); err != nil {
			log.Warn().Err(err).Str("number", inv.Number).Msg("render job not enqueued; retry cron will pick it up")
		}
	}

	if s.events != nil {
		snapshot := *inv
		snapshot.Lines = append([]model.InvoiceDetail(nil), inv.Lines...)
		go func() {
			pctx, cancel := context.WithTimeout(bg, eventPublishTimeout)
			defer cancel()
			if err := s.events.PublishInvoiceCreated(pctx, &snapshot); err != nil {
				log.Warn().Err(err).Str("number", snapshot.Number).Msg("invoice.created not published")
			}
		}()
	}
}

func (s *invoiceService) GetInvoice(ctx context.Context, id uint) (*model.InvoiceView, error) {
	view, err := s.invoices.LoadView(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvoiceNotFound
	}
	return view, err
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error) {
	rows, total, err := s.invoices.List(ctx, repository.InvoiceFilter{
		Query: filter.Query,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	resp := &dto.InvoiceListResponse{
		Data:  make([]dto.InvoiceListItem, 0, len(rows)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for _, r := range rows {
		resp.Data = append(resp.Data, dto.InvoiceListItem{
			ID:           r.ID,
			Number:       r.Number,
			IssuedAt:     r.IssuedAt,
			CustomerID:   r.CustomerID,
			CustomerName: r.CustomerName,
			Subtotal:     r.Subtotal,
			Tax:          r.Tax,
			Total:        r.Total,
			PaymentTerms: r.PaymentTerms,
		})
	}
	return resp, nil
}

func (s *invoiceService) GetDocument(ctx context.Context, invoiceID uint) (*model.InvoiceDocument, error) {
	if _, err := s.invoices.FindByID(ctx, invoiceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	doc, err := s.documents.FindByInvoiceID(ctx, invoiceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotReady
	}
	if err != nil {
		return nil, err
	}
	if doc.Status != model.DocumentRendered || doc.PDFPath == nil {
		return nil, ErrDocumentNotReady
	}
	return doc, nil
}
