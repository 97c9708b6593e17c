package repository

import (
	"context"
	"strings"

	"github.com/CJosueA/Sistema-Facturacion/internal/model"

	"gorm.io/gorm"
)

// InvoiceFilter narrows the invoice list. Query matches the invoice number or
// the customer's name.
type InvoiceFilter struct {
	Query string
	Page  int
	Limit int
}

// InvoiceRepository exposes invoices as header rows plus explicit queries for
// their lines; nothing navigates from a line back to its invoice.
type InvoiceRepository interface {
	// Used inside transactions; callers must pass the tx instance
	CreateTx(tx *gorm.DB, inv *model.Invoice) error
	// NextNumberTx reserves the next invoice sequence value.
	NextNumberTx(tx *gorm.DB) (int64, error)

	FindByID(ctx context.Context, id uint) (*model.Invoice, error)
	FindLines(ctx context.Context, invoiceID uint) ([]model.InvoiceDetail, error)
	List(ctx context.Context, filter InvoiceFilter) ([]model.InvoiceSummary, int64, error)
	LoadView(ctx context.Context, id uint) (*model.InvoiceView, error)
	CountByCustomer(ctx context.Context, customerID uint) (int64, error)

	DB() *gorm.DB
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

func (r *invoiceRepo) DB() *gorm.DB { return r.db }

func (r *invoiceRepo) CreateTx(tx *gorm.DB, inv *model.Invoice) error {
	return tx.Create(inv).Error
}

// NextNumberTx uses the invoice_number_seq sequence on PostgreSQL. Elsewhere
// it bumps the counter row, which holds a write lock until the caller's
// transaction ends.
func (r *invoiceRepo) NextNumberTx(tx *gorm.DB) (int64, error) {
	var n int64
	if tx.Dialector.Name() == "postgres" {
		err := tx.Raw("SELECT nextval('invoice_number_seq')").Scan(&n).Error
		return n, err
	}

	res := tx.Model(&model.InvoiceSequence{}).
		Where("name = ?", model.InvoiceSequenceName).
		Update("last_value", gorm.Expr("last_value + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		seq := model.InvoiceSequence{Name: model.InvoiceSequenceName, LastValue: 1}
		if err := tx.Create(&seq).Error; err != nil {
			return 0, err
		}
		return 1, nil
	}

	var seq model.InvoiceSequence
	if err := tx.Where("name = ?", model.InvoiceSequenceName).First(&seq).Error; err != nil {
		return 0, err
	}
	return seq.LastValue, nil
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uint) (*model.Invoice, error) {
	var inv model.Invoice
	if err := r.db.WithContext(ctx).First(&inv, id).Error; err != nil {
		return nil, err
	}
	lines, err := r.FindLines(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines
	return &inv, nil
}

func (r *invoiceRepo) FindLines(ctx context.Context, invoiceID uint) ([]model.InvoiceDetail, error) {
	var lines []model.InvoiceDetail
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("position ASC").
		Find(&lines).Error
	return lines, err
}

func (r *invoiceRepo) List(ctx context.Context, filter InvoiceFilter) ([]model.InvoiceSummary, int64, error) {
	q := r.db.WithContext(ctx).Table("invoices").
		Joins("JOIN customers ON customers.id = invoices.customer_id")
	if term := strings.TrimSpace(filter.Query); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(invoices.number) LIKE ? OR LOWER(customers.full_name) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)

	var rows []model.InvoiceSummary
	err := q.Select(`invoices.id, invoices.number, invoices.issued_at, invoices.customer_id,
		customers.full_name AS customer_name, invoices.subtotal, invoices.tax, invoices.total,
		invoices.payment_terms`).
		Order("invoices.issued_at DESC").Order("invoices.id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Scan(&rows).Error
	return rows, total, err
}

// LoadView assembles header, customer, lines with product identity and the
// company profile using one query per relation.
func (r *invoiceRepo) LoadView(ctx context.Context, id uint) (*model.InvoiceView, error) {
	inv, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &model.InvoiceView{Invoice: *inv}
	if err := r.db.WithContext(ctx).First(&view.Customer, inv.CustomerID).Error; err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		ids = append(ids, l.ProductID)
	}
	var products []model.Product
	if len(ids) > 0 {
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
			return nil, err
		}
	}
	byID := make(map[uint]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, l := range inv.Lines {
		p := byID[l.ProductID]
		view.Lines = append(view.Lines, model.InvoiceViewLine{
			InvoiceDetail: l,
			ProductCode:   p.Code,
			ProductName:   p.Name,
		})
	}

	var company model.CompanyProfile
	err = r.db.WithContext(ctx).Order("id ASC").Limit(1).Find(&company).Error
	if err != nil {
		return nil, err
	}
	if company.ID != 0 {
		view.Company = &company
	}
	return view, nil
}

func (r *invoiceRepo) CountByCustomer(ctx context.Context, customerID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).Where("customer_id = ?", customerID).Count(&n).Error
	return n, err
}
