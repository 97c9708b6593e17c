package service

import (
	"context"
	"errors"
	"strings"

	"github.com/CJosueA/Sistema-Facturacion/internal/dto"
	"github.com/CJosueA/Sistema-Facturacion/internal/model"
	"github.com/CJosueA/Sistema-Facturacion/internal/repository"

	"gorm.io/gorm"
)

type CustomerService interface {
	Create(ctx context.Context, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error)
	Get(ctx context.Context, id uint) (*dto.CustomerResponse, error)
	Search(ctx context.Context, term string) ([]dto.CustomerResponse, error)
	// Delete refuses customers that already appear on an invoice.
	Delete(ctx context.Context, id uint) error
}

type customerService struct {
	repo     repository.CustomerRepository
	invoices repository.InvoiceRepository
}

func NewCustomerService(repo repository.CustomerRepository, invoices repository.InvoiceRepository) CustomerService {
	return &customerService{repo: repo, invoices: invoices}
}

func (s *customerService) Create(ctx context.Context, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	ident := strings.TrimSpace(req.Identification)
	if _, err := s.repo.FindByIdentification(ctx, ident); err == nil {
		return nil, ErrDuplicateIdentification
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c := &model.Customer{
		FullName:       strings.TrimSpace(req.FullName),
		Identification: ident,
		Address:        req.Address,
		Phone:          req.Phone,
		Email:          req.Email,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	resp := CustomerToResponse(c)
	return &resp, nil
}

func (s *customerService) Get(ctx context.Context, id uint) (*dto.CustomerResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	resp := CustomerToResponse(c)
	return &resp, nil
}

func (s *customerService) Search(ctx context.Context, term string) ([]dto.CustomerResponse, error) {
	rows, err := s.repo.Search(ctx, term, 10)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CustomerResponse, 0, len(rows))
	for i := range rows {
		out = append(out, CustomerToResponse(&rows[i]))
	}
	return out, nil
}

func (s *customerService) Delete(ctx context.Context, id uint) error {
	n, err := s.invoices.CountByCustomer(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCustomerInUse
	}
	err = s.repo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCustomerNotFound
	}
	return err
}
