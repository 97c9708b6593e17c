package service

import (
	"github.com/CJosueA/Sistema-Facturacion/internal/dto"
	"github.com/CJosueA/Sistema-Facturacion/internal/model"
)

func InvoiceToResponse(inv *model.Invoice) dto.InvoiceResponse {
	resp := dto.InvoiceResponse{
		ID:           inv.ID,
		Number:       inv.Number,
		IssuedAt:     inv.IssuedAt,
		CustomerID:   inv.CustomerID,
		Subtotal:     inv.Subtotal,
		Tax:          inv.Tax,
		Total:        inv.Total,
		PaymentTerms: inv.PaymentTerms,
		DueDate:      inv.DueDate,
		Lines:        make([]dto.InvoiceLineResponse, 0, len(inv.Lines)),
	}
	for _, l := range inv.Lines {
		resp.Lines = append(resp.Lines, dto.InvoiceLineResponse{
			Position:  l.Position,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return resp
}

func InvoiceViewToResponse(v *model.InvoiceView) dto.InvoiceDetailResponse {
	header := v.Invoice
	header.Lines = nil
	resp := dto.InvoiceDetailResponse{
		InvoiceResponse: InvoiceToResponse(&header),
		Customer:        CustomerToResponse(&v.Customer),
	}
	for _, l := range v.Lines {
		resp.Lines = append(resp.Lines, dto.InvoiceLineResponse{
			Position:    l.Position,
			ProductID:   l.ProductID,
			ProductCode: l.ProductCode,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
		})
	}
	if v.Company != nil {
		resp.Company = &dto.CompanyResponse{
			Name:    v.Company.Name,
			Address: v.Company.Address,
			Phone:   v.Company.Phone,
			Email:   v.Company.Email,
			LegalID: v.Company.LegalID,
		}
	}
	return resp
}

func ProductToResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Stock:       p.Stock,
		Active:      p.Active,
	}
}

func MovementToResponse(m *model.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:          m.ID,
		ProductID:   m.ProductID,
		Type:        string(m.Type),
		Quantity:    m.Quantity,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		Date:        m.Date,
		Observation: m.Observation,
	}
}

func CustomerToResponse(c *model.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:             c.ID,
		FullName:       c.FullName,
		Identification: c.Identification,
		Address:        c.Address,
		Phone:          c.Phone,
		Email:          c.Email,
	}
}
