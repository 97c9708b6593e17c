// Command seed loads a demo company profile, catalog and customer.
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/config"
	"github.com/CJosueA/Sistema-Facturacion/internal/dto"
	"github.com/CJosueA/Sistema-Facturacion/internal/infra"
	"github.com/CJosueA/Sistema-Facturacion/internal/model"
	"github.com/CJosueA/Sistema-Facturacion/internal/repository"
	"github.com/CJosueA/Sistema-Facturacion/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var demoCatalog = []dto.CreateProductRequest{
	{Code: "LAP-001", Name: "Laptop 14in", Category: "Computers", Price: decimal.RequireFromString("850.00"), InitialStock: 10},
	{Code: "MOU-001", Name: "Wireless mouse", Category: "Accessories", Price: decimal.RequireFromString("12.50"), InitialStock: 100},
	{Code: "KEY-001", Name: "Mechanical keyboard", Category: "Accessories", Price: decimal.RequireFromString("45.99"), InitialStock: 40},
	{Code: "MON-001", Name: "Monitor 24in", Category: "Displays", Price: decimal.RequireFromString("189.00"), InitialStock: 15},
	{Code: "CAB-001", Name: "HDMI cable 2m", Category: "Accessories", Price: decimal.RequireFromString("4.75"), InitialStock: 250},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	ctx := context.Background()

	company := &model.CompanyProfile{
		Name:    "Demo Distribuidora S.A.",
		Address: "Av. Central 100, San José",
		Phone:   "+506 2222-0000",
		Email:   "facturacion@demo.example",
		LegalID: "3-101-000000",
	}
	if err := repository.NewCompanyRepository(db).Save(ctx, company); err != nil {
		log.Fatal().Err(err).Msg("company profile")
	}

	productRepo := repository.NewProductRepository(db)
	ledger := service.NewStockLedger(productRepo, repository.NewMovementRepository(db))
	products := service.NewProductService(productRepo, repository.NewPriceHistoryRepository(db), ledger, nil)
	for _, req := range demoCatalog {
		p, err := products.Create(ctx, req)
		switch {
		case errors.Is(err, service.ErrDuplicateCode):
			log.Info().Str("code", req.Code).Msg("product already present")
		case err != nil:
			log.Fatal().Err(err).Str("code", req.Code).Msg("create product")
		default:
			log.Info().Uint("id", p.ID).Str("code", p.Code).Int("stock", p.Stock).Msg("product created")
		}
	}

	email := "ana.torres@example.com"
	customers := service.NewCustomerService(repository.NewCustomerRepository(db), repository.NewInvoiceRepository(db))
	c, err := customers.Create(ctx, dto.CreateCustomerRequest{
		FullName:       "Ana Torres",
		Identification: "1-1111-1111",
		Email:          &email,
	})
	switch {
	case errors.Is(err, service.ErrDuplicateIdentification):
		log.Info().Msg("demo customer already present")
	case err != nil:
		log.Fatal().Err(err).Msg("create customer")
	default:
		log.Info().Uint("id", c.ID).Str("name", c.FullName).Msg("customer created")
	}
}
