package dto

import "time"

// RegisterMovementRequest is a manual stock correction. Type is "entry" or "exit".
type RegisterMovementRequest struct {
	ProductID   uint   `json:"product_id"  validate:"required"`
	Type        string `json:"type"        validate:"required,oneof=entry exit"`
	Quantity    int    `json:"quantity"    validate:"required,gt=0"`
	Observation string `json:"observation" validate:"max=255"`
}

// MovementFilter is bound from the query string of GET /v1/products/:id/movements.
type MovementFilter struct {
	Page  int `form:"page,default=1"   validate:"min=1"`
	Limit int `form:"limit,default=50" validate:"min=1,max=500"`
}

type MovementResponse struct {
	ID          uint      `json:"id"`
	ProductID   uint      `json:"product_id"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	StockBefore int       `json:"stock_before"`
	StockAfter  int       `json:"stock_after"`
	Date        time.Time `json:"date"`
	Observation string    `json:"observation"`
}

type MovementListResponse struct {
	Data  []MovementResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
