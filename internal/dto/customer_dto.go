package dto

type CreateCustomerRequest struct {
	FullName       string  `json:"full_name"      validate:"required,max=100"`
	Identification string  `json:"identification" validate:"required,max=30"`
	Address        *string `json:"address"        validate:"omitempty,max=200"`
	Phone          *string `json:"phone"          validate:"omitempty,max=30"`
	Email          *string `json:"email"          validate:"omitempty,email,max=120"`
}

type CustomerResponse struct {
	ID             uint    `json:"id"`
	FullName       string  `json:"full_name"`
	Identification string  `json:"identification"`
	Address        *string `json:"address"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
}
