package dto

import (
	"fmt"
	"strings"

	"customer-api/internal/domain/customer"
)

type CreateCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

func (r *CreateCustomerRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.TrimSpace(r.Email) == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if r.Age <= 0 {
		return fmt.Errorf("age must be a positive number")
	}
	return nil
}

// UpdateCustomerRequest models a partial update: a nil field is "leave
// unchanged", which is distinct from an empty value.
type UpdateCustomerRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Age   *int    `json:"age"`
}

func (r *UpdateCustomerRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if r.Email != nil && strings.TrimSpace(*r.Email) == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if r.Age != nil && *r.Age <= 0 {
		return fmt.Errorf("age must be a positive number")
	}
	return nil
}

func (r *UpdateCustomerRequest) ToUpdateRequest() customer.UpdateRequest {
	return customer.UpdateRequest{
		Name:  r.Name,
		Email: r.Email,
		Age:   r.Age,
	}
}

type CustomerResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}
	return CustomerResponse{
		ID:    cust.ID,
		Name:  cust.Name,
		Email: cust.Email,
		Age:   cust.Age,
	}
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
