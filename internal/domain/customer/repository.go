package customer

import (
	"context"
	"fmt"

	"customer-api/internal/pkg/apperrors"
)

var (
	ErrNotFound = fmt.Errorf("%w: customer could not be found", apperrors.ErrNotFound)

	ErrEmailTaken = fmt.Errorf("%w: customer with email already exists", apperrors.ErrAlreadyExists)
)

type Repository interface {
	FindAll(ctx context.Context) ([]*Customer, error)

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	Create(ctx context.Context, customer *Customer) error

	ExistsByEmail(ctx context.Context, email string) (bool, error)

	ExistsByID(ctx context.Context, customerID int64) (bool, error)

	Delete(ctx context.Context, customerID int64) error

	Update(ctx context.Context, customer *Customer) error
}
