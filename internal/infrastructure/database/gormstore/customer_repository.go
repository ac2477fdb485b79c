// Package gormstore provides the ORM-backed variant of the customer store.
// It satisfies the same contract as the hand-written pgx repository; which
// variant is active is a configuration-time choice.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"customer-api/internal/domain/customer"
	"customer-api/internal/pkg/apperrors"

	"gorm.io/gorm"
)

// customerRecord maps the shared `customer` table; the gorm variant reuses the
// schema owned by the SQL migrations and never auto-migrates.
type customerRecord struct {
	ID    int64  `gorm:"primaryKey"`
	Name  string `gorm:"not null"`
	Email string `gorm:"not null"`
	Age   int    `gorm:"not null"`
}

func (customerRecord) TableName() string {
	return "customer"
}

func toDomain(rec customerRecord) *customer.Customer {
	return &customer.Customer{
		ID:    rec.ID,
		Name:  rec.Name,
		Email: rec.Email,
		Age:   rec.Age,
	}
}

type CustomerRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ customer.Repository = (*CustomerRepository)(nil)

func NewCustomerRepository(db *gorm.DB, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("gorm DB cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "GormCustomerRepository"),
	}
}

func (r *CustomerRepository) FindAll(ctx context.Context) ([]*customer.Customer, error) {
	var records []customerRecord
	if err := r.db.WithContext(ctx).Order("id asc").Find(&records).Error; err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customers: %w", apperrors.ErrDatabase, err)
	}

	customers := make([]*customer.Customer, 0, len(records))
	for _, rec := range records {
		customers = append(customers, toDomain(rec))
	}
	return customers, nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	var rec customerRecord
	err := r.db.WithContext(ctx).First(&rec, customerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query customer by ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer by ID: %w", apperrors.ErrDatabase, err)
	}

	return toDomain(rec), nil
}

func (r *CustomerRepository) Create(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	rec := customerRecord{Name: cust.Name, Email: cust.Email, Age: cust.Age}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			r.logger.WarnContext(ctx, "Failed to insert customer due to unique constraint violation", slog.String("email", cust.Email))
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, cust.Email)
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	cust.ID = rec.ID
	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&customerRecord{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check customer existence by email", slog.Any("error", err))
		return false, fmt.Errorf("%w: failed to check customer by email: %w", apperrors.ErrDatabase, err)
	}
	return count > 0, nil
}

func (r *CustomerRepository) ExistsByID(ctx context.Context, customerID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&customerRecord{}).Where("id = ?", customerID).Count(&count).Error
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check customer existence by ID", slog.Any("error", err))
		return false, fmt.Errorf("%w: failed to check customer by ID: %w", apperrors.ErrDatabase, err)
	}
	return count > 0, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, customerID int64) error {
	res := r.db.WithContext(ctx).Delete(&customerRecord{}, customerID)
	if res.Error != nil {
		r.logger.ErrorContext(ctx, "Failed to delete customer", slog.Any("error", res.Error))
		return fmt.Errorf("%w: failed to delete customer: %w", apperrors.ErrDatabase, res.Error)
	}
	if res.RowsAffected == 0 {
		r.logger.WarnContext(ctx, "Delete affected zero rows, customer likely not found")
		return apperrors.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Customer deleted successfully", slog.Int64("customerID", customerID))
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	rec := customerRecord{ID: cust.ID, Name: cust.Name, Email: cust.Email, Age: cust.Age}
	res := r.db.WithContext(ctx).Model(&customerRecord{ID: cust.ID}).
		Select("name", "email", "age").
		Updates(rec)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, cust.Email)
		}
		r.logger.ErrorContext(ctx, "Failed to update customer", slog.Any("error", res.Error))
		return fmt.Errorf("%w: failed to update customer: %w", apperrors.ErrDatabase, res.Error)
	}
	if res.RowsAffected == 0 {
		r.logger.WarnContext(ctx, "Update affected zero rows, customer likely not found")
		return apperrors.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Customer updated successfully", slog.Int64("customerID", cust.ID))
	return nil
}
