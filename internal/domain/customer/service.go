package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"customer-api/internal/event"
	"customer-api/internal/pkg/apperrors"
)

// UpdateRequest carries the three independently optional fields of a partial
// update. A nil field means "leave unchanged".
type UpdateRequest struct {
	Name  *string
	Email *string
	Age   *int
}

type CustomerService interface {
	ListCustomers(ctx context.Context) ([]*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	RegisterCustomer(ctx context.Context, name, email string, age int) error
	DeleteCustomer(ctx context.Context, customerID int64) error
	UpdateCustomer(ctx context.Context, customerID int64, req UpdateRequest) error
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   Repository
	pub    event.Publisher
	logger *slog.Logger
}

func NewCustomerService(repo Repository, publisher event.Publisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	if publisher == nil {
		publisher = event.NewNoopPublisher()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	return &customerService{
		repo:   repo,
		pub:    publisher,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func newCustomerEventPayload(cust *Customer) event.CustomerEventPayload {
	if cust == nil {
		return event.CustomerEventPayload{}
	}
	return event.CustomerEventPayload{
		CustomerID: cust.ID,
		Name:       cust.Name,
		Email:      cust.Email,
		Age:        cust.Age,
	}
}

func (s *customerService) ListCustomers(ctx context.Context) ([]*Customer, error) {
	s.logger.DebugContext(ctx, "Calling repository FindAll")
	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully retrieved customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	s.logger.DebugContext(ctx, "Calling repository FindByID", slog.Int64("customerID", customerID))
	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer not found by repository", slog.Int64("customerID", customerID))
			return nil, ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	return cust, nil
}

func (s *customerService) RegisterCustomer(ctx context.Context, name, email string, age int) error {
	logCtx := s.logger.With(slog.String("email", email))
	logCtx.InfoContext(ctx, "Attempting to register new customer")

	taken, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		logCtx.ErrorContext(ctx, "Repository error checking email uniqueness", slog.Any("error", err))
		return fmt.Errorf("failed to check email for new customer: %w", err)
	}
	if taken {
		logCtx.WarnContext(ctx, "Registration rejected: email already in use")
		return ErrEmailTaken
	}

	cust := &Customer{
		Name:  name,
		Email: email,
		Age:   age,
	}

	if err := s.repo.Create(ctx, cust); err != nil {
		logCtx.ErrorContext(ctx, "Repository failed to insert new customer", slog.Any("error", err))
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			// Store-level unique constraint fired between check and insert.
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to register customer: %w", err)
	}

	logCtx.InfoContext(ctx, "Successfully registered new customer", slog.Int64("customerID", cust.ID))
	createdEvent := event.CustomerCreatedEvent{
		Timestamp: time.Now(),
		Payload:   newCustomerEventPayload(cust),
	}
	if pubErr := s.pub.PublishCustomerCreated(ctx, createdEvent); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer registered, but FAILED to publish creation event", slog.Any("error", pubErr))
	}
	return nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, customerID int64) error {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to delete customer")

	exists, err := s.repo.ExistsByID(ctx, customerID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Repository error checking customer existence", slog.Any("error", err))
		return fmt.Errorf("failed to check customer %d before delete: %w", customerID, err)
	}
	if !exists {
		logCtx.WarnContext(ctx, "Customer not found, nothing to delete")
		return ErrNotFound
	}

	if err := s.repo.Delete(ctx, customerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Customer disappeared before delete completed")
			return ErrNotFound
		}
		logCtx.ErrorContext(ctx, "Repository failed to delete customer", slog.Any("error", err))
		return fmt.Errorf("failed to delete customer %d: %w", customerID, err)
	}

	logCtx.InfoContext(ctx, "Successfully deleted customer")
	deletedEvent := event.CustomerDeletedEvent{
		CustomerID: customerID,
		Timestamp:  time.Now(),
	}
	if pubErr := s.pub.PublishCustomerDeleted(ctx, deletedEvent); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer deleted, but FAILED to publish deletion event", slog.Any("error", pubErr))
	}
	return nil
}

// UpdateCustomer applies a partial update. Fields are evaluated in the order
// name, age, email; a field counts as a change only when it is present and
// differs from the current value. The email uniqueness check runs only for a
// differing email, so it never trips over the customer's own current row.
func (s *customerService) UpdateCustomer(ctx context.Context, customerID int64, req UpdateRequest) error {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to update customer")

	cust, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return err
	}

	changes := false

	if req.Name != nil && cust.Name != *req.Name {
		cust.Name = *req.Name
		changes = true
	}

	if req.Age != nil && cust.Age != *req.Age {
		cust.Age = *req.Age
		changes = true
	}

	if req.Email != nil && cust.Email != *req.Email {
		taken, err := s.repo.ExistsByEmail(ctx, *req.Email)
		if err != nil {
			logCtx.ErrorContext(ctx, "Repository error checking email uniqueness", slog.Any("error", err))
			return fmt.Errorf("failed to check email for customer %d: %w", customerID, err)
		}
		if taken {
			logCtx.WarnContext(ctx, "Update rejected: new email already in use")
			return ErrEmailTaken
		}
		cust.Email = *req.Email
		changes = true
	}

	if !changes {
		logCtx.WarnContext(ctx, "Update rejected: no changes found")
		return apperrors.ErrNoChanges
	}

	if err := s.repo.Update(ctx, cust); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Customer disappeared before update completed")
			return ErrNotFound
		}
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return ErrEmailTaken
		}
		logCtx.ErrorContext(ctx, "Repository failed to save updated customer", slog.Any("error", err))
		return fmt.Errorf("failed to update customer %d: %w", customerID, err)
	}

	logCtx.InfoContext(ctx, "Successfully updated customer")
	updatedEvent := event.CustomerUpdatedEvent{
		Timestamp: time.Now(),
		Payload:   newCustomerEventPayload(cust),
	}
	if pubErr := s.pub.PublishCustomerUpdated(ctx, updatedEvent); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer updated, but FAILED to publish update event", slog.Any("error", pubErr))
	}
	return nil
}
