package batch_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"customer-api/internal/batch"
	"customer-api/internal/domain/customer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) ListCustomers(ctx context.Context) ([]*customer.Customer, error) {
	args := m.Called(ctx)
	if customers, ok := args.Get(0).([]*customer.Customer); ok {
		return customers, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	if cust, ok := args.Get(0).(*customer.Customer); ok {
		return cust, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerService) RegisterCustomer(ctx context.Context, name, email string, age int) error {
	args := m.Called(ctx, name, email, age)
	return args.Error(0)
}

func (m *MockCustomerService) DeleteCustomer(ctx context.Context, customerID int64) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func (m *MockCustomerService) UpdateCustomer(ctx context.Context, customerID int64, req customer.UpdateRequest) error {
	args := m.Called(ctx, customerID, req)
	return args.Error(0)
}

func TestCustomerMetricsJobRun(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("refreshes gauge from store", func(t *testing.T) {
		mockService := new(MockCustomerService)
		job := batch.NewCustomerMetricsJob(mockService, logger)

		customers := []*customer.Customer{
			{ID: 1, Name: "John Doe", Email: "john.doe@gmail.com", Age: 30},
			{ID: 2, Name: "Jane Roe", Email: "jane.roe@gmail.com", Age: 25},
		}
		mockService.On("ListCustomers", mock.Anything).Return(customers, nil)

		err := job.Run(context.Background())

		assert.NoError(t, err)
		mockService.AssertExpectations(t)
	})

	t.Run("propagates store failure", func(t *testing.T) {
		mockService := new(MockCustomerService)
		job := batch.NewCustomerMetricsJob(mockService, logger)

		dbErr := errors.New("connection refused")
		mockService.On("ListCustomers", mock.Anything).Return(nil, dbErr)

		err := job.Run(context.Background())

		assert.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
		mockService.AssertExpectations(t)
	})

	t.Run("panics on nil dependencies", func(t *testing.T) {
		assert.Panics(t, func() {
			batch.NewCustomerMetricsJob(nil, logger)
		})
	})
}
