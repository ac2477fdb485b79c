package customer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"customer-api/internal/domain/customer"
	"customer-api/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupTest() (*customer.MockRepository, customer.CustomerService) {
	mockRepo := new(customer.MockRepository)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := customer.NewCustomerService(mockRepo, nil, logger)
	return mockRepo, service
}

func ptr[T any](v T) *T {
	return &v
}

func TestCustomerService_RegisterCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("ExistsByEmail", ctx, "alex@gmail.com").Return(false, nil).Once()
		mockRepo.On("Create", ctx, mock.MatchedBy(func(c *customer.Customer) bool {
			match := c.ID == 0 && c.Name == "Alex" && c.Email == "alex@gmail.com" && c.Age == 27
			if match {
				c.ID = 1
			}
			return match
		})).Return(nil).Once()

		err := service.RegisterCustomer(ctx, "Alex", "alex@gmail.com", 27)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error - Email Already Exists", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("ExistsByEmail", ctx, "alex@gmail.com").Return(true, nil).Once()

		err := service.RegisterCustomer(ctx, "Alex", "alex@gmail.com", 27)

		assert.ErrorIs(t, err, customer.ErrEmailTaken)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Error - Repository Check Failure", func(t *testing.T) {
		mockRepo, service := setupTest()
		dbError := errors.New("database connection failed")

		mockRepo.On("ExistsByEmail", ctx, "alex@gmail.com").Return(false, dbError).Once()

		err := service.RegisterCustomer(ctx, "Alex", "alex@gmail.com", 27)

		assert.ErrorIs(t, err, dbError)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Error - Unique Constraint Fired On Insert", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("ExistsByEmail", ctx, "alex@gmail.com").Return(false, nil).Once()
		mockRepo.On("Create", ctx, mock.AnythingOfType("*customer.Customer")).
			Return(apperrors.ErrAlreadyExists).Once()

		err := service.RegisterCustomer(ctx, "Alex", "alex@gmail.com", 27)

		assert.ErrorIs(t, err, customer.ErrEmailTaken)
		mockRepo.AssertExpectations(t)
	})
}

func TestCustomerService_GetCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Registered Customer Round Trip", func(t *testing.T) {
		mockRepo, service := setupTest()
		expected := &customer.Customer{ID: 1, Name: "Alex", Email: "alex@gmail.com", Age: 27}

		mockRepo.On("FindByID", ctx, int64(1)).Return(expected, nil).Once()

		cust, err := service.GetCustomer(ctx, 1)

		assert.NoError(t, err)
		assert.Equal(t, expected, cust)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error - Not Found", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("FindByID", ctx, int64(999)).Return(nil, apperrors.ErrNotFound).Once()

		cust, err := service.GetCustomer(ctx, 999)

		assert.Nil(t, cust)
		assert.ErrorIs(t, err, customer.ErrNotFound)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Error - Repository Failure", func(t *testing.T) {
		mockRepo, service := setupTest()
		dbError := errors.New("connection reset")

		mockRepo.On("FindByID", ctx, int64(1)).Return(nil, dbError).Once()

		cust, err := service.GetCustomer(ctx, 1)

		assert.Nil(t, cust)
		assert.ErrorIs(t, err, dbError)
		assert.NotErrorIs(t, err, customer.ErrNotFound)
	})
}

func TestCustomerService_ListCustomers(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo, service := setupTest()
		expected := []*customer.Customer{
			{ID: 1, Name: "Alex", Email: "alex@gmail.com", Age: 27},
			{ID: 2, Name: "Connor", Email: "connor@gmail.com", Age: 28},
		}

		mockRepo.On("FindAll", ctx).Return(expected, nil).Once()

		customers, err := service.ListCustomers(ctx)

		assert.NoError(t, err)
		assert.Equal(t, expected, customers)
	})

	t.Run("Error - Repository Failure", func(t *testing.T) {
		mockRepo, service := setupTest()
		dbError := errors.New("query timeout")

		mockRepo.On("FindAll", ctx).Return(nil, dbError).Once()

		customers, err := service.ListCustomers(ctx)

		assert.Nil(t, customers)
		assert.ErrorIs(t, err, dbError)
	})
}

func TestCustomerService_DeleteCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("ExistsByID", ctx, int64(1)).Return(true, nil).Once()
		mockRepo.On("Delete", ctx, int64(1)).Return(nil).Once()

		err := service.DeleteCustomer(ctx, 1)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error - Not Found Performs No Delete", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("ExistsByID", ctx, int64(999)).Return(false, nil).Once()

		err := service.DeleteCustomer(ctx, 999)

		assert.ErrorIs(t, err, customer.ErrNotFound)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("Error - Repository Failure", func(t *testing.T) {
		mockRepo, service := setupTest()
		dbError := errors.New("deadlock detected")

		mockRepo.On("ExistsByID", ctx, int64(1)).Return(true, nil).Once()
		mockRepo.On("Delete", ctx, int64(1)).Return(dbError).Once()

		err := service.DeleteCustomer(ctx, 1)

		assert.ErrorIs(t, err, dbError)
	})
}

func TestCustomerService_UpdateCustomer(t *testing.T) {
	ctx := context.Background()

	current := func() *customer.Customer {
		return &customer.Customer{ID: 1, Name: "Alex", Email: "alex@gmail.com", Age: 27}
	}

	t.Run("Success - All Fields Changed", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("FindByID", ctx, int64(1)).Return(current(), nil).Once()
		mockRepo.On("ExistsByEmail", ctx, "connor@gmail.com").Return(false, nil).Once()
		mockRepo.On("Update", ctx, &customer.Customer{
			ID:    1,
			Name:  "Connor",
			Email: "connor@gmail.com",
			Age:   28,
		}).Return(nil).Once()

		err := service.UpdateCustomer(ctx, 1, customer.UpdateRequest{
			Name:  ptr("Connor"),
			Email: ptr("connor@gmail.com"),
			Age:   ptr(28),
		})

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
		mockRepo.AssertNumberOfCalls(t, "Update", 1)
	})

	t.Run("Success - Name Only, Absent Fields Untouched", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("FindByID", ctx, int64(1)).Return(current(), nil).Once()
		mockRepo.On("Update", ctx, &customer.Customer{
			ID:    1,
			Name:  "Connor",
			Email: "alex@gmail.com",
			Age:   27,
		}).Return(nil).Once()

		err := service.UpdateCustomer(ctx, 1, customer.UpdateRequest{Name: ptr("Connor")})

		assert.NoError(t, err)
		// Absent email means no uniqueness check at all.
		mockRepo.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Success - Email Equal To Current Skips Uniqueness Check", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("FindByID", ctx, int64(1)).Return(current(), nil).Once()
		mockRepo.On("Update", ctx, &customer.Customer{
			ID:    1,
			Name:  "Alex",
			Email: "alex@gmail.com",
			Age:   30,
		}).Return(nil).Once()

		err := service.UpdateCustomer(ctx, 1, customer.UpdateRequest{
			Email: ptr("alex@gmail.com"),
			Age:   ptr(30),
		})

		assert.NoError(t, err)
		mockRepo.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
	})

	t.Run("Error - Identical Values Mean No Changes", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("FindByID", ctx, int64(1)).Return(current(), nil).Once()

		err := service.UpdateCustomer(ctx, 1, customer.UpdateRequest{
			Name:  ptr("Alex"),
			Email: ptr("alex@gmail.com"),
			Age:   ptr(27),
		})

		assert.ErrorIs(t, err, apperrors.ErrNoChanges)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		mockRepo.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
	})

	t.Run("Error - All Fields Absent Means No Changes", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("FindByID", ctx, int64(1)).Return(current(), nil).Once()

		err := service.UpdateCustomer(ctx, 1, customer.UpdateRequest{})

		assert.ErrorIs(t, err, apperrors.ErrNoChanges)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Error - New Email Already Taken Performs No Update", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("FindByID", ctx, int64(1)).Return(current(), nil).Once()
		mockRepo.On("ExistsByEmail", ctx, "connor@gmail.com").Return(true, nil).Once()

		err := service.UpdateCustomer(ctx, 1, customer.UpdateRequest{Email: ptr("connor@gmail.com")})

		assert.ErrorIs(t, err, customer.ErrEmailTaken)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Error - Target Not Found", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("FindByID", ctx, int64(999)).Return(nil, apperrors.ErrNotFound).Once()

		err := service.UpdateCustomer(ctx, 999, customer.UpdateRequest{Name: ptr("Connor")})

		assert.ErrorIs(t, err, customer.ErrNotFound)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Error - Repository Update Failure", func(t *testing.T) {
		mockRepo, service := setupTest()
		dbError := errors.New("write failed")

		mockRepo.On("FindByID", ctx, int64(1)).Return(current(), nil).Once()
		mockRepo.On("Update", ctx, mock.AnythingOfType("*customer.Customer")).Return(dbError).Once()

		err := service.UpdateCustomer(ctx, 1, customer.UpdateRequest{Name: ptr("Connor")})

		assert.ErrorIs(t, err, dbError)
	})
}
