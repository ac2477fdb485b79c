package customer

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRepository is a hand-written testify mock of Repository, shared by the
// service and handler test suites.
type MockRepository struct {
	mock.Mock
}

var _ Repository = (*MockRepository)(nil)

func (_m *MockRepository) FindAll(ctx context.Context) ([]*Customer, error) {
	ret := _m.Called(ctx)

	var r0 []*Customer
	if rf, ok := ret.Get(0).(func(context.Context) []*Customer); ok {
		r0 = rf(ctx)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]*Customer)
		}
	}

	return r0, ret.Error(1)
}

func (_m *MockRepository) FindByID(ctx context.Context, customerID int64) (*Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *Customer
	if rf, ok := ret.Get(0).(func(context.Context, int64) *Customer); ok {
		r0 = rf(ctx, customerID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*Customer)
		}
	}

	return r0, ret.Error(1)
}

func (_m *MockRepository) Create(ctx context.Context, customer *Customer) error {
	ret := _m.Called(ctx, customer)

	if rf, ok := ret.Get(0).(func(context.Context, *Customer) error); ok {
		return rf(ctx, customer)
	}
	return ret.Error(0)
}

func (_m *MockRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ret := _m.Called(ctx, email)

	var r0 bool
	if rf, ok := ret.Get(0).(func(context.Context, string) bool); ok {
		r0 = rf(ctx, email)
	} else {
		r0 = ret.Bool(0)
	}

	return r0, ret.Error(1)
}

func (_m *MockRepository) ExistsByID(ctx context.Context, customerID int64) (bool, error) {
	ret := _m.Called(ctx, customerID)

	var r0 bool
	if rf, ok := ret.Get(0).(func(context.Context, int64) bool); ok {
		r0 = rf(ctx, customerID)
	} else {
		r0 = ret.Bool(0)
	}

	return r0, ret.Error(1)
}

func (_m *MockRepository) Delete(ctx context.Context, customerID int64) error {
	ret := _m.Called(ctx, customerID)
	return ret.Error(0)
}

func (_m *MockRepository) Update(ctx context.Context, customer *Customer) error {
	ret := _m.Called(ctx, customer)

	if rf, ok := ret.Get(0).(func(context.Context, *Customer) error); ok {
		return rf(ctx, customer)
	}
	return ret.Error(0)
}
