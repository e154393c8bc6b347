// Package mocks provides test doubles for the bos estimator.
package mocks

import (
	"context"

	bos "github.com/sells-group/windcost/internal/bos"
	mock "github.com/stretchr/testify/mock"
)

// MockEstimator is a mock type for the Estimator interface.
type MockEstimator struct {
	mock.Mock
}

// Estimate provides a mock function with given fields: ctx, in
func (_m *MockEstimator) Estimate(ctx context.Context, in bos.Input) (*bos.Breakdown, error) {
	ret := _m.Called(ctx, in)

	if len(ret) == 0 {
		panic("no return value specified for Estimate")
	}

	var r0 *bos.Breakdown
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, bos.Input) (*bos.Breakdown, error)); ok {
		return rf(ctx, in)
	}
	if rf, ok := ret.Get(0).(func(context.Context, bos.Input) *bos.Breakdown); ok {
		r0 = rf(ctx, in)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*bos.Breakdown)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, bos.Input) error); ok {
		r1 = rf(ctx, in)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockEstimator creates a new instance of MockEstimator and registers
// cleanup assertions on t.
func NewMockEstimator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEstimator {
	m := &MockEstimator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
