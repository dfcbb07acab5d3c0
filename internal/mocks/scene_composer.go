package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ivlev/scenecomposer/internal/prompt"
	"github.com/ivlev/scenecomposer/internal/scene"
)

// MockSceneComposer is a mock type for the director.SceneComposer type
type MockSceneComposer struct {
	mock.Mock
}

// ComposeScene provides a mock function with given fields: ctx, pc
func (_m *MockSceneComposer) ComposeScene(ctx context.Context, pc prompt.Context) (*scene.Composed, error) {
	ret := _m.Called(ctx, pc)

	var r0 *scene.Composed
	if rf, ok := ret.Get(0).(func(context.Context, prompt.Context) *scene.Composed); ok {
		r0 = rf(ctx, pc)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*scene.Composed)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, prompt.Context) error); ok {
		r1 = rf(ctx, pc)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockSceneComposer creates a new instance of MockSceneComposer. It also registers a testing
// interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockSceneComposer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSceneComposer {
	m := &MockSceneComposer{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
