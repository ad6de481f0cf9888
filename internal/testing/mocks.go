package testing

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/imamik/hoc/internal/executor"
	"github.com/imamik/hoc/internal/resolve"
)

// MockExecutor is a mock implementation of procedure.Executor.
type MockExecutor struct {
	mock.Mock
}

// Execute runs a mock command.
func (m *MockExecutor) Execute(ctx context.Context, req executor.Request) (*executor.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*executor.Result), args.Error(1)
}

// Close releases mock connections.
func (m *MockExecutor) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockPrompter is a mock implementation of resolve.Prompter.
type MockPrompter struct {
	mock.Mock
}

// Prompt returns a mock answer.
func (m *MockPrompter) Prompt(ctx context.Context, in resolve.Input) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

// MockContainerRuntime is a mock implementation of executor.ContainerRuntime.
type MockContainerRuntime struct {
	mock.Mock
}

// Create creates a mock container.
func (m *MockContainerRuntime) Create(ctx context.Context, image string, mounts []executor.Mount) (string, error) {
	args := m.Called(ctx, image, mounts)
	return args.String(0), args.Error(1)
}

// Exec runs a mock command in a container.
func (m *MockContainerRuntime) Exec(ctx context.Context, handle, command, stdin string) (*executor.Result, error) {
	args := m.Called(ctx, handle, command, stdin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*executor.Result), args.Error(1)
}

// Destroy removes a mock container.
func (m *MockContainerRuntime) Destroy(ctx context.Context, handle string) error {
	args := m.Called(ctx, handle)
	return args.Error(0)
}

// MockUploader is a mock implementation of record.Uploader.
type MockUploader struct {
	mock.Mock
}

// PutObject stores a mock object.
func (m *MockUploader) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	args := m.Called(ctx, key, body, contentType)
	return args.Error(0)
}
