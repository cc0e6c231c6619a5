package sink

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/mock"
)

// MockObjectPutter is a mock implementation of ObjectPutter for testing.
type MockObjectPutter struct {
	mock.Mock
}

var _ ObjectPutter = &MockObjectPutter{} // Compile-time check

// PutObject implements the ObjectPutter interface.
func (m *MockObjectPutter) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

// MockAsyncPublisher is a mock implementation of AsyncPublisher for testing.
type MockAsyncPublisher struct {
	mock.Mock
}

var _ AsyncPublisher = &MockAsyncPublisher{} // Compile-time check

// PublishAsync implements the AsyncPublisher interface.
func (m *MockAsyncPublisher) PublishAsync(subj string, data []byte, _ ...nats.PubOpt) (nats.PubAckFuture, error) {
	args := m.Called(subj, data)
	future, _ := args.Get(0).(nats.PubAckFuture)
	return future, args.Error(1)
}
