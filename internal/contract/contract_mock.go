package contract

import (
	"context"
	"time"

	"github.com/huangsam/ecgscope/schema"
	"github.com/stretchr/testify/mock"
)

// MockStreamOpener is a mock implementation of StreamOpener for testing.
type MockStreamOpener struct {
	mock.Mock
}

var _ StreamOpener = &MockStreamOpener{} // Compile-time check

// Open implements the StreamOpener interface.
func (m *MockStreamOpener) Open(ctx context.Context, rec schema.Recording) (Stream, error) {
	ret := m.Called(ctx, rec)
	stream, _ := ret.Get(0).(Stream)
	return stream, ret.Error(1)
}

// List implements the StreamOpener interface.
func (m *MockStreamOpener) List(ctx context.Context) ([]schema.Recording, error) {
	ret := m.Called(ctx)
	recs, _ := ret.Get(0).([]schema.Recording)
	return recs, ret.Error(1)
}

// MockPeakDetector is a mock implementation of PeakDetector for testing.
type MockPeakDetector struct {
	mock.Mock
}

var _ PeakDetector = &MockPeakDetector{} // Compile-time check

// Detect implements the PeakDetector interface.
func (m *MockPeakDetector) Detect(ctx context.Context, series schema.VoltageSeries, samplingRate float64, algorithm schema.DetectorAlgorithm) (schema.PeakIndexList, error) {
	ret := m.Called(ctx, series, samplingRate, algorithm)
	peaks, _ := ret.Get(0).(schema.PeakIndexList)
	return peaks, ret.Error(1)
}

// MockPublisher is a mock implementation of Publisher for testing.
type MockPublisher struct {
	mock.Mock
}

var _ Publisher = &MockPublisher{} // Compile-time check

// Publish implements the Publisher interface.
func (m *MockPublisher) Publish(ctx context.Context, result schema.PipelineResult) error {
	ret := m.Called(ctx, result)
	return ret.Error(0)
}

// MockCommandRunner is a mock implementation of CommandRunner for testing.
type MockCommandRunner struct {
	mock.Mock
}

var _ CommandRunner = &MockCommandRunner{} // Compile-time check

// Run implements the CommandRunner interface.
func (m *MockCommandRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	mockArgs := []any{ctx, stdin, name}
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	ret := m.Called(mockArgs...)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ StoreManager = &MockStoreManager{} // Compile-time check

// GetPreviewStore implements the StoreManager interface.
func (m *MockStoreManager) GetPreviewStore() PreviewStore {
	ret := m.Called()
	store, _ := ret.Get(0).(PreviewStore)
	return store
}

// GetRunStore implements the StoreManager interface.
func (m *MockStoreManager) GetRunStore() RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(RunStore)
	return store
}

// MockPreviewStore is a mock implementation of PreviewStore for testing.
type MockPreviewStore struct {
	mock.Mock
}

var _ PreviewStore = &MockPreviewStore{} // Compile-time check

// Get implements the PreviewStore interface.
func (m *MockPreviewStore) Get(recordingID string) ([]byte, int, int64, error) {
	args := m.Called(recordingID)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the PreviewStore interface.
func (m *MockPreviewStore) Set(recordingID string, value []byte, version int, timestamp int64) error {
	args := m.Called(recordingID, value, version, timestamp)
	return args.Error(0)
}

// GetStatus implements the PreviewStore interface.
func (m *MockPreviewStore) GetStatus() (schema.PreviewStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.PreviewStatus), args.Error(1)
}

// Close implements the PreviewStore interface.
func (m *MockPreviewStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(recordingID string, profile schema.Profile, startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(recordingID, profile, startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID int64, endTime time.Time, result schema.PipelineResult) error {
	args := m.Called(runID, endTime, result)
	return args.Error(0)
}

// FailRun implements the RunStore interface.
func (m *MockRunStore) FailRun(runID int64, endTime time.Time, runErr error) error {
	args := m.Called(runID, endTime, runErr)
	return args.Error(0)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus() (schema.RunStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.RunStatus), args.Error(1)
}

// GetAllRuns implements the RunStore interface.
func (m *MockRunStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
