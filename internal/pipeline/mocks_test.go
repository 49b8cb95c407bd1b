package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/reelpoint/reelpoint-server/internal/access"
	"github.com/reelpoint/reelpoint-server/internal/media"
	"github.com/reelpoint/reelpoint-server/internal/models"
	"github.com/reelpoint/reelpoint-server/internal/sensitivity"
	"github.com/reelpoint/reelpoint-server/internal/store"
)

type MockVideoStore struct {
	mock.Mock
}

func (m *MockVideoStore) Create(video *models.Video) error {
	args := m.Called(video)
	return args.Error(0)
}

func (m *MockVideoStore) GetByID(videoID uuid.UUID) (*models.Video, error) {
	args := m.Called(videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Video), args.Error(1)
}

func (m *MockVideoStore) List(params store.ListVideosParams, scope access.Scope) (*store.VideosResponse, error) {
	args := m.Called(params, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.VideosResponse), args.Error(1)
}

func (m *MockVideoStore) Save(video *models.Video) error {
	args := m.Called(video)
	return args.Error(0)
}

func (m *MockVideoStore) IncrementViews(videoID uuid.UUID) error {
	args := m.Called(videoID)
	return args.Error(0)
}

func (m *MockVideoStore) Delete(videoID uuid.UUID) error {
	args := m.Called(videoID)
	return args.Error(0)
}

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Probe(ctx context.Context, path string) (media.ProbeResult, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(media.ProbeResult), args.Error(1)
}

func (m *MockEngine) Thumbnail(ctx context.Context, path string, timestampPercent float64, size string) (string, error) {
	args := m.Called(ctx, path, timestampPercent, size)
	return args.String(0), args.Error(1)
}

func (m *MockEngine) Transcode(ctx context.Context, path string, onProgress func(float64)) (string, error) {
	args := m.Called(ctx, path, onProgress)
	return args.String(0), args.Error(1)
}

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, path string) (sensitivity.Result, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(sensitivity.Result), args.Error(1)
}
