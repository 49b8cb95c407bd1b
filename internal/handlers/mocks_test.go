package handlers

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/reelpoint/reelpoint-server/internal/access"
	"github.com/reelpoint/reelpoint-server/internal/models"
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

type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) VerifyToken(token string) (*models.User, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
