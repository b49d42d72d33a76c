package mocks

import (
	"context"
	"image"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/repository"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

// MockStore hands out the mocked repositories. Any method called on it
// without a matching expectation fails the test, so an empty MockStore
// proves no backend call was made.
type MockStore struct {
	ProfileRepo *MockProfileRepository
	RecipeRepo  *MockRecipeRepository
	RatingRepo  *MockRatingRepository
}

func NewMockStore() *MockStore {
	return &MockStore{
		ProfileRepo: &MockProfileRepository{},
		RecipeRepo:  &MockRecipeRepository{},
		RatingRepo:  &MockRatingRepository{},
	}
}

func (s *MockStore) Profiles() repository.ProfileRepository { return s.ProfileRepo }
func (s *MockStore) Recipes() repository.RecipeRepository   { return s.RecipeRepo }
func (s *MockStore) Ratings() repository.RatingRepository   { return s.RatingRepo }
func (s *MockStore) WithToken(string) repository.Store      { return s }

// AssertExpectations checks every mocked repository.
func (s *MockStore) AssertExpectations(t mock.TestingT) {
	s.ProfileRepo.AssertExpectations(t)
	s.RecipeRepo.AssertExpectations(t)
	s.RatingRepo.AssertExpectations(t)
}

// MockRatingRepository is a mock implementation of repository.RatingRepository
type MockRatingRepository struct {
	mock.Mock
}

func (m *MockRatingRepository) Upsert(ctx context.Context, rating *models.RecipeRating) error {
	args := m.Called(ctx, rating)
	return args.Error(0)
}

// MockObjectStore is a mock implementation of storage.ObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Upload(ctx context.Context, path, contentType string, body io.Reader) error {
	args := m.Called(ctx, path, contentType, body)
	return args.Error(0)
}

func (m *MockObjectStore) PublicURL(path string) string {
	args := m.Called(path)
	return args.String(0)
}

// MockSearchService is a mock implementation of the search service
type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) GlobalSearch(ctx context.Context, sess session.Session, query string, opts models.GlobalSearchOptions) (*models.GlobalSearchResult, error) {
	args := m.Called(ctx, sess, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GlobalSearchResult), args.Error(1)
}

// MockImageService is a mock implementation of the image service
type MockImageService struct {
	mock.Mock
}

func (m *MockImageService) Upload(ctx context.Context, sess session.Session, category, filename string, data []byte, crop *image.Rectangle) (string, error) {
	args := m.Called(ctx, sess, category, filename, data, crop)
	return args.String(0), args.Error(1)
}
