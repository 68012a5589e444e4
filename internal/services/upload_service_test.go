package services

import (
	"context"
	"errors"
	"testing"

	"campusnest_backend/internal/models"
	"campusnest_backend/internal/repositories"
	"campusnest_backend/internal/upload"
	"campusnest_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockUploadRepository struct {
	mock.Mock
}

func (m *mockUploadRepository) Create(db *gorm.DB, u *models.Upload) error {
	return m.Called(db, u).Error(0)
}

func (m *mockUploadRepository) CreateBatch(db *gorm.DB, uploads []*models.Upload) error {
	return m.Called(db, uploads).Error(0)
}

func (m *mockUploadRepository) FindByID(db *gorm.DB, id string) (*models.Upload, error) {
	args := m.Called(db, id)
	u, _ := args.Get(0).(*models.Upload)
	return u, args.Error(1)
}

func (m *mockUploadRepository) FindByCategory(db *gorm.DB, category string, limit, offset int) ([]models.Upload, int64, error) {
	args := m.Called(db, category, limit, offset)
	items, _ := args.Get(0).([]models.Upload)
	return items, args.Get(1).(int64), args.Error(2)
}

var _ repositories.UploadRepository = (*mockUploadRepository)(nil)

func TestRecordUploads(t *testing.T) {
	repo := new(mockUploadRepository)
	svc := NewUploadService(repo)
	db := &gorm.DB{Config: &gorm.Config{}, Statement: &gorm.Statement{}}

	files := []upload.ProcessedFile{
		{FieldName: "photos", Filename: "photos-1-1.jpg", OriginalName: "a.jpg", MimeType: "image/jpeg", Size: 10, URL: "/uploads/properties/photos-1-1.jpg", Key: "properties/photos-1-1.jpg"},
		{FieldName: "photos", Filename: "photos-1-2.gif", OriginalName: "b.gif", MimeType: "image/gif", Size: 20, URL: "/uploads/properties/photos-1-2.gif", Key: "properties/photos-1-2.gif"},
	}

	repo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(records []*models.Upload) bool {
		return len(records) == 2 &&
			records[0].Category == "properties" &&
			records[0].UploaderID == "user-1" &&
			records[0].StorageKey == "properties/photos-1-1.jpg" &&
			records[1].MimeType == "image/gif"
	})).Return(nil).Once()

	records, err := svc.RecordUploads(context.Background(), db, "properties", "user-1", files)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b.gif", records[1].OriginalName)
	repo.AssertExpectations(t)
}

func TestRecordUploads_DatabaseError(t *testing.T) {
	repo := new(mockUploadRepository)
	svc := NewUploadService(repo)
	db := &gorm.DB{Config: &gorm.Config{}, Statement: &gorm.Statement{}}

	repo.On("CreateBatch", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()

	_, err := svc.RecordUploads(context.Background(), db, "avatars", "", []upload.ProcessedFile{{FieldName: "avatar"}})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDatabaseError))
}

func TestRegistryDisabledWithoutDB(t *testing.T) {
	repo := new(mockUploadRepository)
	svc := NewUploadService(repo)

	records, err := svc.RecordUploads(context.Background(), nil, "avatars", "", []upload.ProcessedFile{{FieldName: "avatar"}})
	assert.NoError(t, err)
	assert.Nil(t, records)

	_, err = svc.GetUpload(nil, "id")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeRegistryDisabled))

	_, err = svc.ListUploads(nil, ListUploadsQuery{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeRegistryDisabled))

	repo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestGetUpload(t *testing.T) {
	repo := new(mockUploadRepository)
	svc := NewUploadService(repo)
	db := &gorm.DB{}

	repo.On("FindByID", db, "found").Return(&models.Upload{Category: "documents"}, nil)
	repo.On("FindByID", db, "missing").Return(nil, repositories.ErrUploadNotFound)
	repo.On("FindByID", db, "broken").Return(nil, errors.New("timeout"))

	u, err := svc.GetUpload(db, "found")
	require.NoError(t, err)
	assert.Equal(t, "documents", u.Category)

	_, err = svc.GetUpload(db, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = svc.GetUpload(db, "broken")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternalError))
}

func TestListUploads_ClampsPage(t *testing.T) {
	repo := new(mockUploadRepository)
	svc := NewUploadService(repo)
	db := &gorm.DB{}

	repo.On("FindByCategory", db, "avatars", DefaultListLimit, 0).Return(nil, int64(0), nil).Once()
	repo.On("FindByCategory", db, "", MaxListLimit, 40).Return([]models.Upload{{Category: "general"}}, int64(41), nil).Once()

	list, err := svc.ListUploads(db, ListUploadsQuery{Category: "avatars"})
	require.NoError(t, err)
	assert.NotNil(t, list.Items)
	assert.Empty(t, list.Items)
	assert.Equal(t, DefaultListLimit, list.Limit)

	list, err = svc.ListUploads(db, ListUploadsQuery{Limit: 1000, Offset: 40})
	require.NoError(t, err)
	assert.Equal(t, int64(41), list.Total)
	assert.Equal(t, MaxListLimit, list.Limit)
	assert.Len(t, list.Items, 1)
	repo.AssertExpectations(t)
}
