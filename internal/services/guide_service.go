package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yukikurage/learning-platform-api/internal/constants"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/repository"
	"github.com/yukikurage/learning-platform-api/internal/storage"
	"github.com/yukikurage/learning-platform-api/internal/utils"
)

const CodeAttachmentNotFound = "ATTACHMENT_NOT_FOUND"

var ErrAttachmentNotFound = apierrors.NewNotFound(CodeAttachmentNotFound, "Attachment not found")

// Upload is a file received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// GuideService manages the instructions and attachments of a task.
type GuideService struct {
	guides repository.GuideRepository
	blobs  storage.BlobStore
	log    logrus.FieldLogger
}

// NewGuideService creates a new GuideService. blobs may be nil when no
// blob store is configured.
func NewGuideService(guides repository.GuideRepository, blobs storage.BlobStore, log logrus.FieldLogger) *GuideService {
	return &GuideService{
		guides: guides,
		blobs:  blobs,
		log:    log,
	}
}

// GetGuide returns the guide of a task, or an empty one.
func (s *GuideService) GetGuide(ctx context.Context, taskID uint64) (*models.Guide, error) {
	guide, err := s.guides.FindByTask(ctx, taskID)
	if err == nil {
		return guide, nil
	}
	if !isNotFound(err) {
		return nil, wrap(err, "find guide")
	}
	return &models.Guide{TaskID: taskID, Attachments: []models.Attachment{}}, nil
}

// UpdateGuide replaces the guide content.
func (s *GuideService) UpdateGuide(ctx context.Context, taskID, editorID uint64, content string) (*models.Guide, error) {
	if _, err := s.guides.Upsert(ctx, taskID, content, editorID); err != nil {
		return nil, wrap(err, "update guide")
	}
	return s.GetGuide(ctx, taskID)
}

// AddAttachment uploads a file and links it to the task's guide.
func (s *GuideService) AddAttachment(ctx context.Context, taskID, uploaderID uint64, upload Upload) (*models.Attachment, error) {
	if s.blobs == nil {
		return nil, ErrStorageDisabled
	}
	if len(upload.Data) == 0 {
		return nil, invalidField("file", "is empty")
	}
	if len(upload.Data) > constants.MaxUploadSize {
		return nil, invalidField("file", fmt.Sprintf("must be at most %d bytes", constants.MaxUploadSize))
	}

	guide, err := s.guides.Ensure(ctx, taskID)
	if err != nil {
		return nil, wrap(err, "ensure guide")
	}

	objectPath := utils.ObjectPath(constants.AttachmentFolder, upload.FileName)
	object, err := s.blobs.Upload(ctx, constants.UploadsBucket, objectPath, upload.Data, upload.ContentType)
	if err != nil {
		return nil, uploadError(err)
	}

	attachment := &models.Attachment{
		GuideID:     guide.ID,
		FileName:    upload.FileName,
		FileURL:     object.URL,
		StoragePath: object.Path,
		FileSize:    int64(len(upload.Data)),
		MimeType:    upload.ContentType,
		UploadedBy:  uploaderID,
	}
	if err := s.guides.CreateAttachment(ctx, attachment); err != nil {
		if delErr := s.blobs.Delete(ctx, constants.UploadsBucket, object.Path); delErr != nil {
			s.log.WithError(delErr).WithField("path", object.Path).Warn("Failed to remove orphaned attachment blob")
		}
		return nil, wrap(err, "create attachment")
	}
	return attachment, nil
}

// DeleteAttachment removes an attachment and its blob.
func (s *GuideService) DeleteAttachment(ctx context.Context, taskID, attachmentID uint64) error {
	guide, err := s.guides.FindByTask(ctx, taskID)
	if err != nil {
		return notFound(err, ErrAttachmentNotFound, "find guide")
	}
	attachment, err := s.guides.FindAttachment(ctx, guide.ID, attachmentID)
	if err != nil {
		return notFound(err, ErrAttachmentNotFound, "find attachment")
	}

	if err := s.guides.DeleteAttachment(ctx, attachment.ID); err != nil {
		return wrap(err, "delete attachment")
	}
	if s.blobs == nil {
		return nil
	}
	if err := s.blobs.Delete(ctx, constants.UploadsBucket, attachment.StoragePath); err != nil {
		s.log.WithError(err).WithField("path", attachment.StoragePath).Warn("Failed to remove attachment blob")
	}
	return nil
}

// removeBlobs deletes the blobs of attachments whose rows are already gone.
// Failures are logged and otherwise ignored.
func removeBlobs(ctx context.Context, blobs storage.BlobStore, log logrus.FieldLogger, paths []string) {
	if blobs == nil || len(paths) == 0 {
		return
	}
	if err := blobs.Delete(ctx, constants.UploadsBucket, paths...); err != nil {
		log.WithError(err).WithField("count", len(paths)).Warn("Failed to remove attachment blobs")
	}
}

func uploadError(err error) error {
	if errors.Is(err, storage.ErrNotConfigured) {
		return ErrStorageDisabled
	}
	return apierrors.NewUpstream("Failed to store the file", err)
}
