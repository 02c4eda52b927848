package dto

import (
	"time"

	"github.com/yukikurage/learning-platform-api/internal/models"
)

type GuideDTO struct {
	TaskID       uint64          `json:"task_id"`
	Content      string          `json:"content"`
	LastEditorID *uint64         `json:"last_editor_id"`
	LastEditor   *UserSummaryDTO `json:"last_editor,omitempty"`
	Attachments  []AttachmentDTO `json:"attachments"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type AttachmentDTO struct {
	ID         uint64    `json:"id"`
	FileName   string    `json:"file_name"`
	FileURL    string    `json:"file_url"`
	FileSize   int64     `json:"file_size"`
	MimeType   string    `json:"mime_type"`
	UploadedBy uint64    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type UpdateGuideRequest struct {
	Content string `json:"content"`
}

func ToGuideDTO(g models.Guide) GuideDTO {
	dto := GuideDTO{
		TaskID:       g.TaskID,
		Content:      g.Content,
		LastEditorID: g.LastEditorID,
		LastEditor:   userSummary(g.LastEditor),
		Attachments:  make([]AttachmentDTO, len(g.Attachments)),
		UpdatedAt:    g.UpdatedAt,
	}
	for i, a := range g.Attachments {
		dto.Attachments[i] = ToAttachmentDTO(a)
	}
	return dto
}

func ToAttachmentDTO(a models.Attachment) AttachmentDTO {
	return AttachmentDTO{
		ID:         a.ID,
		FileName:   a.FileName,
		FileURL:    a.FileURL,
		FileSize:   a.FileSize,
		MimeType:   a.MimeType,
		UploadedBy: a.UploadedBy,
		CreatedAt:  a.CreatedAt,
	}
}
