package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RenderStatusUploaded = "uploaded"
	RenderStatusFailed   = "failed"
)

// RenderLog is one pass of the document pipeline, successful or not.
type RenderLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ArtifactKey string    `gorm:"index"`
	Forename    string
	Surname     string
	YearMonth   string `gorm:"index"`
	Options     datatypes.JSON
	Status      string `gorm:"index"`
	Error       string
	CreatedAt   time.Time
}
