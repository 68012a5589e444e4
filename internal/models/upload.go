package models

// Upload is the registry record of one stored file.
type Upload struct {
	BaseModel
	Category     string `gorm:"not null;index:idx_uploads_category_created,priority:1" json:"category"`
	UploaderID   string `gorm:"column:uploader_id;index" json:"uploader_id,omitempty"`
	Field        string `gorm:"not null" json:"field"`
	Filename     string `gorm:"not null;uniqueIndex" json:"filename"`
	OriginalName string `gorm:"column:original_name" json:"original_name"`
	MimeType     string `gorm:"not null" json:"mime_type"`
	Size         int64  `gorm:"not null" json:"size"`
	URL          string `gorm:"column:url;not null" json:"url"`
	StorageKey   string `gorm:"column:storage_key;not null" json:"-"`
}

func (Upload) TableName() string {
	return "uploads"
}
