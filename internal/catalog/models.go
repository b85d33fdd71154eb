package catalog

import "time"

// Photograph is a logical, content-addressed photo. Pointer fields are
// nil until the pipeline fills them.
type Photograph struct {
	ID          int64
	ContentHash *string
	StoredImage *string
	CaptureTime *time.Time
	CameraModel *string
	HasErrors   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PhotoPath records one filesystem location a photo was ingested from.
// The (Path, Device) pair is unique. PhotographID is nil when the linked
// photograph has been deleted.
type PhotoPath struct {
	ID             int64
	Path           string
	Device         string
	Size           int64
	FileCreatedAt  *time.Time
	FileModifiedAt time.Time
	PhotographID   *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
