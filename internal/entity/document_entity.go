package entity

type DocumentStatus string

const (
	DocumentStatusUploaded DocumentStatus = "uploaded"
	DocumentStatusTraining DocumentStatus = "training"
	DocumentStatusTrained  DocumentStatus = "trained"
	DocumentStatusFailed   DocumentStatus = "failed"
)

// Document is a tenant-scoped library entry. Status tracks its training
// lifecycle on the backend and doubles as the staleness marker.
type Document struct {
	Id        string         `json:"id"`
	OrgId     *string        `json:"orgId"`
	Industry  string         `json:"industry"`
	FileName  string         `json:"fileName"`
	URL       string         `json:"url"`
	Status    DocumentStatus `json:"status"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
}
