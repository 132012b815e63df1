package types

import "time"

// ApplicationDocument is a supporting file uploaded with an application.
type ApplicationDocument struct {
	ID            string    `db:"id" json:"id"`
	ApplicationID string    `db:"application_id" json:"applicationId"`
	DocumentType  string    `db:"document_type" json:"documentType"`
	FileName      string    `db:"file_name" json:"fileName"`
	FileSizeBytes int64     `db:"file_size_bytes" json:"fileSizeBytes"`
	MimeType      string    `db:"mime_type" json:"mimeType"`
	StorageKey    string    `db:"storage_key" json:"storageKey"`
	UploadedAt    time.Time `db:"uploaded_at" json:"uploadedAt"`
}

// Document type constants
const (
	DocTypeRegistration  = "registration"
	DocTypeIDDocument    = "id_document"
	DocTypeProjectPhotos = "project_photos"
)

func DocumentTypeLabel(docType string) string {
	switch docType {
	case DocTypeRegistration:
		return "Registration Certificate"
	case DocTypeIDDocument:
		return "Applicant ID/Passport"
	case DocTypeProjectPhotos:
		return "Project Photos"
	default:
		return "Other"
	}
}
