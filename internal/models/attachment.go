package models

// FileAttachment is a child record of a Document, addressed by the parent
// document's sync identifier (never by a local row id). Its lifecycle is
// tied to the parent: deleting the document cascades to its attachments.
type FileAttachment struct {
	// DocumentSyncID is the parent document's sync identifier.
	DocumentSyncID string

	// FileName is the attachment's base name within the document.
	FileName string

	// LocalPath points at the file on the device, empty if not downloaded.
	LocalPath string

	// BlobKey is the remote blob store key, empty if not uploaded yet.
	BlobKey string

	// Size is the content length in bytes.
	Size int64

	// Checksum is the hex-encoded SHA-256 of the content, used to verify
	// downloads.
	Checksum string
}
