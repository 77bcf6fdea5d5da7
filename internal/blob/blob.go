// Package blob stores attachment content addressed by a key derived from
// the owning document's sync identifier, so attachments stay stable across
// local row-id churn.
package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Store is the content-addressable attachment backend.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Key builds the blob key for an attachment:
// {ownerId}/documents/{syncId}/{fileName}.
func Key(ownerID, syncID, fileName string) string {
	return fmt.Sprintf("%s/documents/%s/%s", ownerID, syncID, fileName)
}

// Checksum returns the hex-encoded SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
