// Package storage provides file storage for uploaded statements and their
// converted records.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a file id is unknown in a namespace.
var ErrNotFound = errors.New("file not found")

// Namespace partitions stored files by what they hold.
type Namespace string

const (
	NamespaceUploads Namespace = "uploads"
	NamespaceRecords Namespace = "records"
)

// FileInfo contains metadata about a stored file
type FileInfo struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Size        int64             `json:"size"`
	ContentType string            `json:"content_type"`
	Path        string            `json:"path"` // Internal storage path
	Labels      map[string]string `json:"labels,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Object describes a file to be stored.
type Object struct {
	ID          uuid.UUID // uuid.Nil assigns a new id
	Name        string
	ContentType string
	Labels      map[string]string
}

// Storage defines the interface for file storage operations
type Storage interface {
	// Put stores a file and returns its metadata
	Put(ctx context.Context, ns Namespace, obj Object, r io.Reader) (*FileInfo, error)

	// Get retrieves a file by its ID
	Get(ctx context.Context, ns Namespace, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Delete removes a file by its ID
	Delete(ctx context.Context, ns Namespace, fileID uuid.UUID) error

	// List returns all files in a namespace
	List(ctx context.Context, ns Namespace) ([]*FileInfo, error)

	// GetInfo returns metadata for a file without reading it
	GetInfo(ctx context.Context, ns Namespace, fileID uuid.UUID) (*FileInfo, error)

	// Purge deletes files created before the cutoff and reports how many
	Purge(ctx context.Context, ns Namespace, before time.Time) (int, error)
}
