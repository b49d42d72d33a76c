package storage

import (
	"context"
	"fmt"
	"io"

	storage_go "github.com/supabase-community/storage-go"
)

// SupabaseStore writes to a Supabase storage bucket.
type SupabaseStore struct {
	client *storage_go.Client
	bucket string
}

// NewSupabaseStore creates a store for bucket at the storage endpoint url
// (https://<ref>.supabase.co/storage/v1), authenticated with key.
func NewSupabaseStore(url, key, bucket string) *SupabaseStore {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &SupabaseStore{
		client: storage_go.NewClient(url, key, map[string]string{"apikey": key}),
		bucket: bucket,
	}
}

func (s *SupabaseStore) Upload(_ context.Context, path, contentType string, body io.Reader) error {
	upsert := false
	_, err := s.client.UploadFile(s.bucket, path, body, storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", path, err)
	}
	return nil
}

func (s *SupabaseStore) PublicURL(path string) string {
	return s.client.GetPublicUrl(s.bucket, path).SignedURL
}
