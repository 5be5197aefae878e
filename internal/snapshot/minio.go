package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/groundctl/groundctl/pkg/log"
	"github.com/groundctl/groundctl/pkg/options"
)

const s3ObjectKey = "state.json"

// s3Store keeps the snapshot as one object in an S3-compatible bucket.
type s3Store struct {
	client *minio.Client
	bucket string
}

// NewS3Store builds a store backed by the configured S3 endpoint and
// ensures the bucket exists.
func NewS3Store(ctx context.Context, opts *options.S3Options) (Store, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	s := &s3Store{client: client, bucket: opts.BucketName}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *s3Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		log.Info("snapshot bucket missing, creating", "bucket", s.bucket)
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

func (s *s3Store) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, s3ObjectKey,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}
	return nil
}

func (s *s3Store) Load(ctx context.Context) (*Snapshot, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s3ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer obj.Close()

	var snap Snapshot
	if err := json.NewDecoder(obj).Decode(&snap); err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
