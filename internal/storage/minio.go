package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ImageStore keeps uploaded quiz images in a MinIO bucket and hands back the
// public object URL to persist on the quiz.
type ImageStore struct {
	client *minio.Client
	config MinioConfig
}

func NewImageStore(cfg MinioConfig) (*ImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing MinIO client: %w", err)
	}

	exists, err := client.BucketExists(context.Background(), cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("error checking bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("error creating bucket %s: %w", cfg.Bucket, err)
		}
		log.Printf("Created bucket: %s", cfg.Bucket)
	}

	return &ImageStore{client: client, config: cfg}, nil
}

// Store uploads the image under a random object name, keeping the original
// extension, and returns its URL.
func (s *ImageStore) Store(ctx context.Context, filename, contentType string, reader io.Reader, size int64) (string, error) {
	objectName := uuid.NewString() + path.Ext(filename)
	_, err := s.client.PutObject(ctx, s.config.Bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("error uploading image: %w", err)
	}

	scheme := "http"
	if s.config.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.config.Endpoint, s.config.Bucket, objectName), nil
}
