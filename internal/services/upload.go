package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"connexa-backend/internal/apperrors"
	appconfig "connexa-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// ImageStore persists the public URL of an uploaded banner.
type ImageStore interface {
	SetImageURL(ctx context.Context, eventID, url string) error
}

// UploadService stores event banner images in S3-compatible object
// storage and records the resulting public URL on the event.
type UploadService struct {
	client        *s3.Client
	bucket        string
	region        string
	publicBaseURL string
	events        ImageStore
}

// NewUploadService creates a new upload service. A custom endpoint with
// path-style addressing supports S3-compatible providers.
func NewUploadService(ctx context.Context, storage appconfig.StorageConfig, events ImageStore) (*UploadService, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(storage.Region),
	}
	if storage.AccessKey != "" && storage.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(storage.AccessKey, storage.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(storage.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &UploadService{
		client:        client,
		bucket:        storage.Bucket,
		region:        storage.Region,
		publicBaseURL: storage.PublicBaseURL,
		events:        events,
	}, nil
}

// UploadEventImage stores the banner under event-images/{event_id}/ and
// returns the public URL after recording it on the event row.
func (s *UploadService) UploadEventImage(ctx context.Context, eventID, filename, contentType string, body io.Reader) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		ext = "jpg"
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	key := fmt.Sprintf("event-images/%s/%d.%s", eventID, time.Now().UnixMilli(), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=3600"),
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeStorage, "Failed to store image", err)
	}

	url := s.publicURL(key)
	if err := s.events.SetImageURL(ctx, eventID, url); err != nil {
		return "", err
	}

	log.Info().
		Str("event_id", eventID).
		Str("key", key).
		Msg("Event image uploaded")

	return url, nil
}

func (s *UploadService) publicURL(key string) string {
	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.publicBaseURL, "/"), s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
