package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/kentavrex/topfit/config"
	"go.uber.org/zap"
)

// objectPutter is the part of the S3 client ImageService needs
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImageService stores meal photos in S3-compatible object storage
type ImageService struct {
	client  objectPutter
	bucket  string
	baseURL string
	log     *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

var _ IImageStorage = (*ImageService)(nil)

// NewImageService creates an ImageService. A nil s3Config yields a service
// that skips uploads.
func NewImageService(s3Config *config.S3Config, endpoint string, log *zap.Logger) *ImageService {
	s := &ImageService{log: log.Named("images"), sleep: sleepContext}
	if s3Config == nil {
		return s
	}
	s.client = s3Config.Client
	s.bucket = s3Config.BucketName
	if endpoint != "" {
		s.baseURL = strings.TrimRight(endpoint, "/") + "/" + s3Config.BucketName
	} else {
		s.baseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", s3Config.BucketName)
	}
	return s
}

// Enabled reports whether photos are actually uploaded
func (s *ImageService) Enabled() bool {
	return s != nil && s.client != nil
}

// UploadMealPhoto stores a photo under meal-photos/<user>/<uuid>.<ext> and
// returns its URL. It returns an empty URL when storage is not configured.
func (s *ImageService) UploadMealPhoto(ctx context.Context, userID int64, data []byte, mimeType string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}

	key := fmt.Sprintf("meal-photos/%d/%s%s", userID, uuid.New().String(), extensionFor(mimeType))

	const maxRetries = 3
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(mimeType),
		})
		if err == nil {
			url := s.baseURL + "/" + key
			s.log.Info("uploaded meal photo", zap.Int64("user_id", userID), zap.String("url", url))
			return url, nil
		}
		s.log.Warn("meal photo upload failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == maxRetries {
			break
		}
		if waitErr := s.sleep(ctx, time.Duration(attempt)*time.Second); waitErr != nil {
			err = errors.Join(err, waitErr)
			break
		}
	}

	return "", fmt.Errorf("failed to upload to S3: %w", err)
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
