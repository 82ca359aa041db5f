package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/foodgram-project/backend/config"
)

// ImageService stores recipe images uploaded as base64 data URIs.
type ImageService struct {
	s3Config *config.S3Config
}

// NewImageService creates a new ImageService instance. A nil s3Config is
// allowed; images then pass through unstored (local development without a
// bucket).
func NewImageService(s3Config *config.S3Config) *ImageService {
	return &ImageService{s3Config: s3Config}
}

// StoreDataURI decodes a "data:image/<ext>;base64,<payload>" string, uploads
// the bytes to S3 and returns the public URL. Plain URLs (anything that is
// not a data URI) pass through unchanged.
func (s *ImageService) StoreDataURI(ctx context.Context, dataURI string) (string, error) {
	if !strings.HasPrefix(dataURI, "data:image") {
		return dataURI, nil
	}

	header, payload, found := strings.Cut(dataURI, ";base64,")
	if !found {
		return "", newValidationError("image", "malformed data URI")
	}
	ext := strings.TrimPrefix(header, "data:image/")
	if ext == "" {
		ext = "png"
	}

	imageData, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", newValidationError("image", "invalid base64 payload")
	}

	if s.s3Config == nil {
		// No bucket configured; keep the data URI as the stored reference.
		return dataURI, nil
	}

	fileName := fmt.Sprintf("recipe-images/%s.%s", uuid.New().String(), ext)
	return s.uploadToS3(ctx, imageData, fileName, "image/"+ext)
}

// uploadToS3 uploads image data to S3 and returns the public URL.
func (s *ImageService) uploadToS3(ctx context.Context, imageData []byte, fileName, contentType string) (string, error) {
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(fileName),
		Body:        bytes.NewReader(imageData),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, fileName)
	log.Printf("[ImageService] Successfully uploaded image to S3: %s", publicURL)

	return publicURL, nil
}
