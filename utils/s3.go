package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var s3Client *s3.Client

func InitS3() {
	region := os.Getenv("S3_REGION")
	if region == "" {
		region = os.Getenv("AWS_REGION") // fallback
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(region))
	if err != nil {
		log.Fatalf("Unable to load AWS config for S3: %v", err)
	}

	s3Client = s3.NewFromConfig(cfg)
}

// DecodeDataURI splits a "data:<mime>;base64,<data>" string into the raw
// bytes and content type.
func DecodeDataURI(dataURI string) ([]byte, string, error) {
	parts := strings.SplitN(dataURI, ",", 2)
	if len(parts) != 2 || !strings.HasPrefix(parts[0], "data:") {
		return nil, "", fmt.Errorf("invalid data URI")
	}
	mediaType := strings.TrimPrefix(parts[0], "data:")  // "image/jpeg;base64"
	contentType := strings.SplitN(mediaType, ";", 2)[0] // "image/jpeg"
	raw, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return raw, contentType, nil
}

// UploadLabelImage archives a scanned product-label photo (base64 data URI)
// to S3 and returns the object key. Archival is best effort for the caller:
// OCR proceeds from the in-memory bytes either way.
func UploadLabelImage(dataURI string, userID uint) (string, error) {
	raw, contentType, err := DecodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	ext := ".jpg"
	if idx := strings.Index(contentType, "/"); idx >= 0 && contentType[idx+1:] != "jpeg" {
		ext = "." + contentType[idx+1:]
	}
	key := fmt.Sprintf("label-scans/%d/%d%s", userID, time.Now().UnixNano(), ext)

	_, err = s3Client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(os.Getenv("S3_BUCKET")),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return key, nil
}
