package storage

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"estatehub/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignedUpload is what a client needs to PUT a file straight to the bucket.
type PresignedUpload struct {
	UploadURL string      `json:"uploadUrl"`
	Method    string      `json:"method"`
	Headers   http.Header `json:"headers"`
	Key       string      `json:"key"`
	PublicURL string      `json:"publicUrl"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

type S3Storage struct {
	client     *s3.Client
	presign    *s3.PresignClient
	bucketName string
	endpoint   string
	region     string
	logger     *logger.Logger
}

// NewS3Storage builds a client for AWS S3 or an S3-compatible endpoint.
func NewS3Storage(ctx context.Context, bucketName, endpoint, region, accessKey, secretKey string) (*S3Storage, error) {
	log := logger.New("S3")

	if bucketName == "" {
		return nil, log.Error("S3 bucket is not configured", fmt.Errorf("empty bucket name"))
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithRetryMode(aws.RetryModeStandard),
		config.WithRetryMaxAttempts(3),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, log.Error("unable to load SDK config", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	log.Success("S3 storage ready (bucket %s)", bucketName)
	return &S3Storage{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucketName: bucketName,
		endpoint:   strings.TrimRight(endpoint, "/"),
		region:     region,
		logger:     log,
	}, nil
}

// PresignPut signs a PUT for key valid for ttl.
func (s *S3Storage) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (*PresignedUpload, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, s.logger.Error("failed to presign upload", err)
	}

	return &PresignedUpload{
		UploadURL: req.URL,
		Method:    req.Method,
		Headers:   req.SignedHeader,
		Key:       key,
		PublicURL: s.PublicURL(key),
		ExpiresAt: time.Now().Add(ttl).UTC(),
	}, nil
}

// PublicURL is where an uploaded object can be read once the bucket serves it.
func (s *S3Storage) PublicURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucketName, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucketName, s.region, key)
}
