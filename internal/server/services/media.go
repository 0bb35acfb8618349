// Package services contains the business logic of the media server:
// record allocation with presigned upload URLs and server-authoritative
// status transitions.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dsmolkin/mediakeeper/internal/common"
	model "github.com/dsmolkin/mediakeeper/internal/media"
	sc "github.com/dsmolkin/mediakeeper/internal/server/config"
	mediarepo "github.com/dsmolkin/mediakeeper/internal/server/repositories/media"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// MediaService allocates media records and transitions their status.
type MediaService struct {
	repo   mediarepo.Repository
	config *sc.Config
}

// NewMediaService constructs a MediaService over the given repository.
func NewMediaService(repo mediarepo.Repository, config *sc.Config) *MediaService {
	return &MediaService{repo: repo, config: config}
}

// storageKey builds a date-bucketed object key for a new record.
func storageKey(id string) string {
	d := time.Now()
	return fmt.Sprintf("media/%d/%02d/%02d/%s", d.Year(), d.Month(), d.Day(), id)
}

func (s *MediaService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// GenerateUploadURL allocates a record for the given partial descriptor
// and returns it together with a presigned PUT URL for the raw bytes.
// The record starts in INIT status regardless of what the client sent.
func (s *MediaService) GenerateUploadURL(ctx context.Context, desc *model.Media) (*model.Media, string, error) {
	rec := *desc
	rec.ID = uuid.NewString()
	rec.Status = model.StatusInit
	rec.Provider = "s3"
	rec.Container = s.config.S3Bucket
	rec.Path = storageKey(rec.ID)
	if rec.Type == "" {
		rec.Type = model.Classify(rec.MimeType)
	}

	if err := s.repo.Create(ctx, &rec); err != nil {
		return nil, "", err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return nil, "", err
	}

	bucket := s.config.S3Bucket
	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &rec.Path,
	}, s3.WithPresignExpires(s.config.UploadURLTTL))
	if err != nil {
		return nil, "", err
	}

	return &rec, req.URL, nil
}

// SetStatus batch-transitions records. Only TEMP, ACTIVE and CANCELED
// can be requested by clients; every other status is rejected.
func (s *MediaService) SetStatus(ctx context.Context, ids []string, status model.Status) ([]model.Media, error) {
	switch status {
	case model.StatusTemp, model.StatusActive, model.StatusCanceled:
	default:
		return nil, fmt.Errorf("status %q: %w", status, common.ErrInvalidStatus)
	}
	return s.repo.UpdateStatus(ctx, ids, status)
}

// Get returns one media record by id.
func (s *MediaService) Get(ctx context.Context, id string) (*model.Media, error) {
	return s.repo.GetByID(ctx, id)
}
