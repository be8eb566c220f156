// Package uploads implements the multipart upload lifecycle directly against
// an S3-compatible object store, for deployments where the gateway is not
// fronting a separate upload API. File bytes never pass through the gateway:
// it issues presigned per-part URLs and the browser uploads straight to
// storage.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/streamloft/gateway/internal/config"
	"github.com/streamloft/gateway/internal/faults"
	"github.com/streamloft/gateway/internal/models"
)

// S3API is the subset of the S3 client the backend uses.
type S3API interface {
	CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
}

// Presigner issues presigned part-upload URLs.
type Presigner interface {
	PresignUploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.PresignOptions)) (*v4PresignedRequest, error)
}

// v4PresignedRequest is the part of the presigned request the backend needs.
type v4PresignedRequest struct {
	URL string
}

// presignClient adapts the SDK presign client to the Presigner interface.
type presignClient struct {
	inner *s3.PresignClient
	ttl   time.Duration
}

func (p presignClient) PresignUploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.PresignOptions)) (*v4PresignedRequest, error) {
	opts := append([]func(*s3.PresignOptions){func(o *s3.PresignOptions) {
		o.Expires = p.ttl
	}}, optFns...)
	req, err := p.inner.PresignUploadPart(ctx, params, opts...)
	if err != nil {
		return nil, err
	}
	return &v4PresignedRequest{URL: req.URL}, nil
}

// Backend drives multipart uploads against a bucket. It holds no per-upload
// state; the caller owns the session between Start and Complete.
type Backend struct {
	client  S3API
	presign Presigner
	bucket  string
	newID   func() string
}

// NewBackend configures a backend from the object store configuration,
// supporting custom endpoints for R2 and MinIO deployments.
func NewBackend(ctx context.Context, cfg config.ObjectStoreConfig) (*Backend, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("uploads: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if strings.TrimSpace(cfg.Endpoint) != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Backend{
		client:  client,
		presign: presignClient{inner: s3.NewPresignClient(client), ttl: ttl},
		bucket:  cfg.Bucket,
		newID:   uuid.NewString,
	}, nil
}

// Start creates a multipart upload and presigns one URL per part, numbered
// 1..Parts. The token parameter exists to satisfy the coordinator contract;
// authorisation has already happened by the time a request reaches here.
func (b *Backend) Start(ctx context.Context, _ string, req models.StartUpload) (models.UploadSession, error) {
	const op = "uploads.start"

	if req.FileName == "" || req.FileType == "" || req.Parts < 1 {
		return models.UploadSession{}, faults.New(faults.InvalidRequest, op,
			errors.New("file name, file type, and a part count of at least one are required"))
	}

	videoID := b.newID()
	key := path.Join("videos", videoID, strings.TrimLeft(req.FileName, "/"))

	created, err := b.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(req.FileType),
	})
	if err != nil {
		return models.UploadSession{}, faults.New(faults.InitFailed, op, fmt.Errorf("create multipart upload: %w", err))
	}
	if created.UploadId == nil || *created.UploadId == "" {
		return models.UploadSession{}, faults.New(faults.InitFailed, op, errors.New("storage returned no upload id"))
	}

	session := models.UploadSession{
		UploadID: *created.UploadId,
		VideoID:  videoID,
		Key:      key,
		PartURLs: make([]models.PartURL, 0, req.Parts),
	}

	for partNumber := int32(1); partNumber <= req.Parts; partNumber++ {
		presigned, err := b.presign.PresignUploadPart(ctx, &s3.UploadPartInput{
			Bucket:     aws.String(b.bucket),
			Key:        aws.String(key),
			UploadId:   created.UploadId,
			PartNumber: aws.Int32(partNumber),
		})
		if err != nil {
			return models.UploadSession{}, faults.New(faults.InitFailed, op, fmt.Errorf("presign part %d: %w", partNumber, err))
		}
		session.PartURLs = append(session.PartURLs, models.PartURL{
			PartNumber: partNumber,
			URL:        presigned.URL,
		})
	}

	return session, nil
}

// Complete assembles the finished object from the parts the caller uploaded.
// Storage-side part mismatches surface as IncompleteParts; completion is
// never retried here because a retry after partial success is unsafe.
func (b *Backend) Complete(ctx context.Context, _ string, req models.CompleteUpload) error {
	const op = "uploads.complete"

	if req.UploadID == "" || req.VideoID == "" || req.Key == "" {
		return faults.New(faults.InvalidRequest, op, errors.New("upload id, video id, and key are required"))
	}
	if len(req.CompletedParts) == 0 {
		return faults.New(faults.InvalidRequest, op, errors.New("at least one completed part is required"))
	}

	parts := make([]s3types.CompletedPart, 0, len(req.CompletedParts))
	for _, part := range req.CompletedParts {
		parts = append(parts, s3types.CompletedPart{
			ETag:       aws.String(part.ETag),
			PartNumber: aws.Int32(part.PartNumber),
		})
	}

	_, err := b.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(b.bucket),
		Key:             aws.String(req.Key),
		UploadId:        aws.String(req.UploadID),
		MultipartUpload: &s3types.CompletedMultipartUpload{Parts: parts},
	})
	if err != nil {
		if isPartMismatch(err) {
			return faults.New(faults.IncompleteParts, op, err)
		}
		return faults.New(faults.Unknown, op, fmt.Errorf("complete multipart upload: %w", err))
	}

	return nil
}

// isPartMismatch recognises the storage error codes that mean the completed
// parts do not match the parts the upload actually received.
func isPartMismatch(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "InvalidPart", "InvalidPartOrder", "NoSuchUpload":
		return true
	default:
		return false
	}
}
