package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	appcontext "github.com/alphabatem/common/context"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// MinIOService stores generated artifacts. It is disabled when
// MINIO_ENDPOINT is unset.
type MinIOService struct {
	appcontext.DefaultService
	client     *minio.Client
	bucketName string
	endpoint   string
	accessKey  string
	secretKey  string
	useSSL     bool
}

const MINIO_SVC = "minio_svc"

func (svc MinIOService) Id() string {
	return MINIO_SVC
}

func (svc *MinIOService) Configure(ctx *appcontext.Context) error {
	svc.endpoint = os.Getenv("MINIO_ENDPOINT")

	svc.accessKey = os.Getenv("MINIO_ACCESS_KEY")
	if svc.accessKey == "" {
		svc.accessKey = "admin"
	}

	svc.secretKey = os.Getenv("MINIO_SECRET_KEY")
	if svc.secretKey == "" {
		svc.secretKey = "password123"
	}

	svc.useSSL = os.Getenv("MINIO_USE_SSL") == "true"

	svc.bucketName = os.Getenv("MINIO_BUCKET_NAME")
	if svc.bucketName == "" {
		svc.bucketName = "course-artifacts"
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *MinIOService) Start() error {
	if svc.endpoint == "" {
		log.Info().Msg("MinIO disabled, certificate manifests will not be stored")
		return nil
	}

	client, err := minio.New(svc.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(svc.accessKey, svc.secretKey, ""),
		Secure: svc.useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %v", err)
	}

	svc.client = client

	if err := svc.ensureBucket(); err != nil {
		return fmt.Errorf("failed to ensure bucket exists: %v", err)
	}

	log.Info().Str("endpoint", svc.endpoint).Str("bucket", svc.bucketName).Msg("MinIO service started")
	return nil
}

func (svc *MinIOService) Enabled() bool {
	return svc != nil && svc.client != nil
}

func (svc *MinIOService) ensureBucket() error {
	ctx := context.Background()

	exists, err := svc.client.BucketExists(ctx, svc.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %v", err)
	}

	if !exists {
		err = svc.client.MakeBucket(ctx, svc.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %v", err)
		}
		log.Info().Str("bucket", svc.bucketName).Msg("Created MinIO bucket")
	}

	return nil
}

// PutJSON uploads an already encoded JSON document.
func (svc *MinIOService) PutJSON(ctx context.Context, objectName string, body []byte) (*minio.UploadInfo, error) {
	if !svc.Enabled() {
		return nil, fmt.Errorf("object storage not configured")
	}

	uploadInfo, err := svc.client.PutObject(ctx, svc.bucketName, objectName, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file to MinIO: %v", err)
	}

	return &uploadInfo, nil
}

func (svc *MinIOService) GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if !svc.Enabled() {
		return "", fmt.Errorf("object storage not configured")
	}

	presignedURL, err := svc.client.PresignedGetObject(ctx, svc.bucketName, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %v", err)
	}

	return presignedURL.String(), nil
}

// PresignUpload returns a URL the caller can PUT a single object to.
func (svc *MinIOService) PresignUpload(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if !svc.Enabled() {
		return "", fmt.Errorf("object storage not configured")
	}

	presignedURL, err := svc.client.PresignedPutObject(ctx, svc.bucketName, objectName, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to generate upload URL: %v", err)
	}

	return presignedURL.String(), nil
}
