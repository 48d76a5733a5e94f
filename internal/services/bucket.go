package services

import (
  "bytes"
  "context"
  "fmt"
  "io"

  "cloud.google.com/go/storage"
  "google.golang.org/api/option"

  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/utils"
)

// BucketService stores binary assets (avatars, archived uploads) in GCS.
// When no bucket is configured the service stays disabled and every upload
// is a silent no-op; callers check Enabled before depending on it.
type BucketService interface {
  Enabled() bool
  UploadFile(ctx context.Context, key string, r io.Reader, contentType string) error
  Archive(ctx context.Context, key string, data []byte, contentType string) error
  GetPublicURL(key string) string
}

type bucketService struct {
  client     *storage.Client
  bucketName string
  log        *logger.Logger
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
  serviceLog := log.With("service", "BucketService")

  bucketName := utils.GetEnv("GCS_BUCKET_NAME", "", log)
  if bucketName == "" {
    serviceLog.Warn("GCS_BUCKET_NAME is not set, bucket uploads are disabled")
    return &bucketService{log: serviceLog}, nil
  }

  var opts []option.ClientOption
  if credsFile := utils.GetEnv("GCS_CREDENTIALS_FILE", "", log); credsFile != "" {
    opts = append(opts, option.WithCredentialsFile(credsFile))
  }
  client, err := storage.NewClient(context.Background(), opts...)
  if err != nil {
    return nil, fmt.Errorf("Failed to create GCS client: %w", err)
  }
  serviceLog.Info("Bucket service ready :)", "bucket", bucketName)
  return &bucketService{
    client:     client,
    bucketName: bucketName,
    log:        serviceLog,
  }, nil
}

func (bs *bucketService) Enabled() bool {
  return bs.client != nil && bs.bucketName != ""
}

func (bs *bucketService) UploadFile(ctx context.Context, key string, r io.Reader, contentType string) error {
  if !bs.Enabled() {
    return nil
  }
  w := bs.client.Bucket(bs.bucketName).Object(key).NewWriter(ctx)
  if contentType != "" {
    w.ContentType = contentType
  }
  if _, err := io.Copy(w, r); err != nil {
    w.Close()
    return fmt.Errorf("Failed to write object %q: %w", key, err)
  }
  if err := w.Close(); err != nil {
    return fmt.Errorf("Failed to finalize object %q: %w", key, err)
  }
  return nil
}

func (bs *bucketService) Archive(ctx context.Context, key string, data []byte, contentType string) error {
  return bs.UploadFile(ctx, key, bytes.NewReader(data), contentType)
}

func (bs *bucketService) GetPublicURL(key string) string {
  if !bs.Enabled() {
    return ""
  }
  return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucketName, key)
}
