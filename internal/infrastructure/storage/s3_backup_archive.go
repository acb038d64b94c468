// Package storage keeps off-database copies of receipt backups in
// S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
	infraconfig "github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/config"
)

const archiveTimeLayout = "20060102T150405Z"

// S3BackupArchive writes each receipt backup as one JSON object.
// It works with any S3-compatible storage (AWS S3, MinIO, RustFS).
type S3BackupArchive struct {
	client *s3.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// S3BackupArchiveOption is a functional option for configuring S3BackupArchive
type S3BackupArchiveOption func(*S3BackupArchive)

// WithLogger sets a custom logger for S3BackupArchive
func WithLogger(logger *zap.Logger) S3BackupArchiveOption {
	return func(s *S3BackupArchive) {
		s.logger = logger
	}
}

// NewS3BackupArchive creates a new S3BackupArchive from configuration.
// Without static keys the default AWS credential chain is used.
func NewS3BackupArchive(ctx context.Context, cfg *infraconfig.StorageConfig, opts ...S3BackupArchiveOption) (*S3BackupArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		if cfg.AccessKey == "" || cfg.SecretKey == "" {
			return nil, errors.New("storage access key and secret key must be set together")
		}
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		// several S3-compatible servers reject the default trailing checksums
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
				endpoint = "https://" + endpoint
			}
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	archive := &S3BackupArchive{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(archive)
	}
	return archive, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during application startup.
func (s *S3BackupArchive) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating backup bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

type archivedBackup struct {
	ID               int64           `json:"id"`
	SqGuardaOriginal int64           `json:"sq_guarda_original"`
	SqGuardaSiac     *string         `json:"sq_guarda_siac"`
	CdLoja           string          `json:"cd_loja"`
	NuNota           string          `json:"nu_nota"`
	CdFornece        string          `json:"cd_fornece"`
	DeletedAt        time.Time       `json:"deleted_at"`
	DeletedReason    string          `json:"deleted_reason"`
	DeletedSource    string          `json:"deleted_source"`
	GuardaSnapshot   json.RawMessage `json:"guarda_snapshot"`
	ProdutosSnapshot json.RawMessage `json:"produtos_snapshot"`
}

// Archive uploads b to <prefix>/<legacy id>/<deleted at>.json
func (s *S3BackupArchive) Archive(ctx context.Context, b *guarda.ReceiptBackup) error {
	body, err := json.Marshal(archivedBackup{
		ID:               b.ID,
		SqGuardaOriginal: b.OriginalReceiptID,
		SqGuardaSiac:     b.LegacyID,
		CdLoja:           b.StoreCode,
		NuNota:           b.InvoiceNumber,
		CdFornece:        b.SupplierCode,
		DeletedAt:        b.DeletedAt,
		DeletedReason:    b.DeletedReason,
		DeletedSource:    b.DeletedSource,
		GuardaSnapshot:   b.ReceiptSnapshot,
		ProdutosSnapshot: b.LineItemsSnapshot,
	})
	if err != nil {
		return fmt.Errorf("encode backup %d: %w", b.ID, err)
	}

	key := s.Key(b)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload backup %s: %w", key, err)
	}

	s.logger.Debug("Backup archived", zap.String("bucket", s.bucket), zap.String("key", key))
	return nil
}

// Key returns the object key of a backup
func (s *S3BackupArchive) Key(b *guarda.ReceiptBackup) string {
	owner := "local-" + strconv.FormatInt(b.OriginalReceiptID, 10)
	if b.LegacyID != nil && *b.LegacyID != "" {
		owner = *b.LegacyID
	}
	return path.Join(s.prefix, owner, b.DeletedAt.UTC().Format(archiveTimeLayout)+".json")
}

// GetBucket returns the bucket name
func (s *S3BackupArchive) GetBucket() string {
	return s.bucket
}

var _ guarda.BackupArchive = (*S3BackupArchive)(nil)
