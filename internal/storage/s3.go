package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/edi-gateway/internal/config"
	"github.com/ignite/edi-gateway/internal/pkg/logger"
)

// S3Store persists EDI files in S3 under date-partitioned keys:
// {inbound_prefix}{yyyy/MM/dd}/{retailer}/{correlationId}.edi
type S3Store struct {
	client          *s3.Client
	bucket          string
	inboundPrefix   string
	processedPrefix string
}

// NewS3Store creates an S3-backed store from the gateway config.
func NewS3Store(ctx context.Context, cfg config.S3Config) (*S3Store, error) {
	var awsCfg aws.Config
	var err error

	if cfg.Profile != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithSharedConfigProfile(cfg.Profile),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3Store{
		client:          s3.NewFromConfig(awsCfg),
		bucket:          cfg.Bucket,
		inboundPrefix:   cfg.InboundPrefix,
		processedPrefix: cfg.ProcessedPrefix,
	}, nil
}

func (s *S3Store) StoreInbound(ctx context.Context, correlationID, retailerID, content string) (string, error) {
	key := fmt.Sprintf("%s%s/%s/%s.edi",
		s.inboundPrefix,
		time.Now().UTC().Format("2006/01/02"),
		strings.ToLower(retailerID),
		correlationID,
	)

	body := []byte(content)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/edi-x12"),
		ContentLength: aws.Int64(int64(len(body))),
		Tagging:       aws.String("retailer=" + strings.ToLower(retailerID) + "&platform=edi-gateway"),
	})
	if err != nil {
		return "", fmt.Errorf("putting inbound object %s: %w", key, err)
	}

	logger.Info("stored inbound EDI file", "bucket", s.bucket, "key", key)
	return key, nil
}

func (s *S3Store) ArchiveProcessed(ctx context.Context, key, correlationID string) (string, error) {
	archiveKey := strings.Replace(key, s.inboundPrefix, s.processedPrefix, 1)

	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		CopySource: aws.String(s.bucket + "/" + key),
		Key:        aws.String(archiveKey),
	})
	if err != nil {
		return "", fmt.Errorf("archiving object %s: %w", key, err)
	}

	logger.Info("archived processed EDI file",
		"bucket", s.bucket, "key", archiveKey, "correlation_id", correlationID)
	return archiveKey, nil
}

func (s *S3Store) RetrieveContent(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("getting object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("reading object %s: %w", key, err)
	}
	return string(data), nil
}
