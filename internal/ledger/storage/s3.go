package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/fhegame/internal/common"
)

const (
	s3ObjectPrefix = "ledger/"
	s3MetaVersion  = "version"
	s3MetaSigner   = "signer"
	s3MetaTxID     = "txid"
	s3PutAttempts  = 3
)

// S3Config points the backend at an S3 compatible bucket (MinIO in dev).
type S3Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
}

// s3API is the part of *s3.Client the backend uses.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
)

// S3 keeps one object per key under "ledger/". The version and signer live
// in object metadata and compare-and-set uses conditional PutObject
// (If-Match on the current ETag, If-None-Match "*" for new keys).
type S3 struct {
	api    s3API
	bucket string
}

func OpenS3(ctx context.Context, cfg S3Config) (*S3, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		o.UsePathStyle = true
	})
	return newS3(client, cfg.Bucket), nil
}

func newS3(api s3API, bucket string) *S3 {
	return &S3{api: api, bucket: bucket}
}

type s3Head struct {
	etag    string
	version uint64
}

func (s *S3) head(ctx context.Context, key string) (s3Head, error) {
	out, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3ObjectPrefix + key),
	})
	if isS3NotFound(err) {
		return s3Head{}, nil
	}
	if err != nil {
		return s3Head{}, err
	}
	v, err := parseS3Version(out.Metadata)
	if err != nil {
		return s3Head{}, err
	}
	return s3Head{etag: aws.ToString(out.ETag), version: v}, nil
}

func (s *S3) Get(ctx context.Context, key string) (Entry, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3ObjectPrefix + key),
	})
	if isS3NotFound(err) {
		return Entry{}, nil
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get entry[%s]: %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read entry[%s]: %w", key, err)
	}
	v, err := parseS3Version(out.Metadata)
	if err != nil {
		return Entry{}, fmt.Errorf("entry[%s]: %w", key, err)
	}
	return Entry{Value: body, Version: v}, nil
}

func (s *S3) Put(ctx context.Context, m Mutation) (uint64, error) {
	var lastErr error
	for range s3PutAttempts {
		h, err := s.head(ctx, m.Key)
		if err != nil {
			return 0, fmt.Errorf("failed to put entry[%s]: %w", m.Key, err)
		}
		err = s.conditionalPut(ctx, m, h)
		if err == nil {
			return h.version + 1, nil
		}
		if !errors.Is(err, common.ErrVersionConflict) {
			return 0, fmt.Errorf("failed to put entry[%s]: %w", m.Key, err)
		}
		lastErr = err
	}
	return 0, fmt.Errorf("failed to put entry[%s]: %w", m.Key, lastErr)
}

func (s *S3) PutIfVersion(ctx context.Context, m Mutation, expected uint64) (uint64, error) {
	h, err := s.head(ctx, m.Key)
	if err != nil {
		return 0, fmt.Errorf("failed to put entry[%s]: %w", m.Key, err)
	}
	if h.version != expected {
		return 0, common.ErrVersionConflict
	}
	if err := s.conditionalPut(ctx, m, h); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to put entry[%s]: %w", m.Key, err)
	}
	return expected + 1, nil
}

func (s *S3) conditionalPut(ctx context.Context, m Mutation, h s3Head) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3ObjectPrefix + m.Key),
		Body:   bytes.NewReader(m.Value),
		Metadata: map[string]string{
			s3MetaVersion: strconv.FormatUint(h.version+1, 10),
			s3MetaSigner:  m.Signer,
			s3MetaTxID:    m.TxID,
		},
	}
	if h.version == 0 {
		in.IfNoneMatch = aws.String("*")
	} else {
		in.IfMatch = aws.String(h.etag)
	}

	_, err := s.api.PutObject(ctx, in)
	if isS3PreconditionFailed(err) {
		return common.ErrVersionConflict
	}
	return err
}

func (s *S3) Ping(ctx context.Context) error {
	_, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

func (s *S3) Close() error { return nil }

func parseS3Version(meta map[string]string) (uint64, error) {
	raw, ok := meta[s3MetaVersion]
	if !ok {
		return 0, errors.New("object has no version metadata")
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad version metadata %q: %w", raw, err)
	}
	return v, nil
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

func isS3PreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}
