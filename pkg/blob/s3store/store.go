// Package s3store is an alternate blob.Store backend addressing bodies
// as S3 objects, keyed by the opaque identifier under a configured
// bucket/prefix. The two-character shard scheme is preserved in the
// object key for parity with the fs backend and to keep listings
// browsable in an S3 console, even though S3 itself needs no directory
// sharding for performance.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/fileshare/fileshared/pkg/blob"
)

type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// Config configures the S3 backend.
type Config struct {
	Bucket string
	Prefix string
	Region string
}

// Open loads AWS credentials from the default chain (environment,
// shared config, instance role) and returns a ready Store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}
	return &Store{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (s *Store) key(id string) string {
	shard := id
	if len(id) >= 2 {
		shard = id[:2]
	}
	if s.prefix == "" {
		return shard + "/" + id
	}
	return s.prefix + "/" + shard + "/" + id
}

func (s *Store) Write(ctx context.Context, id string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
		Body:   bytes.NewReader(data),
	})
	return err
}

func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, blob.ErrNotFound
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	exists, err := s.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return blob.ErrNotFound
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	return err
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) Close() error {
	return nil
}

var _ blob.Store = (*Store)(nil)
