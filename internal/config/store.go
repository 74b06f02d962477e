package config

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/sliderbind/internal/errors"
	"github.com/vango-dev/sliderbind/pkg/snapshot"
)

// SnapshotStore opens the configured store. It returns nil, nil when
// snapshots are disabled.
func (c *Config) SnapshotStore() (snapshot.Store, error) {
	switch c.Snapshot.Kind {
	case SnapshotNone:
		return nil, nil
	case SnapshotMemory:
		return snapshot.NewMemoryStore(), nil
	case SnapshotDisk:
		store, err := snapshot.NewDiskStore(c.SnapshotDir())
		if err != nil {
			return nil, errors.New("SB500").WithField("snapshot.dir").Wrap(err)
		}
		return store, nil
	case SnapshotS3:
		if c.Snapshot.Bucket == "" {
			return nil, errors.New("SB500").WithField("snapshot.bucket").
				WithDetail("An s3 snapshot store needs a bucket")
		}
		return snapshot.NewS3Store(c.S3Client(), c.Snapshot.Bucket, c.Snapshot.Prefix), nil
	default:
		return nil, errors.New("SB501").WithField(c.Snapshot.Kind)
	}
}

// S3Client builds an S3 client from the snapshot settings. Credentials come
// from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN; the
// region falls back to AWS_REGION.
func (c *Config) S3Client() *s3.Client {
	region := c.Snapshot.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	opts := s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(envCredentials{}),
	}
	if c.Snapshot.Endpoint != "" {
		opts.BaseEndpoint = aws.String(c.Snapshot.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

type envCredentials struct{}

func (envCredentials) Retrieve(context.Context) (aws.Credentials, error) {
	creds := aws.Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "environment",
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return aws.Credentials{}, errors.New("SB500").
			WithDetail("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set for the s3 snapshot store")
	}
	return creds, nil
}
