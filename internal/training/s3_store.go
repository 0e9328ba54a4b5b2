package training

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/joseph-ayodele/project-geotagger/internal/common"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3DatasetStore uploads dataset files so a cluster job can read them.
type S3DatasetStore struct {
	client objectPutter
	bucket string
	prefix string
}

func NewS3DatasetStore(client objectPutter, bucket, prefix string) *S3DatasetStore {
	return &S3DatasetStore{client: client, bucket: bucket, prefix: prefix}
}

// NewS3Client builds an S3 client from the default AWS credential chain.
// A custom endpoint switches to path style addressing for MinIO.
func NewS3Client(ctx context.Context, cfg common.StorageConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, opts...), nil
}

// Upload copies the local file to <prefix>/<runID>/<base name> and returns its s3:// URI.
func (s *S3DatasetStore) Upload(ctx context.Context, runID, localPath, contentType string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := path.Join(s.prefix, runID, filepath.Base(localPath))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"source": "project-geotagger",
			"run-id": runID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return s.URI(runID, filepath.Base(localPath)), nil
}

// URI returns the s3:// location of name under runID.
func (s *S3DatasetStore) URI(runID, name string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, path.Join(s.prefix, runID, name))
}
