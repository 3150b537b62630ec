package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Uploader copies written output files to a bucket.
type S3Uploader struct {
	client     *s3.Client
	bucketName string
	region     string
	prefix     string
}

// NewS3Uploader loads the default AWS credential chain. An empty region keeps
// the region from the shared config.
func NewS3Uploader(ctx context.Context, bucket, region, prefix string) (*S3Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3: load AWS config: %w", err)
	}
	if region != "" {
		cfg.Region = region
	}

	return &S3Uploader{
		client:     s3.NewFromConfig(cfg),
		bucketName: bucket,
		region:     cfg.Region,
		prefix:     prefix,
	}, nil
}

// UploadFile uploads the file at localPath under prefix+key and returns the
// object's public URL.
func (u *S3Uploader) UploadFile(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("s3: open %q: %w", localPath, err)
	}
	defer f.Close()

	fullKey := ObjectKey(u.prefix, key)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucketName),
		Key:         aws.String(fullKey),
		Body:        f,
		ContentType: aws.String(ContentType(localPath)),
		Metadata: map[string]string{
			"uploaded-by": "dogfriendly-scraper",
			"upload-time": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("s3: put %q: %w", fullKey, err)
	}

	return PublicURL(u.bucketName, u.region, fullKey), nil
}

// ObjectKey joins prefix and key without leading or doubled slashes.
func ObjectKey(prefix, key string) string {
	joined := path.Join(strings.Trim(prefix, "/"), strings.TrimLeft(key, "/"))
	return strings.TrimPrefix(joined, "/")
}

// PublicURL is the virtual-hosted style URL of an object.
func PublicURL(bucket, region, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}

// ContentType guesses the MIME type of an output file from its extension.
func ContentType(localPath string) string {
	switch strings.ToLower(filepath.Ext(localPath)) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if t := mime.TypeByExtension(filepath.Ext(localPath)); t != "" {
		return t
	}
	return "application/octet-stream"
}
