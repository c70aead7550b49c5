package release

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader publishes finished archives to an S3-compatible bucket
// (configured via ~/.drelease.conf or DRELEASE_* environment variables).
type Uploader struct {
	Client     *s3.Client
	BucketName string
}

// NewUploader builds a client from the merged configuration values.
func NewUploader(values map[string]string) (*Uploader, error) {
	endpoint := values["DRELEASE_S3_ENDPOINT"]
	accessKey := values["DRELEASE_S3_ACCESS_KEY"]
	secretKey := values["DRELEASE_S3_SECRET_KEY"]
	bucketName := values["DRELEASE_S3_BUCKET"]

	if endpoint == "" || accessKey == "" || secretKey == "" || bucketName == "" {
		return nil, failf("upload credentials missing in configuration (DRELEASE_S3_ENDPOINT, DRELEASE_S3_ACCESS_KEY, DRELEASE_S3_SECRET_KEY, DRELEASE_S3_BUCKET)")
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: endpoint}, nil
	})

	options := []func(*config.LoadOptions) error{
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		config.WithRegion("auto"),
	}
	if Debug {
		options = append(options, config.WithClientLogMode(aws.LogRequest|aws.LogResponse|aws.LogRetries))
	}

	awsCfg, err := config.LoadDefaultConfig(context.TODO(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load upload config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &Uploader{Client: client, BucketName: bucketName}, nil
}

// UploadFile streams a local file to the bucket under key.
func (u *Uploader) UploadFile(ctx context.Context, key, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return err
	}

	contentType := "application/octet-stream"
	switch {
	case strings.HasSuffix(key, ".zip"):
		contentType = "application/zip"
	case strings.HasSuffix(key, ".tar.xz"):
		contentType = "application/x-xz"
	case strings.HasSuffix(key, ".b3sum"):
		contentType = "text/plain"
	}

	_, err = u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.BucketName),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(stat.Size()),
		ContentType:   aws.String(contentType),
	})
	return err
}

// uploadRelease pushes the archive plus its checksum sidecar under a
// tag-scoped prefix.
func uploadRelease(ctx context.Context, values map[string]string, tag string, files ...string) error {
	up, err := NewUploader(values)
	if err != nil {
		return err
	}
	for _, f := range files {
		key := path.Join(tag, filepath.Base(f))
		infof("Uploading %s", key)
		if err := up.UploadFile(ctx, key, f); err != nil {
			return failf("upload of %s failed: %v", key, err)
		}
	}
	return nil
}
