package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/jbm9/baycat/pkg/logging"
)

// listMax is the page size requested for ListObjectsV2 calls, matching the
// value distribution's s3-aws storage driver uses.
const listMax = 1000

// S3Client implements Client against a real S3-compatible bucket via
// github.com/aws/aws-sdk-go. Credentials are resolved by the SDK's default
// provider chain (environment, shared config, instance role); baycat itself
// never handles credentials directly (spec §1, out of scope).
type S3Client struct {
	bucket string
	s3     *s3.S3
	logger *logging.Logger
}

// NewS3Client constructs an S3Client for bucket using sess, an
// already-configured *session.Session (region, credentials, and endpoint
// resolution are the caller's concern).
func NewS3Client(sess *session.Session, bucket string, logger *logging.Logger) *S3Client {
	if logger == nil {
		logger = logging.RootLogger
	}
	return &S3Client{
		bucket: bucket,
		s3:     s3.New(sess),
		logger: logger,
	}
}

// Bucket implements Client.Bucket.
func (c *S3Client) Bucket() string { return c.bucket }

// Upload implements Client.Upload.
func (c *S3Client) Upload(ctx context.Context, key, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("unable to open file for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("unable to stat file for upload: %w", err)
	}

	return c.UploadReader(ctx, key, f, info.Size())
}

// UploadReader implements Client.UploadReader.
func (c *S3Client) UploadReader(ctx context.Context, key string, r io.Reader, size int64) error {
	readSeeker, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("unable to buffer upload content: %w", err)
		}
		readSeeker = aws.ReadSeekCloser(strings.NewReader(string(data)))
	}

	_, err := c.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          readSeeker,
		ContentLength: aws.Int64(size),
	})
	return parseS3Error(key, err)
}

// Download implements Client.Download.
func (c *S3Client) Download(ctx context.Context, key, localPath string) error {
	resp, err := c.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return parseS3Error(key, err)
	}
	defer resp.Body.Close()

	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("unable to create local file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("unable to write downloaded content: %w", err)
	}
	return nil
}

// List implements Client.List, paginating via ContinuationToken exactly as
// distribution's s3-aws storage driver does.
func (c *S3Client) List(ctx context.Context, prefix, continuationToken string) (ListPage, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(c.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(listMax),
	}
	if continuationToken != "" {
		input.ContinuationToken = aws.String(continuationToken)
	}

	resp, err := c.s3.ListObjectsV2WithContext(ctx, input)
	if err != nil {
		return ListPage{}, parseS3Error(prefix, err)
	}

	page := ListPage{}
	for _, obj := range resp.Contents {
		page.Objects = append(page.Objects, Object{
			Key:              aws.StringValue(obj.Key),
			ETag:             strings.Trim(aws.StringValue(obj.ETag), `"`),
			Size:             aws.Int64Value(obj.Size),
			LastModifiedUnix: obj.LastModified.Unix(),
		})
	}
	if resp.IsTruncated != nil && *resp.IsTruncated {
		page.IsTruncated = true
		page.NextContinuationToken = aws.StringValue(resp.NextContinuationToken)
	}
	return page, nil
}

// Remove implements Client.Remove. Deletion from the object store is
// explicitly unsupported (spec §4.6, §9 Open Question 2): it logs a warning
// and returns nil rather than making a delete call, so enable_delete's
// idempotence contract still holds (a re-run simply finds the key listed
// again and leaves it alone).
func (c *S3Client) Remove(_ context.Context, key string) error {
	c.logger.Warnf("object-store deletion is unsupported; leaving %s in place", key)
	return nil
}

// parseS3Error translates a "NoSuchKey" AWS error into *NotFoundError so
// that callers can distinguish "missing" from other failures without
// depending on the AWS SDK's error types.
func parseS3Error(key string, err error) error {
	if err == nil {
		return nil
	}
	if awsErr, ok := err.(awserr.Error); ok {
		switch awsErr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return &NotFoundError{Key: key}
		}
	}
	return err
}
