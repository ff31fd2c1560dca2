package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/spf13/viper"
)

const minMultipartSize = 12 << 20

// S3 stores media files in an S3 bucket
type S3 struct {
	C      *s3.Client
	Bucket *string
}

func NewS3() (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			viper.GetString("aws.access_key"),
			viper.GetString("aws.secret_access_key"),
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(viper.GetString("aws.bucket"))

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.Region = viper.GetString("aws.region")
	})

	_, err = client.HeadBucket(context.TODO(), &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", viper.GetString("aws.bucket"))
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &S3{
		C:      client,
		Bucket: bucket,
	}, nil
}

func (c *S3) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:       c.Bucket,
		Key:          aws.String(name),
		Body:         r,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	}

	var err error
	if size > minMultipartSize {
		u := manager.NewUploader(c.C, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})
		_, err = u.Upload(ctx, input)
	} else {
		input.ContentLength = aws.Int64(size)
		_, err = c.C.PutObject(ctx, input)
	}
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3, %w", err)
	}

	return name, nil
}

func (c *S3) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	out, err := c.C.GetObject(ctx, &s3.GetObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(locator),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch object from S3, %w", err)
	}

	return out.Body, nil
}

func (c *S3) Remove(ctx context.Context, locator string) error {
	_, err := c.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(locator),
	})
	return err
}

func (c *S3) Exists(ctx context.Context, name string) (bool, error) {
	_, err := c.C.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(name),
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return false, nil
			}
		}

		return false, err
	}

	return true, nil
}
