// Package routesrc fetches route files from the local disk or from S3.
//
//	src := routesrc.New(routesrc.WithS3(routesrc.NewS3ClientFromEnv()))
//	cfg, err := src.Load(ctx, "s3://my-bucket/apps/shop/routes.yaml")
package routesrc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/navroute/internal/config"
	"github.com/vango-dev/navroute/internal/errors"
)

// S3Scheme prefixes object locations.
const S3Scheme = "s3://"

// MaxSize caps the size of a fetched route file.
const MaxSize = 1 << 20

// ObjectGetter is the part of *s3.Client a Source needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Source loads route files.
type Source struct {
	s3     ObjectGetter
	logger *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithS3 enables s3:// locations.
func WithS3(client ObjectGetter) Option {
	return func(s *Source) {
		s.s3 = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// New creates a Source. Without WithS3 only local paths are accepted.
func New(opts ...Option) *Source {
	s := &Source{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseS3URI splits "s3://bucket/key". ok is false for anything else.
func ParseS3URI(uri string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(uri, S3Scheme)
	if !found {
		return "", "", false
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// Fetch returns the raw contents of location.
func (s *Source) Fetch(ctx context.Context, location string) ([]byte, error) {
	if !strings.HasPrefix(location, S3Scheme) {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, errors.New("N004").Wrap(err)
		}
		return data, nil
	}

	bucket, key, ok := ParseS3URI(location)
	if !ok {
		return nil, errors.New("N004").
			WithDetail(fmt.Sprintf("%q is not a valid object location.", location)).
			WithSuggestion("Use s3://bucket/key")
	}
	if s.s3 == nil {
		return nil, errors.New("N004").
			WithDetail("S3 locations are not enabled.")
	}

	s.logger.Debug("fetching route file", "bucket", bucket, "key", key)
	out, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New("N004").Wrap(fmt.Errorf("s3 get %s/%s: %w", bucket, key, err))
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, MaxSize+1))
	if err != nil {
		return nil, errors.New("N004").Wrap(err)
	}
	if len(data) > MaxSize {
		return nil, errors.New("N004").
			WithDetail(fmt.Sprintf("%s is larger than %d bytes.", location, MaxSize))
	}
	return data, nil
}

// Load fetches and parses a route file. Local files keep their path so
// validation errors can point into them.
func (s *Source) Load(ctx context.Context, location string) (*config.Config, error) {
	if !strings.HasPrefix(location, S3Scheme) {
		return config.Load(location)
	}

	data, err := s.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	return config.Parse(data, config.FormatForPath(location))
}

// NewS3ClientFromEnv builds an S3 client from AWS_REGION,
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_SESSION_TOKEN and the
// optional AWS_ENDPOINT_URL_S3 (for S3-compatible stores). Without an access
// key, requests are anonymous.
func NewS3ClientFromEnv() *s3.Client {
	opts := s3.Options{
		Region:      os.Getenv("AWS_REGION"),
		Credentials: aws.AnonymousCredentials{},
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}

	if os.Getenv("AWS_ACCESS_KEY_ID") != "" {
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
					SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
					SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
					Source:          "environment",
				}, nil
			}))
	}

	if endpoint := os.Getenv("AWS_ENDPOINT_URL_S3"); endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}

	return s3.New(opts)
}
