package routesrc

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/navroute/internal/errors"
)

type fakeS3 struct {
	objects map[string]string
	gets    []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.gets = append(f.gets, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, stderrors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri    string
		bucket string
		key    string
		ok     bool
	}{
		{"s3://b/routes.yaml", "b", "routes.yaml", true},
		{"s3://b/apps/shop/routes.json", "b", "apps/shop/routes.json", true},
		{"s3://b", "", "", false},
		{"s3:///key", "", "", false},
		{"routes.yaml", "", "", false},
	}

	for _, tt := range tests {
		bucket, key, ok := ParseS3URI(tt.uri)
		if bucket != tt.bucket || key != tt.key || ok != tt.ok {
			t.Errorf("ParseS3URI(%q) = %q, %q, %v; want %q, %q, %v",
				tt.uri, bucket, key, ok, tt.bucket, tt.key, tt.ok)
		}
	}
}

func TestLoadFromS3(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{
		"cfg/routes.json": `{"mode":"path","routes":[{"pattern":"/"},{"pattern":"/a/:id"}]}`,
		"cfg/routes.yaml": "routes:\n  - /\n  - /b\n",
	}}
	src := New(WithS3(fake))

	cfg, err := src.Load(context.Background(), "s3://cfg/routes.json")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Mode != "path" || len(cfg.Routes) != 2 {
		t.Errorf("cfg = %+v", cfg)
	}

	cfg, err = src.Load(context.Background(), "s3://cfg/routes.yaml")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Routes) != 2 || cfg.Routes[1].Pattern != "/b" {
		t.Errorf("cfg = %+v", cfg)
	}

	if len(fake.gets) != 2 {
		t.Errorf("GetObject called %d times, want 2", len(fake.gets))
	}
}

func TestFetchErrors(t *testing.T) {
	big := strings.Repeat("x", MaxSize+1)
	fake := &fakeS3{objects: map[string]string{"b/big.yaml": big}}

	tests := []struct {
		name     string
		src      *Source
		location string
	}{
		{"missing object", New(WithS3(fake)), "s3://b/missing.yaml"},
		{"too large", New(WithS3(fake)), "s3://b/big.yaml"},
		{"bad uri", New(WithS3(fake)), "s3://b"},
		{"s3 disabled", New(), "s3://b/routes.yaml"},
		{"missing file", New(), filepath.Join(t.TempDir(), "none.yaml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.src.Fetch(context.Background(), tt.location)
			var ne *errors.NavError
			if !stderrors.As(err, &ne) || ne.Code != "N004" {
				t.Errorf("Fetch() error = %v, want N004", err)
			}
		})
	}
}

func TestLoadLocalKeepsSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	if err := os.WriteFile(path, []byte("routes:\n  - /\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := New().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source() != path {
		t.Errorf("Source() = %q, want %q", cfg.Source(), path)
	}
}

func TestNewS3ClientFromEnv(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_ENDPOINT_URL_S3", "http://localhost:9000")

	client := NewS3ClientFromEnv()
	opts := client.Options()
	if opts.Region != "eu-west-1" {
		t.Errorf("Region = %q", opts.Region)
	}
	if aws.ToString(opts.BaseEndpoint) != "http://localhost:9000" || !opts.UsePathStyle {
		t.Errorf("endpoint = %q, path style = %v", aws.ToString(opts.BaseEndpoint), opts.UsePathStyle)
	}
}
