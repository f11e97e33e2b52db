package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"jasper-go/internal/jasper"
)

// objectUploader is the part of manager.Uploader S3Transport uses.
type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// bucketHeader is the part of s3.Client used to validate the setup.
type bucketHeader interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Options configures an S3Transport.
type S3Options struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string // for S3-compatible stores; enables path-style addressing
	Gateway  string

	// Static credentials. When empty the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

// S3Transport stores uploads as objects keyed by content address. Archival
// tags become object metadata.
type S3Transport struct {
	name     string
	opts     S3Options
	uploader objectUploader
	client   bucketHeader
}

// NewS3Transport builds an S3 client from opts.
func NewS3Transport(ctx context.Context, name string, opts S3Options) (*S3Transport, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 transport requires a bucket")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Transport(name, opts, manager.NewUploader(client), client), nil
}

func newS3Transport(name string, opts S3Options, uploader objectUploader, client bucketHeader) *S3Transport {
	return &S3Transport{name: name, opts: opts, uploader: uploader, client: client}
}

func (t *S3Transport) Name() string { return t.name }

func (t *S3Transport) key(address string) string {
	return path.Join(t.opts.Prefix, address)
}

// Upload puts the payload at <prefix>/<address>.
func (t *S3Transport) Upload(ctx context.Context, r io.Reader, size int64, tags map[string]string) (*jasper.UploadResult, error) {
	data, err := readPayload(r, size)
	if err != nil {
		return nil, err
	}
	addr := Address(data)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(t.opts.Bucket),
		Key:           aws.String(t.key(addr)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(size),
		Metadata:      objectMetadata(tags),
	}
	if ct := tags[jasper.TagContentType]; ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := t.uploader.Upload(ctx, input); err != nil {
		return nil, fmt.Errorf("uploading to s3://%s/%s: %w", t.opts.Bucket, t.key(addr), err)
	}
	return &jasper.UploadResult{Address: addr, Size: size}, nil
}

// objectMetadata lowercases keys and escapes values, since S3 metadata
// travels in HTTP headers.
func objectMetadata(tags map[string]string) map[string]string {
	md := make(map[string]string, len(tags))
	for k, v := range tags {
		md[strings.ToLower(k)] = url.QueryEscape(v)
	}
	return md
}

// Link returns the gateway URL, or the virtual-hosted S3 URL of the object.
func (t *S3Transport) Link(address string) string {
	if t.opts.Gateway != "" {
		return gatewayLink(t.opts.Gateway, address)
	}
	if t.opts.Endpoint != "" {
		return gatewayLink(t.opts.Endpoint, path.Join(t.opts.Bucket, t.key(address)))
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", t.opts.Bucket, t.key(address))
}

// ValidateSetup checks that the bucket exists and is reachable.
func (t *S3Transport) ValidateSetup(ctx context.Context) error {
	if _, err := t.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(t.opts.Bucket)}); err != nil {
		return fmt.Errorf("s3 bucket %s not accessible: %w", t.opts.Bucket, err)
	}
	return nil
}

var _ jasper.Transport = (*S3Transport)(nil)
