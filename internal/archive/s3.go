package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Destination uploads case archives to an S3-compatible bucket. Every
// export lands under its own timestamped key so earlier archives survive,
// and the configured key is rewritten to always point at the newest one.
type S3Destination struct {
	client *s3.Client
	bucket string
	key    string
	now    func() time.Time
}

// NewS3Destination creates an S3 destination. If endpoint is non-empty,
// path-style addressing is enabled (for MinIO and similar).
func NewS3Destination(ctx context.Context, bucket, key, region, endpoint string) (*S3Destination, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Destination{
		client: s3.NewFromConfig(cfg, s3opts...),
		bucket: bucket,
		key:    key,
		now:    time.Now,
	}, nil
}

// Write uploads the archive twice: once under a timestamped key and once
// under the configured key.
func (d *S3Destination) Write(ctx context.Context, data []byte) error {
	for _, key := range []string{stampedKey(d.key, d.now().UTC()), d.key} {
		if err := d.put(ctx, key, data); err != nil {
			return fmt.Errorf("s3 put %s: %w", key, err)
		}
	}
	return nil
}

func (d *S3Destination) put(ctx context.Context, key string, data []byte) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/x-ndjson"),
		Metadata: map[string]string{
			"ringview-case-count": strconv.Itoa(archivedCases(data)),
		},
	})
	return err
}

// stampedKey splices a UTC timestamp in front of the key's extension:
// cases/ring.jsonl becomes cases/ring-20260823T101500Z.jsonl.
func stampedKey(key string, t time.Time) string {
	ext := path.Ext(key)
	return strings.TrimSuffix(key, ext) + "-" + t.Format("20060102T150405Z") + ext
}

// archivedCases counts the case records in a JSONL archive: every line
// after the header.
func archivedCases(data []byte) int {
	trimmed := bytes.TrimRight(data, "\n")
	if len(trimmed) == 0 {
		return 0
	}
	return bytes.Count(trimmed, []byte{'\n'})
}
