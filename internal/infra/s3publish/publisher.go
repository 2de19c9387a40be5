// Package s3publish uploads run artifacts to an S3 bucket.
package s3publish

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/ports"
)

// ObjectPutter is the part of the S3 client the publisher needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Publisher struct {
	client ObjectPutter
	bucket string
	prefix string
	root   string
	log    *slog.Logger
}

type Option func(*Publisher)

func WithClient(c ObjectPutter) Option {
	return func(p *Publisher) { p.client = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.log = l
		}
	}
}

var _ ports.ArtifactPublisher = (*Publisher)(nil)

// New uploads to REPORT_BUCKET under REPORT_PREFIX. Object keys keep the
// file path relative to the report directory. Credentials and region come
// from the default AWS chain; AWS_ENDPOINT_URL selects an S3-compatible
// endpoint.
func New(ctx context.Context, cfg domain.Config, opts ...Option) (*Publisher, error) {
	if strings.TrimSpace(cfg.Reports.Bucket) == "" {
		return nil, &domain.OpError{Op: "s3publish.new", Kind: domain.KindInvalidConfig, Err: fmt.Errorf("REPORT_BUCKET is not set")}
	}
	p := &Publisher{
		bucket: cfg.Reports.Bucket,
		prefix: strings.Trim(cfg.Reports.Prefix, "/"),
		root:   cfg.Paths.Reports,
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, &domain.OpError{Op: "s3publish.config", Kind: domain.KindInvalidConfig, Err: fmt.Errorf("load aws config: %w", err)}
		}
		endpoint := os.Getenv("AWS_ENDPOINT_URL")
		p.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
				o.UsePathStyle = true
			}
		})
	}
	return p, nil
}

// Publish uploads files and returns their s3:// URIs.
func (p *Publisher) Publish(ctx context.Context, runID string, files []string) ([]string, error) {
	uris := make([]string, 0, len(files))
	for _, f := range files {
		key := p.Key(runID, f)
		if err := p.put(ctx, key, f); err != nil {
			return uris, err
		}
		uri := "s3://" + p.bucket + "/" + key
		p.log.Debug("artifact uploaded", "file", f, "uri", uri)
		uris = append(uris, uri)
	}
	p.log.Info("artifacts published", "bucket", p.bucket, "run", runID, "count", len(uris))
	return uris, nil
}

// Key returns the object key for file within run runID.
func (p *Publisher) Key(runID, file string) string {
	rel := filepath.Base(file)
	if p.root != "" {
		if r, err := filepath.Rel(p.root, file); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	return path.Join(p.prefix, runID, filepath.ToSlash(rel))
}

func (p *Publisher) put(ctx context.Context, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return &domain.OpError{Op: "s3publish.open", Kind: domain.KindExecution, Path: file, Err: err}
	}
	defer f.Close()

	ctype := mime.TypeByExtension(filepath.Ext(file))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(ctype),
	})
	if err != nil {
		return &domain.OpError{Op: "s3publish.put", Kind: domain.KindExecution, Path: key, Err: fmt.Errorf("s3 put object: %w", err)}
	}
	return nil
}
