// Package remote lists photos kept in an S3 bucket and serves them through presigned urls
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aouyang1/albumflow/album"
	"github.com/aouyang1/albumflow/util"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	mapset "github.com/deckarep/golang-set/v2"
)

const DefaultPresignTTL = time.Hour

type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type Source struct {
	lister    s3.ListObjectsV2APIClient
	presigner Presigner

	bucket string
	prefix string
	ttl    time.Duration
}

type Options struct {
	Profile    string
	Bucket     string
	Prefix     string
	PresignTTL time.Duration
}

// NewSource loads the shared AWS configuration, optionally for a named profile.
func NewSource(ctx context.Context, opts Options) (*Source, error) {
	if opts.Bucket == "" {
		return nil, errors.New("no s3 bucket provided for remote source")
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	ctxCfg, cancelCfg := context.WithTimeout(ctx, 3*time.Second)
	cfg, err := config.LoadDefaultConfig(ctxCfg, loadOpts...)
	cancelCfg()
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return NewSourceWithClients(client, s3.NewPresignClient(client), opts), nil
}

func NewSourceWithClients(lister s3.ListObjectsV2APIClient, presigner Presigner, opts Options) *Source {
	ttl := opts.PresignTTL
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	return &Source{
		lister:    lister,
		presigner: presigner,
		bucket:    opts.Bucket,
		prefix:    opts.Prefix,
		ttl:       ttl,
	}
}

// Photos lists every supported image under the prefix in key order. The urls expire after the
// presign ttl.
func (s *Source) Photos(ctx context.Context) ([]album.Photo, error) {
	keys, err := s.imageKeys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("bucket %s/%s: %w", s.bucket, s.prefix, album.ErrNoPhotosFound)
	}

	photos := make([]album.Photo, 0, len(keys))
	for _, key := range keys {
		req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(s.ttl))
		if err != nil {
			return nil, fmt.Errorf("presign %s: %w", key, err)
		}
		photos = append(photos, album.Photo{
			ID:  fmt.Sprintf("s3-%d", len(photos)),
			URL: req.URL,
		})
	}

	slog.Info("listed remote photos", "bucket", s.bucket, "prefix", s.prefix, "count", len(photos))
	return photos, nil
}

func (s *Source) imageKeys(ctx context.Context) ([]string, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix)
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.lister, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3 objects: %w", err)
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if !util.IsSupportedImage(key) || !seen.Add(key) {
				continue
			}
			keys = append(keys, key)
		}
	}
	return keys, nil
}
