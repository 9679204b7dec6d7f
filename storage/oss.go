package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/log"
	"github.com/pkg/errors"
)

// OSSBucket stores objects in an Aliyun OSS bucket.
type OSSBucket struct {
	bucket     *oss.Bucket
	endpoint   string
	name       string
	publicBase string
}

func NewOSSBucket(cfg config.OSSConfig) (*OSSBucket, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey)
	if err != nil {
		return nil, errors.Wrap(err, "storage.oss.new")
	}
	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "storage.oss.bucket")
	}

	if loc, err := client.GetBucketLocation(cfg.Bucket); err != nil {
		var se oss.ServiceError
		if !errors.As(err, &se) || se.StatusCode != 403 {
			return nil, errors.Wrap(err, "storage.oss.verify")
		}
		log.Warnf("storage.oss: cannot read location of bucket %s, continuing", cfg.Bucket)
	} else {
		log.Infof("storage.oss: bucket %s in %s", cfg.Bucket, loc)
	}

	return &OSSBucket{
		bucket:     bucket,
		endpoint:   cfg.Endpoint,
		name:       cfg.Bucket,
		publicBase: strings.TrimRight(cfg.PublicBase, "/"),
	}, nil
}

func (b *OSSBucket) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	err := b.bucket.PutObject(key, r,
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
		oss.ForbidOverWrite(true),
	)
	var se oss.ServiceError
	if errors.As(err, &se) && se.Code == "FileAlreadyExists" {
		return ErrExists
	}
	return errors.Wrap(err, "storage.oss.put")
}

func (b *OSSBucket) PublicURL(key string) string {
	if b.publicBase != "" {
		return b.publicBase + "/" + key
	}
	end := strings.TrimPrefix(strings.TrimPrefix(b.endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", b.name, end, key)
}

func (b *OSSBucket) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := b.bucket.DeleteObjects(keys, oss.WithContext(ctx), oss.DeleteObjectsQuiet(true))
	return errors.Wrap(err, "storage.oss.delete")
}
