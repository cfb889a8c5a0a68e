package storage

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/vitordossantos/NUCoffea/internal/config"
)

// S3Lister lists inputs through an S3-compatible gateway in front of EOS.
// EOS paths map to object keys by stripping the configured prefix, and keys
// map back the same way, so the paths written to inputfiles.dat stay EOS paths.
type S3Lister struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3Lister creates an S3Lister from cfg.
func NewS3Lister(cfg config.S3Config) (*S3Lister, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("storage.s3.endpoint is not set")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage.s3.bucket is not set")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &S3Lister{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// keyPrefix converts an EOS directory into the object key prefix listed.
func (s *S3Lister) keyPrefix(dir string) string {
	key := strings.TrimPrefix(dir, s.prefix)
	key = strings.TrimPrefix(key, "/")
	if key != "" && !strings.HasSuffix(key, "/") {
		key += "/"
	}
	return key
}

// eosPath converts an object key back into its EOS path.
func (s *S3Lister) eosPath(key string) string {
	if s.prefix == "" {
		return "/" + key
	}
	return path.Join(s.prefix, key)
}

// List implements Lister. Only the direct children of dir are returned;
// sub-prefixes show up as entries the same way sub-directories do locally.
func (s *S3Lister) List(ctx context.Context, dir string) ([]string, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    s.keyPrefix(dir),
		Recursive: false,
	}

	var paths []string
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			errResp := minio.ToErrorResponse(obj.Err)
			if errResp.Code == "NoSuchBucket" {
				return nil, &ListError{Backend: "s3", Dir: dir, Err: ErrDirNotFound}
			}
			return nil, &ListError{Backend: "s3", Dir: dir, Err: obj.Err}
		}
		paths = append(paths, s.eosPath(strings.TrimSuffix(obj.Key, "/")))
	}
	// Object stores have no empty directories: no keys means no directory.
	if len(paths) == 0 {
		return nil, &ListError{Backend: "s3", Dir: dir, Err: ErrDirNotFound}
	}
	sort.Strings(paths)
	return paths, nil
}

var _ Lister = (*S3Lister)(nil)
