package xblob

import (
	"context"
	"fmt"

	"gocloud.dev/blob"

	"github.com/omeyang/xkyc/pkg/resilience/xfault"
	"github.com/omeyang/xkyc/pkg/resilience/xretry"
)

// Store 经过重试调度的对象存储，并发安全。
type Store struct {
	bucket  *blob.Bucket
	retryer *xretry.Retryer
	retry   xretry.Config
	owned   bool
}

// Option 定义 Store 的配置选项。
type Option func(*Store)

// WithRetryer 设置 Retryer，默认为 xretry.NewRetryer()。
func WithRetryer(r *xretry.Retryer) Option {
	return func(s *Store) {
		if r != nil {
			s.retryer = r
		}
	}
}

// WithRetryConfig 设置重试配置。Service 为空或 generic 时使用 ServiceObjectStore。
func WithRetryConfig(cfg xretry.Config) Option {
	return func(s *Store) {
		if cfg.Service == "" || cfg.Service == xfault.ServiceGeneric {
			cfg.Service = xfault.ServiceObjectStore
		}
		s.retry = cfg
	}
}

// New 使用已打开的 bucket 创建 Store。Close 不会关闭 bucket。
func New(bucket *blob.Bucket, opts ...Option) (*Store, error) {
	if bucket == nil {
		return nil, ErrNilBucket
	}
	retry := xretry.DefaultConfig()
	retry.Service = xfault.ServiceObjectStore
	s := &Store{
		bucket:  bucket,
		retryer: xretry.NewRetryer(),
		retry:   retry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open 按 URL 打开 bucket 并创建 Store。Close 会关闭 bucket。
func Open(ctx context.Context, url string, opts ...Option) (*Store, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("xblob: open bucket: %w", err)
	}
	s, err := New(bucket, opts...)
	if err != nil {
		return nil, err
	}
	s.owned = true
	return s, nil
}

// Put 写入对象。contentType 为空时由驱动推断。
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return ErrEmptyKey
	}
	var opts *blob.WriterOptions
	if contentType != "" {
		opts = &blob.WriterOptions{ContentType: contentType}
	}
	return s.retryer.Do(ctx, "blob.put", s.retry, func(ctx context.Context) error {
		return wrapError(s.bucket.WriteAll(ctx, key, data, opts))
	})
}

// Get 读取对象。对象不存在时不重试，IsNotFound(err) 为 true。
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	out, err := xretry.Execute(ctx, s.retryer, "blob.get", s.retry, func(ctx context.Context) ([]byte, error) {
		data, err := s.bucket.ReadAll(ctx, key)
		return data, wrapError(err)
	})
	return out.Result, err
}

// Exists 报告对象是否存在。
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	out, err := xretry.Execute(ctx, s.retryer, "blob.exists", s.retry, func(ctx context.Context) (bool, error) {
		ok, err := s.bucket.Exists(ctx, key)
		return ok, wrapError(err)
	})
	return out.Result, err
}

// Delete 删除对象。对象不存在时返回 nil。
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.retryer.Do(ctx, "blob.delete", s.retry, func(ctx context.Context) error {
		err := s.bucket.Delete(ctx, key)
		if IsNotFound(err) {
			return nil
		}
		return wrapError(err)
	})
}

// Close 关闭由 Open 打开的 bucket。
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.bucket.Close()
}
