package xmongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/omeyang/xkyc/pkg/resilience/xfault"
	"github.com/omeyang/xkyc/pkg/resilience/xretry"
)

// DefaultOpTimeout 默认单次操作兜底超时。
const DefaultOpTimeout = 30 * time.Second

// collection 是 *mongo.Collection 中 Store 用到的部分。
type collection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	ReplaceOne(ctx context.Context, filter any, replacement any, opts ...options.Lister[options.ReplaceOptions]) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	Name() string
}

// Store 经过重试调度的集合操作，并发安全。
type Store struct {
	coll      collection
	retryer   *xretry.Retryer
	retry     xretry.Config
	opTimeout time.Duration
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

// WithRetryConfig 设置重试配置。Service 为空或 generic 时使用 ServiceDocumentDB。
func WithRetryConfig(cfg xretry.Config) Option {
	return func(s *Store) {
		if cfg.Service == "" || cfg.Service == xfault.ServiceGeneric {
			cfg.Service = xfault.ServiceDocumentDB
		}
		s.retry = cfg
	}
}

// WithOpTimeout 设置单次操作兜底超时，<=0 表示不设兜底。
func WithOpTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.opTimeout = d
	}
}

// New 创建 Store。
func New(coll *mongo.Collection, opts ...Option) (*Store, error) {
	if coll == nil {
		return nil, ErrNilCollection
	}
	return newStore(coll, opts...), nil
}

func newStore(coll collection, opts ...Option) *Store {
	retry := xretry.DefaultConfig()
	retry.Service = xfault.ServiceDocumentDB
	s := &Store{
		coll:      coll,
		retryer:   xretry.NewRetryer(),
		retry:     retry,
		opTimeout: DefaultOpTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// withTimeout 仅在 ctx 没有 deadline 时附加兜底超时。
func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *Store) operation(op string) string {
	return "mongo." + s.coll.Name() + "." + op
}

// InsertOne 插入一个文档，返回 InsertedID。
//
// 重试时同一文档可能被重复提交；文档带有 _id 时重复插入会得到 DuplicateKey，不会写入两份。
func (s *Store) InsertOne(ctx context.Context, doc any) (any, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	out, err := xretry.Execute(ctx, s.retryer, s.operation("insert"), s.retry, func(ctx context.Context) (any, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		res, err := s.coll.InsertOne(ctx, doc)
		if err != nil {
			return nil, wrapError(err)
		}
		return res.InsertedID, nil
	})
	return out.Result, err
}

// ReplaceResult ReplaceOne 的结果。
type ReplaceResult struct {
	Matched    int64
	Modified   int64
	UpsertedID any
}

// ReplaceOne 替换匹配 filter 的第一个文档。upsert 为 true 时不存在则插入。
func (s *Store) ReplaceOne(ctx context.Context, filter, doc any, upsert bool) (ReplaceResult, error) {
	if doc == nil {
		return ReplaceResult{}, ErrNilDocument
	}
	out, err := xretry.Execute(ctx, s.retryer, s.operation("replace"), s.retry, func(ctx context.Context) (ReplaceResult, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		res, err := s.coll.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(upsert))
		if err != nil {
			return ReplaceResult{}, wrapError(err)
		}
		return ReplaceResult{
			Matched:    res.MatchedCount,
			Modified:   res.ModifiedCount,
			UpsertedID: res.UpsertedID,
		}, nil
	})
	return out.Result, err
}

// FindOne 查找匹配 filter 的第一个文档并解码到 out。
// 没有匹配文档时不重试，返回的错误满足 errors.Is(err, mongo.ErrNoDocuments)。
func (s *Store) FindOne(ctx context.Context, filter, out any) error {
	return s.retryer.Do(ctx, s.operation("find"), s.retry, func(ctx context.Context) error {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		return wrapError(s.coll.FindOne(ctx, filter).Decode(out))
	})
}
