package xfault

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Classification 是一次分类的结果。
type Classification struct {
	Category  Category
	Retryable bool
	// UserMessage 可直接展示给终端用户的描述。
	UserMessage string
	// TechnicalMessage 供日志和排障使用的描述。
	TechnicalMessage string
	// Service 分类时使用的服务表。
	Service Service
	// Matched 命中的规则来源，取值见 Match* 常量。
	Matched string
}

// 规则来源。
const (
	MatchFixed     = "fixed"
	MatchAllowList = "allowlist"
	MatchService   = "service"
	MatchCommon    = "common"
	MatchPattern   = "pattern"
	MatchStatus    = "status"
	MatchDefault   = "default"
)

// HTTPStatus 返回分类对应的 HTTP 状态码。
func (c Classification) HTTPStatus() int {
	return c.Category.HTTPStatus()
}

type options struct {
	service        Service
	retryableNames []string
}

// Option 分类选项。
type Option func(*options)

// WithService 选择服务专属错误码表。
func WithService(s Service) Option {
	return func(o *options) {
		if s != "" {
			o.service = s
		}
	}
}

// WithRetryableNames 设置可重试名称白名单，精确匹配错误名或错误码。
func WithRetryableNames(names ...string) Option {
	return func(o *options) {
		o.retryableNames = append(o.retryableNames, names...)
	}
}

// Classify 对任意失败值分类。确定性、无副作用，对任何输入都返回结果。
func Classify(v any, opts ...Option) Classification {
	if err, ok := v.(error); ok {
		var ce *ClassifiedError
		if errors.As(err, &ce) && ce != nil {
			c := ce.Classification
			if c.Matched == "" {
				c.Matched = MatchFixed
			}
			return c
		}
	}

	return ClassifyFailure(Normalize(v), opts...)
}

// ClassifyFailure 对已归一化的 Failure 分类。
func ClassifyFailure(f Failure, opts ...Option) Classification {
	o := options{service: ServiceGeneric}
	for _, opt := range opts {
		opt(&o)
	}
	technical := f.String()

	build := func(r Rule, matched string) Classification {
		return Classification{
			Category:         r.Category,
			Retryable:        r.Retryable,
			UserMessage:      r.Category.UserMessage(),
			TechnicalMessage: technical,
			Service:          o.service,
			Matched:          matched,
		}
	}

	for _, name := range o.retryableNames {
		if name != "" && (name == f.Name || name == f.Code) {
			return build(Rule{Category: CategoryTransient, Retryable: true}, MatchAllowList)
		}
	}

	if table, ok := serviceRules[o.service]; ok {
		if r, _, ok := table.lookup(f.Code, f.Name); ok {
			return build(r, MatchService)
		}
	}
	if r, _, ok := commonRules.lookup(f.Code, f.Name); ok {
		return build(r, MatchCommon)
	}

	if matchesRetryPattern(f) {
		return build(Rule{Category: CategoryTransient, Retryable: true}, MatchPattern)
	}

	if r, ok := statusRule(f.HTTPStatus); ok {
		return build(r, MatchStatus)
	}

	return build(Rule{Category: CategorySystem, Retryable: false}, MatchDefault)
}

// IsRetryable 是 Classify(v, opts...).Retryable 的简写。
func IsRetryable(v any, opts ...Option) bool {
	return Classify(v, opts...).Retryable
}

func matchesRetryPattern(f Failure) bool {
	if f.Name == "" && f.Message == "" && f.Code == "" {
		return false
	}
	haystack := strings.ToLower(f.Name + " " + f.Code + " " + f.Message)
	for _, p := range retryPatterns {
		if strings.Contains(haystack, p) {
			return true
		}
	}
	return false
}

func statusRule(status int) (Rule, bool) {
	switch {
	case status >= http.StatusInternalServerError:
		return Rule{Category: CategorySystem, Retryable: true}, true
	case status == http.StatusTooManyRequests:
		return Rule{Category: CategoryRateLimit, Retryable: true}, true
	case status == http.StatusForbidden:
		return Rule{Category: CategoryAuthorization, Retryable: false}, true
	case status == http.StatusNotFound:
		return Rule{Category: CategoryResourceNotFound, Retryable: false}, true
	default:
		return Rule{}, false
	}
}

// ClassifiedError 是已固定分类的错误，分类器不会再对其重新分类。
type ClassifiedError struct {
	Err            error
	Classification Classification
}

// Classified 用固定分类包装 err。
// 空的 UserMessage 使用分类默认提示语，空的 TechnicalMessage 使用 err 的描述。
func Classified(err error, c Classification) *ClassifiedError {
	if c.UserMessage == "" {
		c.UserMessage = c.Category.UserMessage()
	}
	if c.TechnicalMessage == "" && err != nil {
		c.TechnicalMessage = err.Error()
	}
	if c.Matched == "" {
		c.Matched = MatchFixed
	}
	return &ClassifiedError{Err: err, Classification: c}
}

// Error 实现 error 接口。
func (e *ClassifiedError) Error() string {
	if e == nil {
		return "unclassified failure"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s failure", e.Classification.Category)
	}
	return e.Err.Error()
}

// Unwrap 返回被包装的错误。
func (e *ClassifiedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
