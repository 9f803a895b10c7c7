package xfault

import "net/http"

// Category 错误分类（封闭集合）。
type Category string

// 全部分类。
const (
	CategoryTransient        Category = "TRANSIENT"
	CategoryRateLimit        Category = "RATE_LIMIT"
	CategoryValidation       Category = "VALIDATION"
	CategoryAuthorization    Category = "AUTHORIZATION"
	CategoryResourceNotFound Category = "RESOURCE_NOT_FOUND"
	CategorySystem           Category = "SYSTEM"
)

// Categories 返回全部分类，顺序固定。
func Categories() []Category {
	return []Category{
		CategoryTransient,
		CategoryRateLimit,
		CategoryValidation,
		CategoryAuthorization,
		CategoryResourceNotFound,
		CategorySystem,
	}
}

// Valid 报告 c 是否属于封闭集合。
func (c Category) Valid() bool {
	switch c {
	case CategoryTransient, CategoryRateLimit, CategoryValidation,
		CategoryAuthorization, CategoryResourceNotFound, CategorySystem:
		return true
	default:
		return false
	}
}

// Retryable 返回分类的默认可重试性。
// TRANSIENT、RATE_LIMIT、SYSTEM 默认可重试，其余默认不可重试；
// 具体错误码可在规则表中覆盖。
func (c Category) Retryable() bool {
	switch c {
	case CategoryTransient, CategoryRateLimit, CategorySystem:
		return true
	default:
		return false
	}
}

var categoryStatus = map[Category]int{
	CategoryTransient:        http.StatusServiceUnavailable,
	CategoryRateLimit:        http.StatusTooManyRequests,
	CategoryValidation:       http.StatusBadRequest,
	CategoryAuthorization:    http.StatusForbidden,
	CategoryResourceNotFound: http.StatusNotFound,
	CategorySystem:           http.StatusInternalServerError,
}

var categoryMessage = map[Category]string{
	CategoryTransient:        "The service is temporarily unavailable. Please try again shortly.",
	CategoryRateLimit:        "Too many requests. Please wait a moment and try again.",
	CategoryValidation:       "The request is invalid. Please check the submitted data.",
	CategoryAuthorization:    "You are not allowed to perform this action.",
	CategoryResourceNotFound: "The requested resource was not found.",
	CategorySystem:           "An unexpected error occurred. Please try again later.",
}

// HTTPStatus 返回分类对应的 HTTP 状态码，未知分类按 SYSTEM 处理。
func (c Category) HTTPStatus() int {
	if s, ok := categoryStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// UserMessage 返回分类对应的用户提示语，未知分类按 SYSTEM 处理。
func (c Category) UserMessage() string {
	if m, ok := categoryMessage[c]; ok {
		return m
	}
	return categoryMessage[CategorySystem]
}

// String 实现 fmt.Stringer。
func (c Category) String() string {
	return string(c)
}
