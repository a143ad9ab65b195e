package utils

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDKey is the gin context key holding the request id.
	RequestIDKey = "request_id"
	// RequestIDHeader carries the request id in and out.
	RequestIDHeader = "X-Request-Id"

	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Meta struct {
	RequestID  string      `json:"requestId"`
	Timestamp  string      `json:"timestamp"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// Paginate cuts one page out of items. A page below 1 becomes 1 and a limit
// outside (0, MaxPageLimit] becomes DefaultPageLimit. Pages past the end are
// empty, never nil.
func Paginate[T any](items []T, page, limit int) ([]T, Pagination) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > MaxPageLimit {
		limit = DefaultPageLimit
	}
	total := len(items)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	return items[start:end:end], Pagination{
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: (total + limit - 1) / limit,
	}
}

func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{Success: true, Code: code, Message: message, Data: data, Meta: meta(c, nil)})
}

// Created answers 201 with the new resource.
func Created(c *gin.Context, message string, data interface{}) {
	Success(c, 201, message, data)
}

func SuccessWithPagination(c *gin.Context, code int, message string, data interface{}, p Pagination) {
	c.JSON(code, Response{Success: true, Code: code, Message: message, Data: data, Meta: meta(c, &p)})
}

// Error writes an error envelope. errCode is the machine readable code
// clients switch on, message is shown to people.
func Error(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Error:   &ErrorInfo{Code: errCode, Message: message},
		Meta:    meta(c, nil),
	})
}

func meta(c *gin.Context, p *Pagination) Meta {
	return Meta{
		RequestID:  RequestID(c),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Pagination: p,
	}
}

// RequestID returns the id the logging middleware assigned. Requests that
// skipped the middleware get a fresh id, stored so later calls agree.
func RequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	id := NewRequestID()
	c.Set(RequestIDKey, id)
	c.Header(RequestIDHeader, id)
	return id
}

func NewRequestID() string {
	return uuid.New().String()[:8]
}
