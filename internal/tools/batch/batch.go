package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Status values of a Result.
const (
	StatusSuccess  = "success"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// Result is the outcome of one item of a batch.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Value  any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchResult aggregates the results of a batch. Success is true when no item
// failed; items that were simply not found do not count as failures.
type BatchResult struct {
	Success    bool     `json:"success"`
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	NotFound   int      `json:"not_found"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray parses a parameter that may be a single string, an
// array of strings, or a string holding a JSON array of strings. Clients
// that only speak string parameters send lists in the last form.
func ParseStringOrArray(param any, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	switch v := param.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		if strings.HasPrefix(strings.TrimSpace(v), "[") {
			var items []any
			if err := json.Unmarshal([]byte(v), &items); err == nil {
				return parseItems(items, paramName)
			}
		}
		return []string{v}, nil
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return parseItems(items, paramName)
	case []any:
		return parseItems(v, paramName)
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}
}

func parseItems(items []any, paramName string) ([]string, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", paramName)
	}
	result := make([]string, 0, len(items))
	for i, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
		}
		if str == "" {
			return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
		}
		result = append(result, str)
	}
	return result, nil
}

// Summarize counts results by status.
func Summarize(results []Result) BatchResult {
	br := BatchResult{
		Total:   len(results),
		Results: results,
	}

	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			br.Successful++
		case StatusNotFound:
			br.NotFound++
		default:
			br.Failed++
		}
	}
	br.Success = br.Failed == 0
	return br
}

// ProcessBatch runs fn for each id in order. A nil value with a nil error
// marks the item as not found. Once ctx is done the remaining items fail
// with the context error.
func ProcessBatch(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (any, error)) []Result {
	results := make([]Result, 0, len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		v, err := fn(ctx, id)
		switch {
		case err != nil:
			results = append(results, NewErrorResult(id, err))
		case v == nil:
			results = append(results, NewNotFoundResult(id))
		default:
			results = append(results, NewSuccessResult(id, v))
		}
	}

	return results
}

// NewSuccessResult creates a success result
func NewSuccessResult(id string, v any) Result {
	return Result{
		ID:     id,
		Status: StatusSuccess,
		Value:  v,
	}
}

// NewNotFoundResult creates a result for an id that resolved to nothing.
func NewNotFoundResult(id string) Result {
	return Result{
		ID:     id,
		Status: StatusNotFound,
	}
}

// NewErrorResult creates an error result
func NewErrorResult(id string, err error) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Error:  err.Error(),
	}
}
