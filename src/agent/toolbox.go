package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/elee1766/threadchat/src/aisdk"
)

// ToolExecutor is a function type for tool execution
type ToolExecutor func(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error)

// DefaultToolbox is the toolbox over the Tool interface.
type DefaultToolbox = Toolbox[Tool]

// Toolbox is the name-keyed tool registry. Registration is expected to finish
// before the first ExecuteTool; lookups are safe for concurrent use.
type Toolbox[T Tool] struct {
	mu         sync.RWMutex
	tools      map[string]T
	middleware []ToolMiddleware
}

// ToolMiddleware is a function that wraps a ToolExecutor to add functionality.
type ToolMiddleware func(next ToolExecutor) ToolExecutor

// NewToolbox creates a new tool manager.
func NewToolbox[T Tool]() *Toolbox[T] {
	return &Toolbox[T]{
		tools: make(map[string]T),
	}
}

// RegisterTool registers a tool.
func (tm *Toolbox[T]) RegisterTool(tool T) error {
	if tool.GetName() == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()
	if _, exists := tm.tools[tool.GetName()]; exists {
		return fmt.Errorf("tool %s is already registered", tool.GetName())
	}

	tm.tools[tool.GetName()] = tool
	return nil
}

// RegisterMiddleware registers middleware that will be applied to all tool executions.
// Middleware is applied in the order it's registered (first registered = outermost layer).
func (tm *Toolbox[T]) RegisterMiddleware(middleware ToolMiddleware) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.middleware = append(tm.middleware, middleware)
}

// Tools returns the registered tools sorted by name.
func (tm *Toolbox[T]) Tools() []T {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	out := make([]T, 0, len(tm.tools))
	for _, tool := range tm.tools {
		out = append(out, tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}

// ExecuteTool runs call through the middleware chain. An unknown tool name
// yields an error payload, not a Go error.
func (tm *Toolbox[T]) ExecuteTool(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
	tm.mu.RLock()
	tool, exists := tm.tools[call.Function.Name]
	middleware := tm.middleware
	tm.mu.RUnlock()
	if !exists {
		return aisdk.ErrorResponse(fmt.Sprintf("tool %s not found", call.Function.Name)), nil
	}

	finalExecutor := ToolExecutor(func(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
		return tool.Execute(ctx, call)
	})
	for i := len(middleware) - 1; i >= 0; i-- {
		finalExecutor = middleware[i](finalExecutor)
	}

	return finalExecutor(ctx, call)
}

// GetTool returns a specific tool by name.
func (tm *Toolbox[T]) GetTool(name string) (T, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	tool, exists := tm.tools[name]
	return tool, exists
}

// HasTool checks if a tool is available.
func (tm *Toolbox[T]) HasTool(name string) bool {
	_, exists := tm.GetTool(name)
	return exists
}

// Common middleware implementations

// LoggingMiddleware logs tool execution details.
func LoggingMiddleware(logger *slog.Logger) ToolMiddleware {
	return func(next ToolExecutor) ToolExecutor {
		return func(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
			start := time.Now()
			logger.Debug("executing tool", "tool", call.Function.Name, "call_id", call.ID, "params", string(call.Function.Arguments))
			result, err := next(ctx, call)
			switch {
			case err != nil:
				logger.Warn("tool execution failed", "tool", call.Function.Name, "call_id", call.ID, "error", err)
			case result != nil && result.IsError:
				logger.Info("tool returned error", "tool", call.Function.Name, "call_id", call.ID, "payload", string(result.Content), "duration", time.Since(start))
			default:
				logger.Debug("tool execution completed", "tool", call.Function.Name, "call_id", call.ID, "duration", time.Since(start))
			}
			return result, err
		}
	}
}

// TimeoutMiddleware bounds each execution by d. A tool still running at the
// deadline is abandoned and the caller gets an error payload.
func TimeoutMiddleware(d time.Duration) ToolMiddleware {
	return func(next ToolExecutor) ToolExecutor {
		if d <= 0 {
			return next
		}
		return func(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			type result struct {
				resp *aisdk.ToolResponse
				err  error
			}
			done := make(chan result, 1)
			go func() {
				resp, err := next(ctx, call)
				done <- result{resp, err}
			}()

			select {
			case r := <-done:
				if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
					return timeoutResponse(call, d), nil
				}
				return r.resp, r.err
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return timeoutResponse(call, d), nil
				}
				return nil, ctx.Err()
			}
		}
	}
}

func timeoutResponse(call *aisdk.ToolCall, d time.Duration) *aisdk.ToolResponse {
	return aisdk.ErrorResponse(fmt.Sprintf("tool %s timed out after %s", call.Function.Name, d))
}

// RecoverMiddleware turns a panicking tool into an error payload.
func RecoverMiddleware() ToolMiddleware {
	return func(next ToolExecutor) ToolExecutor {
		return func(ctx context.Context, call *aisdk.ToolCall) (resp *aisdk.ToolResponse, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp = aisdk.ErrorResponse(fmt.Sprintf("tool %s panicked: %v", call.Function.Name, r))
					err = nil
				}
			}()
			return next(ctx, call)
		}
	}
}
