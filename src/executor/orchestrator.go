package executor

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/elee1766/threadchat/src/agent"
	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RunTurn appends userText to the thread and drives the model and tools
// until the model replies without tool calls.
//
// The user message is committed together with the first model response, so
// a failed first call leaves the thread untouched. Later commits hold either
// one assistant message or one round of tool results. Storage errors are
// returned as is, model failures as *ModelError, and exceeding MaxRounds as
// *TurnLimitError. The returned TurnResult is non-nil and lists what was
// committed even when err is set.
func (s *Service) RunTurn(ctx context.Context, threadID, userText string) (*TurnResult, error) {
	result := &TurnResult{ThreadID: threadID}
	if threadID == "" {
		return result, ErrThreadIDRequired
	}

	history, err := s.store.Load(ctx, threadID)
	if err != nil {
		return result, err
	}
	if open := unansweredCalls(history); len(open) > 0 {
		// an earlier turn stopped between the request and its results
		s.logger.Warn("closing unanswered tool calls", "thread_id", threadID, "calls", len(open))
		msgs := errorResults(open, "tool call was interrupted before it returned")
		if err := s.commit(ctx, threadID, result, msgs...); err != nil {
			return result, err
		}
		history = append(history, msgs...)
	}

	user := aisdk.NewUserMessage(userText)
	history = append(history, user)
	pending := []*aisdk.Message{user}

	logger := s.logger.With("thread_id", threadID)
	logger.Debug("turn started", "history", len(history))

	state := StateAwaitingModel
	var calls []aisdk.ToolCall
	for state != StateDone {
		switch state {
		case StateAwaitingModel:
			outcome, err := s.callModel(ctx, history)
			if err != nil {
				if ctx.Err() != nil {
					return result, cancelled(ctx)
				}
				logger.Warn("model call failed", "round", result.Rounds, "error", err)
				return result, err
			}
			msg := outcome.Message()
			if err := s.commit(ctx, threadID, result, append(pending, msg)...); err != nil {
				return result, err
			}
			pending = nil
			history = append(history, msg)

			switch o := outcome.(type) {
			case Reply:
				result.Reply = o.Msg.Content
				state = StateDone
			case ToolRequests:
				if result.Rounds >= s.maxRounds {
					return result, s.refuseRound(ctx, threadID, result, o.Calls)
				}
				calls = o.Calls
				state = StateAwaitingTool
			}

		case StateAwaitingTool:
			result.Rounds++
			logger.Debug("dispatching tools", "round", result.Rounds, "calls", len(calls))
			msgs := s.dispatch(ctx, calls)
			if ctx.Err() != nil {
				// the request is already stored, so its results must be too
				if err := s.commit(context.WithoutCancel(ctx), threadID, result, msgs...); err != nil {
					return result, err
				}
				logger.Warn("turn cancelled during tool round", "round", result.Rounds)
				return result, cancelled(ctx)
			}
			if err := s.commit(ctx, threadID, result, msgs...); err != nil {
				return result, err
			}
			history = append(history, msgs...)
			calls = nil
			state = StateAwaitingModel
		}
	}

	logger.Debug("turn finished", "rounds", result.Rounds, "appended", len(result.Appended))
	return result, nil
}

// callModel runs one model call under ModelTimeout and classifies the reply.
func (s *Service) callModel(ctx context.Context, history []*aisdk.Message) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.modelTimeout)
	defer cancel()

	msg, err := s.agent.Complete(ctx, history)
	if err != nil {
		var model string
		if info := s.agent.Model.GetModelInfo(); info != nil {
			model = info.ID
		}
		return nil, &ModelError{Model: model, Err: err}
	}
	msg.Role = aisdk.RoleAssistant

	if !msg.HasToolCalls() {
		return Reply{Msg: msg}, nil
	}
	msg.ToolCalls = slices.Clone(msg.ToolCalls)
	for i := range msg.ToolCalls {
		if msg.ToolCalls[i].ID == "" {
			msg.ToolCalls[i].ID = "call_" + uuid.NewString()
		}
		if msg.ToolCalls[i].Type == "" {
			msg.ToolCalls[i].Type = "function"
		}
	}
	return ToolRequests{Msg: msg, Calls: msg.ToolCalls}, nil
}

// dispatch executes one round concurrently and returns the tool messages in
// request order. Tool failures of any kind become error payloads. When ctx
// is cancelled, calls without a result are answered with a cancellation
// payload, so the returned slice always covers every call.
func (s *Service) dispatch(ctx context.Context, calls []aisdk.ToolCall) []*aisdk.Message {
	for _, call := range calls {
		s.callbacks.ToolCall(call)
	}

	execute := agent.TimeoutMiddleware(s.toolTimeout)(s.toolbox.ExecuteTool)
	responses := make([]*aisdk.ToolResponse, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	if s.maxParallel > 0 {
		g.SetLimit(s.maxParallel)
	}
	for i := range calls {
		call := calls[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			start := time.Now()
			resp, err := execute(gctx, &call)
			switch {
			case err != nil && gctx.Err() != nil:
				return nil
			case err != nil:
				resp = aisdk.ErrorResponse(fmt.Sprintf("tool %s failed: %v", call.Function.Name, err))
			case resp == nil:
				resp = aisdk.ErrorResponse(fmt.Sprintf("tool %s returned no result", call.Function.Name))
			}
			responses[i] = resp
			s.logger.Debug("tool finished", "tool", call.Function.Name, "call_id", call.ID, "is_error", resp.IsError, "duration", time.Since(start))
			return nil
		})
	}
	g.Wait()

	msgs := make([]*aisdk.Message, len(calls))
	for i, call := range calls {
		if responses[i] == nil {
			responses[i] = aisdk.ErrorResponse("turn cancelled before the tool returned")
		}
		msgs[i] = aisdk.NewToolResultMessage(call, responses[i])
		s.callbacks.ToolResult(call, responses[i])
	}
	return msgs
}

// errorResults answers every call with the same error payload.
func errorResults(calls []aisdk.ToolCall, reason string) []*aisdk.Message {
	resp := aisdk.ErrorResponse(reason)
	msgs := make([]*aisdk.Message, len(calls))
	for i, call := range calls {
		msgs[i] = aisdk.NewToolResultMessage(call, resp)
	}
	return msgs
}

// unansweredCalls returns the calls of the last tool request in history that
// have no tool result after it.
func unansweredCalls(history []*aisdk.Message) []aisdk.ToolCall {
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if m.Role == aisdk.RoleTool {
			continue
		}
		if m.Role != aisdk.RoleAssistant || !m.HasToolCalls() {
			return nil
		}
		answered := make(map[string]bool)
		for _, r := range history[i+1:] {
			answered[r.ToolCallID] = true
		}
		var open []aisdk.ToolCall
		for _, call := range m.ToolCalls {
			if !answered[call.ID] {
				open = append(open, call)
			}
		}
		return open
	}
	return nil
}

func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrTurnCancelled, context.Cause(ctx))
}

// refuseRound answers calls with error payloads so the stored history stays
// a valid request/response sequence, then reports the limit.
func (s *Service) refuseRound(ctx context.Context, threadID string, result *TurnResult, calls []aisdk.ToolCall) error {
	msgs := errorResults(calls, fmt.Sprintf("tool round limit of %d reached for this turn", s.maxRounds))
	if err := s.commit(context.WithoutCancel(ctx), threadID, result, msgs...); err != nil {
		return err
	}
	s.logger.Warn("turn stopped at tool round limit", "thread_id", threadID, "max_rounds", s.maxRounds)
	return &TurnLimitError{ThreadID: threadID, MaxRounds: s.maxRounds}
}

func (s *Service) commit(ctx context.Context, threadID string, result *TurnResult, msgs ...*aisdk.Message) error {
	cp, err := s.store.Append(ctx, threadID, msgs...)
	if err != nil {
		return err
	}
	result.Appended = append(result.Appended, msgs...)
	if cp != nil {
		s.logger.Debug("checkpoint committed", "thread_id", threadID, "step", cp.Step, "source", cp.Source, "messages", len(msgs))
	}
	return nil
}
