package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "chatbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func text(role, content string) *aisdk.Message {
	return &aisdk.Message{Role: role, Content: content}
}

func contents(msgs []*aisdk.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role + ":" + m.Content
	}
	return out
}

func TestUnknownThread(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	msgs, err := db.Load(ctx, "never-written")
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)

	threads, err := db.ListThreads(ctx)
	require.NoError(t, err)
	assert.NotContains(t, threads, "never-written")

	cp, err := db.Latest(ctx, "never-written")
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestAppendConcatenates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Append(ctx, "t1", text("user", "hi"), text("assistant", "hello"))
	require.NoError(t, err)
	_, err = db.Append(ctx, "t1", text("user", "how are you"))
	require.NoError(t, err)
	_, err = db.Append(ctx, "t1", text("assistant", "fine"))
	require.NoError(t, err)

	msgs, err := db.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"user:hi", "assistant:hello", "user:how are you", "assistant:fine"}, contents(msgs))
}

func TestCheckpointChain(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first, err := db.Append(ctx, "t1", text("user", "hi"), text("assistant", "hello"))
	require.NoError(t, err)
	second, err := db.Append(ctx, "t1", text("assistant", "more"))
	require.NoError(t, err)

	assert.Equal(t, 0, first.Step)
	assert.Empty(t, first.ParentID)
	assert.Equal(t, 2, first.MessageCount)
	assert.Equal(t, SourceInput, first.Source)

	assert.Equal(t, 1, second.Step)
	assert.Equal(t, first.ID, second.ParentID)
	assert.Equal(t, 3, second.MessageCount)
	assert.Equal(t, SourceLoop, second.Source)

	cps, err := db.Checkpoints(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, cps, 2)
	assert.Equal(t, first.ID, cps[0].ID)
	assert.Equal(t, second.ID, cps[1].ID)

	latest, err := db.Latest(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
}

func TestAppendNothingIsNoop(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	cp, err := db.Append(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, cp)

	threads, err := db.ListThreads(ctx)
	require.NoError(t, err)
	assert.Empty(t, threads)
}

func TestAppendRequiresThreadID(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Append(context.Background(), "", text("user", "hi"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrThreadIDRequired)
	assert.True(t, IsStorageError(err))
}

func TestToolCallsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	request := &aisdk.Message{
		Role: "assistant",
		ToolCalls: []aisdk.ToolCall{{
			ID:   "call_1",
			Type: "function",
			Function: aisdk.FunctionCall{
				Name:      "calculator",
				Arguments: json.RawMessage(`{"first_num":4,"second_num":2,"operation":"mul"}`),
			},
		}},
	}
	result := &aisdk.Message{Role: "tool", Name: "calculator", ToolCallID: "call_1", Content: `{"result":8}`}
	failed := &aisdk.Message{Role: "tool", Name: "calculator", ToolCallID: "call_2", Content: `{"error":"Division by zero is not allowed"}`, IsError: true}

	_, err := db.Append(ctx, "t1", text("user", "4*2?"), request)
	require.NoError(t, err)
	_, err = db.Append(ctx, "t1", result, failed)
	require.NoError(t, err)

	msgs, err := db.Load(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	require.Len(t, msgs[1].ToolCalls, 1)
	assert.Equal(t, "call_1", msgs[1].ToolCalls[0].ID)
	assert.Equal(t, "calculator", msgs[1].ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"first_num":4,"second_num":2,"operation":"mul"}`, string(msgs[1].ToolCalls[0].Function.Arguments))

	assert.Equal(t, "call_1", msgs[2].ToolCallID)
	assert.Equal(t, "calculator", msgs[2].Name)
	assert.False(t, msgs[2].IsError)
	assert.True(t, msgs[3].IsError)
	assert.Nil(t, msgs[0].ToolCalls)
}

func TestListThreads(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c", "a"} {
		_, err := db.Append(ctx, id, text("user", "hi "+id))
		require.NoError(t, err)
	}

	threads, err := db.ListThreads(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, threads)
}

func TestResumeAfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatbot.db")
	ctx := context.Background()

	db, err := Open(path)
	require.NoError(t, err)
	_, err = db.Append(ctx, "t1", text("user", "remember me"), text("assistant", "ok"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	msgs, err := db.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"user:remember me", "assistant:ok"}, contents(msgs))

	versions, err := db.AppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, versions)
}

func TestConcurrentThreadsDoNotInterleave(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	const threads = 4
	const appends = 10

	var wg sync.WaitGroup
	errs := make(chan error, threads*appends)
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < appends; j++ {
				if _, err := db.Append(ctx, id, text("user", fmt.Sprintf("%s-%d", id, j))); err != nil {
					errs <- err
				}
			}
		}(fmt.Sprintf("thread-%d", i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for i := 0; i < threads; i++ {
		id := fmt.Sprintf("thread-%d", i)
		msgs, err := db.Load(ctx, id)
		require.NoError(t, err)
		require.Len(t, msgs, appends)
		for j, m := range msgs {
			assert.Equal(t, fmt.Sprintf("%s-%d", id, j), m.Content)
		}
	}
	assert.Equal(t, 0, db.locks.Len())
}

func TestClosedDatabaseReturnsStorageError(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "chatbot.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.Load(context.Background(), "t1")
	require.Error(t, err)
	assert.True(t, IsStorageError(err))

	_, err = db.ListThreads(context.Background())
	assert.True(t, IsStorageError(err))
}

func TestExtractUpMigration(t *testing.T) {
	sql := ExtractUpMigration(initialSchema)
	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS checkpoints")
	assert.NotContains(t, sql, "DROP TABLE")
}
