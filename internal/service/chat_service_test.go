package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/insighthub/internal/insight"
	appErr "github.com/xxxsen/insighthub/internal/pkg/errors"
)

type fakeGenerator struct {
	answer  string
	err     error
	delay   time.Duration
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func newChatFixture(t *testing.T, gen *fakeGenerator, cfg ChatConfig) (*ChatService, *DatasetService) {
	t.Helper()
	store := newTestStore(t)
	tables := NewTableLoader(store, 0, 0)
	return NewChatService(store, tables, gen, cfg), NewDatasetService(store, tables)
}

func TestAnswerWithoutDataset(t *testing.T) {
	gen := &fakeGenerator{answer: "x"}
	chat, _ := newChatFixture(t, gen, ChatConfig{})

	_, err := chat.Answer(context.Background(), testUser("alice@example.com"), "how many?")
	require.Error(t, err)
	assert.True(t, appErr.IsNotFound(err))
	assert.Empty(t, gen.prompts)
}

func TestAnswerEmptyQuestion(t *testing.T) {
	gen := &fakeGenerator{answer: "x"}
	chat, _ := newChatFixture(t, gen, ChatConfig{})

	_, err := chat.Answer(context.Background(), testUser("alice@example.com"), "  ")
	assert.True(t, appErr.IsInvalid(err))
}

func TestAnswerUsesLatestDataset(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{answer: "There are 2 departments."}
	chat, datasets := newChatFixture(t, gen, ChatConfig{})
	user := testUser("alice@example.com")

	_, err := datasets.Upload(ctx, user, "emp.csv", []byte(employeeCSV))
	require.NoError(t, err)

	answer, err := chat.Answer(ctx, user, "How many departments?")
	require.NoError(t, err)
	assert.Equal(t, "There are 2 departments.", answer)
	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "expert in employee data analysis")
	assert.Contains(t, prompt, "How many departments?")
	assert.Contains(t, prompt, "department")
	assert.Contains(t, prompt, "Sales")
}

func TestAnswerUpstreamFailure(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	chat, datasets := newChatFixture(t, gen, ChatConfig{})
	user := testUser("alice@example.com")
	_, err := datasets.Upload(ctx, user, "emp.csv", []byte(employeeCSV))
	require.NoError(t, err)

	_, err = chat.Answer(ctx, user, "anything")
	require.Error(t, err)
	assert.True(t, appErr.IsUpstream(err))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestAnswerTimeout(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{answer: "late", delay: 500 * time.Millisecond}
	chat, datasets := newChatFixture(t, gen, ChatConfig{Timeout: 20 * time.Millisecond})
	user := testUser("alice@example.com")
	_, err := datasets.Upload(ctx, user, "emp.csv", []byte(employeeCSV))
	require.NoError(t, err)

	start := time.Now()
	_, err = chat.Answer(ctx, user, "anything")
	require.Error(t, err)
	assert.True(t, appErr.IsUpstream(err))
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func buildRows(n int) string {
	var sb strings.Builder
	sb.WriteString("id,value\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%d,%d\n", i, i+1000)
	}
	return sb.String()
}

func TestCapRowsAndPromptContext(t *testing.T) {
	table, err := insight.Parse(strings.NewReader(buildRows(15000)))
	require.NoError(t, err)

	capped := CapRows(table, 10000)
	assert.Equal(t, 10000, capped.Len())
	assert.Equal(t, 15000, table.Len())

	small, err := insight.Parse(strings.NewReader(buildRows(3)))
	require.NoError(t, err)
	assert.Equal(t, 3, CapRows(small, 10000).Len())

	prompt := BuildPrompt(capped, 30, "q?")
	assert.Contains(t, prompt, "1029")
	assert.NotContains(t, prompt, "1030")
	assert.True(t, strings.HasSuffix(prompt, "Question:\nq?\n\nAnswer:\n"))
}
