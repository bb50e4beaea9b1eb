package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insighthub/internal/ai"
	"github.com/xxxsen/insighthub/internal/dataset"
	"github.com/xxxsen/insighthub/internal/insight"
	"github.com/xxxsen/insighthub/internal/model"
	appErr "github.com/xxxsen/insighthub/internal/pkg/errors"
)

const (
	defaultMaxRows     = 10000
	defaultContextRows = 30
)

const promptTemplate = `You are an expert in employee data analysis. Please answer the following question based only on the provided employee dataset.

Dataset:
%s

Question:
%s

Answer:
`

type ChatConfig struct {
	MaxRows     int
	ContextRows int
	Timeout     time.Duration
}

type ChatService struct {
	store     *dataset.Store
	tables    *TableLoader
	generator ai.IGenerator
	cfg       ChatConfig
}

func NewChatService(store *dataset.Store, tables *TableLoader, generator ai.IGenerator, cfg ChatConfig) *ChatService {
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = defaultMaxRows
	}
	if cfg.ContextRows <= 0 {
		cfg.ContextRows = defaultContextRows
	}
	return &ChatService{store: store, tables: tables, generator: generator, cfg: cfg}
}

func (s *ChatService) Answer(ctx context.Context, user *model.User, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", appErr.Wrap(appErr.ErrInvalid, "message is required")
	}
	ns := dataset.NamespaceFor(user.Email)
	name, err := s.store.Latest(ctx, ns)
	if err != nil {
		return "", err
	}
	table, err := s.tables.Load(ctx, ns, name)
	if err != nil {
		return "", err
	}
	prompt := BuildPrompt(CapRows(table, s.cfg.MaxRows), s.cfg.ContextRows, question)
	answer, err := s.generate(ctx, prompt)
	if err != nil {
		logutil.GetLogger(ctx).Error("answer gateway failed",
			zap.String("user_id", user.ID),
			zap.String("stored_name", name),
			zap.Error(err),
		)
		return "", appErr.Wrap(appErr.ErrUpstream, "error processing your query: "+err.Error())
	}
	return answer, nil
}

// generate runs the gateway call in its own goroutine so a provider that
// ignores cancellation cannot hold the request past the timeout.
func (s *ChatService) generate(ctx context.Context, prompt string) (string, error) {
	if s.generator == nil {
		return "", ai.ErrUnavailable
	}
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		text, err := s.generator.Generate(ctx, prompt)
		ch <- result{text: text, err: err}
	}()
	select {
	case res := <-ch:
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// CapRows keeps at most maxRows leading rows.
func CapRows(t *insight.Table, maxRows int) *insight.Table {
	if maxRows <= 0 {
		return t
	}
	return t.Head(maxRows)
}

func BuildPrompt(t *insight.Table, contextRows int, question string) string {
	return fmt.Sprintf(promptTemplate, t.Head(contextRows).Render(), question)
}
