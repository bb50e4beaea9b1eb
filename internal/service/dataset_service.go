package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insighthub/internal/dataset"
	"github.com/xxxsen/insighthub/internal/insight"
	"github.com/xxxsen/insighthub/internal/model"
	appErr "github.com/xxxsen/insighthub/internal/pkg/errors"
)

type UploadResult struct {
	Message    string          `json:"message"`
	StoredName string          `json:"stored_name"`
	Insights   *insight.Report `json:"insights"`
}

type LatestInsights struct {
	StoredName string          `json:"stored_name"`
	Insights   *insight.Report `json:"insights"`
}

type DatasetService struct {
	store  *dataset.Store
	tables *TableLoader
}

func NewDatasetService(store *dataset.Store, tables *TableLoader) *DatasetService {
	return &DatasetService{store: store, tables: tables}
}

// Upload parses the file before storing it, so only readable datasets are published.
func (s *DatasetService) Upload(ctx context.Context, user *model.User, filename string, data []byte) (*UploadResult, error) {
	if !dataset.IsTabular(filename) {
		return nil, appErr.Wrap(appErr.ErrInvalid, "only .csv files are supported")
	}
	table, err := insight.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	ns := dataset.NamespaceFor(user.Email)
	stored, err := s.store.Save(ctx, ns, filename, data)
	if err != nil {
		return nil, err
	}
	s.tables.Put(ns, stored, table)
	report := insight.Compute(table, user.Email)
	logutil.GetLogger(ctx).Info("dataset uploaded",
		zap.String("user_id", user.ID),
		zap.String("stored_name", stored),
		zap.Int("rows", report.TotalRows),
	)
	return &UploadResult{
		Message:    fmt.Sprintf("File `%s` uploaded and processed.", stored),
		StoredName: stored,
		Insights:   report,
	}, nil
}

func (s *DatasetService) ListFiles(ctx context.Context, user *model.User, limit int) ([]string, error) {
	return s.store.List(ctx, dataset.NamespaceFor(user.Email), limit)
}

func (s *DatasetService) LatestInsights(ctx context.Context, user *model.User) (*LatestInsights, error) {
	ns := dataset.NamespaceFor(user.Email)
	name, err := s.store.Latest(ctx, ns)
	if err != nil {
		return nil, err
	}
	table, err := s.tables.Load(ctx, ns, name)
	if err != nil {
		return nil, err
	}
	return &LatestInsights{StoredName: name, Insights: insight.Compute(table, user.Email)}, nil
}

func (s *DatasetService) Open(ctx context.Context, user *model.User, name string) (io.ReadCloser, error) {
	return s.store.Open(ctx, dataset.NamespaceFor(user.Email), name)
}
