package service

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/insighthub/internal/dataset"
	"github.com/xxxsen/insighthub/internal/filestore"
	"github.com/xxxsen/insighthub/internal/model"
	appErr "github.com/xxxsen/insighthub/internal/pkg/errors"
)

const employeeCSV = "Name,Department,Salary,Attrition\n" +
	"a,Sales,100,Yes\n" +
	"b,Sales,200,No\n" +
	"c,IT,101,no\n"

func newTestStore(t *testing.T) *dataset.Store {
	t.Helper()
	return dataset.NewStore(filestore.NewLocal(t.TempDir()), 0)
}

func testUser(email string) *model.User {
	return &model.User{ID: newID(), Email: email}
}

func TestUploadComputesInsights(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewDatasetService(store, NewTableLoader(store, 0, 0))
	user := testUser("alice@example.com")

	res, err := svc.Upload(ctx, user, "emp.csv", []byte(employeeCSV))
	require.NoError(t, err)
	assert.Equal(t, "emp.csv", res.StoredName)
	assert.Equal(t, "File `emp.csv` uploaded and processed.", res.Message)
	assert.Equal(t, 3, res.Insights.TotalRows)
	assert.Equal(t, map[string]int{"Sales": 2, "IT": 1}, res.Insights.EmployeeCountByDepartment)
	require.NotNil(t, res.Insights.AverageSalary)
	assert.Equal(t, 133.67, *res.Insights.AverageSalary)
	assert.Equal(t, "alice@example.com", res.Insights.UploadedBy)

	res, err = svc.Upload(ctx, user, "emp.csv", []byte(employeeCSV))
	require.NoError(t, err)
	assert.Equal(t, "emp_1.csv", res.StoredName)

	files, err := svc.ListFiles(ctx, user, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"emp_1.csv", "emp.csv"}, files)
}

func TestUploadRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewDatasetService(store, NewTableLoader(store, 0, 0))
	user := testUser("alice@example.com")

	_, err := svc.Upload(ctx, user, "emp.txt", []byte(employeeCSV))
	assert.True(t, appErr.IsInvalid(err))

	_, err = svc.Upload(ctx, user, "empty.csv", nil)
	assert.True(t, appErr.IsInvalid(err))

	files, err := svc.ListFiles(ctx, user, 0)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLatestInsightsAndOpen(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewDatasetService(store, NewTableLoader(store, 0, 0))
	alice := testUser("alice@example.com")
	bob := testUser("bob@example.com")

	_, err := svc.LatestInsights(ctx, alice)
	assert.True(t, appErr.IsNotFound(err))

	_, err = svc.Upload(ctx, alice, "a.csv", []byte("x,y\n1,2\n"))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, alice, "b.csv", []byte(employeeCSV))
	require.NoError(t, err)

	latest, err := svc.LatestInsights(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "b.csv", latest.StoredName)
	assert.Equal(t, 3, latest.Insights.TotalRows)

	rc, err := svc.Open(ctx, alice, "a.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "x,y\n1,2\n", string(data))

	_, err = svc.Open(ctx, bob, "a.csv")
	assert.True(t, appErr.IsNotFound(err))
	_, err = svc.LatestInsights(ctx, bob)
	assert.True(t, appErr.IsNotFound(err))
}
