package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio"
	"studio/internal/analytics"
	"studio/internal/api/models"
	"studio/internal/frame"
)

func setupDatasetTest(t *testing.T) (*DatasetService, uint) {
	studio.InitConfig("../../../.env.test")

	err := studio.DB.AutoMigrate(&models.User{}, &models.Dataset{})
	require.NoError(t, err, "Failed to migrate dataset tables")

	engine, err := analytics.NewEngine("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	user := models.User{
		Email:     uniqueEmail(),
		Password:  "not-a-real-hash",
		FirstName: "Data",
		LastName:  "Owner",
		Active:    true,
	}
	require.NoError(t, studio.DB.Create(&user).Error)
	t.Cleanup(func() { studio.DB.Unscoped().Delete(&models.User{}, user.ID) })

	return NewDatasetService(engine, nil), user.ID
}

func cleanupDataset(t *testing.T, id uint) {
	if id > 0 {
		studio.DB.Unscoped().Delete(&models.Dataset{}, id)
	}
}

func TestDataset_IngestFrame_CollidingNames(t *testing.T) {
	svc, userID := setupDatasetTest(t)
	ctx := context.Background()

	f1 := frame.New([]string{"region", "events"})
	require.NoError(t, f1.AppendRow([]any{"Tigray", int64(12)}))

	first, err := svc.IngestFrame(ctx, models.Dataset{
		Name:      "Sales 2024",
		CreatorID: userID,
		Source:    models.DatasetSourceUpload,
	}, f1)
	require.NoError(t, err)
	defer cleanupDataset(t, first.ID)

	f2 := frame.New([]string{"region", "events"})
	require.NoError(t, f2.AppendRow([]any{"Oromia", int64(7)}))
	require.NoError(t, f2.AppendRow([]any{"Amhara", int64(3)}))

	// "sales-2024" normalizes to the same identifier as "Sales 2024"
	second, err := svc.IngestFrame(ctx, models.Dataset{
		Name:      "sales-2024",
		CreatorID: userID,
		Source:    models.DatasetSourceUpload,
	}, f2)
	require.NoError(t, err, "Colliding display names must not fail ingestion")
	defer cleanupDataset(t, second.ID)

	assert.NotEqual(t, first.TableName, second.TableName)
	assert.Equal(t, models.DatasetStatusReady, first.Status)
	assert.Equal(t, models.DatasetStatusReady, second.Status)

	got1, err := svc.Frame(ctx, first.ID)
	require.NoError(t, err, "First dataset's rows must survive the second ingest")
	require.Equal(t, 1, got1.NumRows())
	assert.Equal(t, "Tigray", got1.Rows[0][0])

	got2, err := svc.Frame(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got2.NumRows())
}

func TestDataset_IngestFrame_NameReuseAfterDelete(t *testing.T) {
	svc, userID := setupDatasetTest(t)
	ctx := context.Background()

	f1 := frame.New([]string{"value"})
	require.NoError(t, f1.AppendRow([]any{int64(1)}))

	first, err := svc.IngestFrame(ctx, models.Dataset{
		Name:      "Quarterly Report",
		CreatorID: userID,
		Source:    models.DatasetSourceUpload,
	}, f1)
	require.NoError(t, err)
	defer cleanupDataset(t, first.ID)

	require.NoError(t, svc.Delete(ctx, first.ID))

	// The soft-deleted row still holds the unique index on table_name
	f2 := frame.New([]string{"value"})
	require.NoError(t, f2.AppendRow([]any{int64(2)}))

	second, err := svc.IngestFrame(ctx, models.Dataset{
		Name:      "Quarterly Report",
		CreatorID: userID,
		Source:    models.DatasetSourceUpload,
	}, f2)
	require.NoError(t, err, "A deleted dataset's name must be reusable")
	defer cleanupDataset(t, second.ID)

	assert.NotEqual(t, first.TableName, second.TableName)
	assert.Equal(t, models.DatasetStatusReady, second.Status)
}

func TestAvailableTableName(t *testing.T) {
	svc, userID := setupDatasetTest(t)
	ctx := context.Background()

	f := frame.New([]string{"value"})
	require.NoError(t, f.AppendRow([]any{int64(1)}))

	taken, err := svc.IngestFrame(ctx, models.Dataset{
		Name:      "Census Extract",
		CreatorID: userID,
		Source:    models.DatasetSourceUpload,
	}, f)
	require.NoError(t, err)
	defer cleanupDataset(t, taken.ID)

	name, err := svc.availableTableName(taken.TableName)
	require.NoError(t, err)
	assert.Equal(t, taken.TableName+"_2", name)

	free, err := svc.availableTableName("completely_unused_table")
	require.NoError(t, err)
	assert.Equal(t, "completely_unused_table", free)
}
