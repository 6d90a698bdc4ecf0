package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio"
	"studio/internal/api/models"
)

// setupMetadataTestDB initializes the database connection for metadata tests
func setupMetadataTestDB(t *testing.T) {
	studio.InitConfig("../../../.env.test")

	err := studio.DB.AutoMigrate(&models.MetadataDatabase{})
	require.NoError(t, err, "Failed to migrate metadata tables")
}

// cleanupDbMetadata removes test db metadata from the database
func cleanupDbMetadata(t *testing.T, id uint) {
	if id > 0 {
		studio.DB.Unscoped().Delete(&models.MetadataDatabase{}, id)
	}
}

func TestDbMetadata_Create(t *testing.T) {
	setupMetadataTestDB(t)

	service := NewMetadataService()

	metadata := models.MetadataDatabase{
		Name:         "Local test",
		DbType:       models.DBTypePostgres,
		Host:         "localhost",
		Port:         5433,
		User:         "testuser",
		Password:     "testpass",
		DatabaseName: "testdb",
		SSLMode:      "disable",
		Extra:        "",
	}

	created, err := service.Create(metadata)
	require.NoError(t, err, "Failed to create db metadata")
	require.NotNil(t, created, "Created metadata should not be nil")
	require.NotZero(t, created.ID, "Created metadata ID should not be zero")

	defer cleanupDbMetadata(t, created.ID)

	assert.Equal(t, "localhost", created.Host)
	assert.Equal(t, 5433, created.Port)
	assert.Equal(t, "testuser", created.User)
	assert.Equal(t, "testpass", created.Password)
	assert.Equal(t, "testdb", created.DatabaseName)
	assert.Equal(t, "disable", created.SSLMode)
	assert.Equal(t, models.DBTypePostgres, created.DbType)
}

func TestDbMetadata_FindByID(t *testing.T) {
	setupMetadataTestDB(t)

	service := NewMetadataService()

	// Create test metadata
	metadata := models.MetadataDatabase{
		Name:         "Production replica",
		DbType:       models.DBTypePostgres,
		Host:         "db.example.com",
		Port:         5432,
		User:         "admin",
		Password:     "secret",
		DatabaseName: "production",
		SSLMode:      "require",
	}

	created, err := service.Create(metadata)
	require.NoError(t, err)
	defer cleanupDbMetadata(t, created.ID)

	// Find by ID
	found, err := service.FindByID(created.ID)
	require.NoError(t, err, "Failed to find db metadata by ID")
	require.NotNil(t, found)

	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "db.example.com", found.Host)
	assert.Equal(t, 5432, found.Port)
	assert.Equal(t, "admin", found.User)
	assert.Equal(t, "production", found.DatabaseName)
}

func TestDbMetadata_FindByID_NotFound(t *testing.T) {
	setupMetadataTestDB(t)

	service := NewMetadataService()

	_, err := service.FindByID(99999)
	require.Error(t, err, "Should return error for non-existent ID")
}

func TestDbMetadata_FindAll(t *testing.T) {
	setupMetadataTestDB(t)

	service := NewMetadataService()

	// Create multiple test metadata
	metadata1 := models.MetadataDatabase{
		Name:         "Host one",
		DbType:       models.DBTypePostgres,
		Host:         "host1.example.com",
		Port:         5432,
		User:         "user1",
		Password:     "pass1",
		DatabaseName: "db1",
		SSLMode:      "disable",
	}
	metadata2 := models.MetadataDatabase{
		Name:         "Host two",
		DbType:       models.DBTypeMySQL,
		Host:         "host2.example.com",
		Port:         3306,
		User:         "user2",
		Password:     "pass2",
		DatabaseName: "db2",
	}

	created1, err := service.Create(metadata1)
	require.NoError(t, err)
	defer cleanupDbMetadata(t, created1.ID)

	created2, err := service.Create(metadata2)
	require.NoError(t, err)
	defer cleanupDbMetadata(t, created2.ID)

	// Find all
	all, err := service.FindAll()
	require.NoError(t, err, "Failed to find all db metadata")
	assert.GreaterOrEqual(t, len(all), 2, "Should have at least 2 metadata entries")
}

func TestDbMetadata_Update(t *testing.T) {
	setupMetadataTestDB(t)

	service := NewMetadataService()

	// Create test metadata
	metadata := models.MetadataDatabase{
		Name:         "Old connection",
		DbType:       models.DBTypePostgres,
		Host:         "old-host.example.com",
		Port:         5432,
		User:         "olduser",
		Password:     "oldpass",
		DatabaseName: "olddb",
		SSLMode:      "disable",
	}

	created, err := service.Create(metadata)
	require.NoError(t, err)
	defer cleanupDbMetadata(t, created.ID)

	// Update
	patch := map[string]any{
		"host":          "new-host.example.com",
		"user":          "newuser",
		"database_name": "newdb",
	}

	updated, err := service.Update(created.ID, patch)
	require.NoError(t, err, "Failed to update db metadata")
	require.NotNil(t, updated)

	assert.Equal(t, "new-host.example.com", updated.Host)
	assert.Equal(t, "newuser", updated.User)
	assert.Equal(t, "newdb", updated.DatabaseName)
	// Unchanged fields
	assert.Equal(t, 5432, updated.Port)
	assert.Equal(t, "oldpass", updated.Password)
}

func TestDbMetadata_Delete(t *testing.T) {
	setupMetadataTestDB(t)

	service := NewMetadataService()

	// Create test metadata
	metadata := models.MetadataDatabase{
		Name:         "Delete me",
		DbType:       models.DBTypePostgres,
		Host:         "delete-me.example.com",
		Port:         5432,
		User:         "user",
		Password:     "pass",
		DatabaseName: "db",
		SSLMode:      "disable",
	}

	created, err := service.Create(metadata)
	require.NoError(t, err)

	// Delete
	err = service.Delete(created.ID)
	require.NoError(t, err, "Failed to delete db metadata")

	// Verify deleted
	_, err = service.FindByID(created.ID)
	require.Error(t, err, "Should not find deleted metadata")
}

func TestDbMetadata_ConnectionString(t *testing.T) {
	meta := models.MetadataDatabase{
		DbType:       models.DBTypePostgres,
		Host:         "localhost",
		Port:         5432,
		User:         "u",
		Password:     "p",
		DatabaseName: "d",
	}

	dsn, err := meta.ConnectionString()
	require.NoError(t, err)
	assert.Equal(t, "host=localhost port=5432 user=u password=p dbname=d sslmode=disable", dsn)

	meta.DbType = models.DBTypeMySQL
	meta.Port = 3306
	dsn, err = meta.ConnectionString()
	require.NoError(t, err)
	assert.Equal(t, "u:p@tcp(localhost:3306)/d", dsn)

	meta.DbType = "oracle"
	_, err = meta.ConnectionString()
	require.Error(t, err, "Should reject unsupported database type")
}
