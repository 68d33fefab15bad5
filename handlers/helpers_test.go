package handlers

import (
	"fmt"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/skywatch/backend/database"
	"github.com/skywatch/backend/services"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points the package-global DB at a fresh in-memory sqlite
// database. The shared-cache DSN keeps every pooled connection on the
// same database; the name keeps tests isolated from each other.
func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	database.DB = db
}

// setupTestDeps wires minimal handler dependencies for tests
func setupTestDeps(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	Init(Deps{
		Sessions:  services.NewSessionManager(),
		Drone:     services.NewSimulatedLink("TEST-1"),
		Weather:   services.NewStaticWeather(),
		UploadDir: t.TempDir(),
	})
}
