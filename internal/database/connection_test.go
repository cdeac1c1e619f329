package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, LogLevel("silent"))
	assert.Equal(t, logger.Info, LogLevel("info"))
	assert.Equal(t, logger.Warn, LogLevel("verbose"))
}

func TestIndexesAreIdempotent(t *testing.T) {
	for _, statement := range indexes {
		assert.True(t, strings.HasPrefix(statement, "CREATE INDEX IF NOT EXISTS "), statement)
	}
}
