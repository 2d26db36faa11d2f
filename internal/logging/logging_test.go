package logging

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogFilePath(t *testing.T) {
	start := time.Date(2016, 6, 4, 3, 0, 0, 0, time.UTC)
	got := LogFilePath(filepath.Join("var", "log"), "brusilov_map", start)
	assert.Equal(t, filepath.Join("var", "log", "brusilov_map.20160604_030000.log"), got)
}
