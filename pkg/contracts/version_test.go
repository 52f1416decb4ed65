package contracts

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, ReportFormatVersion, info.ReportFormat)

	assert.Contains(t, GetFullVersionString(), GetVersionString())
	assert.Contains(t, GetFullVersionString(), runtime.GOOS+"/"+runtime.GOARCH)
}
