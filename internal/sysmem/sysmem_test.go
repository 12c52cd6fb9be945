package sysmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreeBytes_NonNegative(t *testing.T) {
	assert.GreaterOrEqual(t, FreeBytes(), int64(0))
}
