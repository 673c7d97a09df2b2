package global

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEventKey(t *testing.T) {
	assert.Equal(t, "social:u1", GetEventKey("social", "u1"))
	// 不同区域的同一用户分到不同键, 互不串序
	assert.NotEqual(t, GetEventKey("social", "u1"), GetEventKey("chat", "u1"))
}
