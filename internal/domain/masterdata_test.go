package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomHasTypeNoneRequired(t *testing.T) {
	r := Room{Types: []string{"classroom"}}
	assert.True(t, r.HasType(nil))
}

func TestRoomHasTypeMatch(t *testing.T) {
	r := Room{Types: []string{"classroom", "lab"}}
	assert.True(t, r.HasType([]string{"lab"}))
	assert.True(t, r.HasType([]string{"gym", "lab"}))
}

func TestRoomHasTypeNoMatch(t *testing.T) {
	r := Room{Types: []string{"classroom"}}
	assert.False(t, r.HasType([]string{"lab"}))
}
