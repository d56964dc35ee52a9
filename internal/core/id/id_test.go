package id

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsTimeOrderedV7(t *testing.T) {
	first := New()
	second := New()

	assert.Equal(t, uuid.Version(7), first.Version())
	assert.Less(t, first.String(), second.String())
	assert.False(t, IsNil(first))
	assert.True(t, IsNil(Nil()))
}

func TestParse(t *testing.T) {
	v := New()

	parsed, err := Parse(v.String())
	require.NoError(t, err)
	assert.Equal(t, v, parsed)

	_, err = Parse("not-an-id")
	assert.Error(t, err)
}
