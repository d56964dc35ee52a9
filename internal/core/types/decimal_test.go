package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtend(t *testing.T) {
	assert.True(t, Extend(MustMoney("50"), 10).Equal(MustMoney("500")))
	assert.True(t, Extend(MustMoney("12.3456"), 3).Equal(MustMoney("37.0368")))
	assert.True(t, Extend(MustMoney("0.1"), 3).Equal(MustMoney("0.3")))
	assert.True(t, Extend(Zero(), 99).IsZero())
}
