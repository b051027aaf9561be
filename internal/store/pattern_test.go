package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%kafka%", ContainsPattern("Kafka"))
	assert.Equal(t, `%100\%%`, ContainsPattern("100%"))
	assert.Equal(t, `%snake\_case%`, ContainsPattern("snake_case"))
	assert.Equal(t, `%c:\\temp%`, ContainsPattern(`C:\temp`))
}
