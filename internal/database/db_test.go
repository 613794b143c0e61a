package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"orders"`, QuoteIdentifier("orders"))
	assert.Equal(t, `"Order_Items2"`, QuoteIdentifier("Order_Items2"))
	assert.Equal(t, `"a""b"`, QuoteIdentifier(`a"b`))
}
