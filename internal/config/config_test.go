package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestShippingCostFallback(t *testing.T) {
	cfg := Load()

	assert.True(t, cfg.ShippingCost("standard").Equal(decimal.NewFromInt(49)))
	assert.True(t, cfg.ShippingCost("express").Equal(decimal.NewFromInt(99)))
	assert.True(t, cfg.ShippingCost("pickup").IsZero())
	assert.True(t, cfg.ShippingCost("carrier-pigeon").Equal(decimal.NewFromInt(49)))
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV("a, b"))
	assert.Equal(t, []string{"kafka:9092"}, splitCSV("kafka:9092"))
	assert.Empty(t, splitCSV(" , "))
}
