package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidURL(t *testing.T) {
	assert.True(t, IsValidURL("http://localhost:8080/recordstore"))
	assert.True(t, IsValidURL("https://example.com"))
	assert.False(t, IsValidURL("localhost:8081"))
	assert.False(t, IsValidURL("ftp://example.com"))
	assert.False(t, IsValidURL("http://"))
	assert.False(t, IsValidURL("://"))
}
