package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetScope_Missing(t *testing.T) {
	scope, ok := GetScope(context.Background())
	assert.False(t, ok)
	assert.Nil(t, scope)
}

func TestGetScope_ReleasedScopeIsNotUsable(t *testing.T) {
	ctx := SetScope(context.Background(), &Scope{})
	_, ok := GetScope(ctx)
	assert.False(t, ok, "a scope without a connection must not be handed to repositories")
}

func TestScope_CloseWithoutConnection(t *testing.T) {
	s := &Scope{}
	assert.NotPanics(t, s.Close)
	assert.NotPanics(t, s.Close)
}
