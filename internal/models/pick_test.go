package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavedPickTableName(t *testing.T) {
	assert.Equal(t, "saved_picks", SavedPick{}.TableName())
}

func TestSavedPickBeforeCreateAssignsID(t *testing.T) {
	p := &SavedPick{}
	require.NoError(t, p.BeforeCreate(nil))
	_, err := uuid.Parse(p.ID)
	assert.NoError(t, err)

	existing := &SavedPick{ID: "keep-me"}
	require.NoError(t, existing.BeforeCreate(nil))
	assert.Equal(t, "keep-me", existing.ID)
}
