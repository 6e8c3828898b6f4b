package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_MarshalRoundTrip(t *testing.T) {
	id := NewIdentity("u-1", "red@kanto.io", "player")

	raw, err := id.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u-1","email":"red@kanto.io","role":"player"}`, raw)

	back, err := UnmarshalIdentity(raw)
	require.NoError(t, err)
	assert.Equal(t, id, back)
	assert.True(t, back.IsPlayer())
	assert.False(t, back.IsAdmin())
}

func TestIdentity_RejectsEmpty(t *testing.T) {
	_, err := (&Identity{}).Marshal()
	assert.ErrorIs(t, err, ErrEmptyIdentity)

	_, err = UnmarshalIdentity(`{"email":"x@y.z"}`)
	assert.ErrorIs(t, err, ErrEmptyIdentity)

	_, err = UnmarshalIdentity(`not json`)
	assert.Error(t, err)
}
