package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoria-client/pkg/api"
	appErrors "memoria-client/pkg/errors"
)

func TestStructCreateNode(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		err := Struct(api.CreateNodeRequest{Title: "Paris Trip", Type: "event"})
		assert.NoError(t, err)
	})

	t.Run("MissingTitle", func(t *testing.T) {
		err := Struct(api.CreateNodeRequest{Type: "event"})
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
		assert.Contains(t, err.Error(), "title is required")
	})

	t.Run("UnknownType", func(t *testing.T) {
		err := Struct(api.CreateNodeRequest{Title: "x", Type: "place"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "event, person, timeline")
	})

	t.Run("TitleTooLong", func(t *testing.T) {
		err := Struct(api.CreateNodeRequest{Title: strings.Repeat("a", 201), Type: "event"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at most 200")
	})
}

func TestStructCreateLink(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		err := Struct(api.CreateLinkRequest{MediaID: "m1", NodeID: "n1", Relationship: "primary"})
		assert.NoError(t, err)
	})

	t.Run("UnknownRelationship", func(t *testing.T) {
		err := Struct(api.CreateLinkRequest{MediaID: "m1", NodeID: "n1", Relationship: "linked"})
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
		assert.Contains(t, err.Error(), "primary, associated, reference")
	})

	t.Run("AggregatesAllFields", func(t *testing.T) {
		err := Struct(api.CreateLinkRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mediaId is required")
		assert.Contains(t, err.Error(), "nodeId is required")
		assert.Contains(t, err.Error(), "relationship is required")
	})
}

func TestStructUser(t *testing.T) {
	err := Struct(api.User{Email: "not-an-email"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid email")
}
