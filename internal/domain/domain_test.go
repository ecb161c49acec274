package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRelationship(t *testing.T) {
	for _, valid := range []string{"primary", "associated", "reference"} {
		rel, err := ParseRelationship(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, string(rel))
	}

	for _, invalid := range []string{"", "Primary", "owner", "linked"} {
		_, err := ParseRelationship(invalid)
		assert.Error(t, err, "expected %q to be rejected", invalid)
	}
}

func TestParseMediaType(t *testing.T) {
	for _, valid := range []string{"image", "video", "audio"} {
		mt, err := ParseMediaType(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, string(mt))
	}

	_, err := ParseMediaType("document")
	assert.Error(t, err)
}

func TestParseNodeType(t *testing.T) {
	for _, valid := range []string{"event", "person", "timeline"} {
		nt, err := ParseNodeType(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, string(nt))
	}

	_, err := ParseNodeType("place")
	assert.Error(t, err)
}
