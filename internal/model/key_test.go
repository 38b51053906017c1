package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCamelotKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"A Minor", "8A"},
		{"Am", "8A"},
		{"a min", "8A"},
		{"C Major", "8B"},
		{"C Maj", "8B"},
		{"F♯ Maj", "2B"},
		{"Gb Major", "2B"},
		{"F# min", "11A"},
		{"Gb min", "11A"},
		{"E♭ Minor", "2A"},
		{"8A", "8A"},
		{"12b", "12B"},
		{"", ""},
		{"H Minor", ""},
		{"polka", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CamelotKey(tt.in), "CamelotKey(%q)", tt.in)
	}
}

func TestKeysEquivalent(t *testing.T) {
	assert.True(t, KeysEquivalent("F# min", "Gb Minor"), "enharmonic keys must match")
	assert.True(t, KeysEquivalent("A Minor", "8A"))
	assert.False(t, KeysEquivalent("A Minor", "A Major"))
	assert.False(t, KeysEquivalent("", ""), "unparseable keys never match")
	assert.False(t, KeysEquivalent("junk", "junk"))
}
