package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTagNames(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"trims and lowercases", []string{"  Go ", "WEB"}, []string{"go", "web"}},
		{"drops blanks", []string{"", "   ", "db"}, []string{"db"}},
		{"collapses duplicates keeping first order", []string{"Go", "sql", "go", "GO ", "Sql"}, []string{"go", "sql"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTagNames(tt.in))
		})
	}
}

func TestActorAnonymous(t *testing.T) {
	assert.True(t, Actor{}.Anonymous())
	assert.True(t, Actor{SessionID: "stale"}.Anonymous())
	assert.False(t, Actor{UserID: 1}.Anonymous())
}
