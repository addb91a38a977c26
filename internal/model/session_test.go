package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		claim string
		want  Role
	}{
		{"", RoleManufacturer},
		{"manufacturer", RoleManufacturer},
		{"Admin", RoleAdmin},
		{" admin ", RoleAdmin},
		{"consumer", RoleUnknown},
		{"root", RoleUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.claim, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRole(tt.claim))
		})
	}
}

func TestSession_Anonymous(t *testing.T) {
	assert.True(t, Session{Role: RoleAdmin}.Anonymous())
	assert.False(t, Session{Address: MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")}.Anonymous())
}
