package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomCode(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "valid numeric code", value: "483920", wantErr: false},
		{name: "empty", value: "", wantErr: true},
		{name: "too short", value: "12345", wantErr: true},
		{name: "too long", value: "1234567", wantErr: true},
		{name: "letters", value: "12a456", wantErr: true},
		{name: "unicode digits rejected by length", value: "١٢٣٤٥٦", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RoomCode()(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPlayerName(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "simple name", value: "ana", wantErr: false},
		{name: "name with spaces", value: "the quiet one", wantErr: false},
		{name: "empty", value: "", wantErr: true},
		{name: "whitespace only", value: "   ", wantErr: true},
		{name: "too long", value: "abcdefghijklmnopqrstuvwxy", wantErr: true},
		{name: "control characters", value: "an\x00a", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PlayerName()(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFieldPrefixesErrors(t *testing.T) {
	err := Field("room code", Required())("")
	assert.ErrorContains(t, err, "room code")
}

func TestComposeFirstErrorWins(t *testing.T) {
	v := Compose(MinLength(3), MaxLength(5))

	assert.ErrorContains(t, v("ab"), "at least 3")
	assert.ErrorContains(t, v("abcdef"), "no more than 5")
	assert.NoError(t, v("abcd"))
}
