package pagination

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeSequenceToken(t *testing.T) {
	for _, seq := range []int64{0, 1, 42, 9_223_372_036_854_775_807} {
		token := EncodeSequenceToken(seq)
		assert.NotEmpty(t, token, "Token should not be empty")

		decoded, err := DecodeSequenceToken(token)
		assert.NoError(t, err, "Decoding should not return an error")
		assert.Equal(t, seq, decoded, "Sequence should match after decode")
	}
}

func TestDecodeSequenceTokenError(t *testing.T) {
	enc := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name    string
		token   string
		wantErr string
	}{
		{name: "invalid base64", token: "this is not base64!", wantErr: "base64 decode"},
		{name: "missing separator", token: enc("seq42"), wantErr: "split"},
		{name: "wrong prefix", token: enc("date|42"), wantErr: "split"},
		{name: "not a number", token: enc("seq|abc"), wantErr: "sequence parse"},
		{name: "negative", token: enc("seq|-3"), wantErr: "negative sequence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSequenceToken(tt.token)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
