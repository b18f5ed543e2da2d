package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const sequencePrefix = "seq"

// EncodeSequenceToken creates an opaque token that resumes listing after sequence.
func EncodeSequenceToken(sequence int64) string {
	tokenStr := fmt.Sprintf("%s|%d", sequencePrefix, sequence)
	return base64.StdEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeSequenceToken parses a token produced by EncodeSequenceToken.
func DecodeSequenceToken(token string) (int64, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 2)
	if len(parts) != 2 || parts[0] != sequencePrefix {
		return 0, fmt.Errorf("invalid pagination token format (split)")
	}

	sequence, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid pagination token format (sequence parse): %w", err)
	}
	if sequence < 0 {
		return 0, fmt.Errorf("invalid pagination token format (negative sequence)")
	}
	return sequence, nil
}
