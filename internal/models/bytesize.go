package models

import (
	"fmt"
	"strconv"
)

// ByteSize is a byte count that serializes to JSON as a decimal string.
// Repository sizes can exceed the 2^53 range JavaScript clients handle
// safely, so the API never emits them as native numbers.
type ByteSize int64

func (b ByteSize) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, strconv.FormatInt(int64(b), 10)), nil
}

func (b *ByteSize) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*b = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid byte size %q: %w", string(data), err)
	}
	*b = ByteSize(n)
	return nil
}
