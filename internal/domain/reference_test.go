package domain

import (
	"errors"
	"testing"
)

func TestParseReference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Reference
	}{
		{"John 3:16", Reference{Book: "John", Chapter: 3, Verse: 16}},
		{"1 John 4:8", Reference{Book: "1 John", Chapter: 4, Verse: 8}},
		{"Song of Solomon 2:4", Reference{Book: "Song of Solomon", Chapter: 2, Verse: 4}},
		{"psalm 23:1", Reference{Book: "Psalms", Chapter: 23, Verse: 1}},
		{"  Obadiah 1:21 ", Reference{Book: "Obadiah", Chapter: 1, Verse: 21}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseReference(tt.in)
			if err != nil {
				t.Fatalf("ParseReference(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseReference(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseReference_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		wantErr error
	}{
		{"", ErrInvalidReference},
		{"John", ErrInvalidReference},
		{"John 3", ErrInvalidReference},
		{"John 0:1", ErrInvalidReference},
		{"John 3:x", ErrInvalidReference},
		{"Obadiah 1:22", ErrInvalidReference},
		{"Obadiah 2:1", ErrInvalidReference},
		{"Hezekiah 1:1", ErrUnknownBook},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			_, err := ParseReference(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseReference(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestReference_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"Genesis 1:1", "Revelation 22:21", "3 John 1:14"} {
		ref, err := ParseReference(s)
		if err != nil {
			t.Fatalf("ParseReference(%q): %v", s, err)
		}
		if got := ref.String(); got != s {
			t.Errorf("round trip %q -> %q", s, got)
		}
	}
}
