package relevance

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "short words dropped",
			in:   "fix the undefined crash in login handler",
			want: []string{"undefined", "crash", "login", "handler"},
		},
		{
			name: "lowercased and split on punctuation",
			in:   "Payment.Totals are WRONG!",
			want: []string{"payment", "totals", "wrong"},
		},
		{
			name: "identifiers keep underscores and digits",
			in:   "user_id lookup broken2",
			want: []string{"user_id", "lookup", "broken2"},
		},
		{
			name: "nothing usable",
			in:   "fix it now",
			want: nil,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenize(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
