package duration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"4 minutes 12 seconds", 252, true},
		{"1 hour", 3600, true},
		{"1 hour and 12 minutes", 4320, true},
		{"12 seconds and 1 minute", 72, true},
		{"2 days", 172800, true},
		{"1 min 5 secs", 65, true},
		{"foo", 0, false},
		{"", 0, false},
		{"0 seconds", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Parse(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergePrecision(t *testing.T) {
	p := MergePrecision("4 minutes", "4 minutes 9 seconds")
	assert.True(t, p.OK)
	assert.Equal(t, 249, p.Seconds)
	assert.Equal(t, "4 minutes 9 seconds", p.Text)

	p = MergePrecision("4 minutes", "")
	assert.Equal(t, 240, p.Seconds)
	assert.Equal(t, "4 minutes", p.Text)

	// unparseable or zero precision never overrides
	p = MergePrecision("4 minutes", "soon")
	assert.Equal(t, 240, p.Seconds)
	p = MergePrecision("4 minutes", "0 seconds")
	assert.Equal(t, "4 minutes", p.Text)

	p = MergePrecision("a while", "")
	assert.False(t, p.OK)
}
