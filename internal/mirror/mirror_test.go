package mirror

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    State
	}{
		{0, 1},
		{-time.Second, 1},
		{400 * time.Microsecond, 1},
		{600 * time.Microsecond, 2},
		{time.Millisecond, 2},
		{1500 * time.Millisecond, 1501},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Score(tt.elapsed), "Score(%v)", tt.elapsed)
		assert.True(t, Score(tt.elapsed).Measured())
	}
}

func TestSentinelsAreNotMeasured(t *testing.T) {
	for _, s := range []State{Active, Failed, Done, Pending} {
		assert.False(t, s.Measured(), "%v", s)
	}
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "42", State(42).String())
}

func TestNewEntryTruncatesURL(t *testing.T) {
	long := "http://example.com/" + strings.Repeat("a", 2*MaxURLLength)
	e := NewEntry(long, 10)

	assert.Len(t, e.URL, MaxURLLength)
	assert.Equal(t, Pending, e.Speed)
	assert.Equal(t, int64(10), e.Size)
	assert.True(t, e.Start.IsZero())
}

func TestTableWorking(t *testing.T) {
	table := Table{
		{Speed: 12},
		{Speed: Done},
		{Speed: 3},
		{Speed: Pending},
	}
	assert.Equal(t, 2, table.Working())
}
