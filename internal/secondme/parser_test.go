package secondme

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func chunk(content string) string {
	return `data: {"choices":[{"delta":{"content":"` + content + `"}}]}`
}

func TestDeltaScanner_Collect(t *testing.T) {
	t.Run("folds deltas into one utterance", func(t *testing.T) {
		stream := strings.Join([]string{
			chunk("I was "),
			chunk("in the library "),
			chunk("all evening."),
			"data: [DONE]",
		}, "\n")

		got := NewDeltaScanner(strings.NewReader(stream)).Collect()
		assert.Equal(t, "I was in the library all evening.", got)
	})

	t.Run("skips unparsable frames", func(t *testing.T) {
		stream := strings.Join([]string{
			chunk("Hello"),
			"data: {not json at all",
			chunk(" there"),
			"data: [DONE]",
		}, "\n")

		got := NewDeltaScanner(strings.NewReader(stream)).Collect()
		assert.Equal(t, "Hello there", got)
	})

	t.Run("ignores non-data lines and empty deltas", func(t *testing.T) {
		stream := strings.Join([]string{
			": keep-alive",
			"",
			chunk("Only this"),
			`data: {"choices":[{"delta":{}}]}`,
			`data: {"choices":[]}`,
			"data: [DONE]",
		}, "\n")

		got := NewDeltaScanner(strings.NewReader(stream)).Collect()
		assert.Equal(t, "Only this", got)
	})

	t.Run("stops at the end sentinel", func(t *testing.T) {
		stream := strings.Join([]string{
			chunk("before"),
			"data: [DONE]",
			chunk("after"),
		}, "\n")

		got := NewDeltaScanner(strings.NewReader(stream)).Collect()
		assert.Equal(t, "before", got)
	})

	t.Run("empty stream yields empty text", func(t *testing.T) {
		got := NewDeltaScanner(strings.NewReader("")).Collect()
		assert.Empty(t, got)
	})

	t.Run("stream without sentinel still terminates at EOF", func(t *testing.T) {
		got := NewDeltaScanner(strings.NewReader(chunk("truncated"))).Collect()
		assert.Equal(t, "truncated", got)
	})
}

func TestDeltaScanner_Next(t *testing.T) {
	stream := strings.Join([]string{
		chunk("a"),
		chunk("b"),
		"data: [DONE]",
	}, "\n")
	sc := NewDeltaScanner(strings.NewReader(stream))

	delta, ok := sc.Next()
	assert.True(t, ok)
	assert.Equal(t, "a", delta)

	delta, ok = sc.Next()
	assert.True(t, ok)
	assert.Equal(t, "b", delta)

	_, ok = sc.Next()
	assert.False(t, ok)

	// Exhausted scanners stay exhausted.
	_, ok = sc.Next()
	assert.False(t, ok)
}
