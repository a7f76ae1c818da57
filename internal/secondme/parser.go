package secondme

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// Frames larger than this are abandoned by the scanner; one oversized frame
// terminates the stream but never fails utterances already accumulated.
const maxFrameSize = 1 << 20

// DeltaScanner is a lazy, finite sequence of parsed text deltas read from a
// chat stream response body. Frames it cannot parse are skipped, never
// surfaced: one bad frame must not cost the whole utterance.
type DeltaScanner struct {
	sc   *bufio.Scanner
	done bool
}

// NewDeltaScanner wraps a stream response body.
func NewDeltaScanner(r io.Reader) *DeltaScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	return &DeltaScanner{sc: sc}
}

// Next returns the next non-empty text delta. ok is false once the stream
// hits the end sentinel, EOF, or a read error.
func (d *DeltaScanner) Next() (string, bool) {
	for !d.done && d.sc.Scan() {
		line := d.sc.Text()
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := strings.TrimPrefix(line, dataPrefix)
		if strings.TrimSpace(payload) == doneSentinel {
			d.done = true
			return "", false
		}

		// The upstream speaks the OpenAI stream-chunk schema.
		var chunk openai.ChatCompletionStreamResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			return delta, true
		}
	}
	d.done = true
	return "", false
}

// Collect folds the remaining deltas into the final utterance text.
func (d *DeltaScanner) Collect() string {
	var b strings.Builder
	for {
		delta, ok := d.Next()
		if !ok {
			break
		}
		b.WriteString(delta)
	}
	return strings.TrimSpace(b.String())
}
