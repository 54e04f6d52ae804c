// Package chat assembles an incrementally streamed assistant reply from
// newline-delimited JSON chunks and talks to the chat backend.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// FallbackMessage replaces the assistant message when the stream fails
// partway. Partially accumulated text is discarded rather than shown
// truncated.
const FallbackMessage = "Sorry, I couldn't finish that response. Please try again."

// readBufSize is the transport chunk size; records may split across reads.
const readBufSize = 4096

// record is one streamed line. Types other than "content" are ignored.
type record struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Assembler reconstructs a single growing message from arbitrarily
// sized byte chunks. The onUpdate sink observes the current value after
// every chunk that changed it; once the stream ends the last value is
// final.
type Assembler struct {
	pending  []byte
	text     strings.Builder
	onUpdate func(string)
}

// NewAssembler creates an Assembler. onUpdate may be nil.
func NewAssembler(onUpdate func(string)) *Assembler {
	return &Assembler{onUpdate: onUpdate}
}

// Text returns the message accumulated so far.
func (a *Assembler) Text() string {
	return a.text.String()
}

// Write feeds one transport chunk. Complete lines are parsed as JSON
// records; the trailing fragment is held back until a later chunk
// completes it. A complete line that fails to parse is silently
// discarded; the missing piece arrived in a chunk that was already
// consumed and will never show up again.
func (a *Assembler) Write(chunk []byte) {
	a.pending = append(a.pending, chunk...)

	lines := bytes.Split(a.pending, []byte("\n"))
	a.pending = lines[len(lines)-1]

	changed := false
	for _, line := range lines[:len(lines)-1] {
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.Type != "content" {
			continue
		}
		a.text.WriteString(rec.Text)
		changed = true
	}

	if changed && a.onUpdate != nil {
		a.onUpdate(a.text.String())
	}
}

// Consume reads the stream until EOF, feeding each chunk to Write. On a
// transport error the accumulated text is replaced with the fallback
// message. Cancellation abandons the loop without touching the text,
// even when it surfaces as a read error mid-stream; releasing the
// reader is the caller's concern.
func (a *Assembler) Consume(ctx context.Context, r io.Reader) error {
	buf := make([]byte, readBufSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.Read(buf)
		if n > 0 {
			a.Write(buf[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			a.fail()
			return err
		}
	}
}

// fail discards partial text and surfaces the fallback message.
func (a *Assembler) fail() {
	a.pending = nil
	a.text.Reset()
	a.text.WriteString(FallbackMessage)
	if a.onUpdate != nil {
		a.onUpdate(FallbackMessage)
	}
}
