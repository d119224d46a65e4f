package generation

import (
	"context"
	"strings"
	"time"
)

// DefaultStreamInterval is the pause between delivered words.
const DefaultStreamInterval = 20 * time.Millisecond

// StreamWords delivers text word by word, growing the delivered prefix on
// each call. Delivery stops when ctx is cancelled; the caller decides
// whether a partial delivery matters.
func StreamWords(ctx context.Context, text string, interval time.Duration, deliver func(chunk string)) error {
	if interval <= 0 {
		interval = DefaultStreamInterval
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		deliver(text)
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var b strings.Builder
	for i, w := range words {
		if i > 0 {
			b.WriteString(" ")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		b.WriteString(w)
		deliver(b.String())
	}
	return nil
}
