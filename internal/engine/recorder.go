package engine

import (
	"context"

	"dhtcrawl/internal/charset"
)

// record drains the inquirer pool's output channel, decodes each
// record's raw filename bytes to text, and persists the result. The
// chain ends in charset.LatinFallback, so a name that is neither UTF-8
// nor GB18030 is stored byte-for-byte as Latin-1; only a name that
// fails every step (an empty one) is dropped.
func (e *Engine) record(ctx context.Context) {
	if e.sink == nil {
		<-ctx.Done()
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-e.metadataCh:
			if !ok {
				return
			}
			name, ok := charset.Decode(rec.Name, charset.LatinFallback)
			if !ok {
				continue
			}
			if err := e.sink.Insert(ctx, rec.Hash, name, rec.Size); err != nil {
				e.log.Errorf("recorder: insert %s: %v", rec.Hash, err)
				continue
			}
			totalMetadataFetched.Add(1)
		}
	}
}
