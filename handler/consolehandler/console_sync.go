package consolehandler

import (
	"github.com/philipp01105/conlog/core"
)

// SyncHandler writes every entry on the calling goroutine.
type SyncHandler struct {
	consoleBase
}

// NewSync creates a synchronous handler.
func NewSync(cfg Config) *SyncHandler {
	applyDefaults(&cfg)
	return newSyncHandler(cfg)
}

func newSyncHandler(cfg Config) *SyncHandler {
	h := &SyncHandler{}
	h.init(cfg)
	return h
}

// Handle writes the entry's lines before returning. Entries handed over
// after Close are still written; closing only marks the handler.
func (h *SyncHandler) Handle(entry *core.Entry) error {
	return h.write(entry)
}

// Close closes the handler.
func (h *SyncHandler) Close() error {
	h.markClosed()
	return nil
}
