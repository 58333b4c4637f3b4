// Package fileslate implements the file-based slate transport: writing a
// slate to a path for the counterparty to pick up out of band, and reading
// one back. Adapted from original_source/impls/src/adapters/file.rs's
// PathToSlate (create + write_all + fsync on the way out, read + parse on
// the way back), the simplest of the several slate transports the original
// implementation supports (spec.md §6).
package fileslate

import (
	"fmt"
	"os"

	"github.com/mwcproject/mwc-swap/swap"
	"github.com/mwcproject/mwc-swap/swapcfg"
	"github.com/mwcproject/mwc-swap/swaperr"
)

// PathToSlate reads and writes a single slate at a fixed filesystem path.
type PathToSlate struct {
	Path string
}

// PutSlate serializes slate per policy and writes it to Path, fsyncing
// before close so the counterparty never observes a partially written file
// (file.rs's create/write_all/sync_all sequence).
func (p PathToSlate) PutSlate(slate *swap.Slate, policy swapcfg.SlateVersionPolicy) error {
	data, err := swap.EncodeSlate(slate, policy)
	if err != nil {
		return &swaperr.IO{Reason: fmt.Sprintf("encode slate for %s: %v", p.Path, err)}
	}

	f, err := os.Create(p.Path)
	if err != nil {
		return &swaperr.IO{Reason: fmt.Sprintf("create proof file %s: %v", p.Path, err)}
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return &swaperr.IO{Reason: fmt.Sprintf("write proof file %s: %v", p.Path, err)}
	}
	if err := f.Sync(); err != nil {
		return &swaperr.IO{Reason: fmt.Sprintf("sync proof file %s: %v", p.Path, err)}
	}
	return nil
}

// GetSlate reads and decodes the slate at Path.
func (p PathToSlate) GetSlate() (*swap.Slate, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, &swaperr.IO{Reason: fmt.Sprintf("read proof file %s: %v", p.Path, err)}
	}

	slate, err := swap.DecodeSlate(data)
	if err != nil {
		return nil, &swaperr.IO{Reason: fmt.Sprintf("parse slate from %s: %v", p.Path, err)}
	}
	return slate, nil
}
