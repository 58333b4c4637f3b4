package fileslate

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/mwcproject/mwc-swap/swap"
	"github.com/mwcproject/mwc-swap/swapcfg"
	"github.com/stretchr/testify/require"
)

func TestPutGetSlateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := PathToSlate{Path: filepath.Join(dir, "tx.slate")}

	slate := swap.NewBlankSlate(2)
	slate.ID = uuid.New()
	slate.Amount = 42_000
	slate.Fee = swap.TxFee(1, 1, 1)

	require.NoError(t, p.PutSlate(slate, swapcfg.DefaultSlateVersionPolicy()))

	loaded, err := p.GetSlate()
	require.NoError(t, err)
	require.Equal(t, slate.ID, loaded.ID)
	require.Equal(t, slate.Amount, loaded.Amount)
	require.Equal(t, slate.Fee, loaded.Fee)
}

func TestGetSlateMissingFile(t *testing.T) {
	p := PathToSlate{Path: filepath.Join(t.TempDir(), "missing.slate")}
	_, err := p.GetSlate()
	require.Error(t, err)
}
