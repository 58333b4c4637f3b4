package btc

import (
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/ticker"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	statuses []OutputStatus
	calls    int
}

func (f *fakeClient) GetChainHeight() (uint64, error) { return 0, nil }

func (f *fakeClient) GetOutputStatus(txid string, vout uint32) (OutputStatus, error) {
	status := f.statuses[f.calls]
	if f.calls < len(f.statuses)-1 {
		f.calls++
	}
	return status, nil
}

func (f *fakeClient) BroadcastTx(txBytes []byte) error { return nil }

func TestWatcherDeliversUpdatesAndStopsOnSpend(t *testing.T) {
	client := &fakeClient{statuses: []OutputStatus{
		{Found: true, Confirmations: 1},
		{Found: true, Confirmations: 2, Spent: true},
	}}

	force := ticker.NewForce(time.Hour)
	w := NewWatcher(client, "deadbeef", 0, force)
	w.Start()
	defer w.Stop()

	force.Force <- time.Now()
	first := <-w.Updates()
	require.Equal(t, uint64(1), first.Confirmations)

	force.Force <- time.Now()
	second := <-w.Updates()
	require.True(t, second.Spent)
}
