package btc

// OutputStatus describes what a BTC node reports about the lock output's
// funding outpoint.
type OutputStatus struct {
	Found         bool
	Confirmations uint64
	Spent         bool
	SpentTxid     string
}

// Client is the BTC node RPC surface the secondary package consumes,
// narrowed to the handful of synchronous calls the lock-confirmation and
// refund-height logic needs (nodeclient.Client's shape, generalized to a
// second chain).
type Client interface {
	// GetChainHeight returns the current BTC chain height.
	GetChainHeight() (uint64, error)

	// GetOutputStatus reports the funding outpoint's confirmation and
	// spend status.
	GetOutputStatus(txid string, vout uint32) (OutputStatus, error)

	// BroadcastTx relays a raw transaction to the network.
	BroadcastTx(txBytes []byte) error
}
