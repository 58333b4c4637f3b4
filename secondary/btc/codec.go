package btc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
)

// wireData is Data's on-disk JSON shape, used by swapdb to persist the
// secondary-chain leg alongside the rest of a swap record.
type wireData struct {
	Net                   string `json:"net"`
	CosignLocal           string `json:"cosign_local"`
	CosignRemote          string `json:"cosign_remote"`
	RefundPubKey          string `json:"refund_pub_key"`
	LockTimeValue         uint64 `json:"lock_time"`
	RequiredConfirmations uint64 `json:"required_confirmations"`
}

// MarshalBinary implements the marshaler swapdb looks for when persisting a
// swap.SecondaryData value (spec.md §9).
func (d *Data) MarshalBinary() ([]byte, error) {
	w := wireData{
		Net:                   d.Params.Name,
		CosignLocal:           hex.EncodeToString(d.CosignLocal.SerializeCompressed()),
		CosignRemote:          hex.EncodeToString(d.CosignRemote.SerializeCompressed()),
		RefundPubKey:          hex.EncodeToString(d.RefundPubKey.SerializeCompressed()),
		LockTimeValue:         d.LockTimeValue,
		RequiredConfirmations: d.RequiredConfirmations,
	}
	return json.Marshal(w)
}

// UnmarshalBinary implements the companion decoder.
func (d *Data) UnmarshalBinary(data []byte) error {
	var w wireData
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("unmarshal btc.Data: %w", err)
	}

	params, err := paramsForNet(w.Net)
	if err != nil {
		return err
	}

	cosignLocal, err := parseHexPubKey(w.CosignLocal)
	if err != nil {
		return fmt.Errorf("cosign_local: %w", err)
	}
	cosignRemote, err := parseHexPubKey(w.CosignRemote)
	if err != nil {
		return fmt.Errorf("cosign_remote: %w", err)
	}
	refundPub, err := parseHexPubKey(w.RefundPubKey)
	if err != nil {
		return fmt.Errorf("refund_pub_key: %w", err)
	}

	d.Params = params
	d.CosignLocal = cosignLocal
	d.CosignRemote = cosignRemote
	d.RefundPubKey = refundPub
	d.LockTimeValue = w.LockTimeValue
	d.RequiredConfirmations = w.RequiredConfirmations
	return nil
}

func parseHexPubKey(s string) (*btcec.PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return btcec.ParsePubKey(b)
}

func paramsForNet(name string) (*chaincfg.Params, error) {
	switch name {
	case chaincfg.MainNetParams.Name:
		return &chaincfg.MainNetParams, nil
	case chaincfg.TestNet3Params.Name:
		return &chaincfg.TestNet3Params, nil
	case chaincfg.RegressionNetParams.Name:
		return &chaincfg.RegressionNetParams, nil
	case chaincfg.SimNetParams.Name:
		return &chaincfg.SimNetParams, nil
	default:
		return nil, fmt.Errorf("unknown BTC network %q", name)
	}
}
