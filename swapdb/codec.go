// Package swapdb persists Swap records to a local bolt database, so a swap
// can resume across process restarts (spec.md §5's durability requirement).
// Modeled on channeldb/db.go: a single bucket keyed by swap ID, a version
// counter with a migration list, and a JSON wire snapshot rather than the
// live, unexported-field-bearing in-memory types.
package swapdb

import (
	"encoding"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/mwcproject/mwc-swap/swap"
	"github.com/mwcproject/mwc-swap/swapcfg"
)

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// wireMultisig mirrors swap.MultisigSnapshot for JSON persistence.
type wireMultisig struct {
	NumParticipants int      `json:"num_participants"`
	Value           uint64   `json:"value"`
	LocalIndex      int      `json:"local_index"`
	LocalNonce      string   `json:"local_nonce"`
	Participants    [2]*wireMultisigParticipant `json:"participants"`
	Imported        [2]bool  `json:"imported"`
	Round1Done      bool     `json:"round1_done"`
	Round2Done      bool     `json:"round2_done"`
	CommonNonce     string   `json:"common_nonce,omitempty"`
	LocalBlindKey   string   `json:"local_blind_key,omitempty"`
}

type wireMultisigParticipant struct {
	CommitShare string `json:"commit_share"`
	NonceShare  string `json:"nonce_share"`
	ValueHash   string `json:"value_hash"`
}

// wireSwap is the on-disk snapshot of a swap.Swap.
type wireSwap struct {
	ID              string `json:"id"`
	Version         uint8  `json:"version"`
	Network         string `json:"network"`
	Role            string `json:"role"`
	SellerLockFirst bool   `json:"seller_lock_first"`
	StartTime       int64  `json:"start_time_unix"`
	Status          string `json:"status"`

	PrimaryAmount     uint64 `json:"primary_amount"`
	SecondaryAmount   uint64 `json:"secondary_amount"`
	SecondaryCurrency string `json:"secondary_currency"`
	SecondaryData     []byte `json:"secondary_data,omitempty"`

	RedeemPublicKey string `json:"redeem_public_key,omitempty"`
	ParticipantIdx  int    `json:"participant_idx"`

	Multisig *wireMultisig `json:"multisig,omitempty"`

	LockSlate   json.RawMessage `json:"lock_slate,omitempty"`
	RefundSlate json.RawMessage `json:"refund_slate,omitempty"`
	RedeemSlate json.RawMessage `json:"redeem_slate,omitempty"`

	MwcLockConfirmations   *uint64 `json:"mwc_lock_confirmations,omitempty"`
	MwcRefundConfirmations *uint64 `json:"mwc_refund_confirmations,omitempty"`
	MwcRedeemConfirmations *uint64 `json:"mwc_redeem_confirmations,omitempty"`
	SecondaryConfirmations *uint64 `json:"secondary_confirmations,omitempty"`

	AdaptorSignature string `json:"adaptor_signature,omitempty"`

	RequiredMwcLockConfirmations       uint64 `json:"required_mwc_lock_confirmations"`
	RequiredSecondaryLockConfirmations uint64 `json:"required_secondary_lock_confirmations"`
	MwcLockTimeSeconds                 uint64 `json:"mwc_lock_time_seconds"`
	SellerRedeemTime                   uint64 `json:"seller_redeem_time"`
}

// SecondaryCodec decodes the opaque secondary-chain blob stored alongside a
// swap record back into a swap.SecondaryData. Callers register one per
// currency they support (currently only BTC); swapdb has no built-in
// knowledge of any particular secondary chain.
type SecondaryCodec func(currency swap.Currency, data []byte) (swap.SecondaryData, error)

func encodeSwap(s *swap.Swap) ([]byte, error) {
	w := wireSwap{
		ID:                                 s.ID.String(),
		Version:                            s.Version,
		Network:                            s.Network.String(),
		Role:                               s.Role.String(),
		SellerLockFirst:                    s.SellerLockFirst,
		StartTime:                          s.StartTime.Unix(),
		Status:                             s.Status.String(),
		PrimaryAmount:                      s.PrimaryAmount,
		SecondaryAmount:                    s.SecondaryAmount,
		SecondaryCurrency:                  s.SecondaryCurrency.String(),
		ParticipantIdx:                     s.ParticipantIdx,
		MwcLockConfirmations:               s.Confirmations.MwcLock,
		MwcRefundConfirmations:             s.Confirmations.MwcRefund,
		MwcRedeemConfirmations:             s.Confirmations.MwcRedeem,
		SecondaryConfirmations:             s.Confirmations.Secondary,
		RequiredMwcLockConfirmations:       s.RequiredMwcLockConfirmations,
		RequiredSecondaryLockConfirmations: s.RequiredSecondaryLockConfirmations,
		MwcLockTimeSeconds:                 s.MwcLockTimeSeconds,
		SellerRedeemTime:                   s.SellerRedeemTime,
	}

	if s.RedeemPublicKey != nil {
		w.RedeemPublicKey = hex.EncodeToString(s.RedeemPublicKey.SerializeCompressed())
	}
	if s.AdaptorSignature != nil {
		sigBytes := s.AdaptorSignature.Bytes()
		w.AdaptorSignature = hex.EncodeToString(sigBytes[:])
	}

	if s.SecondaryData != nil {
		marshaler, ok := s.SecondaryData.(encoding.BinaryMarshaler)
		if !ok {
			return nil, fmt.Errorf("secondary data for currency %s does not support persistence", s.SecondaryCurrency)
		}
		blob, err := marshaler.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("marshal secondary data: %w", err)
		}
		w.SecondaryData = blob
	}

	if s.Multisig != nil {
		w.Multisig = encodeMultisig(s.Multisig.Snapshot())
	}

	var err error
	if s.LockSlate != nil {
		if w.LockSlate, err = swap.EncodeSlate(s.LockSlate, swapcfg.DefaultSlateVersionPolicy()); err != nil {
			return nil, fmt.Errorf("encode lock slate: %w", err)
		}
	}
	if s.RefundSlate != nil {
		if w.RefundSlate, err = swap.EncodeSlate(s.RefundSlate, swapcfg.DefaultSlateVersionPolicy()); err != nil {
			return nil, fmt.Errorf("encode refund slate: %w", err)
		}
	}
	if s.RedeemSlate != nil {
		if w.RedeemSlate, err = swap.EncodeSlate(s.RedeemSlate, swapcfg.DefaultSlateVersionPolicy()); err != nil {
			return nil, fmt.Errorf("encode redeem slate: %w", err)
		}
	}

	return json.Marshal(&w)
}

func decodeSwap(data []byte, secondaryCodec SecondaryCodec) (*swap.Swap, error) {
	var w wireSwap
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("unmarshal swap record: %w", err)
	}

	id, err := uuid.Parse(w.ID)
	if err != nil {
		return nil, fmt.Errorf("swap id: %w", err)
	}

	network, err := swapcfg.ParseNetwork(w.Network)
	if err != nil {
		return nil, err
	}
	role, err := swap.ParseRole(w.Role)
	if err != nil {
		return nil, err
	}
	status, err := swap.ParseStatus(w.Status)
	if err != nil {
		return nil, err
	}
	currency, err := swap.ParseCurrency(w.SecondaryCurrency)
	if err != nil {
		return nil, err
	}

	s := &swap.Swap{
		ID:                                 id,
		Version:                            w.Version,
		Network:                            network,
		Role:                               role,
		SellerLockFirst:                    w.SellerLockFirst,
		StartTime:                          unixTime(w.StartTime),
		Status:                             status,
		PrimaryAmount:                      w.PrimaryAmount,
		SecondaryAmount:                    w.SecondaryAmount,
		SecondaryCurrency:                  currency,
		ParticipantIdx:                     w.ParticipantIdx,
		RequiredMwcLockConfirmations:       w.RequiredMwcLockConfirmations,
		RequiredSecondaryLockConfirmations: w.RequiredSecondaryLockConfirmations,
		MwcLockTimeSeconds:                 w.MwcLockTimeSeconds,
		SellerRedeemTime:                   w.SellerRedeemTime,
		Confirmations: swap.Confirmations{
			MwcLock:   w.MwcLockConfirmations,
			MwcRefund: w.MwcRefundConfirmations,
			MwcRedeem: w.MwcRedeemConfirmations,
			Secondary: w.SecondaryConfirmations,
		},
	}

	if w.RedeemPublicKey != "" {
		if s.RedeemPublicKey, err = parseHexPubKey(w.RedeemPublicKey); err != nil {
			return nil, fmt.Errorf("redeem_public_key: %w", err)
		}
	}
	if w.AdaptorSignature != "" {
		s.AdaptorSignature, err = parseHexScalar(w.AdaptorSignature)
		if err != nil {
			return nil, fmt.Errorf("adaptor_signature: %w", err)
		}
	}

	if len(w.SecondaryData) > 0 {
		if secondaryCodec == nil {
			return nil, fmt.Errorf("swap record has secondary data but no SecondaryCodec was provided")
		}
		if s.SecondaryData, err = secondaryCodec(currency, w.SecondaryData); err != nil {
			return nil, fmt.Errorf("decode secondary data: %w", err)
		}
	}

	if w.Multisig != nil {
		snapshot, err := decodeMultisig(w.Multisig)
		if err != nil {
			return nil, fmt.Errorf("decode multisig: %w", err)
		}
		s.Multisig = swap.RestoreMultisigBuilder(snapshot)
	}

	if len(w.LockSlate) > 0 {
		if s.LockSlate, err = swap.DecodeSlate(w.LockSlate); err != nil {
			return nil, fmt.Errorf("decode lock slate: %w", err)
		}
	}
	if len(w.RefundSlate) > 0 {
		if s.RefundSlate, err = swap.DecodeSlate(w.RefundSlate); err != nil {
			return nil, fmt.Errorf("decode refund slate: %w", err)
		}
	}
	if len(w.RedeemSlate) > 0 {
		if s.RedeemSlate, err = swap.DecodeSlate(w.RedeemSlate); err != nil {
			return nil, fmt.Errorf("decode redeem slate: %w", err)
		}
	}

	return s, nil
}

func encodeMultisig(s swap.MultisigSnapshot) *wireMultisig {
	w := &wireMultisig{
		NumParticipants: s.NumParticipants,
		Value:           s.Value,
		LocalIndex:      s.LocalIndex,
		Imported:        s.Imported,
		Round1Done:      s.Round1Done,
		Round2Done:      s.Round2Done,
	}
	if s.LocalNonce != nil {
		w.LocalNonce = hex.EncodeToString(s.LocalNonce.Serialize())
	}
	if s.CommonNonce != nil {
		w.CommonNonce = hex.EncodeToString(s.CommonNonce.SerializeCompressed())
	}
	if s.LocalBlindKey != nil {
		w.LocalBlindKey = hex.EncodeToString(s.LocalBlindKey.Serialize())
	}
	for i, p := range s.Participants {
		if p == nil {
			continue
		}
		commitBytes := p.CommitShare.Bytes()
		w.Participants[i] = &wireMultisigParticipant{
			CommitShare: hex.EncodeToString(commitBytes[:]),
			NonceShare:  hex.EncodeToString(p.NonceShare.SerializeCompressed()),
			ValueHash:   hex.EncodeToString(p.ValueHash[:]),
		}
	}
	return w
}

func decodeMultisig(w *wireMultisig) (swap.MultisigSnapshot, error) {
	var s swap.MultisigSnapshot
	s.NumParticipants = w.NumParticipants
	s.Value = w.Value
	s.LocalIndex = w.LocalIndex
	s.Imported = w.Imported
	s.Round1Done = w.Round1Done
	s.Round2Done = w.Round2Done

	var err error
	if w.LocalNonce != "" {
		if s.LocalNonce, err = parseHexPrivKey(w.LocalNonce); err != nil {
			return s, fmt.Errorf("local_nonce: %w", err)
		}
	}
	if w.CommonNonce != "" {
		if s.CommonNonce, err = parseHexPubKey(w.CommonNonce); err != nil {
			return s, fmt.Errorf("common_nonce: %w", err)
		}
	}
	if w.LocalBlindKey != "" {
		if s.LocalBlindKey, err = parseHexPrivKey(w.LocalBlindKey); err != nil {
			return s, fmt.Errorf("local_blind_key: %w", err)
		}
	}
	for i, p := range w.Participants {
		if p == nil {
			continue
		}
		commit, err := hex.DecodeString(p.CommitShare)
		if err != nil {
			return s, fmt.Errorf("participant %d commit_share: %w", i, err)
		}
		nonce, err := parseHexPubKey(p.NonceShare)
		if err != nil {
			return s, fmt.Errorf("participant %d nonce_share: %w", i, err)
		}
		valueHash, err := hex.DecodeString(p.ValueHash)
		if err != nil || len(valueHash) != 32 {
			return s, fmt.Errorf("participant %d value_hash malformed", i)
		}
		part := &swap.MultisigParticipant{NonceShare: nonce}
		part.CommitShare, err = swap.ParseCommitment(commit)
		if err != nil {
			return s, fmt.Errorf("participant %d commit_share: %w", i, err)
		}
		copy(part.ValueHash[:], valueHash)
		s.Participants[i] = part
	}
	return s, nil
}

func parseHexPubKey(s string) (*btcec.PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return btcec.ParsePubKey(b)
}

func parseHexPrivKey(s string) (*btcec.PrivateKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	priv, _ := btcec.PrivKeyFromBytes(b)
	return priv, nil
}

func parseHexScalar(s string) (*btcec.ModNScalar, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	var scalar btcec.ModNScalar
	scalar.SetByteSlice(b)
	return &scalar, nil
}
