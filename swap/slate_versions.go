package swap

import (
	"encoding/hex"
	"encoding/json"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/mwcproject/mwc-swap/swaperr"
	"github.com/mwcproject/mwc-swap/swapcfg"
)

// Slate versions supported on the wire, newest first. V4 mirrors the
// original implementation's dead "if false" branch (libwallet/slate_versions/
// mod.rs): it's defined, reachable through SlateVersionPolicy, but never
// chosen unless a caller explicitly opts in (spec.md Open Question §OQ1,
// resolved in SPEC_FULL.md §4.1).
const (
	SlateVersionV2 uint16 = 2
	SlateVersionV3 uint16 = 3
	SlateVersionV4 uint16 = 4
)

// CurrentSlateVersion is the version this codebase natively speaks
// internally; wire versions are translated to/from it at the edges.
const CurrentSlateVersion = SlateVersionV3

// wireParticipantData is a slate participant entry as it appears on the
// wire: public keys hex-encoded, partial sig present only once round 2 has
// run.
type wireParticipantData struct {
	ID                int     `json:"id"`
	PublicBlindExcess string  `json:"public_blind_excess"`
	PublicNonce       string  `json:"public_nonce"`
	PartSig           *string `json:"part_sig,omitempty"`
}

// wireKernel is a kernel as it appears on the wire: features is a string
// tag ("Plain" or "HeightLocked") alongside the fee/lock_height it commits
// to, mirroring the original implementation's KernelFeatures enum encoding.
type wireKernel struct {
	Features   string `json:"features"`
	Fee        uint64 `json:"fee"`
	LockHeight uint64 `json:"lock_height,omitempty"`
	Excess     string `json:"excess"`
	ExcessSig  string `json:"excess_sig,omitempty"`
}

// wireInput and wireOutput mirror Input/Output on the wire.
type wireInput struct {
	Commit string `json:"commit"`
}

type wireOutput struct {
	Commit string `json:"commit"`
	Proof  string `json:"proof"`
}

// wireTxBody is the transaction body nested inside every slate version,
// matching the original implementation's tx.body shape.
type wireTxBody struct {
	Inputs  []wireInput  `json:"inputs"`
	Outputs []wireOutput `json:"outputs"`
	Kernels []wireKernel `json:"kernels"`
}

type wireTx struct {
	Offset string     `json:"offset"`
	Body   wireTxBody `json:"body"`
}

// wireSlateV3 is the V3 wire format. EncodeSlate writes it only when the
// slate carries a payment proof or a TTL cutoff height (V2 otherwise), and
// writes the same shape tagged as version 4 when V4 is enabled.
type wireSlateV3 struct {
	Version         uint16                `json:"version_info"`
	ID              string                `json:"id"`
	Amount          uint64                `json:"amount"`
	Fee             uint64                `json:"fee"`
	Height          uint64                `json:"height"`
	LockHeight      uint64                `json:"lock_height"`
	NumParticipants int                   `json:"num_participants"`
	ParticipantData []wireParticipantData `json:"participant_data"`
	Tx              wireTx                `json:"tx"`
	PaymentProof    *json.RawMessage      `json:"payment_proof,omitempty"`
	TTLCutoffHeight *uint64               `json:"ttl_cutoff_height,omitempty"`
}

// wireSlateV2 is the V2 wire format: no payment proof, no TTL cutoff
// height, matching the original implementation's older clients.
type wireSlateV2 struct {
	Version         uint16                `json:"version_info"`
	ID              string                `json:"id"`
	Amount          uint64                `json:"amount"`
	Fee             uint64                `json:"fee"`
	Height          uint64                `json:"height"`
	LockHeight      uint64                `json:"lock_height"`
	NumParticipants int                   `json:"num_participants"`
	ParticipantData []wireParticipantData `json:"participant_data"`
	Tx              wireTx                `json:"tx"`
}

// EncodeSlate serializes slate according to policy: V4 only if explicitly
// enabled, otherwise the oldest version the slate's contents are compatible
// with (V2 if it carries no V3-only extension, V3 otherwise). This mirrors
// file.rs's three-way version branch.
func EncodeSlate(slate *Slate, policy swapcfg.SlateVersionPolicy) ([]byte, error) {
	if policy.EnableV4 {
		return encodeSlateV3(slate, SlateVersionV4)
	}
	if slate.PaymentProof == nil && slate.TTLCutoffHeight == 0 {
		return encodeSlateV2(slate)
	}
	return encodeSlateV3(slate, SlateVersionV3)
}

func encodeSlateV2(slate *Slate) ([]byte, error) {
	w := wireSlateV2{
		Version:         SlateVersionV2,
		ID:              slate.ID.String(),
		Amount:          slate.Amount,
		Fee:             slate.Fee,
		Height:          slate.Height,
		LockHeight:      slate.LockHeight,
		NumParticipants: slate.NumParticipants,
		Tx:              toWireTx(slate),
	}
	for _, p := range slate.ParticipantData {
		w.ParticipantData = append(w.ParticipantData, toWireParticipant(p))
	}
	return json.Marshal(w)
}

func encodeSlateV3(slate *Slate, version uint16) ([]byte, error) {
	w := wireSlateV3{
		Version:         version,
		ID:              slate.ID.String(),
		Amount:          slate.Amount,
		Fee:             slate.Fee,
		Height:          slate.Height,
		LockHeight:      slate.LockHeight,
		NumParticipants: slate.NumParticipants,
		Tx:              toWireTx(slate),
	}
	for _, p := range slate.ParticipantData {
		w.ParticipantData = append(w.ParticipantData, toWireParticipant(p))
	}
	if slate.PaymentProof != nil {
		raw := json.RawMessage(slate.PaymentProof)
		w.PaymentProof = &raw
	}
	if slate.TTLCutoffHeight != 0 {
		w.TTLCutoffHeight = &slate.TTLCutoffHeight
	}
	return json.Marshal(w)
}

func toWireTx(slate *Slate) wireTx {
	wt := wireTx{Offset: hex.EncodeToString(slate.Tx.Offset[:])}
	for _, in := range slate.Tx.Inputs {
		wt.Body.Inputs = append(wt.Body.Inputs, wireInput{Commit: hex.EncodeToString(in.Commit[:])})
	}
	for _, out := range slate.Tx.Outputs {
		wt.Body.Outputs = append(wt.Body.Outputs, wireOutput{
			Commit: hex.EncodeToString(out.Commit[:]),
			Proof:  hex.EncodeToString(out.Proof),
		})
	}
	for _, k := range slate.Tx.Kernels {
		wk := wireKernel{
			Fee:       k.Features.Fee,
			Excess:    hex.EncodeToString(k.Excess[:]),
			ExcessSig: hex.EncodeToString(k.ExcessSig),
		}
		if k.Features.Type == KernelHeightLocked {
			wk.Features = "HeightLocked"
			wk.LockHeight = k.Features.LockHeight
		} else {
			wk.Features = "Plain"
		}
		wt.Body.Kernels = append(wt.Body.Kernels, wk)
	}
	return wt
}

func toWireParticipant(p ParticipantData) wireParticipantData {
	w := wireParticipantData{
		ID:                p.ID,
		PublicBlindExcess: hex.EncodeToString(p.PublicBlindExcess.SerializeCompressed()),
		PublicNonce:       hex.EncodeToString(p.PublicNonce.SerializeCompressed()),
	}
	if p.PartialSig != nil {
		b := p.PartialSig.Bytes()
		s := hex.EncodeToString(b[:])
		w.PartSig = &s
	}
	return w
}

// DecodeSlate deserializes data into a Slate. It reads version_info and
// decodes with that version's wire format (the V3 shape for V3 and V4, the
// V2 shape for V2); any other version is rejected with IncompatibleVersion.
// It does not fall back to another version's format when the tagged one
// fails to parse.
func DecodeSlate(data []byte) (*Slate, error) {
	var probe struct {
		Version uint16 `json:"version_info"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &swaperr.InvalidMessageData{Reason: "malformed slate JSON: " + err.Error()}
	}

	switch probe.Version {
	case SlateVersionV4, SlateVersionV3:
		var w wireSlateV3
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, &swaperr.InvalidMessageData{Reason: "malformed v3/v4 slate: " + err.Error()}
		}
		return fromWireV3(&w)
	case SlateVersionV2:
		var w wireSlateV2
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, &swaperr.InvalidMessageData{Reason: "malformed v2 slate: " + err.Error()}
		}
		return fromWireV2(&w)
	default:
		return nil, &swaperr.IncompatibleVersion{Got: uint8(probe.Version), Expected: uint8(CurrentSlateVersion)}
	}
}

func fromWireV2(w *wireSlateV2) (*Slate, error) {
	return assembleSlate(w.ID, w.Amount, w.Fee, w.Height, w.LockHeight, w.NumParticipants,
		w.ParticipantData, w.Tx, SlateVersionV2, nil, 0)
}

func fromWireV3(w *wireSlateV3) (*Slate, error) {
	var proof []byte
	if w.PaymentProof != nil {
		proof = []byte(*w.PaymentProof)
	}
	var ttl uint64
	if w.TTLCutoffHeight != nil {
		ttl = *w.TTLCutoffHeight
	}
	return assembleSlate(w.ID, w.Amount, w.Fee, w.Height, w.LockHeight, w.NumParticipants,
		w.ParticipantData, w.Tx, w.Version, proof, ttl)
}

func assembleSlate(
	id string, amount, fee, height, lockHeight uint64, numParticipants int,
	participants []wireParticipantData, tx wireTx, version uint16,
	paymentProof []byte, ttl uint64,
) (*Slate, error) {
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, &swaperr.InvalidMessageData{Reason: "invalid slate id: " + err.Error()}
	}

	slate := &Slate{
		ID:              parsedID,
		Amount:          amount,
		Fee:             fee,
		Height:          height,
		LockHeight:      lockHeight,
		NumParticipants: numParticipants,
		VersionInfo:     VersionInfo{Version: version, OrigVersion: version},
		PaymentProof:    paymentProof,
		TTLCutoffHeight: ttl,
	}

	if err := fromWireTx(slate, tx); err != nil {
		return nil, err
	}

	for _, wp := range participants {
		pd, err := fromWireParticipant(wp)
		if err != nil {
			return nil, err
		}
		slate.ParticipantData = append(slate.ParticipantData, pd)
	}

	return slate, nil
}

func fromWireTx(slate *Slate, tx wireTx) error {
	offsetBytes, err := hex.DecodeString(tx.Offset)
	if err != nil || len(offsetBytes) != 32 {
		return &swaperr.InvalidMessageData{Reason: "invalid slate offset encoding"}
	}
	copy(slate.Tx.Offset[:], offsetBytes)

	for _, in := range tx.Body.Inputs {
		commitBytes, err := hex.DecodeString(in.Commit)
		if err != nil || len(commitBytes) != 33 {
			return &swaperr.InvalidMessageData{Reason: "invalid input commit encoding"}
		}
		var c [33]byte
		copy(c[:], commitBytes)
		slate.Tx.Inputs = append(slate.Tx.Inputs, Input{Commit: c})
	}

	for _, out := range tx.Body.Outputs {
		commitBytes, err := hex.DecodeString(out.Commit)
		if err != nil || len(commitBytes) != 33 {
			return &swaperr.InvalidMessageData{Reason: "invalid output commit encoding"}
		}
		proofBytes, err := hex.DecodeString(out.Proof)
		if err != nil {
			return &swaperr.InvalidMessageData{Reason: "invalid output proof encoding"}
		}
		var c [33]byte
		copy(c[:], commitBytes)
		slate.Tx.Outputs = append(slate.Tx.Outputs, Output{Commit: c, Proof: proofBytes})
	}

	for _, k := range tx.Body.Kernels {
		excessBytes, err := hex.DecodeString(k.Excess)
		if err != nil || len(excessBytes) != 33 {
			return &swaperr.InvalidMessageData{Reason: "invalid kernel excess encoding"}
		}
		sigBytes, err := hex.DecodeString(k.ExcessSig)
		if err != nil {
			return &swaperr.InvalidMessageData{Reason: "invalid kernel excess_sig encoding"}
		}

		var kf KernelFeatures
		switch k.Features {
		case "HeightLocked":
			kf = KernelFeatures{Type: KernelHeightLocked, Fee: k.Fee, LockHeight: k.LockHeight}
		case "Plain":
			kf = KernelFeatures{Type: KernelPlain, Fee: k.Fee}
		default:
			return &swaperr.InvalidMessageData{Reason: "unknown kernel feature tag " + k.Features}
		}

		var excess [33]byte
		copy(excess[:], excessBytes)
		slate.Tx.Kernels = append(slate.Tx.Kernels, Kernel{Features: kf, Excess: excess, ExcessSig: sigBytes})
	}

	return nil
}

func fromWireParticipant(w wireParticipantData) (ParticipantData, error) {
	blindBytes, err := hex.DecodeString(w.PublicBlindExcess)
	if err != nil {
		return ParticipantData{}, &swaperr.InvalidMessageData{Reason: "invalid public_blind_excess encoding"}
	}
	blindKey, err := parsePubKey(blindBytes)
	if err != nil {
		return ParticipantData{}, err
	}

	nonceBytes, err := hex.DecodeString(w.PublicNonce)
	if err != nil {
		return ParticipantData{}, &swaperr.InvalidMessageData{Reason: "invalid public_nonce encoding"}
	}
	nonceKey, err := parsePubKey(nonceBytes)
	if err != nil {
		return ParticipantData{}, err
	}

	pd := ParticipantData{
		ID:                w.ID,
		PublicBlindExcess: blindKey,
		PublicNonce:       nonceKey,
	}

	if w.PartSig != nil {
		sigBytes, err := hex.DecodeString(*w.PartSig)
		if err != nil || len(sigBytes) != 32 {
			return ParticipantData{}, &swaperr.InvalidMessageData{Reason: "invalid part_sig encoding"}
		}
		var s btcec.ModNScalar
		s.SetByteSlice(sigBytes)
		pd.PartialSig = &s
	}

	return pd, nil
}

// parsePubKey decodes a compressed secp256k1 public key, translating the
// library's error into the wire error taxonomy.
func parsePubKey(b []byte) (*btcec.PublicKey, error) {
	pub, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, &swaperr.InvalidMessageData{Reason: "invalid public key encoding: " + err.Error()}
	}
	return pub, nil
}
