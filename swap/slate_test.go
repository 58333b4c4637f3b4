package swap

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mwcproject/mwc-swap/swapcfg"
	"github.com/stretchr/testify/require"
)

// signedTwoPartySlate builds a slate that has gone through round-1/round-2
// for both participants and a successful Finalize, for use as fixture data
// by the versioning and one-shot tests below.
func signedTwoPartySlate(t *testing.T) *Slate {
	t.Helper()

	slate := NewBlankSlate(2)
	slate.ID = uuid.New()
	slate.Amount = 123_000
	slate.Fee = TxFee(1, 1, 1)
	TxAddInput(slate, [33]byte{0x02, 0x01})
	TxAddOutput(slate, [33]byte{0x02, 0x02}, placeholderRangeProof())

	secA, nonceA := mustKey(), mustKey()
	secB, nonceB := mustKey(), mustKey()

	require.NoError(t, slate.FillRound1(secA, nonceA, 0))
	require.NoError(t, slate.FillRound1(secB, nonceB, 1))
	require.NoError(t, slate.FillRound2(secA, nonceA, 0))
	require.NoError(t, slate.FillRound2(secB, nonceB, 1))
	require.NoError(t, slate.Finalize())

	return slate
}

func TestSlateTwoPartySigningAndFinalize(t *testing.T) {
	slate := signedTwoPartySlate(t)

	require.Len(t, slate.Tx.Kernels, 1)
	require.NotEmpty(t, slate.Tx.Kernels[0].ExcessSig)
	require.NotEqual(t, [33]byte{}, slate.Tx.Kernels[0].Excess)
}

// TestSlateRoundTripAllVersions checks that, for every supported wire
// version, deserialize(serialize(s)) reproduces s.
func TestSlateRoundTripAllVersions(t *testing.T) {
	base := signedTwoPartySlate(t)

	tests := []struct {
		name   string
		policy swapcfg.SlateVersionPolicy
	}{
		{"V2", swapcfg.SlateVersionPolicy{EnableV4: false}},
		{"V4", swapcfg.SlateVersionPolicy{EnableV4: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := EncodeSlate(base, tc.policy)
			require.NoError(t, err)

			decoded, err := DecodeSlate(encoded)
			require.NoError(t, err)

			require.Equal(t, base.ID, decoded.ID)
			require.Equal(t, base.Amount, decoded.Amount)
			require.Equal(t, base.Fee, decoded.Fee)
			require.Equal(t, base.Tx.Offset, decoded.Tx.Offset)
			require.Equal(t, base.Tx.Inputs, decoded.Tx.Inputs)
			require.Equal(t, base.Tx.Outputs, decoded.Tx.Outputs)
			require.Equal(t, base.Tx.Kernels[0].Excess, decoded.Tx.Kernels[0].Excess)
			require.Equal(t, base.Tx.Kernels[0].ExcessSig, decoded.Tx.Kernels[0].ExcessSig)

			reencoded, err := EncodeSlate(decoded, tc.policy)
			require.NoError(t, err)
			require.JSONEq(t, string(encoded), string(reencoded))
		})
	}

	t.Run("V3 with payment proof", func(t *testing.T) {
		withProof := signedTwoPartySlate(t)
		withProof.PaymentProof = []byte(`"proof-bytes"`)

		encoded, err := EncodeSlate(withProof, swapcfg.DefaultSlateVersionPolicy())
		require.NoError(t, err)

		decoded, err := DecodeSlate(encoded)
		require.NoError(t, err)
		require.Equal(t, uint16(SlateVersionV3), decoded.VersionInfo.Version)
		require.Equal(t, withProof.PaymentProof, decoded.PaymentProof)
	})
}

// TestSlateV4DowngradeUpgradeEquivalence checks that a slate with no
// payment-proof/TTL fields downgrades to V2 and, once upgraded back by
// re-decoding, is equivalent to the original.
func TestSlateV4DowngradeUpgradeEquivalence(t *testing.T) {
	base := signedTwoPartySlate(t)
	require.Nil(t, base.PaymentProof)
	require.Zero(t, base.TTLCutoffHeight)

	v4Encoded, err := EncodeSlate(base, swapcfg.SlateVersionPolicy{EnableV4: true})
	require.NoError(t, err)
	v2Encoded, err := EncodeSlate(base, swapcfg.SlateVersionPolicy{EnableV4: false})
	require.NoError(t, err)

	v4Decoded, err := DecodeSlate(v4Encoded)
	require.NoError(t, err)
	v2Decoded, err := DecodeSlate(v2Encoded)
	require.NoError(t, err)

	require.Equal(t, v2Decoded.ID, v4Decoded.ID)
	require.Equal(t, v2Decoded.Amount, v4Decoded.Amount)
	require.Equal(t, v2Decoded.Tx.Kernels[0].ExcessSig, v4Decoded.Tx.Kernels[0].ExcessSig)
	require.Equal(t, v2Decoded.Tx.Offset, v4Decoded.Tx.Offset)
}

func TestDecodeSlateUnknownVersion(t *testing.T) {
	_, err := DecodeSlate([]byte(`{"version_info": 99}`))
	require.Error(t, err)
}

func TestDecodeSlateMalformedJSON(t *testing.T) {
	_, err := DecodeSlate([]byte(`not json`))
	require.Error(t, err)
}

// TestSlateOneShotGuards checks that FillRound1, ImportParticipant, and
// FillRound2 each refuse a second call for the same participant.
func TestSlateOneShotGuards(t *testing.T) {
	t.Run("FillRound1 twice", func(t *testing.T) {
		slate := NewBlankSlate(2)
		sec, nonce := mustKey(), mustKey()
		require.NoError(t, slate.FillRound1(sec, nonce, 0))
		err := slate.FillRound1(sec, nonce, 0)
		require.Error(t, err)
	})

	t.Run("ImportParticipant twice", func(t *testing.T) {
		slate := NewBlankSlate(2)
		sec, nonce := mustKey(), mustKey()
		require.NoError(t, slate.FillRound1(sec, nonce, 1))
		p := slate.ParticipantData[0]

		other := NewBlankSlate(2)
		require.NoError(t, other.ImportParticipant(p))
		err := other.ImportParticipant(p)
		require.Error(t, err)
	})

	t.Run("FillRound2 twice", func(t *testing.T) {
		slate := NewBlankSlate(2)
		secA, nonceA := mustKey(), mustKey()
		secB, nonceB := mustKey(), mustKey()
		require.NoError(t, slate.FillRound1(secA, nonceA, 0))
		require.NoError(t, slate.FillRound1(secB, nonceB, 1))
		require.NoError(t, slate.FillRound2(secA, nonceA, 0))

		err := slate.FillRound2(secA, nonceA, 0)
		require.Error(t, err)
	})
}

func TestSlateFinalizeRequiresAllParticipantsSigned(t *testing.T) {
	slate := NewBlankSlate(2)
	sec, nonce := mustKey(), mustKey()
	require.NoError(t, slate.FillRound1(sec, nonce, 0))

	err := slate.Finalize()
	require.Error(t, err)
}

func TestTxFeeFloorsAtOne(t *testing.T) {
	require.Equal(t, uint64(1_000_000), TxFee(5, 0, 0))
	require.Equal(t, uint64(4_000_000), TxFee(1, 1, 1))
}
