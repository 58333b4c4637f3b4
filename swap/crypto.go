package swap

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
)

// generatorH is the codebase's second Pedersen generator, independent of
// the curve's standard base point G in the sense that nobody is known to
// record its discrete log relative to G. It's derived once, deterministically,
// by hash-to-curve: a fixed domain tag plus a counter byte is hashed into a
// candidate x coordinate, and the first candidate that lies on the curve is
// taken (even y). A real secp256k1-zkp binding (unavailable anywhere in this
// corpus) would instead use the library's canonical NUMS generator; see
// DESIGN.md.
var generatorH = deriveGeneratorH()

func deriveGeneratorH() *btcec.PublicKey {
	tag := []byte("mwc-swap/pedersen-generator-h")
	for ctr := 0; ; ctr++ {
		h := sha256.Sum256(append(tag, byte(ctr)))
		candidate := append([]byte{0x02}, h[:]...)
		if pub, err := btcec.ParsePubKey(candidate); err == nil {
			return pub
		}
	}
}

// Commitment is a Pedersen commitment C = r*G + v*H, serialized the same
// way a compressed secp256k1 public key is.
type Commitment struct {
	point btcec.JacobianPoint
}

// PedersenCommit builds a commitment to value under blinding factor blind.
func PedersenCommit(value uint64, blind *btcec.PrivateKey) (*Commitment, error) {
	var blindPoint btcec.JacobianPoint
	blindScalar := blind.Key
	btcec.ScalarBaseMultNonConst(&blindScalar, &blindPoint)

	var valueScalar btcec.ModNScalar
	valueScalar.SetInt(0)
	if value > 0 {
		var buf [32]byte
		putUint64BE(buf[24:], value)
		valueScalar.SetByteSlice(buf[:])
	}

	hJac := toJacobian(generatorH)
	var valuePoint btcec.JacobianPoint
	btcec.ScalarMultNonConst(&valueScalar, &hJac, &valuePoint)

	var sum btcec.JacobianPoint
	btcec.AddNonConst(&blindPoint, &valuePoint, &sum)
	sum.ToAffine()

	return &Commitment{point: sum}, nil
}

// Add returns the sum of two commitments, i.e. a commitment to the sum of
// their values under the sum of their blinding factors -- homomorphism is
// what lets the two parties' per-party commitment shares combine into the
// single joint multisig commitment (spec.md §4.2).
func (c *Commitment) Add(other *Commitment) *Commitment {
	var sum btcec.JacobianPoint
	btcec.AddNonConst(&c.point, &other.point, &sum)
	sum.ToAffine()
	return &Commitment{point: sum}
}

// PublicKey views the commitment as a curve point, e.g. for serialization.
func (c *Commitment) PublicKey() *btcec.PublicKey {
	p := c.point
	p.ToAffine()
	return btcec.NewPublicKey(&p.X, &p.Y)
}

// Bytes returns the commitment's compressed point encoding.
func (c *Commitment) Bytes() [33]byte {
	var out [33]byte
	copy(out[:], c.PublicKey().SerializeCompressed())
	return out
}

// ParseCommitment decodes a compressed-point commitment, e.g. when loading a
// persisted multisig snapshot.
func ParseCommitment(b []byte) (*Commitment, error) {
	pub, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, err
	}
	p := toJacobian(pub)
	p.ToAffine()
	return &Commitment{point: p}, nil
}

// sha256Sum is a small convenience wrapper kept alongside the other crypto
// primitives rather than reached for ad hoc at each call site.
func sha256Sum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

func toJacobian(pub *btcec.PublicKey) btcec.JacobianPoint {
	var p btcec.JacobianPoint
	pub.AsJacobian(&p)
	return p
}

func putUint64BE(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

// addScalars returns a+b mod n.
func addScalars(a, b *btcec.ModNScalar) *btcec.ModNScalar {
	out := *a
	out.Add(b)
	return &out
}

// subScalars returns a-b mod n.
func subScalars(a, b *btcec.ModNScalar) *btcec.ModNScalar {
	neg := *b
	neg.Negate()
	out := *a
	out.Add(&neg)
	return &out
}

// addPublicKeys returns the curve point sum of two public keys.
func addPublicKeys(a, b *btcec.PublicKey) *btcec.PublicKey {
	aj := toJacobian(a)
	bj := toJacobian(b)
	var sum btcec.JacobianPoint
	btcec.AddNonConst(&aj, &bj, &sum)
	sum.ToAffine()
	return btcec.NewPublicKey(&sum.X, &sum.Y)
}

// scalarToKey wraps a ModNScalar as a PrivateKey for convenience when an
// API expects one (e.g. to derive the matching public key via PubKey()).
func scalarToKey(s *btcec.ModNScalar) *btcec.PrivateKey {
	b := s.Bytes()
	priv, _ := btcec.PrivKeyFromBytes(b[:])
	return priv
}

// schnorrChallenge computes e = H(R || P || m) reduced mod n, the
// single-signer Schnorr challenge used by both the multisig round-2 partial
// signatures and the adaptor signature (spec.md §4.4).
func schnorrChallenge(pubNonce, pubKey *btcec.PublicKey, msg [32]byte) *btcec.ModNScalar {
	h := sha256.New()
	h.Write(pubNonce.SerializeCompressed())
	h.Write(pubKey.SerializeCompressed())
	h.Write(msg[:])
	sum := h.Sum(nil)

	var e btcec.ModNScalar
	e.SetByteSlice(sum)
	return &e
}

// signSingle computes a single-signer Schnorr partial signature
// s = k - e*x, where k is the local nonce secret, x is the local signing
// secret, and e is the aggregate challenge computed from (pubNonceForE,
// pubKeySum, msg). If adaptorSecret is non-nil the result is instead
// s_adapt = k - e*x - t, the adaptor-offset partial signature of spec.md
// §4.4.
func signSingle(
	msg [32]byte,
	secKey, secNonce *btcec.PrivateKey,
	adaptorSecret *btcec.PrivateKey,
	pubNonceForE, pubKeySum *btcec.PublicKey,
) *btcec.ModNScalar {

	e := schnorrChallenge(pubNonceForE, pubKeySum, msg)

	ex := *e
	ex.Mul(&secKey.Key)

	s := subScalars(&secNonce.Key, &ex)
	if adaptorSecret != nil {
		s = subScalars(s, &adaptorSecret.Key)
	}
	return s
}

// RecoverAdaptorSecret computes t = s_real - s_adapt, the scalar that
// unlocks the secondary chain once the real signature is observed on-chain
// (spec.md §4.4).
func RecoverAdaptorSecret(sReal, sAdapt *btcec.ModNScalar) *btcec.ModNScalar {
	return subScalars(sReal, sAdapt)
}
