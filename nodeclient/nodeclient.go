// Package nodeclient declares the MWC node RPC surface the swap state
// machine consumes. Transport (HTTP/JSON-RPC, TLS, retries) is an external
// collaborator out of scope for this codebase -- see spec.md §1 and §6 --
// this package only fixes the small, synchronous interface shape, in the
// same spirit as chainntfs.ChainNotifier: a handful of narrow methods with
// no embedded transport detail.
package nodeclient

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// VersionInfo describes the connected node's reported version.
type VersionInfo struct {
	Major, Minor, Patch uint32
	Suffix              string
}

// MinNodeVersion is the minimum node version this codebase will operate
// against. Nodes reporting an older version are rejected at startup with
// exit code 1 (spec.md §6).
var MinNodeVersion = VersionInfo{Major: 2, Minor: 0, Patch: 0, Suffix: "beta.1"}

// Commit identifies a Pedersen commitment as it appears on the MWC chain.
type Commit [33]byte

// Kernel is the minimal kernel data the swap core needs to observe: its
// excess commitment, the height it confirmed at, and whether it's present.
type Kernel struct {
	Excess Commit
	Height uint64
}

// Client is the node RPC surface consumed by the swap core.
type Client interface {
	// GetChainTip returns the current chain height and block hash.
	GetChainTip() (uint64, chainhash.Hash, error)

	// GetOutputsFromNode returns the subset of the given commitments
	// that are present as unspent outputs on the chain.
	GetOutputsFromNode(commits []Commit) ([]Commit, error)

	// PostTx broadcasts a transaction. fluff requests the node relay it
	// immediately rather than via stem/dandelion. Idempotent: a
	// double-submit of an already-accepted transaction returns the same
	// success result.
	PostTx(txBytes []byte, fluff bool) error

	// GetKernel looks for a kernel with the given excess between
	// minHeight and maxHeight, returning its height if found.
	GetKernel(excess Commit, minHeight, maxHeight uint64) (*Kernel, bool, error)

	// GetVersionInfo returns the node's reported version, or false if
	// the node doesn't expose one.
	GetVersionInfo() (*VersionInfo, bool, error)
}

// AtLeast reports whether v is greater than or equal to min, comparing
// major.minor.patch lexicographically and ignoring the suffix.
func (v VersionInfo) AtLeast(min VersionInfo) bool {
	if v.Major != min.Major {
		return v.Major > min.Major
	}
	if v.Minor != min.Minor {
		return v.Minor > min.Minor
	}
	return v.Patch >= min.Patch
}
