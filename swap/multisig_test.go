package swap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newMultisigPair(t *testing.T, value uint64) (local, remote *MultisigBuilder) {
	t.Helper()

	localNonce := mustKey()
	remoteNonce := mustKey()
	localBlind := mustKey()
	remoteBlind := mustKey()

	local = NewMultisigBuilder(2, value, 0, localNonce)
	remote = NewMultisigBuilder(2, value, 1, remoteNonce)

	require.NoError(t, local.CreateParticipant(localBlind))
	require.NoError(t, remote.CreateParticipant(remoteBlind))

	localShare, err := local.Export()
	require.NoError(t, err)
	remoteShare, err := remote.Export()
	require.NoError(t, err)

	require.NoError(t, local.ImportParticipant(1, remoteShare))
	require.NoError(t, remote.ImportParticipant(0, localShare))

	require.NoError(t, local.Round1())
	require.NoError(t, remote.Round1())
	require.NoError(t, local.Round2())
	require.NoError(t, remote.Round2())

	return local, remote
}

func TestMultisigBuilderBothSidesAgreeOnCommitment(t *testing.T) {
	local, remote := newMultisigPair(t, 500_000)

	localCommit, err := local.Commit()
	require.NoError(t, err)
	remoteCommit, err := remote.Commit()
	require.NoError(t, err)

	require.Equal(t, localCommit.Bytes(), remoteCommit.Bytes())
}

func TestMultisigImportRejectsValueMismatch(t *testing.T) {
	local := NewMultisigBuilder(2, 100, 0, mustKey())
	other := NewMultisigBuilder(2, 200, 1, mustKey())

	require.NoError(t, local.CreateParticipant(mustKey()))
	require.NoError(t, other.CreateParticipant(mustKey()))

	otherShare, err := other.Export()
	require.NoError(t, err)

	err = local.ImportParticipant(1, otherShare)
	require.Error(t, err)
}

func TestMultisigImportRejectsOutOfRangeID(t *testing.T) {
	local := NewMultisigBuilder(2, 100, 0, mustKey())
	require.NoError(t, local.CreateParticipant(mustKey()))

	other := NewMultisigBuilder(2, 100, 1, mustKey())
	require.NoError(t, other.CreateParticipant(mustKey()))
	otherShare, err := other.Export()
	require.NoError(t, err)

	err = local.ImportParticipant(2, otherShare)
	require.Error(t, err)
}

// TestMultisigOneShotGuards checks that CreateParticipant, ImportParticipant,
// and Round2 each refuse a second call against the same builder/participant.
func TestMultisigOneShotGuards(t *testing.T) {
	t.Run("CreateParticipant", func(t *testing.T) {
		m := NewMultisigBuilder(2, 100, 0, mustKey())
		require.NoError(t, m.CreateParticipant(mustKey()))
		err := m.CreateParticipant(mustKey())
		require.Error(t, err)
	})

	t.Run("ImportParticipant", func(t *testing.T) {
		local, remote := func() (*MultisigBuilder, *MultisigBuilder) {
			l := NewMultisigBuilder(2, 100, 0, mustKey())
			r := NewMultisigBuilder(2, 100, 1, mustKey())
			require.NoError(t, l.CreateParticipant(mustKey()))
			require.NoError(t, r.CreateParticipant(mustKey()))
			return l, r
		}()

		remoteShare, err := remote.Export()
		require.NoError(t, err)

		require.NoError(t, local.ImportParticipant(1, remoteShare))
		err = local.ImportParticipant(1, remoteShare)
		require.Error(t, err)
	})

	t.Run("Round2", func(t *testing.T) {
		local, remote := newMultisigPair(t, 100)
		_ = remote

		err := local.Round2()
		require.Error(t, err)
	})
}

func TestMultisigSnapshotRestore(t *testing.T) {
	local, _ := newMultisigPair(t, 250_000)

	snap := local.Snapshot()
	restored := RestoreMultisigBuilder(snap)

	originalCommit, err := local.Commit()
	require.NoError(t, err)
	restoredCommit, err := restored.Commit()
	require.NoError(t, err)

	require.Equal(t, originalCommit.Bytes(), restoredCommit.Bytes())
	require.Equal(t, local.LocalBlind().Serialize(), restored.LocalBlind().Serialize())
}
