package outcome

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testContext(seq uint64) Context {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	return Context{
		BeaconSeed:    seed,
		Height:        7,
		LastBlockHash: []byte{0xaa, 0xbb},
		GameSeq:       seq,
		Player:        "alice",
		Game:          "diceroller",
	}
}

func TestDrawDeterministic(t *testing.T) {
	src := BeaconSource{}

	a, err := src.Draw(testContext(1), 1, 6)
	require.NoError(t, err)
	b, err := src.Draw(testContext(1), 1, 6)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestDrawInRange(t *testing.T) {
	src := BeaconSource{}
	for seq := uint64(0); seq < 200; seq++ {
		v, err := src.Draw(testContext(seq), 1, 100)
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, uint64(1))
		require.LessOrEqual(t, v, uint64(100))
	}
}

func TestDrawVariesWithSequence(t *testing.T) {
	src := BeaconSource{}
	seen := map[uint64]bool{}
	for seq := uint64(0); seq < 64; seq++ {
		v, err := src.Draw(testContext(seq), 0, 1)
		require.NoError(t, err)
		seen[v] = true
	}
	// 64 coin flips landing all on one side means the stream is broken.
	require.Len(t, seen, 2)
}

func TestDrawValidation(t *testing.T) {
	src := BeaconSource{}

	ctx := testContext(0)
	ctx.BeaconSeed = []byte{1, 2, 3}
	_, err := src.Draw(ctx, 0, 1)
	require.Error(t, err)

	_, err = src.Draw(testContext(0), 5, 4)
	require.Error(t, err)
}

func TestUint64nBounds(t *testing.T) {
	rng := newHashRNG([32]byte{1})

	_, err := rng.Uint64n(0)
	require.Error(t, err)

	v, err := rng.Uint64n(1)
	require.NoError(t, err)
	require.Equal(t, uint64(0), v)

	for i := 0; i < 1000; i++ {
		v, err := rng.Uint64n(6)
		require.NoError(t, err)
		require.Less(t, v, uint64(6))
	}
}
