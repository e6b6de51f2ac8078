package chain_test

import (
	"testing"

	"github.com/openfst/fstio/chain"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeV1RoundTripMixedEntries(t *testing.T) {
	// Handle 1: empty, handle 2: data at offset 0 len 3, handle 3: empty,
	// handle 4: data at offset 3 len 5, handle 5: alias of handle 2.
	entries := []chain.Entry{
		{Kind: chain.EntryEmpty},
		{Kind: chain.EntryData, Offset: 0},
		{Kind: chain.EntryEmpty},
		{Kind: chain.EntryData, Offset: 3},
		{Kind: chain.EntryAlias, Alias: 2},
	}

	encoded, err := chain.EncodeV1(entries)
	require.NoError(t, err)

	idx, err := chain.DecodeV1(encoded, len(entries), 8)
	require.NoError(t, err)
	require.Len(t, idx.Slots, 5)

	require.False(t, idx.Slots[0].Present)

	require.True(t, idx.Slots[1].Present)
	require.Equal(t, uint32(0), idx.Slots[1].Offset)
	require.Equal(t, uint32(3), idx.Slots[1].Length)
	require.Equal(t, uint32(0), idx.Slots[1].AliasOf)

	require.False(t, idx.Slots[2].Present)

	require.True(t, idx.Slots[3].Present)
	require.Equal(t, uint32(3), idx.Slots[3].Offset)
	require.Equal(t, uint32(5), idx.Slots[3].Length)

	require.True(t, idx.Slots[4].Present)
	require.Equal(t, idx.Slots[1].Offset, idx.Slots[4].Offset)
	require.Equal(t, idx.Slots[1].Length, idx.Slots[4].Length)
	require.Equal(t, uint32(2), idx.Slots[4].AliasOf)
}

func TestEncodeV1RejectsZeroAliasTarget(t *testing.T) {
	_, err := chain.EncodeV1([]chain.Entry{{Kind: chain.EntryAlias, Alias: 0}})
	require.Error(t, err)
}

func TestEncodeV1RejectsRegressingOffsets(t *testing.T) {
	entries := []chain.Entry{
		{Kind: chain.EntryData, Offset: 10},
		{Kind: chain.EntryData, Offset: 2},
	}
	_, err := chain.EncodeV1(entries)
	require.Error(t, err)
}

func TestDecodeV1ResolvesChainOfAliases(t *testing.T) {
	// Handle 1: data, handle 2: alias of 1, handle 3: alias of 2.
	entries := []chain.Entry{
		{Kind: chain.EntryData, Offset: 0},
		{Kind: chain.EntryAlias, Alias: 1},
		{Kind: chain.EntryAlias, Alias: 2},
	}
	encoded, err := chain.EncodeV1(entries)
	require.NoError(t, err)

	idx, err := chain.DecodeV1(encoded, len(entries), 4)
	require.NoError(t, err)

	require.Equal(t, uint32(1), idx.Slots[2].AliasOf)
	require.Equal(t, idx.Slots[0].Offset, idx.Slots[2].Offset)
}
