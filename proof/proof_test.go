// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/rlp"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/bridge"
)

type rawLog struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

func testEvent() *bridge.EnterEvent {
	return &bridge.EnterEvent{
		Emitter:       common.HexToAddress("0x00000000000000000000000000000000000b71d9"),
		Token:         common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Claimant:      common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Amount:        uint256.NewInt(100),
		Nonce:         7,
		SourceChainID: 96369,
		TargetChainID: 1,
	}
}

func testProof(t *testing.T) []byte {
	raw, err := Encode(testEvent())
	require.NoError(t, err)
	return raw
}

func validTopics() []common.Hash {
	ev := testEvent()
	return []common.Hash{
		bridge.EnterEventSignature,
		common.BytesToHash(ev.Token.Bytes()),
		common.BytesToHash(ev.Claimant.Bytes()),
	}
}

func validData() []byte {
	return Log(testEvent()).Data
}

func encode(t *testing.T, v interface{}) []byte {
	b, err := rlp.EncodeToBytes(v)
	require.NoError(t, err)
	return b
}

func TestRoundTrip(t *testing.T) {
	require := require.New(t)

	raw := testProof(t)
	require.Len(raw, 254)

	ev, err := Decode(raw)
	require.NoError(err)
	require.Equal(testEvent(), ev)

	again, err := Encode(ev)
	require.NoError(err)
	require.Equal(raw, again)
}

func TestEncodeMatchesLogLayout(t *testing.T) {
	require := require.New(t)

	ev := testEvent()
	raw, err := Encode(ev)
	require.NoError(err)

	// The wire contract is the consensus encoding of [address, topics, data].
	expected := encode(t, rawLog{
		Address: ev.Emitter,
		Topics:  validTopics(),
		Data:    validData(),
	})
	require.Equal(expected, raw)

	data := Log(ev).Data
	require.Len(data, 128)
	require.Equal(byte(100), data[31])
	require.Equal(byte(7), data[63])
	require.Equal(uint64(1), new(uint256.Int).SetBytes(data[96:128]).Uint64())
}

func TestEncodeNilAmount(t *testing.T) {
	ev := testEvent()
	ev.Amount = nil
	_, err := Encode(ev)
	require.ErrorIs(t, err, errNilAmount)
}

func TestFingerprint(t *testing.T) {
	require := require.New(t)

	raw := testProof(t)
	c := Fingerprint(raw)
	require.Equal(bridge.Keccak256(raw), c)
	require.Equal(c, Fingerprint(bytes.Clone(raw)))

	for i := range raw {
		flipped := bytes.Clone(raw)
		flipped[i] ^= 0x01
		require.NotEqual(c, Fingerprint(flipped), "byte %d", i)
	}

	// Fingerprint does not parse its input.
	require.Equal(bridge.Keccak256([]byte{0xff}), Fingerprint([]byte{0xff}))
}

func TestDecodeErrors(t *testing.T) {
	valid := testProof(t)
	topics := validTopics()
	data := validData()

	wrongSig := append([]common.Hash{bridge.Keccak256([]byte("Transfer(address,address,uint256)"))}, topics[1:]...)

	dirtyToken := append([]common.Hash{}, topics...)
	dirtyToken[1][0] = 0x01

	bigNonce := bytes.Clone(data)
	bigNonce[32] = 0x01

	bigTarget := bytes.Clone(data)
	bigTarget[96+23] = 0x01

	oversized := make([]byte, MaxProofSize+1)

	tests := []struct {
		name     string
		raw      []byte
		expected error
	}{
		{"empty", nil, bridge.ErrMalformedProof},
		{"oversized", oversized, bridge.ErrMalformedProof},
		{"truncated", valid[:len(valid)-1], bridge.ErrMalformedProof},
		{"trailing bytes", append(bytes.Clone(valid), 0x00), bridge.ErrMalformedProof},
		{"not a list", encode(t, []byte("log")), bridge.ErrMalformedProof},
		{"two fields", encode(t, []interface{}{common.Address{}, topics}), bridge.ErrMalformedProof},
		{"four fields", encode(t, []interface{}{common.Address{}, topics, data, data}), bridge.ErrMalformedProof},
		{"short emitter", encode(t, []interface{}{make([]byte, 19), topics, data}), bridge.ErrMalformedProof},
		{"topics not a list", encode(t, []interface{}{common.Address{}, topics[0], data}), bridge.ErrMalformedProof},
		{"two topics", encode(t, rawLog{Topics: topics[:2], Data: data}), bridge.ErrMalformedProof},
		{"four topics", encode(t, rawLog{Topics: append(append([]common.Hash{}, topics...), topics[0]), Data: data}), bridge.ErrMalformedProof},
		{"short topic", encode(t, []interface{}{common.Address{}, []interface{}{topics[0], topics[1], make([]byte, 31)}, data}), bridge.ErrMalformedProof},
		{"nested topic", encode(t, []interface{}{common.Address{}, []interface{}{topics[0], topics[1], []interface{}{}}, data}), bridge.ErrMalformedProof},
		{"short data", encode(t, rawLog{Topics: topics, Data: data[:127]}), bridge.ErrMalformedProof},
		{"long data", encode(t, rawLog{Topics: topics, Data: append(bytes.Clone(data), 0)}), bridge.ErrMalformedProof},
		{"wrong event", encode(t, rawLog{Topics: wrongSig, Data: data}), bridge.ErrInvalidEventSignature},
		{"dirty address padding", encode(t, rawLog{Topics: dirtyToken, Data: data}), bridge.ErrMalformedProof},
		{"nonce above 64 bits", encode(t, rawLog{Topics: topics, Data: bigNonce}), bridge.ErrMalformedProof},
		{"chain id above 64 bits", encode(t, rawLog{Topics: topics, Data: bigTarget}), bridge.ErrMalformedProof},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw)
			require.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestSplitCanonical(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		valid bool
	}{
		{"single byte", []byte{0x7f}, true},
		{"short string", []byte{0x82, 0xaa, 0xbb}, true},
		{"prefixed small byte", []byte{0x81, 0x05}, false},
		{"prefixed large byte", []byte{0x81, 0x80}, true},
		{"long form for short string", append([]byte{0xb8, 0x02}, 0xaa, 0xbb), false},
		{"leading zero size", append([]byte{0xb9, 0x00, 0x38}, make([]byte, 56)...), false},
		{"long string", append([]byte{0xb8, 0x38}, make([]byte, 56)...), true},
		{"long string truncated", append([]byte{0xb8, 0x38}, make([]byte, 55)...), false},
		{"size bytes missing", []byte{0xbb, 0x01}, false},
		{"huge size", []byte{0xbf, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, false},
		{"empty list", []byte{0xc0}, true},
		{"long form for short list", []byte{0xf8, 0x01, 0x80}, false},
		{"huge list", []byte{0xff, 0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := split(tt.input)
			if tt.valid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestSplitAgreesWithRLP(t *testing.T) {
	require := require.New(t)

	for _, v := range []interface{}{
		[]byte{},
		[]byte{0x00},
		[]byte{0x80},
		make([]byte, 55),
		make([]byte, 56),
		make([]byte, 1024),
		[]interface{}{},
		[]interface{}{make([]byte, 60), []interface{}{uint64(7)}},
	} {
		b := encode(t, v)
		k, content, rest, err := split(b)
		require.NoError(err)
		require.Empty(rest)

		rk, rcontent, rrest, err := rlp.Split(b)
		require.NoError(err)
		require.Empty(rrest)
		require.Equal(rk == rlp.List, k == kindList)
		require.Equal(rcontent, content)
	}
}

func FuzzDecode(f *testing.F) {
	raw, err := Encode(testEvent())
	require.NoError(f, err)
	f.Add(raw)
	f.Add(raw[:100])
	f.Add([]byte{0xc0})
	f.Add([]byte{0xf8, 0xfc})

	f.Fuzz(func(t *testing.T, input []byte) {
		ev, err := Decode(input)
		if err != nil {
			require.Nil(t, ev)
			return
		}
		// Only canonical encodings decode, so a decoded proof re-encodes
		// to exactly the input bytes.
		again, err := Encode(ev)
		require.NoError(t, err)
		require.Equal(t, input, again)
	})
}

func FuzzDecodeBitFlip(f *testing.F) {
	f.Add(uint16(0), byte(0x01))
	f.Add(uint16(100), byte(0x80))
	f.Add(uint16(253), byte(0xff))

	f.Fuzz(func(t *testing.T, pos uint16, mask byte) {
		if mask == 0 {
			return
		}
		raw, err := Encode(testEvent())
		require.NoError(t, err)
		i := int(pos) % len(raw)
		raw[i] ^= mask

		ev, err := Decode(raw)
		if err == nil {
			require.NotEqual(t, testEvent(), ev)
		}
	})
}
