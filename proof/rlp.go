// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"errors"
	"fmt"
)

// The reader below accepts canonical RLP only. Every length is checked
// against the remaining input before slicing.

type kind uint8

const (
	kindString kind = iota
	kindList
)

func (k kind) String() string {
	if k == kindList {
		return "list"
	}
	return "string"
}

var (
	errEmpty        = errors.New("unexpected end of input")
	errNonCanonical = errors.New("non-canonical size")
	errTooLarge     = errors.New("value size exceeds input")
)

// split reads the first item of b and returns its kind, its payload and the
// bytes that follow it.
func split(b []byte) (kind, []byte, []byte, error) {
	if len(b) == 0 {
		return 0, nil, nil, errEmpty
	}
	prefix := b[0]
	switch {
	case prefix < 0x80:
		return kindString, b[:1], b[1:], nil
	case prefix < 0xb8:
		size := uint64(prefix - 0x80)
		if size == 1 && len(b) > 1 && b[1] < 0x80 {
			return 0, nil, nil, fmt.Errorf("%w: single byte below 0x80 must not be prefixed", errNonCanonical)
		}
		return take(kindString, b[1:], size)
	case prefix < 0xc0:
		size, rest, err := readSize(b[1:], int(prefix-0xb7))
		if err != nil {
			return 0, nil, nil, err
		}
		return take(kindString, rest, size)
	case prefix < 0xf8:
		return take(kindList, b[1:], uint64(prefix-0xc0))
	default:
		size, rest, err := readSize(b[1:], int(prefix-0xf7))
		if err != nil {
			return 0, nil, nil, err
		}
		return take(kindList, rest, size)
	}
}

func take(k kind, b []byte, size uint64) (kind, []byte, []byte, error) {
	if size > uint64(len(b)) {
		return 0, nil, nil, fmt.Errorf("%w: %s of %d bytes, %d available", errTooLarge, k, size, len(b))
	}
	return k, b[:size], b[size:], nil
}

// readSize decodes the big-endian size of a long string or list.
func readSize(b []byte, n int) (uint64, []byte, error) {
	if n > len(b) {
		return 0, nil, fmt.Errorf("%w: size of %d bytes, %d available", errEmpty, n, len(b))
	}
	if b[0] == 0 {
		return 0, nil, fmt.Errorf("%w: leading zero in size", errNonCanonical)
	}
	var size uint64
	for _, c := range b[:n] {
		size = size<<8 | uint64(c)
	}
	if size < 56 {
		return 0, nil, fmt.Errorf("%w: long form used for %d bytes", errNonCanonical, size)
	}
	return size, b[n:], nil
}

// items splits the payload of a list into exactly want items.
func items(payload []byte, want int) ([]item, error) {
	out := make([]item, 0, want)
	for len(payload) > 0 {
		if len(out) == want {
			return nil, fmt.Errorf("list has more than %d items", want)
		}
		k, content, rest, err := split(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, item{kind: k, content: content})
		payload = rest
	}
	if len(out) != want {
		return nil, fmt.Errorf("list has %d items, want %d", len(out), want)
	}
	return out, nil
}

type item struct {
	kind    kind
	content []byte
}

func (i item) bytes(size int, name string) ([]byte, error) {
	if i.kind != kindString {
		return nil, fmt.Errorf("%s: expected string, got list", name)
	}
	if len(i.content) != size {
		return nil, fmt.Errorf("%s: %d bytes, want %d", name, len(i.content), size)
	}
	return i.content, nil
}
