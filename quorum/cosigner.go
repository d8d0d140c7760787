// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package quorum

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/luxfi/geth/common"
)

var (
	errEmptySet     = errors.New("empty cosigner set")
	errZeroWeight   = errors.New("cosigner has zero weight")
	errZeroCosigner = errors.New("cosigner has zero address")
	errDuplicate    = errors.New("duplicate cosigner")
	errOverflow     = errors.New("weight overflow")
)

// Cosigner is an attesting account and its voting weight.
type Cosigner struct {
	Address common.Address
	Weight  uint64
}

// CosignerSet is an address-sorted set of cosigners with a fixed total weight.
type CosignerSet struct {
	cosigners   []Cosigner
	weights     map[common.Address]uint64
	totalWeight uint64
}

// NewCosignerSet validates cosigners and returns them in canonical order.
func NewCosignerSet(cosigners []Cosigner) (*CosignerSet, error) {
	if len(cosigners) == 0 {
		return nil, errEmptySet
	}

	weights := make(map[common.Address]uint64, len(cosigners))
	var totalWeight uint64
	for i, c := range cosigners {
		if c.Address == (common.Address{}) {
			return nil, fmt.Errorf("%w at index %d", errZeroCosigner, i)
		}
		if c.Weight == 0 {
			return nil, fmt.Errorf("%w: %s", errZeroWeight, c.Address)
		}
		if _, ok := weights[c.Address]; ok {
			return nil, fmt.Errorf("%w: %s", errDuplicate, c.Address)
		}
		weights[c.Address] = c.Weight

		newWeight, err := addUint64(totalWeight, c.Weight)
		if err != nil {
			return nil, fmt.Errorf("total weight: %w", err)
		}
		totalWeight = newWeight
	}

	sorted := make([]Cosigner, len(cosigners))
	copy(sorted, cosigners)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Address[:], sorted[j].Address[:]) < 0
	})

	return &CosignerSet{
		cosigners:   sorted,
		weights:     weights,
		totalWeight: totalWeight,
	}, nil
}

// Cosigners returns the cosigners in canonical order.
func (s *CosignerSet) Cosigners() []Cosigner {
	return s.cosigners
}

// Weight returns the weight of addr, or zero if it is not a cosigner.
func (s *CosignerSet) Weight(addr common.Address) uint64 {
	return s.weights[addr]
}

func (s *CosignerSet) TotalWeight() uint64 {
	return s.totalWeight
}

func (s *CosignerSet) Len() int {
	return len(s.cosigners)
}

// VerifyWeight checks signedWeight/totalWeight >= num/den.
func VerifyWeight(signedWeight, totalWeight, num, den uint64) error {
	if signedWeight == 0 {
		return fmt.Errorf("%w: signed weight is 0", ErrInsufficientWeight)
	}

	// num/den <= signed/total  <=>  num*total <= den*signed
	if err := checkMul(num, totalWeight); err != nil {
		return fmt.Errorf("%w: num * totalWeight", err)
	}
	if err := checkMul(den, signedWeight); err != nil {
		return fmt.Errorf("%w: den * signedWeight", err)
	}

	if num*totalWeight > den*signedWeight {
		return fmt.Errorf("%w: signed weight %d / total weight %d < quorum %d / %d",
			ErrInsufficientWeight, signedWeight, totalWeight, num, den)
	}
	return nil
}

func checkMul(a, b uint64) error {
	if a == 0 || b == 0 {
		return nil
	}
	if a > math.MaxUint64/b {
		return errOverflow
	}
	return nil
}

func addUint64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, errOverflow
	}
	return a + b, nil
}
