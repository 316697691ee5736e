// Package compat implements the password-compatibility test for
// multi-message overlay: two or three passwords are compatible iff
// none of their header offsets falls inside another password's
// generated stride-pixel set.
package compat

import (
	"github.com/bury-stego/bury/internal/keyderiver"
	"github.com/bury-stego/bury/internal/stride"
)

// AreCompatible derives the PDP for each password and checks that no
// password's offset appears in any other password's stride-pixel set,
// generated out to the maximum offset among all passwords. A password
// checked against itself is always incompatible (degenerate case).
func AreCompatible(passwords ...[]byte) (bool, error) {
	if len(passwords) < 2 {
		return false, nil
	}

	type derived struct {
		offset int
		pixels map[int]struct{}
	}

	pdps := make([]keyderiver.PDP, len(passwords))
	maxOffset := 0
	for i, pw := range passwords {
		pdp, err := keyderiver.Derive(pw)
		if err != nil {
			return false, err
		}
		pdps[i] = pdp
		if int(pdp.Offset) > maxOffset {
			maxOffset = int(pdp.Offset)
		}
	}

	ds := make([]derived, len(passwords))
	for i, pdp := range pdps {
		pixels := stride.Schedule(pdp.StrideSeed, pdp.MaxStride, pdp.Offset, maxOffset+1)
		set := make(map[int]struct{}, len(pixels))
		for _, p := range pixels {
			set[p] = struct{}{}
		}
		ds[i] = derived{offset: int(pdp.Offset), pixels: set}
	}

	for i := range ds {
		for j := range ds {
			if i == j {
				continue
			}
			if _, hit := ds[j].pixels[ds[i].offset]; hit {
				return false, nil
			}
		}
	}

	if allSame(passwords) {
		return false, nil
	}

	return true, nil
}

func allSame(passwords [][]byte) bool {
	if len(passwords) < 2 {
		return false
	}
	first := string(passwords[0])
	for _, p := range passwords[1:] {
		if string(p) != first {
			return false
		}
	}
	return true
}
