package ldclump

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// reduce assigns clumps greedily in order of significance. Each overlapped,
// not yet clumped variant below the p-value threshold becomes an index
// variant and claims every variant it absorbed. Clumps are returned in stream
// order. Running it again over the same variants changes nothing.
func reduce(variants []*Variant, overlapped *roaring.Bitmap, pThreshold float64) []Clump {
	order := make([]int, len(variants))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		va, vb := variants[order[a]], variants[order[b]]
		if va.P != vb.P {
			return va.P < vb.P
		}
		if va.SourceFile != vb.SourceFile {
			return va.SourceFile < vb.SourceFile
		}
		return va.SourceIndex < vb.SourceIndex
	})

	type indexed struct {
		idx   int
		clump Clump
	}
	var found []indexed
	for _, i := range order {
		v := variants[i]
		if !(v.P < pThreshold) {
			break
		}
		if !overlapped.Contains(uint32(i)) || v.Clumped {
			continue
		}

		cl := Clump{Index: v}
		if v.Absorbed != nil {
			it := v.Absorbed.Iterator()
			for it.HasNext() {
				j := int(it.Next())
				if variants[j].Clumped {
					continue
				}
				variants[j].Clumped = true
				r2, _ := v.R2With(j)
				cl.Members = append(cl.Members, Member{Variant: variants[j], R2: r2})
			}
		}
		found = append(found, indexed{idx: i, clump: cl})
	}

	sort.Slice(found, func(a, b int) bool {
		return found[a].idx < found[b].idx
	})

	clumps := make([]Clump, len(found))
	for k, f := range found {
		clumps[k] = f.clump
	}
	return clumps
}
