package ldclump

import "fmt"

// slot is one variant held in the window.
type slot struct {
	variant int // index into the variant stream
	planes  *Planes
}

// window holds the variants near the current core, ordered by position and
// all on one chromosome. Variants leave it only from the front.
type window struct {
	slots []slot
}

func (w *window) Len() int {
	return len(w.slots)
}

func (w *window) At(i int) slot {
	return w.slots[i]
}

func (w *window) push(variant int, p *Planes) {
	w.slots = append(w.slots, slot{variant: variant, planes: p})
}

// retire drops the first n slots and releases their planes.
func (w *window) retire(n int) error {
	if n < 0 || n > len(w.slots) {
		return fmt.Errorf("cannot retire %d of %d window slots", n, len(w.slots))
	}
	if n == 0 {
		return nil
	}
	kept := copy(w.slots, w.slots[n:])
	for i := kept; i < len(w.slots); i++ {
		w.slots[i] = slot{}
	}
	w.slots = w.slots[:kept]
	return nil
}

func (w *window) reset() error {
	return w.retire(len(w.slots))
}
