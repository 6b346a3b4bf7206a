package ldclump

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/rs/zerolog"
)

// State is the phase of a clumping run.
type State int

const (
	StateIdle State = iota
	StateAccumulating
	StateClumping
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAccumulating:
		return "Accumulating"
	case StateClumping:
		return "Clumping"
	case StateDone:
		return "Done"

	default:
		return "Illegal state"
	}
}

// Clumper runs LD clumping over a position-ordered variant stream. A Clumper
// runs one session at a time.
type Clumper struct {
	cfg           Config
	log           zerolog.Logger
	progressEvery int
	state         State
}

type Option func(*Clumper)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Clumper) {
		c.log = l
	}
}

// WithProgressEvery logs progress at debug level every n variants. Zero
// disables progress logging.
func WithProgressEvery(n int) Option {
	return func(c *Clumper) {
		c.progressEvery = n
	}
}

func NewClumper(cfg Config, opts ...Option) (*Clumper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Clumper{
		cfg:           cfg,
		log:           zerolog.Nop(),
		progressEvery: 10000,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Clumper) Config() Config {
	return c.cfg
}

func (c *Clumper) State() State {
	return c.state
}

// Stats summarizes a clumping run.
type Stats struct {
	Input      int
	InPanel    int
	NotInPanel int
	Mismatched int
	Cores      int
	Retained   int
}

// Member is a variant assigned to an index variant's clump.
type Member struct {
	Variant *Variant
	R2      float64
}

// Clump is an index variant with the variants it took out of the retained
// set.
type Clump struct {
	Index   *Variant
	Members []Member
}

type Result struct {
	// Retained holds the index variants in stream order.
	Retained []*Variant

	// Clumps are ordered like Retained.
	Clumps []Clump

	Stats Stats

	variants []*Variant
}

// AbsorbedIDs lists the identifiers of every variant v absorbed while it was
// the core, in stream order.
func (r *Result) AbsorbedIDs(v *Variant) []string {
	if v.Absorbed == nil {
		return nil
	}
	out := make([]string, 0, v.Absorbed.GetCardinality())
	it := v.Absorbed.Iterator()
	for it.HasNext() {
		out = append(out, r.variants[it.Next()].ID)
	}
	return out
}

// Run clumps variants, which must be sorted by chromosome and then position,
// against the LD reference panel. It sets Clumped and fills Absorbed on the
// variants it is given.
func (c *Clumper) Run(variants []*Variant, panel GenotypeSource) (*Result, error) {
	c.state = StateIdle
	s := &session{
		c:          c,
		variants:   variants,
		overlapped: roaring.New(),
		eval: evaluator{
			variants:    variants,
			r2Threshold: c.cfg.R2Threshold,
			maxDistance: c.cfg.MaxDistance,
			threads:     c.cfg.Threads,
		},
	}

	res := &Result{variants: variants}
	res.Stats.Input = len(variants)

	if err := s.stream(panel, &res.Stats); err != nil {
		return nil, err
	}
	res.Stats.Cores = s.cores

	for _, cl := range reduce(variants, s.overlapped, c.cfg.PThreshold) {
		res.Retained = append(res.Retained, cl.Index)
		res.Clumps = append(res.Clumps, cl)
	}
	res.Stats.Retained = len(res.Retained)

	c.state = StateDone
	c.log.Info().
		Int("input", res.Stats.Input).
		Int("in_panel", res.Stats.InPanel).
		Int("retained", res.Stats.Retained).
		Msg("Number of variants after clumping")

	return res, nil
}

// session is the state of one clumping run.
type session struct {
	c          *Clumper
	variants   []*Variant
	win        window
	eval       evaluator
	overlapped *roaring.Bitmap

	chr      int // chromosome of the variants in the window
	coreOpen bool
	core     int // window slot of the core
	coreChr  int
	corePos  uint32
	cores    int
}

func (s *session) stream(panel GenotypeSource, stats *Stats) error {
	cfg := s.c.cfg
	founders := panel.Founders()
	seenChr := make(map[int]struct{})
	started := false
	var prevPos uint32

	s.c.state = StateAccumulating
	for i, v := range s.variants {
		if s.c.progressEvery > 0 && i%s.c.progressEvery == 0 {
			s.c.log.Debug().Msgf("Clumping progress: %03.2f%%", 100*float64(i)/float64(len(s.variants)))
		}

		locus, ok := panel.Locus(v.ID)
		if !ok {
			stats.NotInPanel++
			continue
		}
		stats.InPanel++

		if match, _ := locus.Matches(v); !match {
			if stats.Mismatched == 0 {
				s.c.log.Warn().
					Str("variant", v.ID).
					Msg("Mismatched variants between LD reference and target; using target information. Check that both use the same genome build")
			}
			stats.Mismatched++
		}

		switch {
		case !started:
			started = true
			s.chr = v.Chromosome
			seenChr[v.Chromosome] = struct{}{}
		case v.Chromosome != s.chr:
			if _, seen := seenChr[v.Chromosome]; seen {
				return fmt.Errorf("%w: chromosome %s resumes after %s at variant %s", ErrUnsorted, ChromosomeName(v.Chromosome), ChromosomeName(s.chr), v.ID)
			}
			seenChr[v.Chromosome] = struct{}{}
			if err := s.flush(v.Chromosome, uint64(v.Position)); err != nil {
				return err
			}
			s.chr = v.Chromosome
			s.c.log.Debug().Str("chromosome", ChromosomeName(v.Chromosome)).Msg("Clumping chromosome")
		case v.Position < prevPos:
			return fmt.Errorf("%w: %s at %s:%d follows position %d", ErrUnsorted, v.ID, ChromosomeName(v.Chromosome), v.Position, prevPos)
		case s.coreOpen && uint64(v.Position-s.corePos) > cfg.MaxDistance:
			if err := s.flush(v.Chromosome, uint64(v.Position)); err != nil {
				return err
			}
		}
		prevPos = v.Position

		if !s.coreOpen {
			if err := s.retireBehind(uint64(v.Position)); err != nil {
				return err
			}
		}

		raw, err := panel.ReadGenotype(v.ID)
		if err != nil {
			return fmt.Errorf("reading genotypes of %s: %w", v.ID, err)
		}
		planes, err := Split(raw, founders)
		if err != nil {
			return fmt.Errorf("decoding genotypes of %s: %w", v.ID, err)
		}
		s.win.push(i, planes)
		s.overlapped.Add(uint32(i))

		if !s.coreOpen && v.P < cfg.PThreshold {
			s.setCore(s.win.Len() - 1)
		}
	}

	if s.win.Len() > 0 {
		// Force the last core to resolve
		if err := s.flush(s.chr+1, uint64(s.corePos)+2*cfg.MaxDistance); err != nil {
			return err
		}
	}
	s.c.log.Debug().Msg("Clumping progress: 100.00%")

	return nil
}

func (s *session) setCore(slot int) {
	v := s.variants[s.win.At(slot).variant]
	s.core = slot
	s.coreChr = v.Chromosome
	s.corePos = v.Position
	s.coreOpen = true
	s.c.state = StateClumping
}

// beyond reports whether a variant at (chr, pos) lies outside the open core's
// window.
func (s *session) beyond(chr int, pos uint64) bool {
	return s.coreChr != chr || pos-uint64(s.corePos) > s.c.cfg.MaxDistance
}

// flush resolves cores until the open core's window no longer reaches the
// incoming variant at (nextChr, nextPos).
func (s *session) flush(nextChr int, nextPos uint64) error {
	if s.win.Len() == 0 {
		return nil
	}

	guard := 0
	maxPossible := s.win.Len()
	for s.coreOpen && s.beyond(nextChr, nextPos) {
		s.resolveCore()

		s.coreOpen = false
		for k := s.core + 1; k < s.win.Len(); k++ {
			if s.variants[s.win.At(k).variant].P < s.c.cfg.PThreshold {
				s.setCore(k)
				break
			}
		}

		if s.coreOpen {
			// Nothing this far behind the new core can reach any later core
			n := s.countBehind(uint64(s.corePos))
			if err := s.win.retire(n); err != nil {
				return err
			}
			s.core -= n
		}

		guard++
		if guard > maxPossible {
			return &WindowInvariantError{
				Iterations: guard,
				WindowSize: maxPossible,
				Chromosome: s.coreChr,
				Position:   s.corePos,
			}
		}
	}

	if !s.coreOpen {
		s.c.state = StateAccumulating
	}

	if s.chr != nextChr {
		return s.win.reset()
	}
	if !s.coreOpen {
		return s.retireBehind(nextPos)
	}
	return nil
}

// resolveCore attaches every qualifying neighbor to the core's absorbed set.
func (s *session) resolveCore() {
	coreIdx := s.win.At(s.core).variant
	core := s.variants[coreIdx]
	for _, h := range s.eval.evaluate(&s.win, s.core) {
		core.absorb(h.variant, h.r2)
	}
	s.cores++
}

// countBehind counts the leading window slots more than the maximum distance
// before pos.
func (s *session) countBehind(pos uint64) int {
	n := 0
	for ; n < s.win.Len(); n++ {
		p := uint64(s.variants[s.win.At(n).variant].Position)
		if pos < p || pos-p <= s.c.cfg.MaxDistance {
			break
		}
	}
	return n
}

func (s *session) retireBehind(pos uint64) error {
	return s.win.retire(s.countBehind(pos))
}
