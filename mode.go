package ldclump

// Mode is the bed storage order recorded in the third header byte
type Mode byte

const (
	ModeIndividualMajor Mode = iota
	ModeSNPMajor
)

func (m Mode) String() string {
	switch m {
	case ModeIndividualMajor:
		return "individual-major"
	case ModeSNPMajor:
		return "SNP-major"

	default:
		return "Illegal selection"
	}
}
