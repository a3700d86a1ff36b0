package lexer

// Mode is the lexical mode the scanner is in.
type Mode int

const (
	ModeDefault Mode = 0
	ModeString  Mode = 1
)

// State is the opaque resume state stored on every token. Layout:
//
//	bits 0-7   mode
//	bits 8-15  interpolation depth
//	bits 16-23 open braces inside the innermost interpolation
//	bit  24    unseedable: the stack cannot be rebuilt from the fields above
//
// The low 16 bits are exactly mode | depth<<8.
type State int

const (
	depthShift  = 8
	bracesShift = 16
	fieldMask   = 0xff
	unseedable  = 1 << 24
)

func makeState(mode Mode, depth, braces int, seedable bool) State {
	s := int(mode)&fieldMask | (depth&fieldMask)<<depthShift | (braces&fieldMask)<<bracesShift
	if !seedable {
		s |= unseedable
	}
	return State(s)
}

func (s State) Mode() Mode {
	return Mode(int(s) & fieldMask)
}

// Depth is the number of open ${ interpolations.
func (s State) Depth() int {
	return (int(s) >> depthShift) & fieldMask
}

// Braces is the count of object-literal braces open in the innermost interpolation.
func (s State) Braces() int {
	return (int(s) >> bracesShift) & fieldMask
}

// Seedable reports whether Resume can restart the scanner directly from s.
func (s State) Seedable() bool {
	return int(s)&unseedable == 0
}

// valid rejects states that no scan could have produced.
func (s State) valid() bool {
	if s < 0 || int(s)>>25 != 0 {
		return false
	}
	switch s.Mode() {
	case ModeDefault:
		return s.Depth() > 0 || s.Braces() == 0
	case ModeString:
		return true
	}
	return false
}
