package sync

import "github.com/MarkoPoloResearchLab/dirsync/internal/config"

// side indexes a frame. One-way runs use source and target, two-way runs use
// left and right.
type side int

const (
	sourceSide side = 0
	targetSide side = 1

	leftSide  = sourceSide
	rightSide = targetSide
)

// frame holds the optional configuration of one directory level, per side.
type frame [2]*config.Directory

// configStack is the chain of configurations from the roots down to the
// directory being visited. Its length always equals the recursion depth.
type configStack struct {
	frames []frame
}

func (s *configStack) push(first, second *config.Directory) {
	s.frames = append(s.frames, frame{first, second})
}

func (s *configStack) pop() {
	s.frames[len(s.frames)-1] = frame{}
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *configStack) depth() int {
	return len(s.frames)
}

// current returns the configuration loaded for the innermost directory on
// side sd, nil when it has none.
func (s *configStack) current(sd side) *config.Directory {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1][sd]
}

// allows reports whether no configuration on side sd excludes entry. The
// check is a conjunction over every level, so once an ancestor excludes a
// name nothing deeper can admit it again.
func (s *configStack) allows(entry Entry, sd side) bool {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i][sd].Excludes(entry.Name, entry.Kind == KindFile, entry.Size) {
			return false
		}
	}
	return true
}

// oriented returns an independent copy of s. With swap set, the sides of
// every frame are exchanged so the right side becomes the source side.
func (s *configStack) oriented(swap bool) *configStack {
	frames := make([]frame, len(s.frames), len(s.frames)+8)
	for i, f := range s.frames {
		if swap {
			frames[i] = frame{f[1], f[0]}
		} else {
			frames[i] = f
		}
	}
	return &configStack{frames: frames}
}
