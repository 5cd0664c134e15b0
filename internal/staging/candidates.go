package staging

// candidateSet is a set of paths supporting O(1) removal and uniform random
// selection. It is not safe for concurrent use; Cache guards it with its mutex.
type candidateSet struct {
	paths []string
	index map[string]int
}

func newCandidateSet(paths []string) *candidateSet {
	s := &candidateSet{
		paths: make([]string, 0, len(paths)),
		index: make(map[string]int, len(paths)),
	}
	for _, p := range paths {
		s.add(p)
	}
	return s
}

func (s *candidateSet) add(path string) {
	if _, ok := s.index[path]; ok {
		return
	}
	s.index[path] = len(s.paths)
	s.paths = append(s.paths, path)
}

func (s *candidateSet) remove(path string) bool {
	i, ok := s.index[path]
	if !ok {
		return false
	}
	last := len(s.paths) - 1
	if i != last {
		moved := s.paths[last]
		s.paths[i] = moved
		s.index[moved] = i
	}
	s.paths = s.paths[:last]
	delete(s.index, path)
	return true
}

func (s *candidateSet) contains(path string) bool {
	_, ok := s.index[path]
	return ok
}

func (s *candidateSet) len() int {
	return len(s.paths)
}

// pick selects uniformly among paths for which busy reports false. A few
// random probes are tried first since busy paths are normally a tiny
// fraction of the library; the slow path scans all eligible paths.
func (s *candidateSet) pick(intn func(int) int, busy func(string) bool) (string, bool) {
	n := len(s.paths)
	if n == 0 {
		return "", false
	}

	for i := 0; i < 8; i++ {
		p := s.paths[intn(n)]
		if !busy(p) {
			return p, true
		}
	}

	eligible := make([]string, 0, n)
	for _, p := range s.paths {
		if !busy(p) {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return "", false
	}
	return eligible[intn(len(eligible))], true
}
