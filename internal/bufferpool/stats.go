package bufferpool

// Stats counts pool activity since the manager was created.
type Stats struct {
	Hits      uint64 // ReadPage served from a frame
	Misses    uint64 // ReadPage that needed a frame
	Reads     uint64 // pages read from files
	Writes    uint64 // dirty pages written back
	Evictions uint64 // valid frames reclaimed by the clock
}

func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
