package proxypool

// Stats summarizes the pool's current health, mirroring the original
// engine's get_stats report.
type Stats struct {
	ActiveProxies    int
	QuarantinedProxies int
	TotalSuccess     int
	TotalFailures    int
	SuccessRate      float64
}

// Stats computes an aggregate snapshot of the pool's current state.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var s Stats
	s.ActiveProxies = len(p.active)
	s.QuarantinedProxies = len(p.quarantine)

	for _, e := range p.active {
		s.TotalSuccess += e.SuccessCount
		s.TotalFailures += e.FailureCount
	}
	for _, e := range p.quarantine {
		s.TotalSuccess += e.SuccessCount
		s.TotalFailures += e.FailureCount
	}

	total := s.TotalSuccess + s.TotalFailures
	if total > 0 {
		s.SuccessRate = float64(s.TotalSuccess) / float64(total) * 100
	}
	return s
}
