package model

// Clone returns a deep copy of the session, safe to hand to broadcast
// and listing consumers after the originating lane releases its lock.
func (s *Session) Clone() *Session {
	out := *s
	out.Host = cloneParticipant(s.Host)
	out.White = cloneParticipant(s.White)
	out.Black = cloneParticipant(s.Black)
	if s.Observers != nil {
		out.Observers = make([]Participant, len(s.Observers))
		for i := range s.Observers {
			out.Observers[i] = s.Observers[i]
			if s.Observers[i].DisconnectedAt != nil {
				t := *s.Observers[i].DisconnectedAt
				out.Observers[i].DisconnectedAt = &t
			}
		}
	}
	if s.Moves != nil {
		out.Moves = make([]string, len(s.Moves))
		copy(out.Moves, s.Moves)
	}
	if s.Outcome != nil {
		o := *s.Outcome
		out.Outcome = &o
	}
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		out.EndedAt = &t
	}
	return &out
}

func cloneParticipant(p *Participant) *Participant {
	if p == nil {
		return nil
	}
	out := *p
	if p.DisconnectedAt != nil {
		t := *p.DisconnectedAt
		out.DisconnectedAt = &t
	}
	return &out
}
