package overlay

// MoveDown advances the selection, stopping at the last tab.
func (s *Session) MoveDown() bool {
	return s.moveBy(1)
}

// MoveUp moves the selection back, stopping at the first tab.
func (s *Session) MoveUp() bool {
	return s.moveBy(-1)
}

// MovePageDown and MovePageUp move by a page of pageSize rows, clamped.
func (s *Session) MovePageDown(pageSize int) bool {
	return s.moveBy(s.pageSize(pageSize))
}

func (s *Session) MovePageUp(pageSize int) bool {
	return s.moveBy(-s.pageSize(pageSize))
}

func (s *Session) MoveHome() bool {
	return s.moveTo(0)
}

func (s *Session) MoveEnd() bool {
	return s.moveTo(len(s.filtered) - 1)
}

// CycleForward advances the selection, wrapping to the first tab.
func (s *Session) CycleForward() bool {
	n := len(s.filtered)
	if n == 0 {
		return false
	}
	s.cycling = true
	s.selected = (s.selected + 1) % n
	return true
}

// CycleBackward moves the selection back, wrapping to the last tab.
func (s *Session) CycleBackward() bool {
	n := len(s.filtered)
	if n == 0 {
		return false
	}
	s.cycling = true
	s.selected = (s.selected - 1 + n) % n
	return true
}

// EndCycle leaves cycle mode without moving the selection.
func (s *Session) EndCycle() {
	s.cycling = false
}

func (s *Session) moveBy(delta int) bool {
	return s.moveTo(s.selected + delta)
}

func (s *Session) moveTo(idx int) bool {
	s.cycling = false
	if len(s.filtered) == 0 {
		s.selected = 0
		return false
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(s.filtered) {
		idx = len(s.filtered) - 1
	}
	old := s.selected
	s.selected = idx
	return old != idx
}

func (s *Session) pageSize(maxVisible int) int {
	total := len(s.filtered)
	size := maxVisible
	if size <= 0 || size > total {
		size = total
	}
	if size < 1 {
		size = 1
	}
	return size
}

// Offset is the index of the first visible row.
func (s *Session) Offset() int {
	return s.offset
}

// EnsureVisible scrolls so the selection lies within maxVisible rows.
func (s *Session) EnsureVisible(maxVisible int) {
	s.offset = visibleOffset(s.offset, s.selected, len(s.filtered), maxVisible)
}

func visibleOffset(offset, selected, total, maxVisible int) int {
	if total == 0 || maxVisible <= 0 {
		return 0
	}
	maxOffset := total - maxVisible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}
	if selected < offset {
		offset = selected
	}
	if upper := offset + maxVisible - 1; selected > upper {
		offset = selected - maxVisible + 1
	}
	return offset
}
