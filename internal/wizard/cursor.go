package wizard

// Cursor is a step index bounded to [1, Total].
type Cursor struct {
	Step  int
	Total int
}

// NewCursor starts at step 1.
func NewCursor(total int) Cursor {
	if total < 1 {
		total = 1
	}
	return Cursor{Step: 1, Total: total}
}

// Next moves forward when canAdvance holds and the cursor is not already on the last step.
func (c *Cursor) Next(canAdvance bool) bool {
	if !canAdvance || c.Step >= c.Total {
		return false
	}
	c.Step++
	return true
}

// Previous moves back unconditionally unless on step 1.
func (c *Cursor) Previous() bool {
	if c.Step <= 1 {
		return false
	}
	c.Step--
	return true
}

// AtLast reports whether the cursor is on the final step.
func (c Cursor) AtLast() bool {
	return c.Step == c.Total
}
