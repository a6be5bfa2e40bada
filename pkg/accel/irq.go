package accel

// InterruptController latches completion events onto a level-asserted line.
type InterruptController struct {
	pending bool
}

func (c *InterruptController) raise() {
	c.pending = true
}

// clear deasserts the line and reports whether it was asserted.
func (c *InterruptController) clear() bool {
	was := c.pending
	c.pending = false
	return was
}

// Asserted reports the level of the interrupt line.
func (c *InterruptController) Asserted() bool {
	return c.pending
}
