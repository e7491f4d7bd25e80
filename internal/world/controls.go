package world

// PageControls is a settable Controls implementation, standing in for the
// checkboxes and model selector of the page.
type PageControls struct {
	HitTest bool
	Anchor  bool
	Model   string
}

func (c *PageControls) UseHitTest() bool      { return c.HitTest }
func (c *PageControls) UseAnchor() bool       { return c.Anchor }
func (c *PageControls) SelectedModel() string { return c.Model }
