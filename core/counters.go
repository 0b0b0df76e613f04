package core

// Counters bundles the seven rolling counts every TreeNode accumulates
// during post-processing: SOQL/DML/SOSL invocation and row counts, plus
// thrown exceptions. Self is set once, from the node's own line record (if
// any); Total is filled in bottom-up as Self plus every child's Total.
type Counters struct {
	SoqlCount        Counter
	SoqlRowCount     Counter
	DmlCount         Counter
	DmlRowCount      Counter
	SoslCount        Counter
	SoslRowCount     Counter
	TotalThrownCount Counter
}

// AddChild folds a child node's totals into the parent's running totals.
func (c *Counters) AddChild(child *Counters) {
	c.SoqlCount.Add(child.SoqlCount.Total)
	c.SoqlRowCount.Add(child.SoqlRowCount.Total)
	c.DmlCount.Add(child.DmlCount.Total)
	c.DmlRowCount.Add(child.DmlRowCount.Total)
	c.SoslCount.Add(child.SoslCount.Total)
	c.SoslRowCount.Add(child.SoslRowCount.Total)
	c.TotalThrownCount.Add(child.TotalThrownCount.Total)
}

// seedTotals copies each counter's Self into its Total before children are
// folded in; called once per node at the start of bottom-up aggregation.
func (c *Counters) seedTotals() {
	c.SoqlCount.Total = c.SoqlCount.Self
	c.SoqlRowCount.Total = c.SoqlRowCount.Self
	c.DmlCount.Total = c.DmlCount.Self
	c.DmlRowCount.Total = c.DmlRowCount.Self
	c.SoslCount.Total = c.SoslCount.Self
	c.SoslRowCount.Total = c.SoslRowCount.Self
	c.TotalThrownCount.Total = c.TotalThrownCount.Self
}

// SeedTotals is the exported entry point used by the post-processor.
func (c *Counters) SeedTotals() { c.seedTotals() }
