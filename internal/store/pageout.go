package store

// PageOut is a page of idx-ordered results, per spec §4.5. Items are
// always ordered descending by idx; lowIdx/highIdx bound the idx range
// actually returned, letting a caller compute the next page's startIdx.
type PageOut struct {
	Items   []string
	LowIdx  int64
	HighIdx int64
}
