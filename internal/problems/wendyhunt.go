package problems

// WendyHunt returns the three-state, two-action hunting problem.
func WendyHunt() *Table {
	t, err := NewTable(
		[][][]float64{
			{
				{1, 0, 0},
				{1, 0, 0},
				{0, 0.3, 0.7},
			},
			{
				{0.4, 0, 0.6},
				{0.1, 0.6, 0.3},
				{0, 0.1, 0.9},
			},
		},
		[][]float64{
			{1, 1, 3},
			{0, 0, 2},
		},
		0.99,
	)
	if err != nil {
		panic(err)
	}
	t.SetActionNames("rest", "hunt")
	return t
}
