package diff

// Op classifies an edit.
type Op int

const (
	Equal  Op = iota // Line is unchanged between a and b.
	Insert           // Line is present in b only.
	Delete           // Line is present in a only.
)

func (o Op) String() string {
	switch o {
	case Equal:
		return "equal"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// Edit is one step of an edit script. Old is nil for inserts and New is
// nil for deletes.
type Edit struct {
	Op  Op
	Old *Line
	New *Line
}

// Line returns the line the edit carries: the new line for inserts and
// the old line otherwise.
func (e Edit) Line() *Line {
	if e.Op == Insert {
		return e.New
	}
	return e.Old
}

// Myers computes the shortest edit script turning a into b.
//
// Among scripts of equal length it prefers deletions before insertions and
// follows each diagonal as far as possible, so matching lines are kept as
// early as possible. Runs in O((N+M)*D) time.
func Myers(a, b []Line) []Edit {
	n, m := len(a), len(b)

	if n == 0 {
		edits := make([]Edit, m)
		for i := range b {
			edits[i] = Edit{Op: Insert, New: &b[i]}
		}
		return edits
	}
	if m == 0 {
		edits := make([]Edit, n)
		for i := range a {
			edits[i] = Edit{Op: Delete, Old: &a[i]}
		}
		return edits
	}

	max := n + m
	offset := max + 1
	v := make([]int, 2*max+3)

	// trace[d] holds v[-d-1 .. d+1] after round d.
	var trace [][]int
	for d := 0; d <= max; d++ {
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1] // move down (insert)
			} else {
				x = v[offset+k-1] + 1 // move right (delete)
			}
			y := x - k

			for x < n && y < m && a[x].Equal(b[y]) {
				x++
				y++
			}
			v[offset+k] = x

			if x >= n && y >= m {
				trace = append(trace, snapshot(v, offset, d))
				return backtrack(trace, a, b)
			}
		}
		trace = append(trace, snapshot(v, offset, d))
	}
	return nil
}

func snapshot(v []int, offset, d int) []int {
	s := make([]int, 2*d+3)
	copy(s, v[offset-d-1:offset+d+2])
	return s
}

// backtrack walks the trace from (len(a), len(b)) back to the origin.
func backtrack(trace [][]int, a, b []Line) []Edit {
	x, y := len(a), len(b)
	var edits []Edit

	for d := len(trace) - 1; d > 0; d-- {
		prev := trace[d-1]
		at := func(k int) int { return prev[k+d] }

		k := x - y
		var prevK int
		if k == -d || (k != d && at(k-1) < at(k+1)) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := at(prevK)
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			edits = append(edits, Edit{Op: Equal, Old: &a[x], New: &b[y]})
		}

		if prevK == k-1 {
			x--
			edits = append(edits, Edit{Op: Delete, Old: &a[x]})
		} else {
			y--
			edits = append(edits, Edit{Op: Insert, New: &b[y]})
		}
	}

	for x > 0 && y > 0 {
		x--
		y--
		edits = append(edits, Edit{Op: Equal, Old: &a[x], New: &b[y]})
	}

	for i, j := 0, len(edits)-1; i < j; i, j = i+1, j-1 {
		edits[i], edits[j] = edits[j], edits[i]
	}
	return edits
}
