package orderbook

type color uint8

const (
	red color = iota
	black
)

type node struct {
	key    int64
	level  *PriceLevel
	color  color
	left   *node
	right  *node
	parent *node
}

// PriceIndex is a red-black tree of price levels for one side of a book.
// The tree is ordered best-first by a side-aware comparison, so the
// leftmost node is always the best resting price: highest for bids,
// lowest for asks.
type PriceIndex struct {
	root   *node
	nil    *node // black sentinel
	size   int
	better func(a, b int64) bool
}

// NewPriceIndex returns an empty index ordered for the given side.
func NewPriceIndex(side Side) *PriceIndex {
	if side == Buy {
		return newPriceIndex(func(a, b int64) bool { return a > b })
	}
	return newPriceIndex(func(a, b int64) bool { return a < b })
}

func newPriceIndex(better func(a, b int64) bool) *PriceIndex {
	sentinel := &node{color: black}
	return &PriceIndex{
		root:   sentinel,
		nil:    sentinel,
		better: better,
	}
}

func (t *PriceIndex) Len() int { return t.size }

func (t *PriceIndex) Find(ticks int64) *PriceLevel {
	n := t.search(ticks)
	if n == t.nil {
		return nil
	}
	return n.level
}

// Upsert returns the level at p, creating it if needed. The second result
// reports whether the level was created by this call.
func (t *PriceIndex) Upsert(p Price) (*PriceLevel, bool) {
	key := p.Ticks()
	y := t.nil
	x := t.root
	for x != t.nil {
		y = x
		switch {
		case t.better(key, x.key):
			x = x.left
		case t.better(x.key, key):
			x = x.right
		default:
			return x.level, false
		}
	}

	lvl := newPriceLevel(p)
	z := &node{
		key:    key,
		level:  lvl,
		color:  red,
		left:   t.nil,
		right:  t.nil,
		parent: y,
	}
	switch {
	case y == t.nil:
		t.root = z
	case t.better(key, y.key):
		y.left = z
	default:
		y.right = z
	}
	t.insertFixup(z)
	t.size++
	return lvl, true
}

func (t *PriceIndex) Delete(ticks int64) bool {
	z := t.search(ticks)
	if z == t.nil {
		return false
	}
	t.deleteNode(z)
	t.size--
	return true
}

// Best returns the best level, or nil when the side is empty.
func (t *PriceIndex) Best() *PriceLevel {
	n := t.minNode(t.root)
	if n == t.nil {
		return nil
	}
	return n.level
}

// Walk visits levels best to worst until fn returns false.
func (t *PriceIndex) Walk(fn func(*PriceLevel) bool) {
	for n := t.minNode(t.root); n != t.nil; n = t.next(n) {
		if !fn(n.level) {
			return
		}
	}
}

// Levels collects every level best to worst.
func (t *PriceIndex) Levels() []*PriceLevel {
	out := make([]*PriceLevel, 0, t.size)
	t.Walk(func(l *PriceLevel) bool {
		out = append(out, l)
		return true
	})
	return out
}

/******************** tree internals ********************/

func (t *PriceIndex) search(key int64) *node {
	n := t.root
	for n != t.nil {
		switch {
		case t.better(key, n.key):
			n = n.left
		case t.better(n.key, key):
			n = n.right
		default:
			return n
		}
	}
	return t.nil
}

func (t *PriceIndex) minNode(n *node) *node {
	if n == t.nil {
		return t.nil
	}
	for n.left != t.nil {
		n = n.left
	}
	return n
}

func (t *PriceIndex) next(n *node) *node {
	if n.right != t.nil {
		return t.minNode(n.right)
	}
	p := n.parent
	for p != t.nil && n == p.right {
		n = p
		p = p.parent
	}
	return p
}

func (t *PriceIndex) leftRotate(x *node) {
	y := x.right
	x.right = y.left
	if y.left != t.nil {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == t.nil {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *PriceIndex) rightRotate(y *node) {
	x := y.left
	y.left = x.right
	if x.right != t.nil {
		x.right.parent = y
	}
	x.parent = y.parent
	if y.parent == t.nil {
		t.root = x
	} else if y == y.parent.right {
		y.parent.right = x
	} else {
		y.parent.left = x
	}
	x.right = y
	y.parent = x
}

func (t *PriceIndex) insertFixup(z *node) {
	for z.parent.color == red {
		if z.parent == z.parent.parent.left {
			y := z.parent.parent.right
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.right {
					z = z.parent
					t.leftRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rightRotate(z.parent.parent)
			}
		} else {
			y := z.parent.parent.left
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rightRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.leftRotate(z.parent.parent)
			}
		}
	}
	t.root.color = black
}

func (t *PriceIndex) transplant(u, v *node) {
	if u.parent == t.nil {
		t.root = v
	} else if u == u.parent.left {
		u.parent.left = v
	} else {
		u.parent.right = v
	}
	v.parent = u.parent
}

func (t *PriceIndex) deleteNode(z *node) {
	y := z
	yOrigColor := y.color
	var x *node

	if z.left == t.nil {
		x = z.right
		t.transplant(z, z.right)
	} else if z.right == t.nil {
		x = z.left
		t.transplant(z, z.left)
	} else {
		y = t.minNode(z.right)
		yOrigColor = y.color
		x = y.right
		if y.parent == z {
			x.parent = y
		} else {
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}

	if yOrigColor == black {
		t.deleteFixup(x)
	}
	t.nil.parent = nil
}

func (t *PriceIndex) deleteFixup(x *node) {
	for x != t.root && x.color == black {
		if x == x.parent.left {
			w := x.parent.right
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.leftRotate(x.parent)
				w = x.parent.right
			}
			if w.left.color == black && w.right.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.right.color == black {
					w.left.color = black
					w.color = red
					t.rightRotate(w)
					w = x.parent.right
				}
				w.color = x.parent.color
				x.parent.color = black
				w.right.color = black
				t.leftRotate(x.parent)
				x = t.root
			}
		} else {
			w := x.parent.left
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.rightRotate(x.parent)
				w = x.parent.left
			}
			if w.right.color == black && w.left.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.left.color == black {
					w.right.color = black
					w.color = red
					t.leftRotate(w)
					w = x.parent.left
				}
				w.color = x.parent.color
				x.parent.color = black
				w.left.color = black
				t.rightRotate(x.parent)
				x = t.root
			}
		}
	}
	x.color = black
}

// checkBalance verifies red-black properties and returns the black height.
// Used by tests.
func (t *PriceIndex) checkBalance() (int, bool) {
	var walk func(n *node) (int, bool)
	walk = func(n *node) (int, bool) {
		if n == t.nil {
			return 1, true
		}
		if n.color == red && (n.left.color == red || n.right.color == red) {
			return 0, false
		}
		if n.left != t.nil && !t.better(n.left.key, n.key) {
			return 0, false
		}
		if n.right != t.nil && !t.better(n.key, n.right.key) {
			return 0, false
		}
		lh, lok := walk(n.left)
		rh, rok := walk(n.right)
		if !lok || !rok || lh != rh {
			return 0, false
		}
		if n.color == black {
			lh++
		}
		return lh, true
	}
	if t.root.color != black {
		return 0, false
	}
	return walk(t.root)
}
