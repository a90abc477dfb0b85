package orderbook

import "fmt"

type levelNode struct {
	id   uint64
	prev *levelNode
	next *levelNode
}

// PriceLevel is a FIFO queue of order ids sharing one symbol/side/price,
// plus the running total of their remaining quantity.
//
// The level never reads order quantities itself: every caller that changes
// a member's remaining quantity must mirror the change here.
type PriceLevel struct {
	Price Price

	head    *levelNode
	tail    *levelNode
	members map[uint64]*levelNode

	totalQty int64
}

func newPriceLevel(p Price) *PriceLevel {
	return &PriceLevel{
		Price:   p,
		members: make(map[uint64]*levelNode, 8),
	}
}

// Append adds id at the back of the queue, behind every current member.
func (l *PriceLevel) Append(id uint64, qty int64) {
	if _, ok := l.members[id]; ok {
		return
	}
	n := &levelNode{id: id, prev: l.tail}
	if l.tail != nil {
		l.tail.next = n
	} else {
		l.head = n
	}
	l.tail = n
	l.members[id] = n
	l.totalQty += qty
}

// PeekFront returns the earliest-arrived member, the next to be matched.
func (l *PriceLevel) PeekFront() (uint64, bool) {
	if l.head == nil {
		return 0, false
	}
	return l.head.id, true
}

// RemoveMember unlinks id from anywhere in the queue and subtracts qty,
// the member's remaining quantity at the time of removal.
func (l *PriceLevel) RemoveMember(id uint64, qty int64) bool {
	n, ok := l.members[id]
	if !ok {
		return false
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	delete(l.members, id)
	l.totalQty -= qty
	return true
}

// Reduce mirrors a decrease of some member's remaining quantity.
func (l *PriceLevel) Reduce(qty int64) {
	l.totalQty -= qty
}

func (l *PriceLevel) TotalQty() int64 { return l.totalQty }
func (l *PriceLevel) Len() int        { return len(l.members) }
func (l *PriceLevel) Empty() bool     { return l.head == nil }

func (l *PriceLevel) Contains(id uint64) bool {
	_, ok := l.members[id]
	return ok
}

// Walk visits member ids oldest first until fn returns false.
func (l *PriceLevel) Walk(fn func(id uint64) bool) {
	for n := l.head; n != nil; n = n.next {
		if !fn(n.id) {
			return
		}
	}
}

func (l *PriceLevel) String() string {
	return fmt.Sprintf("PriceLevel{Price=%s, Orders=%d, TotalQty=%d}", l.Price, l.Len(), l.totalQty)
}
