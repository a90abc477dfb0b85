// Package memory provides typed object recycling for hot-path
// allocations. The order registry draws Order values from a Pool
// and returns them once an order is filled, pulled or replaced.
package memory
