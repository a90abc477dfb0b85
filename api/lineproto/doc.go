// Package lineproto is the text front end of the matcher: it reads a
// counted batch of INSERT/AMEND/PULL lines and renders trades and depth
// snapshots as comma-separated result lines.
package lineproto
