package lineproto

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	ErrBadHeader      = errors.New("lineproto: batch must start with a command count")
	ErrTruncatedBatch = errors.New("lineproto: input ended before the announced command count")
)

// Reader yields the raw command lines of one batch: a count N on the first
// non-empty line, then N non-empty lines. Parsing each line is left to the
// caller so a malformed command never stops the batch.
type Reader struct {
	sc      *bufio.Scanner
	started bool
	want    int
	read    int
	line    string
	err     error
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{sc: sc}
}

// Count is the announced number of commands; valid after the first Next.
func (r *Reader) Count() int { return r.want }

// Next advances to the next command line.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}
	if !r.started {
		r.started = true
		head, ok := r.nextNonEmpty()
		if !ok {
			return false
		}
		n, err := strconv.Atoi(head)
		if err != nil || n < 0 {
			r.err = fmt.Errorf("%w: %q", ErrBadHeader, head)
			return false
		}
		r.want = n
	}
	if r.read >= r.want {
		return false
	}
	line, ok := r.nextNonEmpty()
	if !ok {
		if r.err == nil {
			r.err = fmt.Errorf("%w: got %d of %d", ErrTruncatedBatch, r.read, r.want)
		}
		return false
	}
	r.line = line
	r.read++
	return true
}

// Line is the current command line.
func (r *Reader) Line() string { return r.line }

// Index is the zero-based position of the current line in the batch.
func (r *Reader) Index() int { return r.read - 1 }

func (r *Reader) Err() error { return r.err }

func (r *Reader) nextNonEmpty() (string, bool) {
	for r.sc.Scan() {
		if s := strings.TrimSpace(r.sc.Text()); s != "" {
			return s, true
		}
	}
	if err := r.sc.Err(); err != nil {
		r.err = err
	}
	return "", false
}
