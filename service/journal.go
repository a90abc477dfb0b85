package service

import (
	"fmt"
	"io"

	"matchbook/api/lineproto"
	"matchbook/domain/orderbook"
	"matchbook/infra/wal/entry"
)

func journalRecord(cmd lineproto.Command) (entry.RecordType, []byte) {
	c := entry.Command{
		Index:       int64(cmd.Index),
		OrderID:     cmd.OrderID,
		Symbol:      cmd.Symbol,
		Side:        uint8(cmd.Side),
		PriceTicks:  cmd.Price.Ticks(),
		PricePlaces: cmd.Price.Places(),
		Qty:         cmd.Qty,
	}
	var rt entry.RecordType
	switch cmd.Kind {
	case lineproto.Insert:
		rt = entry.RecordInsert
	case lineproto.Amend:
		rt = entry.RecordAmend
	default:
		rt = entry.RecordPull
	}
	return rt, c.Marshal()
}

// CommandFromJournal turns a journal record back into the command it
// recorded.
func CommandFromJournal(r *entry.Record) (lineproto.Command, error) {
	c, err := entry.UnmarshalCommand(r.Data)
	if err != nil {
		return lineproto.Command{}, err
	}
	cmd := lineproto.Command{
		Index:   int(c.Index),
		OrderID: c.OrderID,
		Symbol:  c.Symbol,
		Side:    orderbook.Side(c.Side),
		Price:   orderbook.NewPrice(c.PriceTicks, c.PricePlaces),
		Qty:     c.Qty,
	}
	switch r.Type {
	case entry.RecordInsert:
		cmd.Kind = lineproto.Insert
	case entry.RecordAmend:
		cmd.Kind = lineproto.Amend
	case entry.RecordPull:
		cmd.Kind = lineproto.Pull
	default:
		return lineproto.Command{}, fmt.Errorf("journal seq %d: unknown record type %s", r.Seq, r.Type)
	}
	return cmd, nil
}

// DumpJournal writes one "seq,index,command" line per journal record.
func DumpJournal(dir string, w io.Writer) (uint64, error) {
	return entry.Scan(dir, func(r *entry.Record) error {
		cmd, err := CommandFromJournal(r)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%d,%d,%s\n", r.Seq, cmd.Index, cmd.Line())
		return err
	})
}
