package platform

import (
	"context"
	"fmt"

	"github.com/sarchlab/protoengine/datarecording"
	"github.com/sarchlab/protoengine/protocol/protocolengine"
)

// Recording is what a ProtocolRecorder stored about a run.
type Recording struct {
	Engines      []protocolengine.Stats
	Transactions int
	Slowest      []TransactionEntry
}

// ReadRecording reads the engine statistics and the slowest transactions
// back from a database written by a ProtocolRecorder.
func ReadRecording(
	ctx context.Context,
	r datarecording.DataReader,
	slowest int,
) (Recording, error) {
	rec := Recording{}

	tables, err := r.ListTables(ctx)
	if err != nil {
		return rec, err
	}

	for _, want := range []string{TransactionTable, EngineStatsTable} {
		if !containsString(tables, want) {
			return rec, fmt.Errorf("table %s not found", want)
		}
	}

	r.MapTable(EngineStatsTable, protocolengine.Stats{})
	r.MapTable(TransactionTable, TransactionEntry{})

	engines, _, err := r.Query(ctx, EngineStatsTable,
		datarecording.QueryParams{OrderBy: "Engine"})
	if err != nil {
		return rec, err
	}

	for _, e := range engines {
		rec.Engines = append(rec.Engines, *e.(*protocolengine.Stats))
	}

	if slowest <= 0 {
		slowest = 1
	}

	transactions, total, err := r.Query(ctx, TransactionTable,
		datarecording.QueryParams{OrderBy: "Latency DESC", Limit: slowest})
	if err != nil {
		return rec, err
	}

	rec.Transactions = total
	for _, t := range transactions {
		rec.Slowest = append(rec.Slowest, *t.(*TransactionEntry))
	}

	return rec, nil
}

func containsString(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}

	return false
}
