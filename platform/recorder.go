package platform

import (
	"github.com/sarchlab/protoengine/datarecording"
	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/protocolengine"
)

// Table names used by the ProtocolRecorder.
const (
	TransactionTable = "transactions"
	EngineStatsTable = "engine_stats"
)

// TransactionEntry is one row of the transaction table.
type TransactionEntry struct {
	ID                     string
	Address                uint64
	Initiator              int
	Responder              int
	PreviousState          string
	FillType               string
	FillLevel              string
	NetworkTrafficRequired bool
	StartTime              uint64
	EndTime                uint64
	Latency                uint64
}

// ProtocolRecorder writes completed transactions and engine statistics
// into a DataRecorder.
type ProtocolRecorder struct {
	recorder datarecording.DataRecorder
}

// NewProtocolRecorder creates the tables of a ProtocolRecorder.
func NewProtocolRecorder(r datarecording.DataRecorder) *ProtocolRecorder {
	r.CreateTable(TransactionTable, TransactionEntry{})
	r.CreateTable(EngineStatsTable, protocolengine.Stats{})

	return &ProtocolRecorder{recorder: r}
}

// TransactionCompleted records a transaction.
func (r *ProtocolRecorder) TransactionCompleted(tr *protocol.Tracker) {
	prev := ""
	if tr.HasPreviousState {
		prev = tr.PreviousState.String()
	}

	r.recorder.InsertData(TransactionTable, TransactionEntry{
		ID:                     tr.ID,
		Address:                uint64(tr.Address),
		Initiator:              int(tr.Initiator),
		Responder:              int(tr.Responder),
		PreviousState:          prev,
		FillType:               tr.FillType.String(),
		FillLevel:              tr.FillLevel.String(),
		NetworkTrafficRequired: tr.NetworkTrafficRequired,
		StartTime:              uint64(tr.StartTime),
		EndTime:                uint64(tr.EndTime),
		Latency:                uint64(tr.EndTime - tr.StartTime),
	})
}

// RecordEngineStats records a statistics snapshot of an engine.
func (r *ProtocolRecorder) RecordEngineStats(s protocolengine.Stats) {
	r.recorder.InsertData(EngineStatsTable, s)
}

// Flush writes the buffered rows.
func (r *ProtocolRecorder) Flush() {
	r.recorder.Flush()
}
