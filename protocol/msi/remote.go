package msi

import (
	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/microcode"
	"github.com/sarchlab/protoengine/protocol/remote"
)

// RemoteProgramName is the ID string of the Remote Engine program.
const RemoteProgramName = "msi-remote"

// RemoteProgram assembles the Remote Engine program. Each call returns a new
// program with its own execution counters.
func RemoteProgram() *microcode.Program {
	a := microcode.NewAssembler(remote.Magic, RemoteProgramName)
	d := dispatcher{a: a, nop: remote.Nop()}

	remoteEntries(d)

	a.Org(codeBase)
	a.Label(errorLabel).Emit(remote.Nop(), microcode.Halt, "protocol error")
	a.Label("drop").Emit(remote.Nop(), microcode.Halt, "nothing to do")

	remoteMisses(d)
	remoteFlush(d)
	remoteRequests(d)

	return a.MustAssemble()
}

func remoteEntries(d dispatcher) {
	d.a.EmitAt(remote.EPHalt, remote.Nop(), microcode.Halt, "halt")

	entries := []struct {
		ep    int
		label string
	}{
		{remote.EPLocalRead, "local_read"},
		{remote.EPLocalWriteAccess, "local_write"},
		{remote.EPLocalUpgradeAccess, "local_upgrade"},
		{remote.EPLocalDropHint, "drop"},
		{remote.EPLocalEvict, "drop"},
		{remote.EPLocalFlush, "local_flush"},
		{remote.EPLocalPrefetchRead, "local_prefetch"},
		{remote.EPLocalInvalidationReq, "local_inval"},
		{remote.EPRemoteInvalidationReq, "remote_inval"},
		{remote.EPForwardedReadReq, "fwd_read"},
		{remote.EPForwardedWriteReq, "fwd_write"},
		{remote.EPRecallReadReq, "recall_read"},
		{remote.EPRecallWriteReq, "recall_write"},
		{remote.EPError, errorLabel},
	}

	for _, e := range entries {
		d.entry(e.ep, e.label, remote.EntryPointName(e.ep))
	}

	// Replies only ever go to a waiting thread.
	for ep := remote.EPReadAck; ep <= remote.EPWriteFwd; ep++ {
		d.entry(ep, errorLabel, remote.EntryPointName(ep))
	}
}

// invalidationDuringMiss answers an invalidation that reaches a pending
// miss and waits for the reply again.
func invalidationDuringMiss(d dispatcher, label, rx string) {
	d.a.Label(label).
		Emit(remote.CPU(protocol.CPUInvalidate), microcode.Fallthrough, "").
		Emit(remote.Receive(), label+"_rx", "wait for the CPU")
	d.replies(label+"_rx", remote.ReplyTableSize, map[int]string{
		remote.RXInvAck:       label + "_ack",
		remote.RXInvUpdateAck: label + "_ack",
	})

	d.a.Label(label+"_ack").
		Emit(remote.Send(remote.TXLocalInvalidationAck, remote.ToDirectory),
			microcode.Fallthrough, "").
		Emit(remote.Receive(), rx, "wait for the reply")
}

func remoteMisses(d dispatcher) {
	a := d.a

	a.Label("local_prefetch").
		Emit(remote.SetPrefetch(true), "local_read", "")

	a.Label("local_read").
		Emit(remote.Send(remote.TXReadReq, remote.ToDirectory),
			microcode.Fallthrough, "").
		Emit(remote.Receive(), "read_rx", "wait for the reply")
	d.replies("read_rx", remote.ReplyTableSize, map[int]string{
		remote.RXReadAck:              "read_fill",
		remote.RXLocalInvalidationReq: "read_inval",
	})
	invalidationDuringMiss(d, "read_inval", "read_rx")

	a.Label("read_fill").
		Emit(remote.Test(remote.TestPrefetch), "read_kind", "")
	d.branch("read_kind", "read_reply", "prefetch_reply")
	a.Label("read_reply").
		Emit(remote.CPU(protocol.CPUMissReply), microcode.Halt, "")
	a.Label("prefetch_reply").
		Emit(remote.CPU(protocol.CPUPrefetchReadReply), microcode.Halt, "")

	a.Label("local_write").
		Emit(remote.Send(remote.TXWriteReq, remote.ToDirectory),
			microcode.Fallthrough, "").
		Emit(remote.Receive(), "write_rx", "wait for the reply")
	d.replies("write_rx", remote.ReplyTableSize, map[int]string{
		remote.RXWriteAck:             "write_fill",
		remote.RXLocalInvalidationReq: "write_inval",
	})
	invalidationDuringMiss(d, "write_inval", "write_rx")

	a.Label("write_fill").
		Emit(remote.CPU(protocol.CPUMissWritableReply), microcode.Halt, "")

	a.Label("local_upgrade").
		Emit(remote.Send(remote.TXUpgradeReq, remote.ToDirectory),
			microcode.Fallthrough, "").
		Emit(remote.Receive(), "upgrade_rx", "wait for the reply")
	d.replies("upgrade_rx", remote.ReplyTableSize, map[int]string{
		remote.RXUpgradeAck:           "upgrade_done",
		remote.RXWriteAck:             "write_fill",
		remote.RXLocalInvalidationReq: "upgrade_inval",
	})
	invalidationDuringMiss(d, "upgrade_inval", "upgrade_rx")

	a.Label("upgrade_done").
		Emit(remote.CPU(protocol.CPUUpgradeReply), microcode.Halt, "")
}

// remoteFlush writes a modified line back. A recall that crosses the
// writeback is answered by the writeback itself. The home then sends a
// stale acknowledgment instead of a writeback acknowledgment, and the
// thread completes once it has seen both the recall and the stale
// acknowledgment, in either order.
func remoteFlush(d dispatcher) {
	a := d.a

	a.Label("local_flush").
		Emit(remote.SetRacerFlag(remote.FlagWritebackAckExpected, true),
			microcode.Fallthrough, "").
		Emit(remote.Send(remote.TXWritebackReq, remote.ToDirectory),
			microcode.Fallthrough, "").
		Emit(remote.Receive(), "flush_rx", "wait for the writeback ack")
	d.replies("flush_rx", remote.ReplyTableSize, map[int]string{
		remote.RXWritebackAck: microcode.Halt,
		remote.RXDeferredJump: "flush_dj",
	})

	a.Label("flush_dj").
		Emit(remote.ReceiveDeferredJump(), "flush_dj_table", "")
	d.replies("flush_dj_table", remote.ReplyTableSize, map[int]string{
		remote.DJWritebackStaleRdAck: "flush_race",
		remote.DJWritebackStaleWrAck: "flush_race",
		remote.DJRecallReadReq:       "flush_race",
		remote.DJRecallWriteReq:      "flush_race",
	})

	a.Label("flush_race").
		Emit(remote.Test(remote.TestFwdReqOrStaleAckExpected), "flush_seen", "")
	d.branch("flush_seen", "flush_wait_other", microcode.Halt)

	a.Label("flush_wait_other").
		Emit(remote.SetRacerFlag(remote.FlagFwdReqOrStaleAckExpected, true),
			microcode.Fallthrough, "").
		Emit(remote.Receive(), "flush_rx", "wait for the other half of the race")
}

// cpuAck emits a CPU operation, waits for the CPU to answer with one of the
// given replies, and continues at done.
func cpuAck(d dispatcher, label string, op protocol.CPUOp, replies []int, done string) {
	d.a.Label(label).
		Emit(remote.CPU(op), microcode.Fallthrough, "").
		Emit(remote.Receive(), label+"_rx", "wait for the CPU")

	handlers := make(map[int]string, len(replies))
	for _, r := range replies {
		handlers[r] = done
	}

	d.replies(label+"_rx", remote.ReplyTableSize, handlers)
}

func remoteRequests(d dispatcher) {
	a := d.a

	invalidated := []int{remote.RXInvAck, remote.RXInvUpdateAck}
	downgraded := []int{
		remote.RXDowngradeAck, remote.RXDowngradeUpdateAck,
		remote.RXInvAck, remote.RXInvUpdateAck,
	}

	cpuAck(d, "local_inval", protocol.CPUInvalidate, invalidated,
		"local_inval_done")
	a.Label("local_inval_done").
		Emit(remote.Send(remote.TXLocalInvalidationAck, remote.ToDirectory),
			microcode.Halt, "")

	a.Label("remote_inval").
		Emit(remote.SetInvAckReceiver(remote.NodeRequester), "remote_inval_cpu", "")
	cpuAck(d, "remote_inval_cpu", protocol.CPUInvalidate, invalidated,
		"remote_inval_done")
	a.Label("remote_inval_done").
		Emit(remote.SendRacer(remote.TXRemoteInvalidationAck,
			remote.ToInvAckReceiver), microcode.Halt, "")

	cpuAck(d, "fwd_read", protocol.CPUDowngrade, downgraded, "fwd_read_done")
	a.Label("fwd_read_done").
		Emit(remote.Send(remote.TXReadFwd, remote.ToRequester),
			microcode.Fallthrough, "").
		Emit(remote.Send(remote.TXForwardedReadAck, remote.ToDirectory),
			microcode.Halt, "")

	cpuAck(d, "fwd_write", protocol.CPUInvalidate, invalidated, "fwd_write_done")
	a.Label("fwd_write_done").
		Emit(remote.Send(remote.TXWriteFwd, remote.ToRequester),
			microcode.Fallthrough, "").
		Emit(remote.Send(remote.TXForwardedWriteAck, remote.ToDirectory),
			microcode.Halt, "")

	cpuAck(d, "recall_read", protocol.CPUDowngrade, downgraded,
		"recall_read_done")
	a.Label("recall_read_done").
		Emit(remote.Send(remote.TXRecallReadAck, remote.ToDirectory),
			microcode.Halt, "")

	cpuAck(d, "recall_write", protocol.CPUInvalidate, invalidated,
		"recall_write_done")
	a.Label("recall_write_done").
		Emit(remote.Send(remote.TXRecallWriteAck, remote.ToDirectory),
			microcode.Halt, "")
}
