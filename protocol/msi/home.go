package msi

import (
	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/home"
	"github.com/sarchlab/protoengine/protocol/microcode"
)

// HomeProgramName is the ID string of the Home Engine program.
const HomeProgramName = "msi-home"

// HomeProgram assembles the Home Engine program. Each call returns a new
// program with its own execution counters.
func HomeProgram() *microcode.Program {
	a := microcode.NewAssembler(home.Magic, HomeProgramName)
	d := dispatcher{a: a, nop: home.Nop()}

	homeEntries(d)

	a.Org(codeBase)
	a.Label(errorLabel).Emit(home.Nop(), microcode.Halt, "protocol error")

	homeReads(d)
	homeWrites(d)
	homeWritebacks(d)
	homeLocal(d)

	return a.MustAssemble()
}

func homeEntries(d dispatcher) {
	d.a.EmitAt(home.EPHalt, home.Nop(), microcode.Halt, "halt")

	entries := []struct {
		ep    int
		label string
	}{
		{home.EPLocalRead, "local_read"},
		{home.EPLocalWriteAccessShared, "local_write_shared"},
		{home.EPLocalWriteAccessModified, "local_write_modified"},
		{home.EPLocalUpgradeAccess, "local_upgrade"},
		{home.EPLocalPrefetchRead, "local_prefetch"},
		{home.EPReadReqInvalid, "read_invalid"},
		{home.EPReadReqShared, "read_shared"},
		{home.EPReadReqModified, "read_modified"},
		{home.EPWriteReqInvalid, "write_invalid"},
		{home.EPWriteReqShared, "write_shared"},
		{home.EPWriteReqModified, "write_modified"},
		{home.EPUpgradeReqInvalid, "write_invalid"},
		{home.EPUpgradeReqShared, "upgrade_shared"},
		{home.EPUpgradeReqModified, "write_modified"},
		{home.EPFlushReq, "flush"},
		{home.EPWritebackReq, "writeback"},
		{home.EPError, errorLabel},
	}

	for _, e := range entries {
		d.entry(e.ep, e.label, home.EntryPointName(e.ep))
	}
}

// homeInvalidate invalidates the sharers other than the requester and the
// home, waits for all the acknowledgments, and continues at done.
func homeInvalidate(d dispatcher, label, done string) {
	a := d.a

	a.Label(label).
		Emit(home.SendFwd(home.FwdLocalInvalidationReq, home.ToSharers),
			microcode.Fallthrough, "invalidate sharers").
		Emit(home.Test(home.TestInvalidationsPending), label+"_any", "")
	d.branch(label+"_any", done, label+"_wait")

	a.Label(label+"_wait").
		Emit(home.Receive(), label+"_rx", "wait for invalidation ack")
	d.replies(label+"_rx", home.ReplyTableSize, map[int]string{
		home.RXLocalInvalidationAck: label + "_ack",
	})

	a.Label(label+"_ack").
		Emit(home.DecInvCount(), microcode.Fallthrough, "").
		Emit(home.Test(home.TestInvalidationsPending), label+"_more", "")
	d.branch(label+"_more", done, label+"_wait")
}

func homeReads(d dispatcher) {
	a := d.a

	a.Label("read_invalid").
		Emit(home.Dequeue(), microcode.Fallthrough, "").
		Emit(home.ClearSharers(), "read_add", "")

	a.Label("read_shared").
		Emit(home.Dequeue(), microcode.Fallthrough, "")
	a.Label("read_add").
		Emit(home.AddSharer(home.SrcRequester), microcode.Fallthrough, "").
		Emit(home.SetDirState(protocol.DirShared), "read_done", "")

	a.Label("read_done").
		Emit(home.WriteDirectory(), microcode.Fallthrough, "").
		Emit(home.Send(home.TXReadAck, home.ToRequester), microcode.Fallthrough, "").
		Emit(home.Unlock(), microcode.Halt, "")

	a.Label("read_modified").
		Emit(home.Dequeue(), microcode.Fallthrough, "").
		Emit(home.SendFwd(home.FwdRecallReadReq, home.ToOwner),
			microcode.Fallthrough, "recall").
		Emit(home.Receive(), "read_recall_rx", "wait for recall ack")
	d.replies("read_recall_rx", home.ReplyTableSize, map[int]string{
		home.RXRecallReadAck: "read_recalled",
		home.RXWritebackReq:  "read_stale",
	})

	a.Label("read_recalled").
		Emit(home.ClearSharers(), microcode.Fallthrough, "").
		Emit(home.AddSharer(home.SrcOwner), "read_add", "owner keeps a copy")

	a.Label("read_stale").
		Emit(home.SendFwd(home.FwdWritebackStaleRdAck, home.ToOwner),
			microcode.Fallthrough, "writeback answered the recall").
		Emit(home.ClearSharers(), "read_add", "")
}

func homeGrant(d dispatcher, label string, tx uint32) {
	d.a.Label(label).
		Emit(home.SetDirState(protocol.DirModified), microcode.Fallthrough, "").
		Emit(home.SetOwner(home.SrcRequester), microcode.Fallthrough, "").
		Emit(home.ClearSharers(), microcode.Fallthrough, "").
		Emit(home.WriteDirectory(), microcode.Fallthrough, "").
		Emit(home.Send(tx, home.ToRequester), microcode.Fallthrough, "").
		Emit(home.Unlock(), microcode.Halt, "")
}

func homeWrites(d dispatcher) {
	a := d.a

	homeGrant(d, "grant_write", home.TXWriteAck)
	homeGrant(d, "grant_upgrade", home.TXUpgradeAck)

	a.Label("write_invalid").
		Emit(home.Dequeue(), "grant_write", "")

	a.Label("write_shared").
		Emit(home.Dequeue(), "write_inval", "")
	homeInvalidate(d, "write_inval", "grant_write")

	a.Label("upgrade_shared").
		Emit(home.Dequeue(), microcode.Fallthrough, "").
		Emit(home.Test(home.TestRequesterIsSharer), "upgrade_sharer", "")
	d.branch("upgrade_sharer", "write_inval", "upgrade_inval")
	homeInvalidate(d, "upgrade_inval", "grant_upgrade")

	a.Label("write_modified").
		Emit(home.Dequeue(), microcode.Fallthrough, "").
		Emit(home.SendFwd(home.FwdRecallWriteReq, home.ToOwner),
			microcode.Fallthrough, "recall").
		Emit(home.Receive(), "write_recall_rx", "wait for recall ack")
	d.replies("write_recall_rx", home.ReplyTableSize, map[int]string{
		home.RXRecallWriteAck: "grant_write",
		home.RXWritebackReq:   "write_stale",
	})

	a.Label("write_stale").
		Emit(home.SendFwd(home.FwdWritebackStaleWrAck, home.ToOwner),
			"grant_write", "writeback answered the recall")
}

// homeWritebacks handles the lines a cache gives back. A writeback from a
// node that no longer owns the line is acknowledged and dropped.
func homeWritebacks(d dispatcher) {
	for _, wb := range []struct {
		label string
		tx    uint32
	}{
		{"writeback", home.TXWritebackAck},
		{"flush", home.TXFlushAck},
	} {
		d.a.Label(wb.label).
			Emit(home.Dequeue(), microcode.Fallthrough, "").
			Emit(home.SetTempReg(home.SrcRequester), microcode.Fallthrough, "").
			Emit(home.Test(home.TestOwnerIsTempReg), wb.label+"_owner", "")
		d.branch(wb.label+"_owner", wb.label+"_ack", wb.label+"_accept")

		d.a.Label(wb.label+"_accept").
			Emit(home.SetDirState(protocol.DirInvalid), microcode.Fallthrough, "").
			Emit(home.ClearSharers(), microcode.Fallthrough, "").
			Emit(home.WriteDirectory(), microcode.Fallthrough, "")
		d.a.Label(wb.label+"_ack").
			Emit(home.Send(wb.tx, home.ToRequester), microcode.Fallthrough, "").
			Emit(home.Unlock(), microcode.Halt, "")
	}
}

// homeLocal serves the local CPU. Local requests bring their directory
// entry and run without the directory lock.
func homeLocal(d dispatcher) {
	a := d.a

	a.Label("local_prefetch").
		Emit(home.SetPrefetch(true), "local_read", "")

	a.Label("local_read").
		Emit(home.Dequeue(), microcode.Fallthrough, "").
		Emit(home.SendFwd(home.FwdRecallReadReq, home.ToOwner),
			microcode.Fallthrough, "recall").
		Emit(home.Receive(), "local_read_rx", "wait for recall ack")
	d.replies("local_read_rx", home.ReplyTableSize, map[int]string{
		home.RXRecallReadAck: "local_read_recalled",
		home.RXWritebackReq:  "local_read_stale",
	})

	a.Label("local_read_recalled").
		Emit(home.ClearSharers(), microcode.Fallthrough, "").
		Emit(home.AddSharer(home.SrcOwner), "local_read_fill", "")

	a.Label("local_read_stale").
		Emit(home.SendFwd(home.FwdWritebackStaleRdAck, home.ToOwner),
			microcode.Fallthrough, "").
		Emit(home.ClearSharers(), "local_read_fill", "")

	a.Label("local_read_fill").
		Emit(home.AddSharer(home.SrcRespondent), microcode.Fallthrough,
			"home keeps a copy").
		Emit(home.SetDirState(protocol.DirShared), microcode.Fallthrough, "").
		Emit(home.WriteDirectory(), microcode.Fallthrough, "").
		Emit(home.Test(home.TestPrefetch), "local_read_kind", "")
	d.branch("local_read_kind", "local_read_reply", "local_prefetch_reply")

	a.Label("local_read_reply").
		Emit(home.CPU(protocol.CPUMissReply), microcode.Halt, "")
	a.Label("local_prefetch_reply").
		Emit(home.CPU(protocol.CPUPrefetchReadReply), microcode.Halt, "")

	localGrant(d, "local_write_grant", protocol.CPUMissWritableReply)
	localGrant(d, "local_upgrade_grant", protocol.CPUUpgradeReply)

	a.Label("local_write_shared").
		Emit(home.Dequeue(), "local_write_inval", "")
	homeInvalidate(d, "local_write_inval", "local_write_grant")

	a.Label("local_upgrade").
		Emit(home.Dequeue(), "local_upgrade_inval", "")
	homeInvalidate(d, "local_upgrade_inval", "local_upgrade_grant")

	a.Label("local_write_modified").
		Emit(home.Dequeue(), microcode.Fallthrough, "").
		Emit(home.SendFwd(home.FwdRecallWriteReq, home.ToOwner),
			microcode.Fallthrough, "recall").
		Emit(home.Receive(), "local_write_rx", "wait for recall ack")
	d.replies("local_write_rx", home.ReplyTableSize, map[int]string{
		home.RXRecallWriteAck: "local_write_grant",
		home.RXWritebackReq:   "local_write_stale",
	})

	a.Label("local_write_stale").
		Emit(home.SendFwd(home.FwdWritebackStaleWrAck, home.ToOwner),
			"local_write_grant", "")
}

// localGrant gives the line to the local CPU. No remote cache holds it
// afterwards.
func localGrant(d dispatcher, label string, op protocol.CPUOp) {
	d.a.Label(label).
		Emit(home.SetDirState(protocol.DirInvalid), microcode.Fallthrough, "").
		Emit(home.ClearSharers(), microcode.Fallthrough, "").
		Emit(home.WriteDirectory(), microcode.Fallthrough, "").
		Emit(home.CPU(op), microcode.Halt, "")
}
