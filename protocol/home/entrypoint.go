package home

import (
	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/tsrf"
)

type entryKey struct {
	mt    protocol.MessageType
	state protocol.DirState
}

var entryPoints = map[entryKey]int{
	{protocol.ReadReq, protocol.DirInvalid}:            EPReadReqInvalid,
	{protocol.ReadReq, protocol.DirShared}:             EPReadReqShared,
	{protocol.ReadReq, protocol.DirModified}:           EPReadReqModified,
	{protocol.WriteReq, protocol.DirInvalid}:           EPWriteReqInvalid,
	{protocol.WriteReq, protocol.DirShared}:            EPWriteReqShared,
	{protocol.WriteReq, protocol.DirModified}:          EPWriteReqModified,
	{protocol.UpgradeReq, protocol.DirInvalid}:         EPUpgradeReqInvalid,
	{protocol.UpgradeReq, protocol.DirShared}:          EPUpgradeReqShared,
	{protocol.UpgradeReq, protocol.DirModified}:        EPUpgradeReqModified,
	{protocol.FlushReq, protocol.DirModified}:          EPFlushReq,
	{protocol.WritebackReq, protocol.DirModified}:      EPWritebackReq,
	{protocol.LocalRead, protocol.DirModified}:         EPLocalRead,
	{protocol.LocalWriteAccess, protocol.DirShared}:    EPLocalWriteAccessShared,
	{protocol.LocalWriteAccess, protocol.DirModified}:  EPLocalWriteAccessModified,
	{protocol.LocalUpgradeAccess, protocol.DirShared}:  EPLocalUpgradeAccess,
	{protocol.LocalPrefetchRead, protocol.DirModified}: EPLocalPrefetchRead,
}

// EntryPoint returns where a thread handling a new message starts. It also
// classifies the fill of the transaction. Messages that the home engine
// cannot start on, or that arrive in a state that does not allow them,
// start at EPError.
func (e *Engine) EntryPoint(
	mt protocol.MessageType,
	t tsrf.Thread,
	state protocol.DirState,
) int {
	e.classify(mt, t, state)

	pc, ok := entryPoints[entryKey{mt, state}]
	if !ok {
		pc = EPError
		e.Metrics.ProtocolErrors++
	}

	e.Metrics.EntryPoints[pc]++

	return pc
}

func (e *Engine) classify(
	mt protocol.MessageType,
	t tsrf.Thread,
	state protocol.DirState,
) {
	tr := t.Tracker()
	if tr == nil {
		return
	}

	tr.Responder = e.service.MyNodeID()
	tr.SetPreviousState(state)

	requester := t.Requester()

	switch mt {
	case protocol.ReadReq, protocol.LocalRead, protocol.LocalPrefetchRead:
		switch {
		case t.DirState() == protocol.DirModified:
			tr.FillType = protocol.FillCoherence
		case t.WasModified() && !t.IsSharer(requester):
			tr.FillType = protocol.FillCoherence
		case !t.WasSharer(requester):
			tr.FillType = protocol.FillCold
		default:
			tr.FillType = protocol.FillReplacement
		}
	case protocol.WriteReq, protocol.UpgradeReq,
		protocol.LocalWriteAccess, protocol.LocalUpgradeAccess:
		switch {
		case t.DirState() == protocol.DirShared && t.WasModified() &&
			t.IsOnlySharer(requester):
			tr.FillType = protocol.FillReplacement
		case !t.WasModified() && t.WasNoOtherSharer(requester):
			tr.FillType = protocol.FillCold
		default:
			tr.FillType = protocol.FillCoherence
		}
	}
}

// EntryPointName names an entry point for reports.
func EntryPointName(pc int) string {
	switch pc {
	case EPHalt:
		return "Halt"
	case EPLocalRead:
		return "Local-Read"
	case EPLocalWriteAccessShared:
		return "Local-WriteAccess-Shared"
	case EPLocalWriteAccessModified:
		return "Local-WriteAccess-Modified"
	case EPLocalUpgradeAccess:
		return "Local-UpgradeAccess"
	case EPLocalPrefetchRead:
		return "Local-PrefetchRead"
	case EPReadReqInvalid:
		return "ReadReq-Invalid"
	case EPReadReqShared:
		return "ReadReq-Shared"
	case EPReadReqModified:
		return "ReadReq-Modified"
	case EPWriteReqInvalid:
		return "WriteReq-Invalid"
	case EPWriteReqShared:
		return "WriteReq-Shared"
	case EPWriteReqModified:
		return "WriteReq-Modified"
	case EPUpgradeReqInvalid:
		return "UpgradeReq-Invalid"
	case EPUpgradeReqShared:
		return "UpgradeReq-Shared"
	case EPUpgradeReqModified:
		return "UpgradeReq-Modified"
	case EPFlushReq:
		return "FlushReq"
	case EPWritebackReq:
		return "WritebackReq"
	case EPError:
		return "Error"
	}

	return ""
}

func txMessageType(code uint32, fwd bool) protocol.MessageType {
	if !fwd {
		switch code {
		case TXReadAck:
			return protocol.ReadAck
		case TXWriteAck:
			return protocol.WriteAck
		case TXUpgradeAck:
			return protocol.UpgradeAck
		case TXWritebackAck:
			return protocol.WritebackAck
		case TXFlushAck:
			return protocol.FlushAck
		}

		return protocol.ProtocolError
	}

	switch code {
	case FwdLocalInvalidationReq:
		return protocol.LocalInvalidationReq
	case FwdRemoteInvalidationReq:
		return protocol.RemoteInvalidationReq
	case FwdForwardedReadReq:
		return protocol.ForwardedReadReq
	case FwdForwardedWriteReq:
		return protocol.ForwardedWriteReq
	case FwdRecallReadReq:
		return protocol.RecallReadReq
	case FwdRecallWriteReq:
		return protocol.RecallWriteReq
	case FwdWritebackStaleRdAck:
		return protocol.WritebackStaleRdAck
	case FwdWritebackStaleWrAck:
		return protocol.WritebackStaleWrAck
	}

	return protocol.ProtocolError
}

func rxCode(mt protocol.MessageType) int {
	switch mt {
	case protocol.WritebackReq:
		return RXWritebackReq
	case protocol.ForwardedWriteAck:
		return RXForwardedWriteAck
	case protocol.ForwardedReadAck:
		return RXForwardedReadAck
	case protocol.RecallReadAck:
		return RXRecallReadAck
	case protocol.RecallWriteAck:
		return RXRecallWriteAck
	case protocol.LocalInvalidationAck:
		return RXLocalInvalidationAck
	case protocol.FlushReq:
		return RXFlushReq
	case protocol.InvAck:
		return RXInvAck
	case protocol.InvUpdateAck:
		return RXInvUpdateAck
	case protocol.DowngradeAck:
		return RXDowngradeAck
	case protocol.DowngradeUpdateAck:
		return RXDowngradeUpdateAck
	}

	return RXError
}
