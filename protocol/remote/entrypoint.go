package remote

import (
	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/tsrf"
)

var entryPoints = map[protocol.MessageType]int{
	protocol.LocalRead:             EPLocalRead,
	protocol.LocalWriteAccess:      EPLocalWriteAccess,
	protocol.LocalUpgradeAccess:    EPLocalUpgradeAccess,
	protocol.LocalDropHint:         EPLocalDropHint,
	protocol.LocalEvict:            EPLocalEvict,
	protocol.LocalFlush:            EPLocalFlush,
	protocol.LocalPrefetchRead:     EPLocalPrefetchRead,
	protocol.LocalInvalidationReq:  EPLocalInvalidationReq,
	protocol.RemoteInvalidationReq: EPRemoteInvalidationReq,
	protocol.ForwardedReadReq:      EPForwardedReadReq,
	protocol.ForwardedWriteReq:     EPForwardedWriteReq,
	protocol.RecallReadReq:         EPRecallReadReq,
	protocol.RecallWriteReq:        EPRecallWriteReq,
	protocol.ReadAck:               EPReadAck,
	protocol.WriteAck:              EPWriteAck,
	protocol.UpgradeAck:            EPUpgradeAck,
	protocol.WritebackAck:          EPWritebackAck,
	protocol.WritebackStaleRdAck:   EPWritebackStaleRdAck,
	protocol.WritebackStaleWrAck:   EPWritebackStaleWrAck,
	protocol.FlushAck:              EPFlushAck,
	protocol.RemoteInvalidationAck: EPRemoteInvalidationAck,
	protocol.ReadFwd:               EPReadFwd,
	protocol.WriteFwd:              EPWriteFwd,
}

// EntryPoint returns where a thread handling a new message starts. The
// remote engine keeps no directory, so the state is ignored. Messages the
// engine cannot start on start at EPError.
func (e *Engine) EntryPoint(
	mt protocol.MessageType,
	_ tsrf.Thread,
	_ protocol.DirState,
) int {
	pc, ok := entryPoints[mt]
	if !ok {
		pc = EPError
		e.Metrics.ProtocolErrors++
	}

	e.Metrics.EntryPoints[pc]++

	return pc
}

// EntryPointName names an entry point for reports.
func EntryPointName(pc int) string {
	if pc == EPHalt {
		return "Halt"
	}

	if pc == EPError {
		return "Error"
	}

	for mt, ep := range entryPoints {
		if ep == pc {
			return mt.String()
		}
	}

	return ""
}

func txMessageType(code uint32) protocol.MessageType {
	switch code {
	case TXReadReq:
		return protocol.ReadReq
	case TXWriteReq:
		return protocol.WriteReq
	case TXUpgradeReq:
		return protocol.UpgradeReq
	case TXFlushReq:
		return protocol.FlushReq
	case TXWritebackReq:
		return protocol.WritebackReq
	case TXForwardedWriteAck:
		return protocol.ForwardedWriteAck
	case TXForwardedReadAck:
		return protocol.ForwardedReadAck
	case TXRecallReadAck:
		return protocol.RecallReadAck
	case TXRecallWriteAck:
		return protocol.RecallWriteAck
	case TXLocalInvalidationAck:
		return protocol.LocalInvalidationAck
	case TXRemoteInvalidationAck:
		return protocol.RemoteInvalidationAck
	case TXReadFwd:
		return protocol.ReadFwd
	case TXWriteFwd:
		return protocol.WriteFwd
	}

	return protocol.ProtocolError
}

func rxCode(mt protocol.MessageType) int {
	switch mt {
	case protocol.LocalInvalidationReq:
		return RXLocalInvalidationReq
	case protocol.RemoteInvalidationReq:
		return RXRemoteInvalidationReq
	case protocol.ForwardedReadReq, protocol.ForwardedWriteReq,
		protocol.RecallReadReq, protocol.RecallWriteReq,
		protocol.WritebackStaleRdAck, protocol.WritebackStaleWrAck:
		return RXDeferredJump
	case protocol.ReadAck:
		return RXReadAck
	case protocol.WriteAck:
		return RXWriteAck
	case protocol.UpgradeAck:
		return RXUpgradeAck
	case protocol.WritebackAck:
		return RXWritebackAck
	case protocol.FlushAck:
		return RXFlushAck
	case protocol.RemoteInvalidationAck:
		return RXRemoteInvalidationAck
	case protocol.ReadFwd:
		return RXReadFwd
	case protocol.WriteFwd:
		return RXWriteFwd
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

func deferredCode(mt protocol.MessageType) int {
	switch mt {
	case protocol.WritebackStaleRdAck:
		return DJWritebackStaleRdAck
	case protocol.WritebackStaleWrAck:
		return DJWritebackStaleWrAck
	case protocol.ForwardedReadReq:
		return DJForwardedReadReq
	case protocol.ForwardedWriteReq:
		return DJForwardedWriteReq
	case protocol.RecallReadReq:
		return DJRecallReadReq
	case protocol.RecallWriteReq:
		return DJRecallWriteReq
	}

	return DJError
}
