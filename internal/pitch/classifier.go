package pitch

// PacketType is the coarse classification of a received packet, derived
// purely from (sequence, count, length).
type PacketType uint8

const (
	Heartbeat PacketType = iota
	Admin
	Unsequenced
	Data
)

func (t PacketType) String() string {
	switch t {
	case Heartbeat:
		return "HEARTBEAT"
	case Admin:
		return "ADMIN"
	case Unsequenced:
		return "UNSEQUENCED"
	case Data:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

// heartbeatMaxLength is the source convention for a heartbeat: not a
// protocol constant, just the threshold this capture pipeline preserves
// for replay compatibility.
const heartbeatMaxLength = 20

// Validate reports whether a received packet passes framing sanity
// checks. maxBuf is the configured receive buffer size cap
// (config option max_buf).
func Validate(h Header, length int, maxBuf int) bool {
	if length < HeaderSize {
		return false
	}
	if h.Length < 1 || int(h.Length) > maxBuf {
		return false
	}
	// Tolerance for transport-layer padding anomalies. The looser bound
	// is intentional; preserve it for replay compatibility.
	if int(h.Length) > length+100 {
		return false
	}
	return true
}

// Classify derives the packet type from the header and received length.
// Rules are applied in order; the first match wins.
func Classify(h Header, length int) PacketType {
	if h.Sequence == 0 {
		if h.Count == 0 && length <= heartbeatMaxLength {
			return Heartbeat
		}
		if h.Count == 0 {
			return Admin
		}
		return Unsequenced
	}
	return Data
}
