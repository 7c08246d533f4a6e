package tshark

// Field is a tshark display field passed with -e.
type Field string

const (
	FieldTimeEpoch  Field = "frame.time_epoch"
	FieldIPSrc      Field = "ip.src"
	FieldIPDst      Field = "ip.dst"
	FieldTCPSrcPort Field = "tcp.srcport"
	FieldTCPDstPort Field = "tcp.dstport"
	FieldTCPStream  Field = "tcp.stream"
	FieldTCPLen     Field = "tcp.len"
	FieldTLSSNI     Field = "tls.handshake.extensions_server_name"
	FieldHTTPHost   Field = "http.host"
)

// Fields is the column order of every line tshark emits for us.
// ParseLine depends on this order.
var Fields = []Field{
	FieldTimeEpoch,
	FieldIPSrc,
	FieldIPDst,
	FieldTCPSrcPort,
	FieldTCPDstPort,
	FieldTCPStream,
	FieldTCPLen,
	FieldTLSSNI,
	FieldHTTPHost,
}

// Column indexes into a tab-split line.
const (
	colTimeEpoch = iota
	colIPA
	colIPB
	colPortA
	colPortB
	colStream
	colLen
	colSNI
	colHost

	requiredColumns = colLen + 1
)

// DefaultBPF keeps only TCP segments with exactly PSH and ACK set,
// which is where payload-carrying packets show up.
const DefaultBPF = "tcp[tcpflags] == (tcp-push + tcp-ack)"
