package analysis

import (
	"fmt"
	"net/netip"
	"sort"
	"time"

	"streamwatch/internal/filter"
	"streamwatch/internal/models"
	"streamwatch/internal/session"
)

// NameLookup resolves a stream id to a server name.
type NameLookup func(streamID int) (string, bool)

// Query selects what a view shows.
type Query struct {
	// Session is matched as a substring of the legend.
	Session string
	// Lengths keeps only packets whose directed length is in the set; an
	// inactive set keeps everything.
	Lengths filter.LengthSet
	// Recent is how many trailing directed lengths to keep per session.
	Recent int
}

// SessionSummary describes one stream as the views render it.
type SessionSummary struct {
	StreamID      int
	Identity      models.Identity
	ClientAddress netip.Addr
	ServerName    string
	Legend        string
	Service       string
	Encrypted     bool

	// Packets holds the records that passed the length filter.
	Packets      []models.PacketRecord
	TotalPackets int
	BytesUp      int64
	BytesDown    int64
	FirstSeen    time.Time
	LastSeen     time.Time
	Recent       []int
}

// LegendName labels a session as ":clientPort<->server:port (name)".
func LegendName(id models.Identity, name string) string {
	s := id.String()
	if name != "" {
		s += fmt.Sprintf(" (%s)", name)
	}
	return s
}

// Summarize builds per-session summaries in first-seen order. Byte counts
// and timestamps cover the whole session; Packets and Recent honour the
// length filter.
func Summarize(snap session.Snapshot, names NameLookup, q Query) []SessionSummary {
	out := make([]SessionSummary, 0, len(snap.StreamIDs))
	for _, id := range snap.StreamIDs {
		packets := snap.Sessions[id]
		if len(packets) == 0 {
			continue
		}
		first := packets[0]

		var name string
		if names != nil {
			name, _ = names(id)
		}
		identity := first.Identity()
		legend := LegendName(identity, name)
		if !filter.MatchSession(legend, q.Session) {
			continue
		}

		s := SessionSummary{
			StreamID:      id,
			Identity:      identity,
			ClientAddress: first.ClientAddress,
			ServerName:    name,
			Legend:        legend,
			Service:       ServiceName(first.ServerPort),
			Encrypted:     Encrypted(first.ServerPort),
			TotalPackets:  len(packets),
			FirstSeen:     first.Timestamp,
			LastSeen:      packets[len(packets)-1].Timestamp,
		}

		if !q.Lengths.Active() {
			s.Packets = packets
		} else {
			s.Packets = make([]models.PacketRecord, 0, len(packets))
		}
		for _, p := range packets {
			if p.DirectedLength >= 0 {
				s.BytesUp += int64(p.DirectedLength)
			} else {
				s.BytesDown += int64(-p.DirectedLength)
			}
			if q.Lengths.Active() && q.Lengths.Contains(p.DirectedLength) {
				s.Packets = append(s.Packets, p)
			}
		}

		if q.Recent > 0 {
			start := len(s.Packets) - q.Recent
			if start < 0 {
				start = 0
			}
			s.Recent = make([]int, 0, len(s.Packets)-start)
			for _, p := range s.Packets[start:] {
				s.Recent = append(s.Recent, p.DirectedLength)
			}
		}
		out = append(out, s)
	}
	return out
}

// ServerStat is the traffic exchanged with one server address.
type ServerStat struct {
	Address netip.Addr
	Name    string
	Bytes   int64
}

// TopServers returns the top N servers by bytes in both directions.
func TopServers(summaries []SessionSummary, limit int) []ServerStat {
	byAddr := make(map[netip.Addr]*ServerStat)
	for _, s := range summaries {
		st, ok := byAddr[s.Identity.ServerAddress]
		if !ok {
			st = &ServerStat{Address: s.Identity.ServerAddress}
			byAddr[s.Identity.ServerAddress] = st
		}
		st.Bytes += s.BytesUp + s.BytesDown
		if st.Name == "" {
			st.Name = s.ServerName
		}
	}

	stats := make([]ServerStat, 0, len(byAddr))
	for _, st := range byAddr {
		stats = append(stats, *st)
	}

	// Sort descending by bytes, then by address for a stable view
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Bytes != stats[j].Bytes {
			return stats[i].Bytes > stats[j].Bytes
		}
		return stats[i].Address.Less(stats[j].Address)
	})

	if limit > 0 && len(stats) > limit {
		return stats[:limit]
	}
	return stats
}
