package tshark

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"streamwatch/internal/models"
)

// ErrMalformedLine is returned (wrapped) for lines that lack a required
// field or carry one that does not parse.
var ErrMalformedLine = errors.New("malformed tshark line")

// ParseLine converts one tshark output line into a PacketRecord.
//
// Lines produced with BuildArgs are tab separated, so every field keeps its
// column and the server name is read by name: SNI first, then HTTP Host.
// Lines without tabs fall back to splitting on whitespace, where the name is
// token 8 of an 8-token line or token 9 of a longer one.
func ParseLine(line string) (models.PacketRecord, error) {
	line = strings.TrimRight(line, "\r\n")

	var cols []string
	var name string
	if strings.Contains(line, "\t") {
		cols = strings.Split(line, "\t")
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		if len(cols) > colSNI && cols[colSNI] != "" {
			name = cols[colSNI]
		} else if len(cols) > colHost {
			name = cols[colHost]
		}
	} else {
		cols = strings.Fields(line)
		switch {
		case len(cols) == 8:
			name = cols[7]
		case len(cols) >= 9:
			name = cols[8]
		}
	}

	if len(cols) < requiredColumns {
		return models.PacketRecord{}, fmt.Errorf("%w: %d fields, need %d", ErrMalformedLine, len(cols), requiredColumns)
	}

	ts, err := parseEpoch(cols[colTimeEpoch])
	if err != nil {
		return models.PacketRecord{}, malformed(FieldTimeEpoch, cols[colTimeEpoch])
	}
	ipA, err := netip.ParseAddr(cols[colIPA])
	if err != nil {
		return models.PacketRecord{}, malformed(FieldIPSrc, cols[colIPA])
	}
	ipB, err := netip.ParseAddr(cols[colIPB])
	if err != nil {
		return models.PacketRecord{}, malformed(FieldIPDst, cols[colIPB])
	}
	portA, err := parsePort(cols[colPortA])
	if err != nil {
		return models.PacketRecord{}, malformed(FieldTCPSrcPort, cols[colPortA])
	}
	portB, err := parsePort(cols[colPortB])
	if err != nil {
		return models.PacketRecord{}, malformed(FieldTCPDstPort, cols[colPortB])
	}
	stream, err := strconv.Atoi(cols[colStream])
	if err != nil || stream < 0 {
		return models.PacketRecord{}, malformed(FieldTCPStream, cols[colStream])
	}
	tcpLen, err := strconv.Atoi(cols[colLen])
	if err != nil || tcpLen < 0 {
		return models.PacketRecord{}, malformed(FieldTCPLen, cols[colLen])
	}

	rec := models.PacketRecord{
		Timestamp:  ts,
		StreamID:   stream,
		ServerName: name,
	}
	ipA, ipB = ipA.Unmap(), ipB.Unmap()
	if IsPrivate(ipA) {
		rec.ClientAddress, rec.ClientPort = ipA, portA
		rec.ServerAddress, rec.ServerPort = ipB, portB
		rec.DirectedLength = tcpLen
	} else {
		rec.ServerAddress, rec.ServerPort = ipA, portA
		rec.ClientAddress, rec.ClientPort = ipB, portB
		rec.DirectedLength = -tcpLen
	}
	return rec, nil
}

// IsPrivate reports whether addr belongs to the capturing side of the
// network: RFC 1918 / RFC 4193, loopback, link-local or unspecified.
func IsPrivate(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsPrivate() ||
		addr.IsLoopback() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsUnspecified()
}

func malformed(field Field, value string) error {
	return fmt.Errorf("%w: %s=%q", ErrMalformedLine, field, value)
}

func parsePort(s string) (int, error) {
	p, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return int(p), nil
}

// parseEpoch parses frame.time_epoch without going through float64, so the
// nanoseconds tshark prints survive. Accepted: DIGITS or DIGITS.DIGITS, with
// digits past the ninth fractional place truncated. "1700000000.", ".5",
// signs and exponents are rejected; tshark never prints them.
func parseEpoch(s string) (time.Time, error) {
	secPart, fracPart, hasFrac := strings.Cut(s, ".")
	if secPart == "" || strings.TrimLeft(secPart, "0123456789") != "" {
		return time.Time{}, fmt.Errorf("bad seconds %q", secPart)
	}
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	var nsec int64
	if hasFrac {
		if fracPart == "" || strings.TrimLeft(fracPart, "0123456789") != "" {
			return time.Time{}, fmt.Errorf("bad fraction %q", fracPart)
		}
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		fracPart += strings.Repeat("0", 9-len(fracPart))
		nsec, _ = strconv.ParseInt(fracPart, 10, 64)
	}
	if sec < 0 {
		return time.Time{}, fmt.Errorf("negative epoch %d", sec)
	}
	return time.Unix(sec, nsec), nil
}
