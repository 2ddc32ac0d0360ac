package util

import (
	"encoding/binary"
	"errors"
	"net"
)

var ErrInvalidIP = errors.New("failed to parse ipv4 address")

// IP2Int converts an IPv4 address to its numeric big-endian value.
func IP2Int(ip net.IP) uint32 {
	if len(ip) == 16 {
		return binary.BigEndian.Uint32(ip[12:16])
	}

	return binary.BigEndian.Uint32(ip)
}

// Int2IP converts a numeric value back to a 4-byte net.IP.
func Int2IP(nn uint32) net.IP {
	ip := make(net.IP, 4)
	binary.BigEndian.PutUint32(ip, nn)

	return ip
}

// ParseIP4 parses a dotted-quad IPv4 literal to its numeric value. IPv6
// addresses and anything else net.ParseIP accepts but that has no 4-byte
// form are rejected.
func ParseIP4(value string) (uint32, error) {
	parsed := net.ParseIP(value)
	if parsed == nil {
		return 0, ErrInvalidIP
	}

	ip4 := parsed.To4()
	if ip4 == nil {
		return 0, ErrInvalidIP
	}

	return IP2Int(ip4), nil
}
