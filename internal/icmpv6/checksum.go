package icmpv6

import (
	"encoding/binary"
	"net"
)

const pseudoHeaderSize = 2*net.IPv6len + 8

// Checksum16 computes the RFC 1071 ones-complement sum over data. An odd
// trailing byte is padded with zero.
func Checksum16(data []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(data); i += 2 {
		sum += uint32(data[i])<<8 | uint32(data[i+1])
	}
	if len(data)%2 == 1 {
		sum += uint32(data[len(data)-1]) << 8
	}
	for sum>>16 > 0 {
		sum = sum&0xFFFF + sum>>16
	}
	return ^uint16(sum)
}

// checksum computes the ICMPv6 checksum of message, prefixing the IPv6
// pseudo-header built from src, dst and the message length. The message's
// own checksum field must already be zeroed.
func checksum(src, dst net.IP, message []byte) uint16 {
	b := make([]byte, pseudoHeaderSize+len(message))
	copy(b[0:], src)
	copy(b[net.IPv6len:], dst)
	binary.BigEndian.PutUint32(b[2*net.IPv6len:], uint32(len(message)))
	b[pseudoHeaderSize-1] = IPProtocolNumber
	copy(b[pseudoHeaderSize:], message)
	return Checksum16(b)
}
