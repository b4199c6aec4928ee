// Package annotation defines the decoded output of protocol decoders: typed
// annotations anchored to sample indices and times, the append-only Set a run
// collects them in, and the Sink interface through which they reach
// consumers.
package annotation

import (
	"fmt"
	"strings"

	"github.com/arloliu/sumpdec/format"
)

// Kind identifies what an annotation reports.
type Kind uint8

const (
	KindStart         Kind = iota + 1 // KindStart is an I2C start condition after a released bus.
	KindRepeatedStart                 // KindRepeatedStart is an I2C start without a preceding stop.
	KindStop                          // KindStop is an I2C stop condition.
	KindData                          // KindData is a decoded byte.
	KindAck                           // KindAck is an acknowledged byte.
	KindNack                          // KindNack is a byte that was not acknowledged.
	KindBusError                      // KindBusError is a signaling violation.
	KindState                         // KindState is the channel word latched on a clock edge.
)

var kindNames = map[Kind]string{
	KindStart:         "START",
	KindRepeatedStart: "REPEATED_START",
	KindStop:          "STOP",
	KindData:          "DATA",
	KindAck:           "ACK",
	KindNack:          "NACK",
	KindBusError:      "BUS_ERROR",
	KindState:         "STATE",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind returns the kind with the given (case-insensitive) name.
func ParseKind(name string) (Kind, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}

	return 0, false
}

// IsDatagram reports whether the kind carries protocol payload.
func (k Kind) IsDatagram() bool {
	return k == KindData || k == KindState
}

// IsEvent reports whether the kind is a structural event.
func (k Kind) IsEvent() bool {
	_, known := kindNames[k]

	return known && !k.IsDatagram()
}

// Annotation is one decoded unit.
//
// Indices refer to the sample buffer the run decoded, times are relative to
// the buffer's trigger when it has one. Events without duration have
// HasEnd == false and EndIndex == StartIndex.
type Annotation struct {
	Protocol   format.Protocol `msgpack:"protocol"`
	Channel    int             `msgpack:"channel"`
	Kind       Kind            `msgpack:"kind"`
	Value      uint32          `msgpack:"value"`
	StartIndex int             `msgpack:"start_index"`
	EndIndex   int             `msgpack:"end_index"`
	StartTime  int64           `msgpack:"start_time"`
	EndTime    int64           `msgpack:"end_time"`
	HasEnd     bool            `msgpack:"has_end"`
}

// Duration returns EndTime - StartTime, or 0 for point events.
func (a Annotation) Duration() int64 {
	if !a.HasEnd {
		return 0
	}

	return a.EndTime - a.StartTime
}

// covered reports whether a belongs to protocol on channel and lies within
// [start, end].
func (a Annotation) covered(protocol format.Protocol, channel, start, end int) bool {
	return a.Protocol == protocol && a.Channel == channel && a.StartIndex >= start && a.EndIndex <= end
}

func (a Annotation) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s@%d", a.Kind, a.StartTime)
	if a.HasEnd {
		fmt.Fprintf(&sb, "..%d", a.EndTime)
	}
	if a.Kind.IsDatagram() {
		fmt.Fprintf(&sb, " %#02x", a.Value)
	}

	return sb.String()
}
