// Package encoding implements the run-length encoded (RLE) sample stream of
// SUMP-compatible logic analyzers.
//
// # Wire Format
//
// A stream is a sequence of fixed-width little-endian words. The width is the
// number of enabled 8-channel groups (1 to 4 bytes). The top bit of a word,
// bit 7 of its final byte, tells the two word kinds apart:
//
//   - 0: sample word, the packed channel levels of one sample
//   - 1: count word, the run length of the preceding sample minus one
//
// Every sample word is followed by exactly one count word. Sample words only
// carry enabled groups, in ascending group order: with channels 16-23
// enabled, channel 16 travels in bit 0 of a one-byte word.
//
//	mask 0x00FF00FF, width 2
//	+------+------+  +------+------+
//	| grp0 | grp2 |  | cnt  |1|cnt |
//	+------+------+  +------+------+
//	  sample word      count word
//
// # Usage
//
//	cfg := encoding.RLEConfig{EnabledChannels: 0x00FF}
//	dec, err := encoding.NewRLEDecoder(cfg, encoding.WithRate(100_000_000))
//	if err != nil {
//	    return err
//	}
//	buf, err := dec.Decode(stream)
//	if errors.Is(err, errs.ErrMalformedStream) {
//	    // corrupt stream, buf is nil
//	}
//
// RLEEncoder produces streams from runs, patterns or existing buffers and is
// used by tests and the simulator.
package encoding
