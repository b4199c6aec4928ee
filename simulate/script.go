package simulate

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/arloliu/sumpdec/capture"
	"github.com/arloliu/sumpdec/errs"
)

// MaxRepeat caps the count of a repeat block.
const MaxRepeat = 1 << 20

// scriptLexer tokenizes simulation scripts.
var scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Number", Pattern: `0[xX][0-9a-fA-F]+|0[bB][01]+|[0-9]+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[{}]`},
})

type scriptFile struct {
	Statements []*statement `@@*`
}

type statement struct {
	Pos lexer.Position

	Rate     *string     `  "rate" @Number`
	Clock    *string     ` | "clock" @Number`
	SDA      *string     ` | "sda" @Number`
	SCL      *string     ` | "scl" @Number`
	Trigger  *string     ` | "trigger" @Number`
	Expanded bool        ` | @"expanded"`
	Idle     *string     ` | "idle" @Number`
	Start    bool        ` | @"start"`
	Restart  bool        ` | @"restart"`
	Stop     bool        ` | @"stop"`
	Byte     *byteStmt   ` | "byte" @@`
	Bytes    []string    ` | "bytes" @Number+`
	Glitch   bool        ` | @"glitch"`
	Repeat   *repeatStmt ` | "repeat" @@`
}

type byteStmt struct {
	Value string `@Number`
	Ack   string `@( "ack" | "nack" )?`
}

type repeatStmt struct {
	Count string       `@Number "{"`
	Body  []*statement `@@* "}"`
}

var scriptParser = participle.MustBuild[scriptFile](
	participle.Lexer(scriptLexer),
	participle.Elide("Comment", "Whitespace"),
)

// opKind is a bus operation of a script.
type opKind int

const (
	opIdle opKind = iota
	opStart
	opRestart
	opStop
	opByte
	opGlitch
	opRepeat
)

type op struct {
	kind  opKind
	ticks int64
	value byte
	ack   bool
	count int
	body  []op
}

// Script is a parsed simulation script.
//
// Settings (rate, clock, sda, scl, trigger, expanded) apply to the whole
// script wherever they appear at top level; the remaining statements are
// bus operations executed in order.
type Script struct {
	Rate       int
	HalfPeriod int64
	SDA        int
	SCL        int
	Trigger    int64
	Expanded   bool

	ops []op
}

// ParseScript parses a script from r. name is used in error positions.
//
// Grammar, one statement per token group, '#' starts a comment:
//
//	rate <hz>            sample rate of the capture
//	clock <ticks>        half SCL period (default 4)
//	sda <line>           SDA channel (default 0)
//	scl <line>           SCL channel (default 1)
//	trigger <tick>       trigger position
//	expanded             build one sample per tick
//	idle <ticks>         hold both lines high
//	start | restart | stop
//	byte <v> [ack|nack]  write one byte (ack by default)
//	bytes <v>...         write several acknowledged bytes
//	glitch               disturb SDA during bit 3 of the next byte
//	repeat <n> { ... }   repeat bus operations
func ParseScript(name string, r io.Reader) (*Script, error) {
	file, err := scriptParser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidScript, err)
	}

	s := &Script{HalfPeriod: 4, SDA: 0, SCL: 1, Trigger: capture.NoTrigger}
	s.ops, err = s.compile(file.Statements, true)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// ParseScriptString parses a script held in a string.
func ParseScriptString(name, src string) (*Script, error) {
	return ParseScript(name, strings.NewReader(src))
}

// ParseScriptFile parses the script at path.
func ParseScriptFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseScript(path, f)
}

func (s *Script) compile(stmts []*statement, top bool) ([]op, error) {
	var ops []op
	for _, st := range stmts {
		fail := func(format string, args ...any) error {
			return fmt.Errorf("%w: %s: %s", errs.ErrInvalidScript, st.Pos, fmt.Sprintf(format, args...))
		}
		setting := func() error {
			if !top {
				return fail("settings are not allowed inside repeat")
			}
			return nil
		}

		switch {
		case st.Rate != nil:
			if err := setting(); err != nil {
				return nil, err
			}
			v, err := number(*st.Rate, 1<<31-1)
			if err != nil {
				return nil, fail("rate: %v", err)
			}
			s.Rate = int(v)
		case st.Clock != nil:
			if err := setting(); err != nil {
				return nil, err
			}
			v, err := number(*st.Clock, 1<<31-1)
			if err != nil || v < MinHalfPeriod {
				return nil, fail("clock must be at least %d ticks", MinHalfPeriod)
			}
			s.HalfPeriod = int64(v)
		case st.SDA != nil:
			if err := setting(); err != nil {
				return nil, err
			}
			v, err := number(*st.SDA, 31)
			if err != nil {
				return nil, fail("sda: %v", err)
			}
			s.SDA = int(v)
		case st.SCL != nil:
			if err := setting(); err != nil {
				return nil, err
			}
			v, err := number(*st.SCL, 31)
			if err != nil {
				return nil, fail("scl: %v", err)
			}
			s.SCL = int(v)
		case st.Trigger != nil:
			if err := setting(); err != nil {
				return nil, err
			}
			v, err := number(*st.Trigger, 1<<32-1)
			if err != nil {
				return nil, fail("trigger: %v", err)
			}
			s.Trigger = int64(v)
		case st.Expanded:
			if err := setting(); err != nil {
				return nil, err
			}
			s.Expanded = true
		case st.Idle != nil:
			v, err := number(*st.Idle, 1<<32-1)
			if err != nil || v == 0 {
				return nil, fail("idle needs a positive tick count")
			}
			ops = append(ops, op{kind: opIdle, ticks: int64(v)})
		case st.Start:
			ops = append(ops, op{kind: opStart})
		case st.Restart:
			ops = append(ops, op{kind: opRestart})
		case st.Stop:
			ops = append(ops, op{kind: opStop})
		case st.Byte != nil:
			v, err := number(st.Byte.Value, 0xFF)
			if err != nil {
				return nil, fail("byte: %v", err)
			}
			ops = append(ops, op{kind: opByte, value: byte(v), ack: st.Byte.Ack != "nack"})
		case len(st.Bytes) > 0:
			for _, raw := range st.Bytes {
				v, err := number(raw, 0xFF)
				if err != nil {
					return nil, fail("bytes: %v", err)
				}
				ops = append(ops, op{kind: opByte, value: byte(v), ack: true})
			}
		case st.Glitch:
			ops = append(ops, op{kind: opGlitch})
		case st.Repeat != nil:
			n, err := number(st.Repeat.Count, MaxRepeat)
			if err != nil || n == 0 {
				return nil, fail("repeat count must be in [1, %d]", MaxRepeat)
			}
			body, err := s.compile(st.Repeat.Body, false)
			if err != nil {
				return nil, err
			}
			ops = append(ops, op{kind: opRepeat, count: int(n), body: body})
		}
	}

	return ops, nil
}

// number parses a decimal, 0x hex or 0b binary literal no larger than limit.
func number(raw string, limit uint64) (uint64, error) {
	v, err := strconv.ParseUint(raw, 0, 64)
	if err != nil {
		return 0, err
	}
	if v > limit {
		return 0, fmt.Errorf("%s exceeds %d", raw, limit)
	}

	return v, nil
}

// Bus executes the script on a new I2CBus.
func (s *Script) Bus() (*I2CBus, error) {
	bus, err := NewI2CBus(s.SDA, s.SCL, s.HalfPeriod)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidScript, err)
	}
	run(bus, s.ops)

	if err := bus.Err(); err != nil {
		return nil, err
	}

	return bus, nil
}

// Build executes the script and returns the capture, compact unless the
// script asks for the expanded form.
func (s *Script) Build() (*capture.Buffer, error) {
	bus, err := s.Bus()
	if err != nil {
		return nil, err
	}

	opts := []capture.Option{capture.WithRate(s.Rate), capture.WithTrigger(s.Trigger)}
	if s.Expanded {
		return bus.Expanded(opts...)
	}

	return bus.Compact(opts...)
}

func run(bus *I2CBus, ops []op) {
	for _, o := range ops {
		switch o.kind {
		case opIdle:
			bus.Idle(o.ticks)
		case opStart:
			bus.Start()
		case opRestart:
			bus.RepeatedStart()
		case opStop:
			bus.Stop()
		case opByte:
			bus.SendByte(o.value, o.ack)
		case opGlitch:
			bus.Glitch()
		case opRepeat:
			for range o.count {
				run(bus, o.body)
			}
		}
	}
}
