// Package bundle implements the portable, authenticated serialization of a
// compiled *compiler.Program: a canonical binary payload plus an
// HMAC-SHA256 tag, so a program can be distributed and re-executed later
// without re-parsing or re-compiling its source.
package bundle

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/mna/glint/lang/compiler"
	"github.com/mna/glint/lang/langerr"
	"github.com/mna/glint/lang/value"
)

// constant-pool kind tags, stable across versions since they are persisted.
const (
	tagInt byte = iota
	tagDouble
	tagBool
	tagString
	tagNull
	tagName
)

// Encode serializes p to its canonical payload: a length-prefixed binary
// encoding where every count is a uvarint, every fixed-width integer field
// is big-endian, and every string is a uvarint length followed by raw bytes. Two encoder runs over
// equal programs always produce byte-identical output; no floating-point
// text-formatting ambiguity can creep in, since floats are stored as their
// raw bit pattern via math.Float64bits.
func Encode(p *compiler.Program) []byte {
	var buf bytes.Buffer
	writeUvarint(&buf, uint64(len(p.Chunks)))
	for _, ch := range p.Chunks {
		encodeChunk(&buf, ch)
	}
	writeUvarint(&buf, uint64(len(p.Functions)))
	for _, fn := range p.Functions {
		encodeFunctionRef(&buf, fn)
	}
	return buf.Bytes()
}

func encodeChunk(buf *bytes.Buffer, ch *compiler.Chunk) {
	writeUvarint(buf, uint64(len(ch.Constants)))
	for _, c := range ch.Constants {
		encodeConstant(buf, c)
	}
	writeUvarint(buf, uint64(len(ch.Code)))
	for _, instr := range ch.Code {
		buf.WriteByte(byte(instr.Op))
		writeInt32(buf, instr.A)
		writeInt32(buf, instr.B)
	}
	writeUvarint(buf, uint64(len(ch.DebugLines)))
	for _, line := range ch.DebugLines {
		writeUint32(buf, line)
	}
}

func encodeFunctionRef(buf *bytes.Buffer, fn *value.FunctionRef) {
	writeString(buf, fn.Name)
	writeInt32(buf, int32(fn.Arity))
	writeInt32(buf, int32(fn.ChunkIndex))
	writeInt32(buf, int32(fn.Locals))
}

func encodeConstant(buf *bytes.Buffer, c value.Constant) {
	switch v := c.ToValue().(type) {
	case value.Int:
		buf.WriteByte(tagInt)
		writeInt64(buf, int64(v))
		return
	case value.Double:
		buf.WriteByte(tagDouble)
		writeUint64(buf, math.Float64bits(float64(v)))
		return
	case value.Bool:
		buf.WriteByte(tagBool)
		if v {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		return
	case value.NullType:
		buf.WriteByte(tagNull)
		return
	}
	// String and Name both carry a string payload; Name is distinguished by
	// its own tag so the decoder can reconstruct IsName().
	if c.IsName() {
		buf.WriteByte(tagName)
		writeString(buf, c.NameValue())
		return
	}
	buf.WriteByte(tagString)
	writeString(buf, c.ToValue().(value.String).String())
}

// Decode parses a canonical payload produced by Encode back into a Program.
func Decode(data []byte) (*compiler.Program, error) {
	r := &reader{data: data}
	nchunks, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	chunks := make([]*compiler.Chunk, nchunks)
	for i := range chunks {
		ch, err := decodeChunk(r)
		if err != nil {
			return nil, err
		}
		chunks[i] = ch
	}

	nfuncs, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	funcs := make([]*value.FunctionRef, nfuncs)
	for i := range funcs {
		fn, err := decodeFunctionRef(r)
		if err != nil {
			return nil, err
		}
		funcs[i] = fn
	}

	if r.remaining() != 0 {
		return nil, fmt.Errorf("bundle: %d trailing byte(s) after program payload", r.remaining())
	}
	return &compiler.Program{Chunks: chunks, Functions: funcs}, nil
}

func decodeChunk(r *reader) (*compiler.Chunk, error) {
	nconst, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	consts := make([]value.Constant, nconst)
	for i := range consts {
		c, err := decodeConstant(r)
		if err != nil {
			return nil, err
		}
		consts[i] = c
	}

	ncode, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	code := make([]compiler.Instruction, ncode)
	for i := range code {
		op, err := r.byte()
		if err != nil {
			return nil, err
		}
		a, err := r.int32()
		if err != nil {
			return nil, err
		}
		b, err := r.int32()
		if err != nil {
			return nil, err
		}
		code[i] = compiler.Instruction{Op: compiler.Opcode(op), A: a, B: b}
	}

	nlines, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	lines := make([]uint32, nlines)
	for i := range lines {
		v, err := r.uint32()
		if err != nil {
			return nil, err
		}
		lines[i] = v
	}

	return &compiler.Chunk{Constants: consts, Code: code, DebugLines: lines}, nil
}

func decodeConstant(r *reader) (value.Constant, error) {
	tag, err := r.byte()
	if err != nil {
		return value.Constant{}, err
	}
	switch tag {
	case tagInt:
		i, err := r.int64()
		if err != nil {
			return value.Constant{}, err
		}
		return value.ConstInt(i), nil
	case tagDouble:
		bits, err := r.uint64()
		if err != nil {
			return value.Constant{}, err
		}
		return value.ConstDouble(math.Float64frombits(bits)), nil
	case tagBool:
		b, err := r.byte()
		if err != nil {
			return value.Constant{}, err
		}
		return value.ConstBool(b != 0), nil
	case tagString:
		s, err := r.string()
		if err != nil {
			return value.Constant{}, err
		}
		return value.ConstString(s), nil
	case tagNull:
		return value.ConstNull(), nil
	case tagName:
		s, err := r.string()
		if err != nil {
			return value.Constant{}, err
		}
		return value.ConstName(s), nil
	}
	return value.Constant{}, fmt.Errorf("bundle: unknown constant tag %d", tag)
}

func decodeFunctionRef(r *reader) (*value.FunctionRef, error) {
	name, err := r.string()
	if err != nil {
		return nil, err
	}
	arity, err := r.int32()
	if err != nil {
		return nil, err
	}
	chunkIx, err := r.int32()
	if err != nil {
		return nil, err
	}
	locals, err := r.int32()
	if err != nil {
		return nil, err
	}
	return &value.FunctionRef{Name: name, Arity: int(arity), ChunkIndex: int(chunkIx), Locals: int(locals)}, nil
}

// Write encodes p and wraps it with an authentication tag, producing the
// bundle's on-disk bytes. If key is empty, the signature is the empty byte
// string and no verification is possible on read.
func Write(p *compiler.Program, key []byte) []byte {
	payload := Encode(p)
	sig := tag(payload, key)

	var buf bytes.Buffer
	writeBytesField(&buf, payload)
	writeBytesField(&buf, sig)
	return buf.Bytes()
}

// Read decodes bundle bytes produced by Write. If key is non-empty, the
// decoded program is re-serialized and the recomputed tag is compared in
// constant time against the stored signature; a mismatch fails with
// InvalidBundleSignature. If key is empty, the signature is ignored.
func Read(data []byte, key []byte) (*compiler.Program, error) {
	r := &reader{data: data}
	payload, err := r.bytesField()
	if err != nil {
		return nil, err
	}
	sig, err := r.bytesField()
	if err != nil {
		return nil, err
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("bundle: %d trailing byte(s) after envelope", r.remaining())
	}

	p, err := Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("bundle: %w", err)
	}

	if len(key) > 0 {
		recomputed := tag(Encode(p), key)
		if !hmac.Equal(recomputed, sig) {
			return nil, &langerr.RuntimeError{Kind: langerr.InvalidBundleSignature, Message: "signature does not match"}
		}
	}
	return p, nil
}

func tag(payload, key []byte) []byte {
	if len(key) == 0 {
		return nil
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(payload)
	return mac.Sum(nil)
}

// --- low-level write helpers ---

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func writeInt32(buf *bytes.Buffer, v int32) { writeUint32(buf, uint32(v)) }

func writeUint32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeInt64(buf *bytes.Buffer, v int64) { writeUint64(buf, uint64(v)) }

func writeUint64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

func writeBytesField(buf *bytes.Buffer, b []byte) {
	writeUvarint(buf, uint64(len(b)))
	buf.Write(b)
}

// --- low-level read helpers ---

type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int { return len(r.data) - r.pos }

func (r *reader) byte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, io.ErrUnexpectedEOF
	}
	r.pos += n
	return v, nil
}

func (r *reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) int32() (int32, error) {
	v, err := r.uint32()
	return int32(v), err
}

func (r *reader) uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *reader) int64() (int64, error) {
	v, err := r.uint64()
	return int64(v), err
}

func (r *reader) string() (string, error) {
	n, err := r.uvarint()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) bytesField() ([]byte, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	return r.take(int(n))
}
