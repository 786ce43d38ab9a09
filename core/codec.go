package core

import (
	"bytes"
	"encoding/binary"

	"github.com/tolelom/drawchain/crypto"
)

// writeUint64 appends v as 8 big-endian bytes. All integer fields in the
// canonical encoding are fixed-width so two implementations agree on byte
// offsets without a varint decoder.
func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

// writeLP appends data prefixed with its 4-byte big-endian length, so
// variable-length fields (keys, signatures) can't be confused with the
// fields that follow them.
func writeLP(buf *bytes.Buffer, data []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf.Write(lenBuf[:])
	buf.Write(data)
}

// transactionSigningPayload is the canonical encoding of the fields a
// transaction's signature covers: (from, to, amount, timeslot).
func transactionSigningPayload(from, to crypto.PublicKey, amount, timeslot uint64) []byte {
	var buf bytes.Buffer
	writeLP(&buf, from.DER())
	writeLP(&buf, to.DER())
	writeUint64(&buf, amount)
	writeUint64(&buf, timeslot)
	return buf.Bytes()
}

// drawSigningPayload is the canonical encoding of the fields a draw's
// signature covers: (timeslot, signed_by, prev_hash).
func drawSigningPayload(timeslot uint64, signedBy crypto.PublicKey, prevHash [32]byte) []byte {
	var buf bytes.Buffer
	writeUint64(&buf, timeslot)
	writeLP(&buf, signedBy.DER())
	buf.Write(prevHash[:])
	return buf.Bytes()
}

// blockSigningPayload is the canonical encoding of every block field
// except signature and hash: (timeslot, prev_hash, depth, producer,
// transactions, draw). This is what the producer's signature covers and
// what the block hash is taken over.
func blockSigningPayload(timeslot uint64, prevHash [32]byte, depth uint64, producer crypto.PublicKey, txs []*Transaction, draw *Draw) []byte {
	var buf bytes.Buffer
	writeUint64(&buf, timeslot)
	buf.Write(prevHash[:])
	writeUint64(&buf, depth)
	writeLP(&buf, producer.DER())
	writeUint64(&buf, uint64(len(txs)))
	for _, tx := range txs {
		writeLP(&buf, tx.Hash())
	}
	writeLP(&buf, draw.encode())
	return buf.Bytes()
}
