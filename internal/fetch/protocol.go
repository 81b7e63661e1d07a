// Package fetch implements the inquirer pool: given a captured
// announce, it opens a TCP connection to the peer and retrieves the
// torrent's metadata dictionary using the BEP-9 extension over a
// BEP-10 extended handshake.
package fetch

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"net"
	"strconv"
	"time"

	bencode "github.com/jackpal/bencode-go"

	"dhtcrawl/internal/node"
)

const (
	protocolName = "BitTorrent protocol"

	// pieceSize is the fixed chunk size BEP-9 splits metadata into.
	pieceSize = 16 * 1024

	// extMessageID is the BitTorrent message id reserved for the
	// extension protocol (BEP-10); extHandshakeID is the extended
	// message id reserved for the extended handshake itself.
	extMessageID   = 20
	extHandshakeID = 0

	// maxMetadataSize bounds how much a peer can make us buffer for a
	// single torrent's metadata dictionary. Real torrent info
	// dictionaries are at most a few hundred KB; anything claiming
	// more is not worth the risk of a misbehaving peer.
	maxMetadataSize = 10 << 20

	handshakeRecvSize = 4096
)

// reservedBytes sets bit 20 (extension protocol, BEP-10) and bit 0
// (LTEP/fast-extension advertisement) of the handshake reserved field.
var reservedBytes = [8]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x01}

func randomPeerID() ([20]byte, error) {
	var id [20]byte
	copy(id[:], "-LT0100-")
	if _, err := rand.Read(id[8:]); err != nil {
		return id, err
	}
	return id, nil
}

func sendHandshake(conn net.Conn, infoHash node.ID, peerID [20]byte) error {
	var buf bytes.Buffer
	buf.WriteByte(byte(len(protocolName)))
	buf.WriteString(protocolName)
	buf.Write(reservedBytes[:])
	buf.Write(infoHash[:])
	buf.Write(peerID[:])
	_, err := conn.Write(buf.Bytes())
	return err
}

// recvHandshake reads the peer's handshake in a single read (the
// handshake is a fixed 68-byte message, well under any MTU) and
// validates the protocol string and infohash against what we sent.
func recvHandshake(conn net.Conn, infoHash node.ID) error {
	buf := make([]byte, handshakeRecvSize)
	n, err := conn.Read(buf)
	if err != nil {
		return err
	}
	buf = buf[:n]

	if len(buf) < 1 || buf[0] != byte(len(protocolName)) {
		return errors.New("fetch: bad handshake length byte")
	}
	buf = buf[1:]

	if len(buf) < len(protocolName) || string(buf[:len(protocolName)]) != protocolName {
		return errors.New("fetch: unexpected handshake protocol string")
	}
	buf = buf[len(protocolName):]

	if len(buf) < 8 {
		return errors.New("fetch: short handshake, missing reserved bytes")
	}
	buf = buf[8:]

	if len(buf) < node.IDLen || !bytes.Equal(buf[:node.IDLen], infoHash[:]) {
		return errors.New("fetch: infohash mismatch in handshake")
	}
	return nil
}

func sendExtMessage(conn net.Conn, extID byte, payload []byte) error {
	body := make([]byte, 0, 2+len(payload))
	body = append(body, extMessageID, extID)
	body = append(body, payload...)

	var out bytes.Buffer
	if err := binary.Write(&out, binary.BigEndian, uint32(len(body))); err != nil {
		return err
	}
	out.Write(body)
	_, err := conn.Write(out.Bytes())
	return err
}

func sendExtHandshake(conn net.Conn) error {
	var payload bytes.Buffer
	if err := bencode.Marshal(&payload, map[string]interface{}{
		"m": map[string]interface{}{"ut_metadata": 1},
	}); err != nil {
		return err
	}
	return sendExtMessage(conn, extHandshakeID, payload.Bytes())
}

func requestPiece(conn net.Conn, utMetadata byte, piece int) error {
	var payload bytes.Buffer
	if err := bencode.Marshal(&payload, map[string]interface{}{
		"msg_type": 0,
		"piece":    piece,
	}); err != nil {
		return err
	}
	return sendExtMessage(conn, utMetadata, payload.Bytes())
}

// recvExtHandshake reads the peer's extended handshake and pulls out
// the ut_metadata extension id and the advertised metadata_size using
// substring search rather than a full bencode parse, since the
// dictionary is free to carry extension keys we don't understand.
func recvExtHandshake(conn net.Conn) (utMetadata byte, metadataSize int, err error) {
	buf := make([]byte, handshakeRecvSize)
	n, err := conn.Read(buf)
	if err != nil {
		return 0, 0, err
	}
	buf = buf[:n]

	utMetadata, ok := extractUTMetadata(buf)
	if !ok {
		return 0, 0, errors.New("fetch: peer did not advertise ut_metadata")
	}
	metadataSize, ok = extractMetadataSize(buf)
	if !ok {
		return 0, 0, errors.New("fetch: peer did not advertise metadata_size")
	}
	if metadataSize > maxMetadataSize {
		return 0, 0, errors.New("fetch: peer advertised an implausible metadata_size")
	}
	return utMetadata, metadataSize, nil
}

// extractUTMetadata finds the digit run that immediately follows the
// ASCII substring "ut_metadata" plus one separator byte (the bencode
// length/colon or dictionary-value marker preceding the integer).
func extractUTMetadata(data []byte) (byte, bool) {
	const marker = "ut_metadata"
	idx := bytes.Index(data, []byte(marker))
	if idx < 0 {
		return 0, false
	}
	start := idx + len(marker) + 1
	end := start
	for end < len(data) && data[end] >= '0' && data[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	v, err := strconv.Atoi(string(data[start:end]))
	if err != nil || v < 0 || v > 255 {
		return 0, false
	}
	return byte(v), true
}

// extractMetadataSize finds the integer between "metadata_size"+1 and
// the next 'e' byte (the bencode integer terminator).
func extractMetadataSize(data []byte) (int, bool) {
	const marker = "metadata_size"
	idx := bytes.Index(data, []byte(marker))
	if idx < 0 {
		return 0, false
	}
	start := idx + len(marker) + 1
	if start > len(data) {
		return 0, false
	}
	rest := data[start:]
	end := bytes.IndexByte(rest, 'e')
	if end < 0 {
		return 0, false
	}
	v, err := strconv.Atoi(string(rest[:end]))
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// numPieces returns how many 16 KiB BEP-9 pieces cover a metadata
// dictionary of the given size.
func numPieces(size int) int {
	if size <= 0 {
		return 0
	}
	return (size + pieceSize - 1) / pieceSize
}

// recvAll implements the "drain-until-idle" read used for piece
// responses: peers are free to fragment a metadata piece across
// multiple TCP segments, and without implementing full BitTorrent
// message framing there's no reliable way to know a piece message is
// complete except by waiting for the connection to go quiet.
//
// A hard read error that isn't a timeout (a reset or closed
// connection) ends the drain immediately instead of waiting out the
// full quiescence window — the peer has told us as clearly as TCP can
// that nothing more is coming.
func recvAll(conn net.Conn, timeout time.Duration) []byte {
	var out bytes.Buffer
	start := time.Now()
	var lastRead time.Time
	buf := make([]byte, 4096)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		n, err := conn.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
			lastRead = time.Now()
		}
		if err != nil && !isTimeout(err) {
			break
		}

		now := time.Now()
		if !lastRead.IsZero() {
			if now.Sub(lastRead) > timeout {
				break
			}
		} else if now.Sub(start) > 2*timeout {
			break
		}
	}
	return out.Bytes()
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
