package graphics

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// command is the parsed form of a graphics escape-sequence payload
// (spec.md §4.5): the key=value section plus the base64 payload that
// follows the ';' separator, undecoded (decoding happens downstream,
// since its interpretation — raw bytes vs. a file path — depends on the
// transmission medium).
type command struct {
	action rune // a
	quiet  int  // q

	format      Format      // f
	compression Compression // o
	medium      rune        // t
	deleteSpec  rune        // d

	pixW, pixH int // s, v

	srcX, srcY, srcW, srcH int // x, y, w, h

	hasImageID     bool
	imageID        uint32 // i
	hasImageNumber bool
	imageNumber    uint32 // I
	hasPlacementID bool
	placementID    uint32 // p

	cols, rows int // c, r

	hasMore    bool // m key present at all
	more       bool // m=1
	expectSize int64 // S

	virtual         bool // U != 0
	doNotMoveCursor bool // C != 0

	payload []byte // raw bytes after ';', still base64-encoded
}

// parseCommand tokenizes a graphics command payload: a leading 'G'
// sentinel, key=value pairs separated by ',', a ';' ending the
// key-value section, then the base64 payload extending to the end of
// the buffer (spec.md §4.5).
func parseCommand(payload []byte) (*command, error) {
	if len(payload) == 0 || payload[0] != 'G' {
		return nil, newError(CodeEINVAL, "missing graphics command sentinel")
	}
	body := payload[1:]

	kv := body
	var data []byte
	if idx := indexByte(body, ';'); idx >= 0 {
		kv = body[:idx]
		data = body[idx+1:]
	}

	cmd := &command{payload: data}

	if len(kv) == 0 {
		return cmd, nil
	}

	for _, pair := range strings.Split(string(kv), ",") {
		if pair == "" {
			return nil, newError(CodeEINVAL, "empty key=value pair")
		}
		eq := strings.IndexByte(pair, '=')
		if eq <= 0 {
			return nil, newError(CodeEINVAL, fmt.Sprintf("malformed pair %q", pair))
		}
		key := pair[:eq]
		val := pair[eq+1:]
		if len(key) != 1 || val == "" {
			return nil, newError(CodeEINVAL, fmt.Sprintf("malformed pair %q", pair))
		}
		if err := applyKey(cmd, key[0], val); err != nil {
			return nil, err
		}
	}

	return cmd, nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// applyKey assigns one key=value pair onto cmd, per the table in
// spec.md §4.5.
func applyKey(cmd *command, key byte, val string) error {
	switch key {
	case 'X', 'Y', 'z':
		// Silently ignored (spec.md §4.5).
		return nil

	case 'a':
		r, err := singleChar(key, val)
		if err != nil {
			return err
		}
		cmd.action = r
		return nil
	case 't':
		r, err := singleChar(key, val)
		if err != nil {
			return err
		}
		cmd.medium = r
		return nil
	case 'd':
		r, err := singleChar(key, val)
		if err != nil {
			return err
		}
		cmd.deleteSpec = r
		return nil
	case 'o':
		r, err := singleChar(key, val)
		if err != nil {
			return err
		}
		if r != 'z' {
			return newError(CodeEINVAL, "unsupported compression 'o'")
		}
		cmd.compression = CompressionZlib
		return nil

	case 'q':
		n, err := decimalInt(key, val)
		if err != nil {
			return err
		}
		cmd.quiet = n
		return nil
	case 'f':
		n, err := decimalInt(key, val)
		if err != nil {
			return err
		}
		switch n {
		case 0, 24, 32, 100:
			cmd.format = Format(n)
		default:
			return newError(CodeEINVAL, "unsupported format 'f'")
		}
		return nil
	case 's':
		n, err := decimalInt(key, val)
		if err != nil {
			return err
		}
		cmd.pixW = n
		return nil
	case 'v':
		n, err := decimalInt(key, val)
		if err != nil {
			return err
		}
		cmd.pixH = n
		return nil
	case 'x':
		n, err := decimalInt(key, val)
		if err != nil {
			return err
		}
		cmd.srcX = n
		return nil
	case 'y':
		n, err := decimalInt(key, val)
		if err != nil {
			return err
		}
		cmd.srcY = n
		return nil
	case 'w':
		n, err := decimalInt(key, val)
		if err != nil {
			return err
		}
		cmd.srcW = n
		return nil
	case 'h':
		n, err := decimalInt(key, val)
		if err != nil {
			return err
		}
		cmd.srcH = n
		return nil
	case 'i':
		n, err := decimalInt(key, val)
		if err != nil {
			return err
		}
		cmd.hasImageID = true
		cmd.imageID = uint32(n)
		return nil
	case 'I':
		n, err := decimalInt(key, val)
		if err != nil {
			return err
		}
		cmd.hasImageNumber = true
		cmd.imageNumber = uint32(n)
		return nil
	case 'p':
		n, err := decimalInt(key, val)
		if err != nil {
			return err
		}
		cmd.hasPlacementID = true
		cmd.placementID = uint32(n)
		return nil
	case 'c':
		n, err := decimalInt(key, val)
		if err != nil {
			return err
		}
		cmd.cols = n
		return nil
	case 'r':
		n, err := decimalInt(key, val)
		if err != nil {
			return err
		}
		cmd.rows = n
		return nil
	case 'm':
		n, err := decimalInt(key, val)
		if err != nil {
			return err
		}
		cmd.hasMore = true
		cmd.more = n != 0
		return nil
	case 'S':
		n, err := decimalInt(key, val)
		if err != nil {
			return err
		}
		cmd.expectSize = int64(n)
		return nil
	case 'U':
		n, err := decimalInt(key, val)
		if err != nil {
			return err
		}
		cmd.virtual = n != 0
		return nil
	case 'C':
		n, err := decimalInt(key, val)
		if err != nil {
			return err
		}
		cmd.doNotMoveCursor = n != 0
		return nil

	default:
		return newError(CodeEINVAL, fmt.Sprintf("unsupported key %q", string(key)))
	}
}

func singleChar(key byte, val string) (rune, error) {
	if len(val) != 1 {
		return 0, newError(CodeEINVAL, fmt.Sprintf("key %q must be a single character", string(key)))
	}
	return rune(val[0]), nil
}

func decimalInt(key byte, val string) (int, error) {
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, newError(CodeEINVAL, fmt.Sprintf("key %q: not a decimal integer", string(key)))
	}
	return n, nil
}

// decodePayload base64-decodes the command's raw payload bytes.
func decodePayload(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	out, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return nil, newError(CodeEINVAL, "malformed base64 payload")
	}
	return out, nil
}
