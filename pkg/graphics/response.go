package graphics

import "strings"

const (
	wireESC = "\x1b_G"
	wireST  = "\x1b\\"
)

// PlaceholderCreation is the record populated after a successful
// non-virtual put (spec.md §6): the emulator uses it to synthesize
// placeholder glyphs in the terminal's cell buffer.
type PlaceholderCreation struct {
	ImageID         uint32
	PlacementID     uint32
	Columns         int
	Rows            int
	DoNotMoveCursor bool
}

// Result is the single structured value a command's response is built
// up through as it passes the parser, dispatcher, and upload-finalizer
// (spec.md §9 design note: unify per-command responses via one value).
type Result struct {
	headers  []string
	message  string
	quiet    int
	discard  bool // no response at all, regardless of quiet (e.g. intermediate chunk)
	Placeholder *PlaceholderCreation
}

// withHeaders records the wire headers a response should echo: i=, I=,
// p=, in that order, limited to whichever the caller's command actually
// supplied (spec.md §6).
func (r *Result) withHeaders(cmd *command) *Result {
	if cmd == nil {
		return r
	}
	r.quiet = cmd.quiet
	if cmd.hasImageID {
		r.headers = append(r.headers, formatHeader("i", cmd.imageID))
	}
	if cmd.hasImageNumber {
		r.headers = append(r.headers, formatHeader("I", cmd.imageNumber))
	}
	if cmd.hasPlacementID {
		r.headers = append(r.headers, formatHeader("p", cmd.placementID))
	}
	return r
}

func formatHeader(key string, val uint32) string {
	return key + "=" + uitoa(val)
}

func uitoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// ok marks the result successful.
func (r *Result) ok() *Result {
	r.message = "OK"
	return r
}

// fail marks the result failed, rendering err's wire code and detail.
func (r *Result) fail(err error) *Result {
	r.message = asWireError(err).Message()
	return r
}

// suppress marks the result as producing no wire output at all,
// regardless of quiet level (spec.md §4.4: intermediate chunks of a
// direct transmission report nothing).
func (r *Result) suppress() *Result {
	r.discard = true
	return r
}

// format renders the final wire response, honoring quiet levels: quiet
// >= 1 suppresses OK, quiet >= 2 suppresses everything (spec.md §7).
func (r *Result) format() string {
	if r.discard || r.message == "" {
		return ""
	}
	if r.message == "OK" && r.quiet >= 1 {
		return ""
	}
	if r.message != "OK" && r.quiet >= 2 {
		return ""
	}
	return wireESC + strings.Join(r.headers, ",") + ";" + r.message + wireST
}
