package transcript

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"io"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/transform"

	"github.com/sells-group/wolf-eval/internal/model"
)

// gzipMagic prefixes every gzip stream.
var gzipMagic = []byte{0x1f, 0x8b}

// maxLineSize caps how much of one line is kept. Longer lines are consumed
// and ignored.
const maxLineSize = 10 << 20

// dropInvalidUTF8 removes byte sequences that are not valid UTF-8 and passes
// everything else through unchanged, including an encoded U+FFFD.
type dropInvalidUTF8 struct{ transform.NopResetter }

func (dropInvalidUTF8) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if c := src[nSrc]; c < utf8.RuneSelf {
			if nDst >= len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = c
			nDst++
			nSrc++
			continue
		}
		if !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size == 1 {
			nSrc++
			continue
		}
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		copy(dst[nDst:], src[nSrc:nSrc+size])
		nDst += size
		nSrc += size
	}
	return nDst, nSrc, nil
}

// readLine returns the next line without its terminator. ok is false when
// the line was longer than maxLineSize; its bytes are consumed but dropped.
// io.EOF is returned only when no line remains.
func readLine(br *bufio.Reader) (line []byte, ok bool, err error) {
	ok = true
	started := false
	for {
		frag, isPrefix, rerr := br.ReadLine()
		if rerr != nil {
			if rerr == io.EOF && started {
				return line, ok, nil
			}
			return nil, false, rerr
		}
		started = true
		if ok {
			if len(line)+len(frag) > maxLineSize {
				ok, line = false, nil
			} else {
				line = append(line, frag...)
			}
		}
		if !isPrefix {
			return line, ok, nil
		}
	}
}

// Parse reads at most maxLines lines from r and builds a game record. A
// maxLines of zero or less reads the whole stream. It returns a nil record
// when the transcript yields no roles or no utterances. The error is non-nil
// only when reading r fails; malformed lines are skipped.
func Parse(id string, r io.Reader, maxLines int) (*model.GameRecord, error) {
	roles := make(map[int]string)
	names := make(map[int]string)
	var utterances []model.Utterance

	br := bufio.NewReaderSize(transform.NewReader(r, dropInvalidUTF8{}), 64*1024)

	lines, ignored, overlong := 0, 0, 0
	for maxLines <= 0 || lines < maxLines {
		raw, ok, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "transcript: read %s", id)
		}
		lines++
		if !ok {
			overlong++
			ignored++
			continue
		}

		line := ParseLine(string(raw))
		switch line.Kind {
		case LineStatus:
			roles[line.Agent] = line.Role
			names[line.Agent] = line.Name
		case LineTalk:
			utterances = append(utterances, line.Utterance())
		default:
			ignored++
		}
	}
	if overlong > 0 {
		zap.L().Warn("transcript: skipped overlong lines",
			zap.String("game_id", id),
			zap.Int("lines", overlong),
		)
	}

	if len(roles) == 0 || len(utterances) == 0 {
		zap.L().Debug("transcript: no record",
			zap.String("game_id", id),
			zap.Int("lines", lines),
			zap.Int("roles", len(roles)),
			zap.Int("utterances", len(utterances)),
		)
		return nil, nil
	}

	zap.L().Debug("transcript: parsed",
		zap.String("game_id", id),
		zap.Int("lines", lines),
		zap.Int("ignored", ignored),
		zap.Int("agents", len(roles)),
		zap.Int("utterances", len(utterances)),
	)

	return &model.GameRecord{
		ID:         id,
		Roles:      roles,
		Names:      names,
		Utterances: utterances,
	}, nil
}

// ParseBytes parses a raw log entry, transparently decompressing it when it
// is gzip-encoded.
func ParseBytes(id string, raw []byte, maxLines int) (*model.GameRecord, error) {
	if !bytes.HasPrefix(raw, gzipMagic) {
		return Parse(id, bytes.NewReader(raw), maxLines)
	}

	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, eris.Wrapf(err, "transcript: gunzip %s", id)
	}
	defer zr.Close() //nolint:errcheck

	return Parse(id, zr, maxLines)
}
